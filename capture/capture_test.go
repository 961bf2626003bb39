package capture

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"

	"github.com/sparkclip/sparkclip/errors"
)

func payload() []byte {
	return bytes.Repeat([]byte("geometry chunk "), 40)
}

func TestRoundTrip(t *testing.T) {
	for _, compressed := range []bool{true, false} {
		c := New(payload())
		c.Compressed = compressed
		b, err := Marshal(c)
		if err != nil {
			t.Fatal(err)
		}
		if compressed && len(b) >= len(c.Payload) {
			t.Errorf("expected compressed capture to be smaller than %d, got %d", len(c.Payload), len(b))
		}
		d, err := Read(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("compressed=%t: %s", compressed, err)
		}
		if d.ID != c.ID || d.Compressed != compressed || !bytes.Equal(d.Payload, c.Payload) {
			t.Errorf("compressed=%t: round trip mismatch", compressed)
		}
	}
}

func TestEmptyPayload(t *testing.T) {
	b, err := Marshal(New(nil))
	if err != nil {
		t.Fatal(err)
	}
	c, err := Read(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Payload) != 0 || c.Compressed {
		t.Errorf("unexpected capture %+v", c)
	}
}

func TestHeader(t *testing.T) {
	c := &Capture{ID: uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057"), Payload: []byte("abc")}
	b, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(b[:4]) != Magic || binary.LittleEndian.Uint16(b[4:]) != Version {
		t.Errorf("unexpected header % x", b[:6])
	}
	if !bytes.Equal(b[6:22], c.ID[:]) {
		t.Errorf("unexpected id % x", b[6:22])
	}
	sum := c.Sum()
	if !bytes.Equal(b[22:54], sum[:]) {
		t.Errorf("unexpected checksum % x", b[22:54])
	}
	if binary.LittleEndian.Uint32(b[54:]) != 3 || binary.LittleEndian.Uint32(b[58:]) != 0 {
		t.Errorf("unexpected lengths % x", b[54:62])
	}
	if string(b[62:]) != "abc" {
		t.Errorf("unexpected payload %q", b[62:])
	}
}

func TestReadErrors(t *testing.T) {
	good, err := Marshal(New(payload()))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Marshal(&Capture{Payload: []byte("abc")})
	if err != nil {
		t.Fatal(err)
	}

	badMagic := append([]byte{}, good...)
	copy(badMagic, "SPKX")
	badVersion := append([]byte{}, good...)
	badVersion[4] = 2
	badSum := append([]byte{}, raw...)
	badSum[len(badSum)-1] = 'x'

	// Lengths live at offsets 54 (raw) and 58 (stored).
	lengths := func(rawLen, storedLen uint32) []byte {
		b := append([]byte{}, good[:62]...)
		binary.LittleEndian.PutUint32(b[54:], rawLen)
		binary.LittleEndian.PutUint32(b[58:], storedLen)
		return append(b, "abcdefgh"...)
	}

	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"empty", nil, errors.ErrTruncatedStream},
		{"magic", badMagic, errors.ErrMalformedHeader},
		{"version", badVersion, errors.ErrUnknownFormatVersion},
		{"header", good[:30], errors.ErrTruncatedStream},
		{"payload", raw[:len(raw)-1], errors.ErrTruncatedStream},
		{"checksum", badSum, ErrChecksum},
		{"stored length overflow", lengths(8, 0xFFFFFFFD), errors.ErrMalformedHeader},
		{"raw length limit", lengths(0xFFFFFFF0, 0), errors.ErrMalformedHeader},
		{"raw length short", lengths(MaxPayloadSize, 0), errors.ErrTruncatedStream},
		{"stored length short", lengths(8, MaxPayloadSize), errors.ErrTruncatedStream},
	}
	for _, test := range tests {
		_, err := Read(bytes.NewReader(test.data))
		if !errors.Is(err, test.target) {
			t.Errorf("%s: expected %v, got %v", test.name, test.target, err)
		}
	}
}
