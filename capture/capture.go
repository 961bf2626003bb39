// The capture package stores clipboard payloads in files, so that they can be
// inspected or replayed away from the editor.
//
// A capture file has the following layout, with integers in little-endian:
//
//	magic       [4]byte  "SPKC"
//	version     uint16   1
//	id          [16]byte UUID of the capture
//	checksum    [32]byte BLAKE2b-256 of the raw payload
//	rawLen      uint32   length of the raw payload
//	storedLen   uint32   length of the compressed payload, or 0 if stored raw
//	payload     [...]byte
//
// A compressed payload is an LZ4 block.
package capture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/anaminus/parse"
	"github.com/bkaradzic/go-lz4"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/sparkclip/sparkclip/errors"
)

// Magic is the signature at the start of every capture file.
const Magic = "SPKC"

// Version is the format version written by Write.
const Version = 1

// MaxPayloadSize is the largest payload length, raw or stored, that Read
// accepts.
const MaxPayloadSize = 1 << 28

// readChunkSize bounds each allocation made while reading a payload, so that
// a declared length is only backed by memory as data actually arrives.
const readChunkSize = 1 << 16

// ErrChecksum indicates that a payload does not match its recorded checksum.
var ErrChecksum = errors.New("capture checksum mismatch")

// Capture is a recorded clipboard payload.
type Capture struct {
	ID uuid.UUID

	// Payload is the raw clipboard content.
	Payload []byte

	// Compressed sets whether the payload is compressed when written. It is
	// set by Read according to the stored form.
	Compressed bool
}

// New returns a compressed capture of payload with a new time-ordered ID.
func New(payload []byte) *Capture {
	return &Capture{
		ID:         uuid.Must(uuid.NewV7()),
		Payload:    payload,
		Compressed: true,
	}
}

// Sum returns the checksum of the capture's payload.
func (c *Capture) Sum() [blake2b.Size256]byte {
	return blake2b.Sum256(c.Payload)
}

// Read decodes a capture from r. The checksum of the payload is verified.
func Read(r io.Reader) (c *Capture, err error) {
	fr := parse.NewBinaryReader(r)

	var magic [len(Magic)]byte
	if fr.Bytes(magic[:]) {
		return nil, readErr(fr.Err())
	}
	if string(magic[:]) != Magic {
		return nil, errors.Wrapf(errors.ErrMalformedHeader, "capture: unexpected signature %q", magic[:])
	}

	var version uint16
	if fr.Number(&version) {
		return nil, readErr(fr.Err())
	}
	if version != Version {
		return nil, errors.Wrapf(errors.ErrUnknownFormatVersion, "capture: version %d", version)
	}

	c = &Capture{}
	var id [16]byte
	var sum [blake2b.Size256]byte
	var rawLen, storedLen uint32
	if fr.Bytes(id[:]) ||
		fr.Bytes(sum[:]) ||
		fr.Number(&rawLen) ||
		fr.Number(&storedLen) {
		return nil, readErr(fr.Err())
	}
	c.ID, _ = uuid.FromBytes(id[:])
	if rawLen > MaxPayloadSize || storedLen > MaxPayloadSize {
		return nil, errors.Wrapf(errors.ErrMalformedHeader, "capture: payload length %d/%d exceeds %d", rawLen, storedLen, MaxPayloadSize)
	}

	if storedLen == 0 {
		if c.Payload, err = readPayload(fr, 0, rawLen); err != nil {
			return nil, err
		}
	} else {
		c.Compressed = true

		// lz4 expects the raw length before the block.
		compressed, err := readPayload(fr, 4, storedLen)
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(compressed, rawLen)
		payload, err := lz4.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("capture: lz4: %w", err)
		}
		if len(payload) != int(rawLen) {
			return nil, errors.Wrapf(errors.ErrMalformedHeader, "capture: payload length %d, expected %d", len(payload), rawLen)
		}
		c.Payload = payload
	}

	if c.Sum() != sum {
		return nil, ErrChecksum
	}
	return c, nil
}

// readPayload reads n bytes after a zeroed prefix of the given length.
func readPayload(fr *parse.BinaryReader, prefix int, n uint32) ([]byte, error) {
	b := make([]byte, prefix, prefix+min(int(n), readChunkSize))
	for remaining := int(n); remaining > 0; {
		k := min(remaining, readChunkSize)
		b = append(b, make([]byte, k)...)
		if fr.Bytes(b[len(b)-k:]) {
			return nil, readErr(fr.Err())
		}
		remaining -= k
	}
	return b, nil
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(errors.ErrTruncatedStream, "capture")
	}
	return errors.Wrap(err, "capture")
}

// Write encodes c to w. An empty payload is always stored raw.
func Write(w io.Writer, c *Capture) (n int64, err error) {
	if len(c.Payload) > MaxPayloadSize {
		return 0, errors.Wrapf(errors.ErrMalformedHeader, "capture: payload length %d exceeds %d", len(c.Payload), MaxPayloadSize)
	}
	stored := []byte(nil)
	if c.Compressed && len(c.Payload) > 0 {
		compressed, err := lz4.Encode(nil, c.Payload)
		if err != nil {
			return 0, fmt.Errorf("capture: lz4: %w", err)
		}
		if binary.LittleEndian.Uint32(compressed[:4]) != uint32(len(c.Payload)) {
			panic("lz4 uncompressed length does not match payload length")
		}
		stored = compressed[4:]
	}

	fw := parse.NewBinaryWriter(w)
	sum := c.Sum()
	if fw.Bytes([]byte(Magic)) ||
		fw.Number(uint16(Version)) ||
		fw.Bytes(c.ID[:]) ||
		fw.Bytes(sum[:]) ||
		fw.Number(uint32(len(c.Payload))) ||
		fw.Number(uint32(len(stored))) {
		return fw.End()
	}
	if stored == nil {
		fw.Bytes(c.Payload)
	} else {
		fw.Bytes(stored)
	}
	return fw.End()
}

// Marshal returns the encoding of c.
func Marshal(c *Capture) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
