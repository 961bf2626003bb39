package spark

import (
	"reflect"
	"strings"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

func vec3Bytes(x, y, z float32) []byte {
	return app(x, y, z)
}

func sampleModelBytes() []byte {
	return app(ModelMagic,
		chunkBytes(idModelVertices, 1,
			vec3Bytes(1, 2, 3),
			vec3Bytes(0, 0, 1),
			vec3Bytes(1, 0, 0),
			vec3Bytes(0, 1, 0),
			float32(0.5), float32(0.25),
			uint32(0xFF00FF00),
			make([]byte, 32),
		),
		chunkBytes(idModelIndices, 3, 0, 0, 0),
		chunkBytes(idModelFaceSets, 1, 0, 0, 1, 1, uint32(7)),
		chunkBytes(idModelMaterials, 1, narrow("models/a.material")),
		chunkBytes(idModelBoundingBox, vec3Bytes(0, 0, 0), vec3Bytes(1, 1, 1)),
	)
}

func TestDecodeModel(t *testing.T) {
	m, warn, err := DecodeModel(sampleModelBytes())
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	expected := &sparkclip.Model{
		Vertices: []sparkclip.ModelVertex{{
			Pos:       vec3.T{1, 2, 3},
			Normal:    vec3.T{0, 0, 1},
			Tangent:   vec3.T{1, 0, 0},
			Bitangent: vec3.T{0, 1, 0},
			UV:        vec2.T{0.5, 0.25},
			Color:     0xFF00FF00,
		}},
		Indices:   []uint32{0, 0, 0},
		FaceSets:  []sparkclip.FaceSet{{Material: 0, FirstFace: 0, FaceCount: 1, Bones: 1}},
		Materials: []string{"models/a.material"},
		Bounds:    sparkclip.BoundingBox{Extents: vec3.T{1, 1, 1}},
	}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("unexpected model\nexpected: %+v\ngot:      %+v", expected, m)
	}
}

func TestDecodeModelChunkOrder(t *testing.T) {
	// Chunks may appear in any order.
	b := sampleModelBytes()
	body := NewReader(b[len(ModelMagic):])
	var chunks [][]byte
	for !body.Done() {
		var c Chunk
		if body.Chunk(&c) {
			t.Fatal(body.Err())
		}
		chunks = append(chunks, chunkBytes(c.ID, c.Payload))
	}
	reordered := app(ModelMagic, chunks[4], chunks[2], chunks[0], chunks[3], chunks[1])
	m, _, err := DecodeModel(reordered)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 1 || len(m.Indices) != 3 {
		t.Errorf("unexpected model %+v", m)
	}
}

func TestDecodeModelErrors(t *testing.T) {
	full := sampleModelBytes()
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"short magic", []byte("MD"), errors.ErrTruncatedStream},
		{"bad magic", app("MDL\x06", full[4:]), errors.ErrMalformedHeader},
		{"missing", app(ModelMagic, chunkBytes(1, 0), chunkBytes(2, 0), chunkBytes(3, 0), chunkBytes(4, 0)), errors.ErrMissingChunk},
		{"duplicate", app(full, chunkBytes(idModelIndices, 0)), errors.ErrDuplicateChunk},
		{"truncated", full[:len(full)-4], errors.ErrTruncatedStream},
		{"bones", app(ModelMagic,
			chunkBytes(idModelVertices, 0),
			chunkBytes(idModelIndices, 0),
			chunkBytes(idModelFaceSets, 1, 0, 0, 1, uint32(1000)),
			chunkBytes(idModelMaterials, 0),
			chunkBytes(idModelBoundingBox, vec3Bytes(0, 0, 0), vec3Bytes(0, 0, 0)),
		), errors.ErrTruncatedStream},
	}
	for _, test := range tests {
		_, _, err := DecodeModel(test.data)
		if !errors.Is(err, test.target) {
			t.Errorf("%s: expected %v, got %v", test.name, test.target, err)
		}
	}
}

func TestDecodeModelUnknownChunk(t *testing.T) {
	_, warn, err := DecodeModel(app(sampleModelBytes(), chunkBytes(30, "skin")))
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(warn, errors.ErrUnknownChunk) {
		t.Errorf("expected unknown chunk warning, got %v", warn)
	}
}

func TestModelRoundTrip(t *testing.T) {
	m, _, err := DecodeModel(sampleModelBytes())
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeModel(m)
	if err != nil {
		t.Fatal(err)
	}
	dm, _, err := DecodeModel(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, dm) {
		t.Errorf("round trip mismatch\nexpected: %+v\ngot:      %+v", m, dm)
	}
}

func TestDumpModel(t *testing.T) {
	var buf strings.Builder
	if _, err := Dump(&buf, sampleModelBytes()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"models/a.material"`) {
		t.Errorf("unexpected dump:\n%s", buf.String())
	}
}
