package spark

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

func sampleGeometry() *sparkclip.GeoData {
	return &sparkclip.GeoData{
		Materials: []string{"materials/a.material", "materials/b.material"},
		Vertices: []vec3.T{
			{0, 0, 0}, {4, 0, 0}, {4, 4, 0}, {0, 4, 0},
			{1, 1, 0}, {3, 1, 0}, {3, 3, 0}, {1, 3, 0},
		},
		Edges: []sparkclip.Edge{
			{A: 0, B: 1}, {A: 1, B: 2, Smooth: true}, {A: 2, B: 3}, {A: 3, B: 0},
			{A: 4, B: 5}, {A: 5, B: 6}, {A: 6, B: 7}, {A: 7, B: 4},
		},
		Faces: []sparkclip.Face{
			{
				Angle: 0.5, XOffset: 1, YOffset: 2, XScale: 0.25, YScale: 0.5,
				Mapping:  sparkclip.MappingNone,
				Material: 1,
				Border:   sparkclip.EdgeLoop{{Edge: 0}, {Edge: 1}, {Edge: 2}, {Edge: 3}},
				Inner: []sparkclip.EdgeLoop{
					{{Flipped: true, Edge: 7}, {Flipped: true, Edge: 6}, {Flipped: true, Edge: 5}, {Flipped: true, Edge: 4}},
				},
			},
			{
				XScale: 1, YScale: 1,
				Mapping: 12,
				Border:  sparkclip.EdgeLoop{{Edge: 4}, {Edge: 5}, {Edge: 6}, {Edge: 7}},
			},
		},
		MappingGroups: []sparkclip.MappingGroup{
			{ID: 12, Angle: 1, XScale: 2, YScale: 3, XOffset: 4, YOffset: 5, Normal: vec3.T{0, 0, 1}},
		},
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	g := sampleGeometry()
	b, err := EncodeGeometry(g)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := EncodeGeometry(g)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, b2) {
		t.Error("encoding is not deterministic")
	}
	dg, warn, err := DecodeGeometry(b)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	if !reflect.DeepEqual(g, dg) {
		t.Errorf("round trip mismatch\nexpected: %+v\ngot:      %+v", g, dg)
	}
}

func TestEncodeGeometryLayout(t *testing.T) {
	g := &sparkclip.GeoData{
		Vertices: []vec3.T{{1, 2, 3}},
		Edges:    []sparkclip.Edge{{A: 0, B: 0, Smooth: true}},
		Faces: []sparkclip.Face{{
			XScale: 1, YScale: 1,
			Mapping: sparkclip.MappingNone,
			Border:  sparkclip.EdgeLoop{{Flipped: true, Edge: 0}},
		}},
	}
	b, err := EncodeGeometry(g)
	if err != nil {
		t.Fatal(err)
	}
	expected := chunkBytes(1, uint16(2),
		chunkBytes(4, 1, narrow(sparkclip.DefaultMaterial)),
		chunkBytes(1, 1, float32(1), float32(2), float32(3), uint8(1)),
		chunkBytes(2, 1, 0, 0, uint8(1)),
		chunkBytes(3, 1,
			float32(0), float32(0), float32(0), float32(1), float32(1),
			uint32(0xFFFFFFFF), 0, 0,
			1, 1, 0,
		),
		chunkBytes(6, 1, 2, 0),
		chunkBytes(7, 0),
		chunkBytes(8, 0, 0, 0),
	)
	if !bytes.Equal(b, expected) {
		t.Errorf("unexpected bytes\nexpected: % x\ngot:      % x", expected, b)
	}
}

func TestEncodeGeometryDefaultMaterial(t *testing.T) {
	b, err := EncodeGeometry(&sparkclip.GeoData{})
	if err != nil {
		t.Fatal(err)
	}
	g, _, err := DecodeGeometry(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Materials) != 1 || g.Materials[0] != sparkclip.DefaultMaterial {
		t.Errorf("expected default material, got %q", g.Materials)
	}
}

func TestDecodeGeometryEmpty(t *testing.T) {
	g, warn, err := DecodeGeometry(chunkBytes(1, uint16(2), chunkBytes(1, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	if len(g.Materials) != 0 || len(g.Vertices) != 0 || len(g.Edges) != 0 || len(g.Faces) != 0 || len(g.MappingGroups) != 0 {
		t.Errorf("expected empty geometry, got %+v", g)
	}
}

func TestDecodeGeometryNoSelector(t *testing.T) {
	g, _, err := DecodeGeometry(chunkBytes(1, uint16(1), "not geometry"))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Vertices) != 0 {
		t.Errorf("expected empty geometry, got %+v", g)
	}
}

func TestDecodeGeometryErrors(t *testing.T) {
	vertex := chunkBytes(1, 1, float32(1), float32(2), float32(3), uint8(1))
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"empty", nil, errors.ErrTruncatedStream},
		{"wrong outer id", chunkBytes(2, uint16(2)), errors.ErrMalformedHeader},
		{"duplicate", chunkBytes(1, uint16(2), vertex, vertex), errors.ErrDuplicateChunk},
		{"short vertex", chunkBytes(1, uint16(2), chunkBytes(1, 2, float32(1))), errors.ErrTruncatedStream},
		{"short outer", chunkBytes(1, uint16(2), vertex)[:20], errors.ErrTruncatedStream},
		{"short selector", chunkBytes(1, uint8(2)), errors.ErrTruncatedStream},
	}
	for _, test := range tests {
		_, _, err := DecodeGeometry(test.data)
		if !errors.Is(err, test.target) {
			t.Errorf("%s: expected %v, got %v", test.name, test.target, err)
		}
	}
}

func TestDecodeGeometryDuplicateIndex(t *testing.T) {
	edges := chunkBytes(2, 0)
	_, _, err := DecodeGeometry(chunkBytes(1, uint16(2), edges, chunkBytes(1, 0), edges))
	var cerr ChunkError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected chunk error, got %v", err)
	}
	if cerr.Index != 2 || cerr.ID != idEdges {
		t.Errorf("expected chunk #2 id %d, got #%d id %d", idEdges, cerr.Index, cerr.ID)
	}
}

func TestDecodeGeometryUnknownChunk(t *testing.T) {
	b := chunkBytes(1, uint16(2),
		chunkBytes(99, "future data"),
		chunkBytes(1, 1, float32(1), float32(2), float32(3), uint8(0)),
	)
	g, warn, err := DecodeGeometry(b)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(warn, errors.ErrUnknownChunk) {
		t.Errorf("expected unknown chunk warning, got %v", warn)
	}
	if len(g.Vertices) != 1 || g.Vertices[0] != (vec3.T{1, 2, 3}) {
		t.Errorf("unexpected vertices %v", g.Vertices)
	}

	_, _, err = Decoder{Strict: true}.DecodeGeometry(b)
	if !errors.Is(err, errors.ErrUnknownChunk) {
		t.Errorf("expected unknown chunk error in strict mode, got %v", err)
	}
}

func TestUnknownChunkRetained(t *testing.T) {
	r := NewReader(chunkBytes(1, uint16(2), chunkBytes(99, "future data")))
	var outer Chunk
	if r.Chunk(&outer) {
		t.Fatal(r.Err())
	}
	f, _, err := readGeometry(outer.Reader(), false)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, ch := range f.Chunks {
		if u, ok := ch.(*chunkUnknown); ok {
			found = true
			if u.Kind != 99 || string(u.Bytes) != "future data" {
				t.Errorf("unexpected unknown chunk %d %q", u.Kind, u.Bytes)
			}
		}
	}
	if !found {
		t.Error("expected unknown chunk to be retained")
	}

	failed := NewReader([]byte("data"))
	failed.Fail(errors.ErrTruncatedStream)
	if err := (&chunkUnknown{Kind: 99}).ReadFrom(failed); !errors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected read error to propagate, got %v", err)
	}
}

func TestDecodeGeometryIgnoresFiller(t *testing.T) {
	b := chunkBytes(1, uint16(2),
		chunkBytes(6, 3, 2, 0, 0, 0),
		chunkBytes(6),
		chunkBytes(8, 5, 6, 7, "group data"),
	)
	_, warn, err := DecodeGeometry(b)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
}
