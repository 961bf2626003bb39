package spark

import (
	"reflect"
	"strings"
	"testing"

	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

func propChunk(name string, typ uint32, components ...float32) []byte {
	args := []interface{}{wide(name), typ, uint32(len(components)), uint32(0)}
	for _, c := range components {
		args = append(args, c)
	}
	return chunkBytes(idProperty, args...)
}

func stringPropChunk(name, value string) []byte {
	return chunkBytes(idProperty, wide(name), uint32(4), uint32(1), uint32(0), wide(value))
}

func entityChunk(class string, props ...[]byte) []byte {
	args := []interface{}{uint32(1), uint32(0), wide(class)}
	for _, p := range props {
		args = append(args, p)
	}
	return chunkBytes(idEntity, args...)
}

func staticPropChunks() [][]byte {
	return [][]byte{
		propChunk("origin", 9, 1, 2, 3),
		propChunk("angles", 7, 0, 1.5, 0),
		propChunk("scale", 2, 2, 2, 2),
		stringPropChunk("model", "models/props/crate.model"),
		propChunk("light_scale", 1, 1),
		propChunk("cast_shadows", 3, 1),
		propChunk("commanderInvisible", 3, 0),
		propChunk("onMinimap", 3, 0),
		stringPropChunk("name", "crate01"),
		propChunk("simulation", 1, 0),
	}
}

func TestDecodeLevelLightEntity(t *testing.T) {
	b := chunkBytes(idEntityData, uint16(1), entityChunk("light",
		propChunk("origin", 9, 0, 0, 0),
		propChunk("color", 2, 1, 1, 1),
		propChunk("intensity", 1, 5),
	))
	l, warn, err := DecodeLevel(b)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	if len(l.Props) != 0 {
		t.Errorf("expected no props, got %d", len(l.Props))
	}
	if l.Geometry != nil {
		t.Errorf("expected no geometry")
	}
}

func TestDecodeLevelHugeClassName(t *testing.T) {
	b := chunkBytes(idEntityData, uint16(1), chunkBytes(idEntity, uint32(1), uint32(0), uint32(0xFFFFFFF0), "ab"))
	if _, _, err := DecodeLevel(b); !errors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected truncated stream, got %v", err)
	}
}

func TestDecodeLevelStaticProp(t *testing.T) {
	b := app(
		chunkBytes(1, uint16(2), chunkBytes(1, 0)),
		chunkBytes(idEntityData, uint16(1),
			entityChunk("light", propChunk("origin", 9, 0, 0, 0)),
			entityChunk("prop_static", staticPropChunks()...),
		),
	)
	l, warn, err := DecodeLevel(b)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	if l.Geometry == nil {
		t.Fatal("expected geometry")
	}
	if len(l.Props) != 1 {
		t.Fatalf("expected 1 prop, got %d", len(l.Props))
	}
	p := l.Props[0]
	if p.Origin != (vec3.T{1, 2, 3}) || p.Angles != (vec3.T{0, 1.5, 0}) || p.Scale != (vec3.T{2, 2, 2}) {
		t.Errorf("unexpected transform %v %v %v", p.Origin, p.Angles, p.Scale)
	}
	if p.Model != "models/props/crate.model" {
		t.Errorf("unexpected model %q", p.Model)
	}
	if p.Layer != 1 {
		t.Errorf("expected layer 1, got %d", p.Layer)
	}
	if len(p.Extra) != 6 || p.Extra[4].Text != "crate01" {
		t.Errorf("unexpected extra properties %+v", p.Extra)
	}
}

func TestDecodeLevelFirstEntityData(t *testing.T) {
	b := app(
		chunkBytes(idEntityData, uint16(1)),
		chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", staticPropChunks()...)),
	)
	l, warn, err := DecodeLevel(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Props) != 0 {
		t.Errorf("expected only the first entity data to be read, got %d props", len(l.Props))
	}
	if !errors.Is(warn, errors.ErrUnknownChunk) {
		t.Errorf("expected warning for second entity data, got %v", warn)
	}
}

func TestDecodeLevelPropertyShape(t *testing.T) {
	props := staticPropChunks()
	props[0] = propChunk("origin", 2, 1, 2, 3)
	_, _, err := DecodeLevel(chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", props...)))
	if !errors.Is(err, errors.ErrInvalidPropertyShape) {
		t.Errorf("expected invalid property shape for wrong type, got %v", err)
	}

	props = staticPropChunks()
	props[2] = propChunk("scale", 2, 2, 2)
	_, _, err = DecodeLevel(chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", props...)))
	if !errors.Is(err, errors.ErrInvalidPropertyShape) {
		t.Errorf("expected invalid property shape for wrong count, got %v", err)
	}

	props = staticPropChunks()
	props[3] = chunkBytes(idProperty, wide("model"), uint32(4), uint32(2), uint32(0), wide("a"))
	_, _, err = DecodeLevel(chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", props...)))
	if !errors.Is(err, errors.ErrInvalidPropertyShape) {
		t.Errorf("expected invalid property shape for model count, got %v", err)
	}
}

func TestDecodeLevelPropertyCount(t *testing.T) {
	props := staticPropChunks()
	for _, n := range []int{3, 9} {
		_, _, err := DecodeLevel(chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", props[:n]...)))
		var perr PropertyCountError
		if !errors.As(err, &perr) || perr.Count != n {
			t.Errorf("expected property count error for %d properties, got %v", n, err)
		}
	}
	_, _, err := DecodeLevel(chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", append(props, propChunk("extra", 1, 0))...)))
	if !errors.Is(err, errors.ErrInvalidPropertyShape) {
		t.Errorf("expected invalid property shape for 11 properties, got %v", err)
	}
}

func TestDecodeLevelUnknownSelector(t *testing.T) {
	l, warn, err := DecodeLevel(chunkBytes(9, uint16(7), "data"))
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(warn, errors.ErrUnknownFormatVersion) {
		t.Errorf("expected unknown selector warning, got %v", warn)
	}
	if l.Geometry != nil || len(l.Props) != 0 {
		t.Errorf("expected empty level")
	}
}

func TestLevelRoundTrip(t *testing.T) {
	b := chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", staticPropChunks()...))
	l, _, err := DecodeLevel(b)
	if err != nil {
		t.Fatal(err)
	}
	l.Geometry = sampleGeometry()
	l.Props = append(l.Props, l.Props[0])
	l.Props[1].Origin = vec3.T{-1, -2, -3}

	enc, err := EncodeLevel(l)
	if err != nil {
		t.Fatal(err)
	}
	dl, warn, err := DecodeLevel(enc)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Errorf("unexpected warning: %s", warn)
	}
	if !reflect.DeepEqual(l, dl) {
		t.Errorf("round trip mismatch\nexpected: %+v\ngot:      %+v", l, dl)
	}
}

func TestEncodeLevelPropertyCount(t *testing.T) {
	l := &sparkclip.LevelData{Props: []sparkclip.StaticProp{{Model: "a.model"}}}
	_, err := EncodeLevel(l)
	if !errors.Is(err, errors.ErrInvalidPropertyShape) {
		t.Errorf("expected invalid property shape, got %v", err)
	}
}

func TestDumpLevel(t *testing.T) {
	b := app(
		chunkBytes(1, uint16(2), chunkBytes(4, 1, narrow("materials/x.material"))),
		chunkBytes(idEntityData, uint16(1), entityChunk("prop_static", staticPropChunks()...)),
	)
	var buf strings.Builder
	if _, err := Dump(&buf, b); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{`"materials/x.material"`, `"prop_static"`, `"crate01"`} {
		if !strings.Contains(out, s) {
			t.Errorf("dump does not contain %s:\n%s", s, out)
		}
	}
}
