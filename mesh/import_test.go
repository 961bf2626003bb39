package mesh

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
	"github.com/sparkclip/sparkclip/spark"
	"github.com/sparkclip/sparkclip/triangulate"
)

type testSink struct {
	meshes []*ImportedMesh
	props  []*PlacedProp
}

func (s *testSink) AddMesh(m *ImportedMesh) error {
	s.meshes = append(s.meshes, m)
	return nil
}

func (s *testSink) AddProp(p *PlacedProp) error {
	s.props = append(s.props, p)
	return nil
}

type testResolver struct{}

func (testResolver) ResolveMaterial(path string, paths SearchPaths) (Material, error) {
	if path == "materials/missing.material" {
		return Material{}, errors.New("not found")
	}
	return Material{Texture: paths[0] + "tex.dds", Width: 256, Height: 128}, nil
}

type testProjector struct{}

func (testProjector) ProjectUVs(pos []vec3.T, normal vec3.T, s sparkclip.TextureSettings, unitFactor float32, mat Material) []vec2.T {
	uvs := make([]vec2.T, len(pos))
	for i, p := range pos {
		uvs[i] = vec2.T{p[0] * s.XScale, p[1] * s.YScale}
	}
	return uvs
}

// importGeometry returns a level with a square, a collinear triangle, a face
// with a repeated vertex, a face with a bad material, and a square with a
// square hole.
func importGeometry() *sparkclip.GeoData {
	face := func(border ...sparkclip.LoopMember) sparkclip.Face {
		return sparkclip.Face{XScale: 1, YScale: 1, Mapping: sparkclip.MappingNone, Border: border}
	}
	m := func(edge uint32) sparkclip.LoopMember { return sparkclip.LoopMember{Edge: edge} }
	g := &sparkclip.GeoData{
		Materials: []string{"materials/a.material", "materials/missing.material"},
		Vertices: []vec3.T{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {2, 0, 0},
			{0.25, 0.25, 0}, {0.75, 0.25, 0}, {0.75, 0.75, 0}, {0.25, 0.75, 0},
		},
		Edges: []sparkclip.Edge{
			{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 0, Smooth: true},
			{A: 1, B: 4}, {A: 4, B: 0},
			{A: 5, B: 6}, {A: 6, B: 7}, {A: 7, B: 8}, {A: 8, B: 5},
		},
		MappingGroups: []sparkclip.MappingGroup{{ID: 3, XScale: 2, YScale: 2, Normal: vec3.T{0, 0, 1}}},
	}
	square := face(m(0), m(1), m(2), m(3))
	square.Mapping = 3
	collinear := face(m(0), m(4), m(5))
	duplicate := face(m(0), m(1), m(0))
	badMaterial := face(m(0), m(1), m(2), m(3))
	badMaterial.Material = 5
	holed := face(m(0), m(1), m(2), m(3))
	holed.Material = 1
	holed.Inner = []sparkclip.EdgeLoop{{
		{Flipped: true, Edge: 9}, {Flipped: true, Edge: 8}, {Flipped: true, Edge: 7}, {Flipped: true, Edge: 6},
	}}
	g.Faces = []sparkclip.Face{square, collinear, duplicate, badMaterial, holed}
	return g
}

func encodeLevel(t *testing.T, l *sparkclip.LevelData) []byte {
	t.Helper()
	b, err := spark.EncodeLevel(l)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestImportGeometry(t *testing.T) {
	imp := &Importer{
		Options:   ImportOptions{ImportTextures: true, SearchPaths: []string{t.TempDir()}},
		Resolver:  testResolver{},
		Projector: testProjector{},
	}
	var sink testSink
	warn, err := imp.Import(encodeLevel(t, &sparkclip.LevelData{Geometry: importGeometry()}), &sink)
	if err != nil {
		t.Fatal(err)
	}
	if len(sink.meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(sink.meshes))
	}
	m := sink.meshes[0]

	skipped := map[int]error{}
	var matErr MaterialError
	for _, w := range errors.List(warn) {
		var ferr FaceError
		switch {
		case errors.As(w, &ferr):
			skipped[ferr.Face] = ferr.Cause
		case errors.As(w, &matErr):
		default:
			t.Errorf("unexpected warning: %s", w)
		}
	}
	if matErr.Index != 1 {
		t.Errorf("expected material warning for material 1, got %v", matErr)
	}
	if cause := skipped[1]; cause != errCollinear {
		t.Errorf("face 1: expected collinear, got %v", cause)
	}
	if cause := skipped[2]; cause != errDuplicateVertex {
		t.Errorf("face 2: expected duplicate vertex, got %v", cause)
	}
	var ierr sparkclip.IndexError
	if cause := skipped[3]; !errors.As(cause, &ierr) || ierr.Table != "material" {
		t.Errorf("face 3: expected material index error, got %v", cause)
	}
	if len(skipped) != 3 {
		t.Errorf("expected 3 skipped faces, got %v", skipped)
	}

	if len(m.Faces) != 9 {
		t.Fatalf("expected 9 faces, got %d", len(m.Faces))
	}
	square := m.Faces[0]
	if square.Source != 0 || !reflect.DeepEqual(square.Vertices, []uint32{0, 1, 2, 3}) {
		t.Errorf("unexpected square %+v", square)
	}
	if square.Normal != (vec3.T{0, 0, 1}) {
		t.Errorf("expected mapping group normal, got %v", square.Normal)
	}
	if len(square.UVs) != 4 || square.UVs[2] != (vec2.T{2, 2}) {
		t.Errorf("expected UVs from mapping group scale, got %v", square.UVs)
	}
	for _, f := range m.Faces[1:] {
		if f.Source != 4 || len(f.Vertices) != 3 || f.Material != 1 {
			t.Errorf("unexpected hole triangle %+v", f)
		}
		if f.Normal != m.Faces[1].Normal {
			t.Errorf("expected triangles to share a normal, got %v and %v", f.Normal, m.Faces[1].Normal)
		}
	}

	if m.Materials[0].Texture == "" || m.Materials[0].Path != "materials/a.material" || m.Materials[0].Width != 256 {
		t.Errorf("unexpected resolved material %+v", m.Materials[0])
	}
	if m.Materials[1] != (Material{Path: "materials/missing.material"}) {
		t.Errorf("expected unresolved material, got %+v", m.Materials[1])
	}
	if !reflect.DeepEqual(m.SharpEdges, [][2]uint32{{3, 0}}) {
		t.Errorf("unexpected sharp edges %v", m.SharpEdges)
	}
}

func TestImportComputedNormal(t *testing.T) {
	g := importGeometry()
	g.Faces = g.Faces[:1]
	g.Faces[0].Mapping = sparkclip.MappingNone
	var sink testSink
	imp := &Importer{Options: ImportOptions{CorrectUnits: true, CorrectAxes: true}}
	if _, err := imp.Import(encodeLevel(t, &sparkclip.LevelData{Geometry: g}), &sink); err != nil {
		t.Fatal(err)
	}
	m := sink.meshes[0]
	if v := m.Vertices[1]; v != (vec3.T{0, InchesPerMeter, 0}) {
		t.Errorf("expected corrected vertex, got %v", v)
	}
	n := m.Faces[0].Normal
	if math.Abs(float64(n[0])+1) > 1e-5 || n[1] != 0 || n[2] != 0 {
		t.Errorf("expected computed normal (-1, 0, 0), got %v", n)
	}
	if m.Faces[0].UVs != nil {
		t.Errorf("expected no UVs without projector")
	}
}

func TestImportNoSearchPaths(t *testing.T) {
	imp := &Importer{
		Options:  ImportOptions{ImportTextures: true, SearchPaths: []string{filepath.Join(t.TempDir(), "missing")}},
		Resolver: testResolver{},
	}
	var sink testSink
	warn, err := imp.Import(encodeLevel(t, &sparkclip.LevelData{Geometry: importGeometry()}), &sink)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(warn, ErrNoSearchPaths) {
		t.Errorf("expected no search paths warning, got %v", warn)
	}
	for _, mat := range sink.meshes[0].Materials {
		if mat.Texture != "" {
			t.Errorf("expected textures to be disabled, got %+v", mat)
		}
	}
}

func TestImportTriangulationFailure(t *testing.T) {
	g := importGeometry()
	holed := g.Faces[4]
	holed.Border = sparkclip.EdgeLoop{{Edge: 0}, {Flipped: true, Edge: 0}}
	g.Faces = []sparkclip.Face{holed}
	var sink testSink
	warn, err := (&Importer{}).Import(encodeLevel(t, &sparkclip.LevelData{Geometry: g}), &sink)
	if err != nil {
		t.Fatal(err)
	}
	var ferr FaceError
	if !errors.As(warn, &ferr) || !errors.Is(ferr, triangulate.ErrTooFewVertices) || !errors.Is(ferr, errors.ErrDegenerateGeometry) {
		t.Errorf("expected triangulation warning, got %v", warn)
	}
	if len(sink.meshes[0].Faces) != 0 {
		t.Errorf("expected face to be skipped")
	}
}

func TestImportDecodeError(t *testing.T) {
	var sink testSink
	_, err := (&Importer{}).Import([]byte{1, 0}, &sink)
	if !errors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected truncated stream, got %v", err)
	}
	if len(sink.meshes) != 0 {
		t.Errorf("expected nothing to be imported")
	}
}

type testClipboard struct {
	data []byte
}

func (c *testClipboard) GetClipboard() ([]byte, error) { return c.data, nil }
func (c *testClipboard) SetClipboard(b []byte) error   { c.data = b; return nil }

func TestImportClipboard(t *testing.T) {
	cb := &testClipboard{data: encodeLevel(t, &sparkclip.LevelData{Geometry: importGeometry()})}
	var sink testSink
	if _, err := (&Importer{}).ImportClipboard(cb, &sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(sink.meshes))
	}
}

func TestNewSearchPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	paths := NewSearchPaths("", dir, file, filepath.Join(dir, "missing"), dir+"/")
	if expected := (SearchPaths{dir + "/", dir + "/"}); !reflect.DeepEqual(paths, expected) {
		t.Errorf("expected %q, got %q", expected, paths)
	}
	if f, ok := paths.Find(`\file.txt`); !ok || f != dir+"/file.txt" {
		t.Errorf("expected to find file, got %q", f)
	}
	if _, ok := paths.Find("missing"); ok {
		t.Error("expected missing file not to be found")
	}
	if fixPath(`C:\ns2\`) != "C:/ns2/" || fixPath("a/b") != "a/b/" {
		t.Error("unexpected path normalization")
	}
}
