// The sparkclip package holds the in-memory representation of Spark editor
// data exchanged through the clipboard: level geometry, placed static props,
// and the static mesh assets those props refer to.
//
// Geometry is stored as index-linked tables. A Face refers to Edges through
// edge loops, each Edge refers to two Vertices, and faces refer to Materials
// and MappingGroups. Structures can be decoded from and encoded to bytes with
// the "spark" sub-package, and faces can be turned into triangles with the
// "triangulate" sub-package.
package sparkclip

import (
	"fmt"

	"github.com/flywave/go3d/vec3"
)

// MappingNone is the mapping index of a face that uses its own texture
// settings rather than a mapping group.
const MappingNone = 0xFFFFFFFF

// DefaultMaterial is the material path written when a GeoData has no
// materials.
const DefaultMaterial = "materials/dev/dev_1024x1024.material"

// GeoData is the geometry of a level selection.
type GeoData struct {
	// Materials is a list of material paths. Faces refer to materials by
	// index.
	Materials []string

	// Vertices is a list of vertex positions.
	Vertices []vec3.T

	// Edges is a list of edges between vertices.
	Edges []Edge

	// Faces is a list of polygonal faces bounded by edge loops.
	Faces []Face

	// MappingGroups is a list of shared texture mapping settings. Faces
	// refer to mapping groups by ID, not by index.
	MappingGroups []MappingGroup
}

// Edge connects two vertices.
type Edge struct {
	A, B   uint32
	Smooth bool
}

// Face is a polygon with one border loop and any number of inner loops.
type Face struct {
	Angle   float32
	XOffset float32
	YOffset float32
	XScale  float32
	YScale  float32

	// Mapping is the ID of a mapping group, or MappingNone.
	Mapping uint32

	// Material is an index into GeoData.Materials.
	Material uint32

	Border EdgeLoop
	Inner  []EdgeLoop
}

// EdgeLoop is a closed cycle of edges.
type EdgeLoop []LoopMember

// LoopMember is one edge of a loop. If Flipped is false, the loop traverses
// the edge from A to B, so A is the member's start vertex. Otherwise B is.
type LoopMember struct {
	Flipped bool
	Edge    uint32
}

// MappingGroup is a reusable set of texture projection parameters.
type MappingGroup struct {
	ID      uint32
	Angle   float32
	XScale  float32
	YScale  float32
	XOffset float32
	YOffset float32
	Normal  vec3.T
}

// IndexError indicates a reference to a table entry that does not exist.
type IndexError struct {
	// Table names the referenced table.
	Table string
	// Index is the out-of-range index.
	Index uint32
	// Len is the length of the table.
	Len int
}

func (err IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0:%d]", err.Table, err.Index, err.Len)
}

// MappingByID returns the index of the mapping group with the given ID, or -1
// if there is no such group.
func (g *GeoData) MappingByID(id uint32) int {
	for i, m := range g.MappingGroups {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Settings returns the texture settings that apply to face f. If the face
// refers to an existing mapping group, the group's settings and normal are
// used and hasNormal is true.
func (g *GeoData) Settings(f *Face) (s TextureSettings, hasNormal bool) {
	s = TextureSettings{
		Angle:    f.Angle,
		XOffset:  f.XOffset,
		YOffset:  f.YOffset,
		XScale:   f.XScale,
		YScale:   f.YScale,
		Material: f.Material,
	}
	if f.Mapping == MappingNone {
		return s, false
	}
	i := g.MappingByID(f.Mapping)
	if i < 0 {
		return s, false
	}
	m := g.MappingGroups[i]
	s.Angle = m.Angle
	s.XOffset = m.XOffset
	s.YOffset = m.YOffset
	s.XScale = m.XScale
	s.YScale = m.YScale
	s.Normal = m.Normal
	return s, true
}

// TextureSettings are the resolved texture projection parameters of a face.
type TextureSettings struct {
	Angle    float32
	XOffset  float32
	YOffset  float32
	XScale   float32
	YScale   float32
	Material uint32
	Normal   vec3.T
}

// LoopVertices returns the start vertex index of each member of loop.
func (g *GeoData) LoopVertices(loop EdgeLoop) ([]uint32, error) {
	verts := make([]uint32, len(loop))
	for i, m := range loop {
		if int(m.Edge) >= len(g.Edges) {
			return nil, IndexError{Table: "edge", Index: m.Edge, Len: len(g.Edges)}
		}
		e := g.Edges[m.Edge]
		v := e.A
		if m.Flipped {
			v = e.B
		}
		if int(v) >= len(g.Vertices) {
			return nil, IndexError{Table: "vertex", Index: v, Len: len(g.Vertices)}
		}
		verts[i] = v
	}
	return verts, nil
}

// Copy returns a deep copy of g.
func (g *GeoData) Copy() *GeoData {
	c := &GeoData{}
	if g.Materials != nil {
		c.Materials = append([]string{}, g.Materials...)
	}
	if g.Vertices != nil {
		c.Vertices = append([]vec3.T{}, g.Vertices...)
	}
	if g.Edges != nil {
		c.Edges = append([]Edge{}, g.Edges...)
	}
	if g.Faces != nil {
		c.Faces = make([]Face, len(g.Faces))
		for i, f := range g.Faces {
			c.Faces[i] = f.Copy()
		}
	}
	if g.MappingGroups != nil {
		c.MappingGroups = append([]MappingGroup{}, g.MappingGroups...)
	}
	return c
}

// Copy returns a copy of f that shares no loops with f.
func (f Face) Copy() Face {
	c := f
	if f.Border != nil {
		c.Border = append(EdgeLoop{}, f.Border...)
	}
	if f.Inner != nil {
		c.Inner = make([]EdgeLoop, len(f.Inner))
		for i, l := range f.Inner {
			c.Inner[i] = append(EdgeLoop{}, l...)
		}
	}
	return c
}

// Merge combines a and b into a new GeoData, as if they were a single mesh.
// Neither argument is modified.
//
// Materials of b are matched to those of a by exact path; unmatched paths are
// appended. Vertices, edges, and faces of b are appended after those of a,
// with their references shifted accordingly. Mapping groups of b are not
// carried over.
func Merge(a, b *GeoData) (*GeoData, error) {
	m := a.Copy()

	matRefs := make([]uint32, len(b.Materials))
	for i, mat := range b.Materials {
		j := indexOf(m.Materials, mat)
		if j < 0 {
			j = len(m.Materials)
			m.Materials = append(m.Materials, mat)
		}
		matRefs[i] = uint32(j)
	}

	vertOffset := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, b.Vertices...)

	edgeOffset := uint32(len(m.Edges))
	for _, e := range b.Edges {
		e.A += vertOffset
		e.B += vertOffset
		m.Edges = append(m.Edges, e)
	}

	for i, f := range b.Faces {
		if int(f.Material) >= len(matRefs) {
			return nil, fmt.Errorf("face %d: %w", i, IndexError{Table: "material", Index: f.Material, Len: len(matRefs)})
		}
		f = f.Copy()
		f.Material = matRefs[f.Material]
		shiftLoop(f.Border, edgeOffset)
		for _, l := range f.Inner {
			shiftLoop(l, edgeOffset)
		}
		m.Faces = append(m.Faces, f)
	}

	return m, nil
}

func shiftLoop(l EdgeLoop, offset uint32) {
	for i := range l {
		l[i].Edge += offset
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
