// The mesh package moves Spark clipboard data into and out of a host 3D
// application. The host is reached only through the interfaces declared here:
// a Sink receives imported meshes and props, a Provider exposes host meshes
// for export, and a Clipboard carries the encoded bytes.
//
// Texture projection and material file parsing are left to the host through
// the MaterialResolver, UVProjector and FaceMapper collaborators, all of
// which are optional.
package mesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
)

// InchesPerMeter is the unit correction factor between Spark units (inches)
// and host units (meters).
const InchesPerMeter = 39.3700787

// Clipboard gets and sets the raw Spark clipboard payload.
type Clipboard interface {
	GetClipboard() ([]byte, error)
	SetClipboard(b []byte) error
}

// Material is a resolved material of an imported mesh.
type Material struct {
	// Path is the material path as it appears in the clipboard.
	Path string

	// Texture is the file of the material's texture, or empty if the
	// material could not be resolved.
	Texture string

	// Width and Height are the texture dimensions in pixels. Zero if unknown.
	Width, Height int
}

// MaterialResolver locates the texture of a material path within a set of
// search paths.
type MaterialResolver interface {
	ResolveMaterial(path string, paths SearchPaths) (Material, error)
}

// UVProjector computes texture coordinates for the corners of an imported
// face. Positions are in host space. Normal is the face normal in host space.
type UVProjector interface {
	ProjectUVs(positions []vec3.T, normal vec3.T, s sparkclip.TextureSettings, unitFactor float32, mat Material) []vec2.T
}

// ImportedFace is a polygon of an ImportedMesh.
type ImportedFace struct {
	// Source is the index of the Spark face this polygon was made from.
	// Faces with holes produce several triangles with the same Source.
	Source int

	// Vertices are indices into ImportedMesh.Vertices.
	Vertices []uint32

	// UVs holds one coordinate per vertex, or nil without a UVProjector.
	UVs []vec2.T

	// Material is an index into ImportedMesh.Materials.
	Material uint32

	Normal vec3.T
}

// ImportedMesh is level geometry converted to host space.
type ImportedMesh struct {
	Vertices  []vec3.T
	Faces     []ImportedFace
	Materials []Material

	// SharpEdges lists pairs of vertices whose edge is smooth in Spark. The
	// host marks them sharp.
	SharpEdges [][2]uint32
}

// PlacedProp is a static prop converted to host space.
type PlacedProp struct {
	// Model is the model path of the prop.
	Model string

	// Mesh is the model's mesh. Props with the same model share a Mesh.
	Mesh *ModelMesh

	Location vec3.T
	// Rotation holds Euler angles applied in XYZ order.
	Rotation vec3.T
	Scale    vec3.T
}

// Sink receives the results of an import.
type Sink interface {
	AddMesh(m *ImportedMesh) error
	AddProp(p *PlacedProp) error
}

// HostEdge is an edge of a host mesh.
type HostEdge struct {
	A, B  uint32
	Sharp bool
}

// HostLoop is a corner of a host polygon: its vertex, and the edge leading
// to the next corner.
type HostLoop struct {
	Vertex uint32
	Edge   uint32
}

// HostPolygon is a polygon of a host mesh.
type HostPolygon struct {
	Loops []HostLoop
}

// MeshView is a read-only view of a host mesh, with vertices in host space.
type MeshView interface {
	Vertices() []vec3.T
	Edges() []HostEdge
	Polygons() []HostPolygon
}

// Provider lists the host meshes selected for export.
type Provider interface {
	Meshes() ([]MeshView, error)
}

// TextureFit is the texture placement of a host polygon, as fitted by a
// FaceMapper.
type TextureFit struct {
	Angle   float32
	XOffset float32
	YOffset float32
	XScale  float32
	YScale  float32

	// Image is the file of the polygon's texture, or empty for the default
	// material.
	Image string
}

// FaceMapper fits Spark texture settings to a host polygon. It returns false
// if the polygon has no texture.
type FaceMapper interface {
	MapFace(m MeshView, polygon int) (TextureFit, bool)
}

// Mesh is a plain MeshView.
type Mesh struct {
	VertexList  []vec3.T
	EdgeList    []HostEdge
	PolygonList []HostPolygon
}

func (m *Mesh) Vertices() []vec3.T      { return m.VertexList }
func (m *Mesh) Edges() []HostEdge       { return m.EdgeList }
func (m *Mesh) Polygons() []HostPolygon { return m.PolygonList }

// Meshes is a Provider of a fixed list of meshes.
type Meshes []MeshView

func (m Meshes) Meshes() ([]MeshView, error) { return m, nil }

// toHost converts a Spark vector to host space.
func toHost(v vec3.T, cycle bool) vec3.T {
	if cycle {
		return vec3.T{v[2], v[0], v[1]}
	}
	return v
}

// toSpark converts a host vector to Spark space.
func toSpark(v vec3.T, cycle bool) vec3.T {
	if cycle {
		return vec3.T{v[1], v[2], v[0]}
	}
	return v
}
