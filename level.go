package sparkclip

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// LevelData is the content of a level clipboard payload. Either part may be
// empty.
type LevelData struct {
	// Geometry is nil if the payload carries no geometry.
	Geometry *GeoData

	// Props lists the static props of the payload.
	Props []StaticProp
}

// ClassStaticProp is the class name of entities decoded as StaticProps.
const ClassStaticProp = "prop_static"

// StaticPropPropertyCount is the exact number of properties a static prop
// entity carries.
const StaticPropPropertyCount = 10

// Names of the entity properties interpreted by the codec.
const (
	PropertyOrigin = "origin"
	PropertyAngles = "angles"
	PropertyScale  = "scale"
	PropertyModel  = "model"
)

// PropertyType identifies the value type of an entity property.
type PropertyType uint32

const (
	TypeVector   PropertyType = 2 // Unitless vector.
	TypeString   PropertyType = 4 // UTF-16 string.
	TypeAngles   PropertyType = 7 // Euler angles in radians.
	TypeDistance PropertyType = 9 // Position in world units.
)

// StaticProp is a placed instance of a model asset.
type StaticProp struct {
	// Layer and Group are the two leading fields of the entity record.
	Layer uint32
	Group uint32

	Origin vec3.T
	// Angles are Euler angles, applied in XYZ order.
	Angles vec3.T
	Scale  vec3.T

	// Model is the path of the model asset.
	Model string

	// Extra holds the properties that are not interpreted, in their original
	// order.
	Extra []Property
}

// Property is a single entity property record.
type Property struct {
	Name     string
	Type     PropertyType
	AnimFlag uint32

	// Components holds the values of non-string properties.
	Components []float32

	// Text holds the value of a TypeString property.
	Text string

	// Count is the declared component count of a TypeString property,
	// normally 1.
	Count uint32
}

// Model is a static mesh asset.
type Model struct {
	Vertices  []ModelVertex
	Indices   []uint32
	FaceSets  []FaceSet
	Materials []string
	Bounds    BoundingBox
}

// ModelVertex is a single vertex of a model.
type ModelVertex struct {
	Pos       vec3.T
	Normal    vec3.T
	Tangent   vec3.T
	Bitangent vec3.T
	UV        vec2.T
	Color     uint32
}

// FaceSet assigns a material to a run of triangles.
type FaceSet struct {
	Material  uint32
	FirstFace uint32
	FaceCount uint32

	// Bones is the number of bone indices, which are not retained.
	Bones uint32
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Origin  vec3.T
	Extents vec3.T
}
