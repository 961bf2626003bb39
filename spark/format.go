// Package spark implements a decoder and encoder for the Spark editor's
// binary clipboard and model formats.
//
// All data is a sequence of chunks. A chunk is a uint32 ID, a uint32 length,
// and a payload of exactly that many bytes. Payloads may contain further
// chunks. All values are little-endian.
//
// Geometry is an outer chunk with ID 1 whose payload begins with a uint16
// selector of 2, followed by the material, vertex, edge, face, face-layer,
// mapping-group and geometry-group chunks. Entity data is a top-level chunk
// whose payload begins with a selector of 1. Model assets begin with the
// magic "MDL\x07", followed by a flat sequence of chunks.
//
// The easiest way to decode and encode is through DecodeLevel, DecodeGeometry,
// DecodeModel, EncodeLevel, EncodeGeometry and EncodeModel. Chunks with IDs not
// known by the codec are skipped and reported as warnings.
package spark

// Outer chunk IDs and selectors.
const (
	idGeometry   uint32 = 1 // Outer chunk holding geometry.
	idEntityData uint32 = 2 // Outer chunk written for entity data.

	selectorEntities uint16 = 1
	selectorGeometry uint16 = 2
)

// Geometry sub-chunk IDs.
const (
	idVertices       uint32 = 1
	idEdges          uint32 = 2
	idFaces          uint32 = 3
	idMaterials      uint32 = 4
	idFaceLayers     uint32 = 6
	idMappingGroups  uint32 = 7
	idGeometryGroups uint32 = 8
)

// Entity chunk IDs.
const (
	idEntity   uint32 = 1
	idProperty uint32 = 2
)

// Model chunk IDs.
const (
	idModelVertices    uint32 = 1
	idModelIndices     uint32 = 2
	idModelFaceSets    uint32 = 3
	idModelMaterials   uint32 = 4
	idModelBoundingBox uint32 = 17
)

// ModelMagic is the header of a model asset.
const ModelMagic = "MDL\x07"

// Sizes of skipped or padded fields.
const (
	vertexPadding   = 1
	modelBoneData   = 32
	faceLayerFormat = 2
)
