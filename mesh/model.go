package mesh

import (
	"math"
	"os"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"golang.org/x/crypto/blake2b"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
	"github.com/sparkclip/sparkclip/spark"
)

// ModelLoader returns the raw content of a model file.
type ModelLoader interface {
	LoadModel(path string, paths SearchPaths) ([]byte, error)
}

// DirModelLoader loads models from the first search path that contains them.
type DirModelLoader struct{}

func (DirModelLoader) LoadModel(path string, paths SearchPaths) ([]byte, error) {
	file, ok := paths.Find(path)
	if !ok {
		return nil, errModelNotFound
	}
	return os.ReadFile(file)
}

// ModelCorner is a unique combination of vertex attributes of a ModelMesh.
type ModelCorner struct {
	// Vertex is an index into ModelMesh.Vertices.
	Vertex    uint32
	Normal    vec3.T
	Tangent   vec3.T
	Bitangent vec3.T
	UV        vec2.T
}

// ModelMesh is a model converted to host space, with shared positions and
// attributes merged.
type ModelMesh struct {
	// Vertices holds each distinct position once.
	Vertices []vec3.T

	// Corners holds each distinct set of attributes once.
	Corners []ModelCorner

	// Loops holds three indices into Corners per triangle.
	Loops []uint32

	// TriangleMaterials holds the material index of each triangle.
	TriangleMaterials []uint32

	Materials []string
}

// Triangles returns the number of triangles of the mesh.
func (m *ModelMesh) Triangles() int {
	return len(m.Loops) / 3
}

type cornerKey struct {
	vertex uint32
	attrs  [11]uint32
}

func vecBits(dst []uint32, v ...float32) {
	for i, f := range v {
		dst[i] = math.Float32bits(f)
	}
}

// BuildModelMesh converts m into a ModelMesh. Positions are merged when their
// components are bit-identical, and corners are merged when their position
// and every attribute are bit-identical. UV v coordinates are flipped, and
// if correctAxes is true, positions and normals are cycled into host axes.
func BuildModelMesh(m *sparkclip.Model, correctAxes bool) (*ModelMesh, error) {
	mm := &ModelMesh{Materials: append([]string{}, m.Materials...)}
	vertIndex := map[[3]uint32]uint32{}
	cornerIndex := map[cornerKey]uint32{}
	corners := make([]uint32, len(m.Vertices))
	for i, v := range m.Vertices {
		var pos [3]uint32
		vecBits(pos[:], v.Pos[0], v.Pos[1], v.Pos[2])
		vi, ok := vertIndex[pos]
		if !ok {
			vi = uint32(len(mm.Vertices))
			vertIndex[pos] = vi
			mm.Vertices = append(mm.Vertices, toHost(v.Pos, correctAxes))
		}

		key := cornerKey{vertex: vi}
		vecBits(key.attrs[:],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.Tangent[0], v.Tangent[1], v.Tangent[2],
			v.Bitangent[0], v.Bitangent[1], v.Bitangent[2],
			v.UV[0], v.UV[1],
		)
		ci, ok := cornerIndex[key]
		if !ok {
			ci = uint32(len(mm.Corners))
			cornerIndex[key] = ci
			mm.Corners = append(mm.Corners, ModelCorner{
				Vertex:    vi,
				Normal:    toHost(v.Normal, correctAxes),
				Tangent:   toHost(v.Tangent, correctAxes),
				Bitangent: toHost(v.Bitangent, correctAxes),
				UV:        vec2.T{v.UV[0], 1 - v.UV[1]},
			})
		}
		corners[i] = ci
	}

	n := len(m.Indices) / 3 * 3
	mm.Loops = make([]uint32, n)
	for i, index := range m.Indices[:n] {
		if int(index) >= len(corners) {
			return nil, errors.Wrapf(sparkclip.IndexError{Table: "vertex", Index: index, Len: len(corners)}, "index %d", i)
		}
		mm.Loops[i] = corners[index]
	}

	mm.TriangleMaterials = make([]uint32, n/3)
	for i, set := range m.FaceSets {
		if int(set.Material) >= len(m.Materials) {
			return nil, errors.Wrapf(sparkclip.IndexError{Table: "material", Index: set.Material, Len: len(m.Materials)}, "face set %d", i)
		}
		end := uint64(set.FirstFace) + uint64(set.FaceCount)
		if end > uint64(len(mm.TriangleMaterials)) {
			return nil, errors.Wrapf(sparkclip.IndexError{Table: "triangle", Index: uint32(end - 1), Len: len(mm.TriangleMaterials)}, "face set %d", i)
		}
		for j := set.FirstFace; uint64(j) < end; j++ {
			mm.TriangleMaterials[j] = set.Material
		}
	}
	return mm, nil
}

// modelCache holds the model meshes of a single import.
type modelCache struct {
	loader      ModelLoader
	paths       SearchPaths
	correctAxes bool
	decoder     spark.Decoder

	byPath map[string]*ModelMesh
	byHash map[[blake2b.Size256]byte]*ModelMesh
	failed map[string]error
}

func newModelCache(loader ModelLoader, paths SearchPaths, correctAxes bool, decoder spark.Decoder) *modelCache {
	return &modelCache{
		loader:      loader,
		paths:       paths,
		correctAxes: correctAxes,
		decoder:     decoder,
		byPath:      map[string]*ModelMesh{},
		byHash:      map[[blake2b.Size256]byte]*ModelMesh{},
		failed:      map[string]error{},
	}
}

// get returns the mesh of the model at path. Files with identical content
// share a mesh even when their paths differ.
func (c *modelCache) get(path string) (mm *ModelMesh, warn, err error) {
	if mm, ok := c.byPath[path]; ok {
		return mm, nil, nil
	}
	if err, ok := c.failed[path]; ok {
		return nil, nil, err
	}
	mm, warn, err = c.load(path)
	if err != nil {
		c.failed[path] = err
		return nil, warn, err
	}
	c.byPath[path] = mm
	return mm, warn, nil
}

func (c *modelCache) load(path string) (mm *ModelMesh, warn, err error) {
	b, err := c.loader.LoadModel(path, c.paths)
	if err != nil {
		return nil, nil, err
	}
	sum := blake2b.Sum256(b)
	if mm, ok := c.byHash[sum]; ok {
		return mm, nil, nil
	}
	m, warn, err := c.decoder.DecodeModel(b)
	if err != nil {
		return nil, warn, err
	}
	if mm, err = BuildModelMesh(m, c.correctAxes); err != nil {
		return nil, warn, err
	}
	c.byHash[sum] = mm
	return mm, warn, nil
}
