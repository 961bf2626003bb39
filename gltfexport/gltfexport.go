// The gltfexport package converts decoded clipboard data to glTF documents, so
// that a selection can be viewed in common 3D tools.
package gltfexport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
	"github.com/sparkclip/sparkclip/triangulate"
)

const gltfVersion = "2.0"

// Converter builds glTF documents.
type Converter struct {
	// Models maps model paths to model assets. A prop whose model is present
	// gets the model as its mesh. Other props are empty nodes.
	Models map[string]*sparkclip.Model
}

// FaceError is a warning that a face was left out of the document.
type FaceError struct {
	Face  int
	Cause error
}

func (err FaceError) Error() string {
	return fmt.Sprintf("face %d: %s", err.Face, err.Cause)
}

func (err FaceError) Unwrap() error {
	return err.Cause
}

// Convert converts l into a document with a single scene. The geometry
// becomes one node whose mesh has a primitive per used material, and each
// static prop becomes one node.
//
// Faces that cannot be triangulated are left out and reported in warn.
func Convert(l *sparkclip.LevelData) (doc *gltf.Document, warn, err error) {
	return Converter{}.Convert(l)
}

func (c Converter) Convert(l *sparkclip.LevelData) (doc *gltf.Document, warn, err error) {
	if l == nil {
		return nil, nil, errors.New("nil level")
	}
	doc = newDocument()
	b := &builder{doc: doc, materials: map[string]uint32{}, models: map[string]uint32{}}
	var warns errors.Errors
	if l.Geometry != nil {
		warns = warns.Append(errors.List(b.addGeometry(l.Geometry))...)
	}
	for i, prop := range l.Props {
		node := &gltf.Node{
			Name:        prop.Model,
			Translation: [3]float32(prop.Origin),
			Rotation:    EulerQuat(prop.Angles),
			Scale:       [3]float32(prop.Scale),
		}
		if m, ok := c.Models[prop.Model]; ok {
			index, err := b.addModel(prop.Model, m)
			if err != nil {
				return nil, warns.Return(), errors.Wrapf(err, "prop %d", i)
			}
			node.Mesh = &index
		}
		b.addNode(node)
	}
	if err := b.finish(); err != nil {
		return nil, warns.Return(), err
	}
	return doc, warns.Return(), nil
}

// Encode writes doc to w as JSON, or as GLB if asBinary is true. When written
// as JSON, buffers without a URI are embedded as data URIs.
func Encode(w io.Writer, doc *gltf.Document, asBinary bool) error {
	if !asBinary {
		for _, buf := range doc.Buffers {
			if buf.URI == "" && len(buf.Data) > 0 {
				buf.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = asBinary
	return enc.Encode(doc)
}

// EulerQuat returns the quaternion, as x, y, z, w, of a rotation by Euler
// angles applied in XYZ order.
func EulerQuat(angles vec3.T) [4]float32 {
	sx, cx := math32.Sincos(angles[0] / 2)
	sy, cy := math32.Sincos(angles[1] / 2)
	sz, cz := math32.Sincos(angles[2] / 2)
	return [4]float32{
		sx*cy*cz - cx*sy*sz,
		cx*sy*cz + sx*cy*sz,
		cx*cy*sz - sx*sy*cz,
		cx*cy*cz + sx*sy*sz,
	}
}

func newDocument() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = gltfVersion
	scene := uint32(0)
	doc.Scene = &scene
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type builder struct {
	doc       *gltf.Document
	buf       bytes.Buffer
	materials map[string]uint32
	models    map[string]uint32

	// err is the first error from packing buffer data.
	err error
}

func (b *builder) addNode(n *gltf.Node) {
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, uint32(len(b.doc.Nodes)))
	b.doc.Nodes = append(b.doc.Nodes, n)
}

// view appends data to the buffer as a new buffer view. data must be a
// fixed-size value or a slice of them.
func (b *builder) view(data interface{}) uint32 {
	offset := uint32(b.buf.Len())
	if err := binary.Write(&b.buf, binary.LittleEndian, data); err != nil && b.err == nil {
		b.err = err
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: uint32(b.buf.Len()) - offset,
	})
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *builder) accessor(view uint32, typ gltf.AccessorType, component gltf.ComponentType, count int) *gltf.Accessor {
	a := &gltf.Accessor{
		BufferView:    &view,
		ComponentType: component,
		Type:          typ,
		Count:         uint32(count),
	}
	b.doc.Accessors = append(b.doc.Accessors, a)
	return a
}

func (b *builder) positions(pos []vec3.T) uint32 {
	data := make([][3]float32, len(pos))
	for i, p := range pos {
		data[i] = [3]float32(p)
	}
	a := b.accessor(b.view(data), gltf.AccessorVec3, gltf.ComponentFloat, len(data))
	if len(pos) > 0 {
		lo, hi := pos[0], pos[0]
		for _, p := range pos[1:] {
			for i := range p {
				lo[i] = math32.Min(lo[i], p[i])
				hi[i] = math32.Max(hi[i], p[i])
			}
		}
		a.Min = lo[:]
		a.Max = hi[:]
	}
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *builder) indices(idx []uint32) uint32 {
	b.accessor(b.view(idx), gltf.AccessorScalar, gltf.ComponentUint, len(idx))
	return uint32(len(b.doc.Accessors) - 1)
}

func (b *builder) material(path string) uint32 {
	if i, ok := b.materials[path]; ok {
		return i
	}
	i := uint32(len(b.doc.Materials))
	b.doc.Materials = append(b.doc.Materials, &gltf.Material{Name: path, DoubleSided: true})
	b.materials[path] = i
	return i
}

func (b *builder) addGeometry(g *sparkclip.GeoData) (warn error) {
	var warns errors.Errors
	byMaterial := make([][]uint32, len(g.Materials))
	for i := range g.Faces {
		f := &g.Faces[i]
		if int(f.Material) >= len(g.Materials) {
			warns = warns.Append(FaceError{Face: i, Cause: sparkclip.IndexError{Table: "material", Index: f.Material, Len: len(g.Materials)}})
			continue
		}
		tris, err := triangulate.Face(g, f)
		if err != nil {
			warns = warns.Append(FaceError{Face: i, Cause: err})
			continue
		}
		for _, t := range tris {
			byMaterial[f.Material] = append(byMaterial[f.Material], t[0], t[1], t[2])
		}
	}

	mesh := &gltf.Mesh{Name: "geometry"}
	pos := b.positions(g.Vertices)
	for i, idx := range byMaterial {
		if len(idx) == 0 {
			continue
		}
		indices := b.indices(idx)
		material := b.material(g.Materials[i])
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: gltf.Attribute{"POSITION": pos},
			Indices:    &indices,
			Material:   &material,
			Mode:       gltf.PrimitiveTriangles,
		})
	}
	index := uint32(len(b.doc.Meshes))
	b.doc.Meshes = append(b.doc.Meshes, mesh)
	b.addNode(&gltf.Node{Name: "geometry", Mesh: &index})
	return warns.Return()
}

// addModel adds m as a mesh, once per path.
func (b *builder) addModel(path string, m *sparkclip.Model) (uint32, error) {
	if i, ok := b.models[path]; ok {
		return i, nil
	}
	pos := make([]vec3.T, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		pos[i] = v.Pos
		normals[i] = [3]float32(v.Normal)
		uvs[i] = [2]float32(v.UV)
	}
	for _, index := range m.Indices {
		if int(index) >= len(m.Vertices) {
			return 0, sparkclip.IndexError{Table: "vertex", Index: index, Len: len(m.Vertices)}
		}
	}

	attrs := gltf.Attribute{"POSITION": b.positions(pos)}
	b.accessor(b.view(normals), gltf.AccessorVec3, gltf.ComponentFloat, len(normals))
	attrs["NORMAL"] = uint32(len(b.doc.Accessors) - 1)
	b.accessor(b.view(uvs), gltf.AccessorVec2, gltf.ComponentFloat, len(uvs))
	attrs["TEXCOORD_0"] = uint32(len(b.doc.Accessors) - 1)

	mesh := &gltf.Mesh{Name: path}
	for i, set := range m.FaceSets {
		if int(set.Material) >= len(m.Materials) {
			return 0, errors.Wrapf(sparkclip.IndexError{Table: "material", Index: set.Material, Len: len(m.Materials)}, "face set %d", i)
		}
		first, end := uint64(set.FirstFace)*3, (uint64(set.FirstFace)+uint64(set.FaceCount))*3
		if end > uint64(len(m.Indices)) {
			return 0, errors.Wrapf(sparkclip.IndexError{Table: "index", Index: uint32(end - 1), Len: len(m.Indices)}, "face set %d", i)
		}
		if first == end {
			continue
		}
		indices := b.indices(m.Indices[first:end])
		material := b.material(m.Materials[set.Material])
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: attrs,
			Indices:    &indices,
			Material:   &material,
			Mode:       gltf.PrimitiveTriangles,
		})
	}
	index := uint32(len(b.doc.Meshes))
	b.doc.Meshes = append(b.doc.Meshes, mesh)
	b.models[path] = index
	return index, nil
}

func (b *builder) finish() error {
	if b.err != nil {
		return errors.Wrap(b.err, "pack buffer")
	}
	buffer := b.doc.Buffers[0]
	buffer.Data = b.buf.Bytes()
	buffer.ByteLength = uint32(len(buffer.Data))
	return nil
}
