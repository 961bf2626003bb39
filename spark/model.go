package spark

import (
	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

// modelChunkOrder is the order in which model chunks are decoded. Every ID is
// required.
var modelChunkOrder = []uint32{
	idModelVertices,
	idModelIndices,
	idModelFaceSets,
	idModelMaterials,
	idModelBoundingBox,
}

func readModelVertices(r *Reader, m *sparkclip.Model) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var v sparkclip.ModelVertex
		if r.Vec3(&v.Pos) ||
			r.Vec3(&v.Normal) ||
			r.Vec3(&v.Tangent) ||
			r.Vec3(&v.Bitangent) ||
			r.Vec2(&v.UV) ||
			r.Uint32(&v.Color) ||
			r.Skip(modelBoneData) {
			return r.Err()
		}
		m.Vertices = append(m.Vertices, v)
	}
	return nil
}

func readModelIndices(r *Reader, m *sparkclip.Model) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var v uint32
		if r.Uint32(&v) {
			return r.Err()
		}
		m.Indices = append(m.Indices, v)
	}
	return nil
}

func readModelFaceSets(r *Reader, m *sparkclip.Model) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var s sparkclip.FaceSet
		if r.Uint32(&s.Material) ||
			r.Uint32(&s.FirstFace) ||
			r.Uint32(&s.FaceCount) ||
			r.Uint32(&s.Bones) {
			return r.Err()
		}
		if uint64(s.Bones)*4 > uint64(r.Len()) {
			r.Fail(errors.ErrTruncatedStream)
			return r.Err()
		}
		if r.Skip(s.Bones * 4) {
			return r.Err()
		}
		m.FaceSets = append(m.FaceSets, s)
	}
	return nil
}

func readModelMaterials(r *Reader, m *sparkclip.Model) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var s string
		if r.NarrowString(&s) {
			return r.Err()
		}
		m.Materials = append(m.Materials, s)
	}
	return nil
}

func readModelBounds(r *Reader, m *sparkclip.Model) error {
	if r.Vec3(&m.Bounds.Origin) || r.Vec3(&m.Bounds.Extents) {
		return r.Err()
	}
	return nil
}

// readModel decodes a model asset, starting with its magic.
func readModel(r *Reader) (m *sparkclip.Model, warn, err error) {
	magic := make([]byte, len(ModelMagic))
	if r.Bytes(magic) {
		return nil, nil, r.Err()
	}
	if string(magic) != ModelMagic {
		return nil, nil, DataError{Offset: 0, Cause: errors.ErrMalformedHeader}
	}

	var warns errors.Errors
	chunks := map[uint32]Chunk{}
	index := map[uint32]int{}
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			return nil, warns.Return(), r.Err()
		}
		if _, ok := chunks[raw.ID]; ok {
			return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrDuplicateChunk}
		}
		chunks[raw.ID] = raw
		index[raw.ID] = i
	}
	if err := r.Err(); err != nil {
		return nil, warns.Return(), err
	}

	m = &sparkclip.Model{}
	for _, id := range modelChunkOrder {
		raw, ok := chunks[id]
		if !ok {
			return nil, warns.Return(), ChunkError{Index: -1, ID: id, Cause: errors.ErrMissingChunk}
		}
		delete(chunks, id)
		var err error
		cr := raw.Reader()
		switch id {
		case idModelVertices:
			err = readModelVertices(cr, m)
		case idModelIndices:
			err = readModelIndices(cr, m)
		case idModelFaceSets:
			err = readModelFaceSets(cr, m)
		case idModelMaterials:
			err = readModelMaterials(cr, m)
		case idModelBoundingBox:
			err = readModelBounds(cr, m)
		}
		if err != nil {
			return nil, warns.Return(), ChunkError{Index: index[id], ID: id, Cause: err}
		}
	}
	for id := range chunks {
		warns = append(warns, ChunkError{Index: index[id], ID: id, Cause: errors.ErrUnknownChunk})
	}
	return m, warns.Return(), nil
}

// writeModel encodes m as a model asset. Bone data and bone indices are
// written as zeros.
func writeModel(w *Writer, m *sparkclip.Model) error {
	if w.Bytes([]byte(ModelMagic)) {
		return w.Err()
	}
	var bones [modelBoneData]byte

	if w.BeginChunk(idModelVertices) || w.Uint32(uint32(len(m.Vertices))) {
		return w.Err()
	}
	for _, v := range m.Vertices {
		if w.Vec3(v.Pos) ||
			w.Vec3(v.Normal) ||
			w.Vec3(v.Tangent) ||
			w.Vec3(v.Bitangent) ||
			w.Vec2(v.UV) ||
			w.Uint32(v.Color) ||
			w.Bytes(bones[:]) {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}

	if w.BeginChunk(idModelIndices) || w.Uint32(uint32(len(m.Indices))) {
		return w.Err()
	}
	for _, v := range m.Indices {
		if w.Uint32(v) {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}

	if w.BeginChunk(idModelFaceSets) || w.Uint32(uint32(len(m.FaceSets))) {
		return w.Err()
	}
	for _, s := range m.FaceSets {
		if w.Uint32(s.Material) ||
			w.Uint32(s.FirstFace) ||
			w.Uint32(s.FaceCount) ||
			w.Uint32(s.Bones) ||
			w.Bytes(make([]byte, s.Bones*4)) {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}

	if w.BeginChunk(idModelMaterials) || w.Uint32(uint32(len(m.Materials))) {
		return w.Err()
	}
	for _, s := range m.Materials {
		if w.NarrowString(s) {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}

	if w.BeginChunk(idModelBoundingBox) ||
		w.Vec3(m.Bounds.Origin) ||
		w.Vec3(m.Bounds.Extents) ||
		w.EndChunk() {
		return w.Err()
	}
	return nil
}
