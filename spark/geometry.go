package spark

import (
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

////////////////////////////////////////////////////////////////

// chunk is a portion of geometry that contains distinct data.
type chunk interface {
	// ID returns the chunk ID.
	ID() uint32

	// ReadFrom decodes the payload of the chunk.
	ReadFrom(r *Reader) error

	// WriteTo encodes the payload of the chunk.
	WriteTo(w *Writer) error
}

// chunkGenerator is a function that initializes a type which implements a
// chunk.
type chunkGenerator func() chunk

// geometryChunks returns a function that generates a chunk of the given ID,
// or nil if the ID is not known.
func geometryChunks(id uint32) chunkGenerator {
	switch id {
	case idMaterials:
		return func() chunk { return new(chunkMaterials) }
	case idVertices:
		return func() chunk { return new(chunkVertices) }
	case idEdges:
		return func() chunk { return new(chunkEdges) }
	case idFaces:
		return func() chunk { return new(chunkFaces) }
	case idFaceLayers:
		return func() chunk { return new(chunkFaceLayers) }
	case idMappingGroups:
		return func() chunk { return new(chunkMappingGroups) }
	case idGeometryGroups:
		return func() chunk { return new(chunkGeometryGroups) }
	default:
		return nil
	}
}

// unique returns whether a chunk ID may appear at most once in geometry.
func unique(id uint32) bool {
	switch id {
	case idMaterials, idVertices, idEdges, idFaces, idMappingGroups:
		return true
	}
	return false
}

////////////////////////////////////////////////////////////////

// chunkMaterials is a list of material paths.
type chunkMaterials struct {
	Materials []string
}

func (chunkMaterials) ID() uint32 { return idMaterials }

func (c *chunkMaterials) ReadFrom(r *Reader) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var s string
		if r.NarrowString(&s) {
			return r.Err()
		}
		c.Materials = append(c.Materials, s)
	}
	return nil
}

func (c *chunkMaterials) WriteTo(w *Writer) error {
	materials := c.Materials
	if len(materials) == 0 {
		materials = []string{sparkclip.DefaultMaterial}
	}
	if w.Uint32(uint32(len(materials))) {
		return w.Err()
	}
	for _, s := range materials {
		if w.NarrowString(s) {
			return w.Err()
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkVertices is a list of vertex positions. Each vertex is followed by an
// unused byte.
type chunkVertices struct {
	Vertices []vec3.T
}

func (chunkVertices) ID() uint32 { return idVertices }

func (c *chunkVertices) ReadFrom(r *Reader) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var v vec3.T
		if r.Vec3(&v) || r.Skip(vertexPadding) {
			return r.Err()
		}
		c.Vertices = append(c.Vertices, v)
	}
	return nil
}

func (c *chunkVertices) WriteTo(w *Writer) error {
	if w.Uint32(uint32(len(c.Vertices))) {
		return w.Err()
	}
	for _, v := range c.Vertices {
		if w.Vec3(v) || w.Uint8(1) {
			return w.Err()
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkEdges is a list of edges. The smooth flag is a single byte.
type chunkEdges struct {
	Edges []sparkclip.Edge
}

func (chunkEdges) ID() uint32 { return idEdges }

func (c *chunkEdges) ReadFrom(r *Reader) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var e sparkclip.Edge
		var smooth uint8
		if r.Uint32(&e.A) || r.Uint32(&e.B) || r.Uint8(&smooth) {
			return r.Err()
		}
		e.Smooth = smooth == 1
		c.Edges = append(c.Edges, e)
	}
	return nil
}

func (c *chunkEdges) WriteTo(w *Writer) error {
	if w.Uint32(uint32(len(c.Edges))) {
		return w.Err()
	}
	for _, e := range c.Edges {
		var smooth uint8
		if e.Smooth {
			smooth = 1
		}
		if w.Uint32(e.A) || w.Uint32(e.B) || w.Uint8(smooth) {
			return w.Err()
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkFaces is a list of faces.
type chunkFaces struct {
	Faces []sparkclip.Face
}

func (chunkFaces) ID() uint32 { return idFaces }

func readLoop(r *Reader, loop *sparkclip.EdgeLoop) (failed bool) {
	var n uint32
	if r.Uint32(&n) {
		return true
	}
	for i := uint32(0); i < n; i++ {
		var m sparkclip.LoopMember
		var flipped uint32
		if r.Uint32(&flipped) || r.Uint32(&m.Edge) {
			return true
		}
		m.Flipped = flipped == 1
		*loop = append(*loop, m)
	}
	return false
}

func writeLoop(w *Writer, loop sparkclip.EdgeLoop) (failed bool) {
	if w.Uint32(uint32(len(loop))) {
		return true
	}
	for _, m := range loop {
		if w.Bool(m.Flipped) || w.Uint32(m.Edge) {
			return true
		}
	}
	return false
}

func (c *chunkFaces) ReadFrom(r *Reader) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var f sparkclip.Face
		var inner uint32
		if r.Float32(&f.Angle) ||
			r.Float32(&f.XOffset) ||
			r.Float32(&f.YOffset) ||
			r.Float32(&f.XScale) ||
			r.Float32(&f.YScale) ||
			r.Uint32(&f.Mapping) ||
			r.Uint32(&f.Material) ||
			r.Uint32(&inner) {
			return r.Err()
		}
		if readLoop(r, &f.Border) {
			return r.Err()
		}
		for j := uint32(0); j < inner; j++ {
			var loop sparkclip.EdgeLoop
			if readLoop(r, &loop) {
				return r.Err()
			}
			f.Inner = append(f.Inner, loop)
		}
		c.Faces = append(c.Faces, f)
	}
	return nil
}

func (c *chunkFaces) WriteTo(w *Writer) error {
	if w.Uint32(uint32(len(c.Faces))) {
		return w.Err()
	}
	for _, f := range c.Faces {
		if w.Float32(f.Angle) ||
			w.Float32(f.XOffset) ||
			w.Float32(f.YOffset) ||
			w.Float32(f.XScale) ||
			w.Float32(f.YScale) ||
			w.Uint32(f.Mapping) ||
			w.Uint32(f.Material) ||
			w.Uint32(uint32(len(f.Inner))) {
			return w.Err()
		}
		if writeLoop(w, f.Border) {
			return w.Err()
		}
		for _, loop := range f.Inner {
			if writeLoop(w, loop) {
				return w.Err()
			}
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkFaceLayers is filler expected by the editor: a face count, a format
// number, and a zero per face. Its content is ignored when decoding.
type chunkFaceLayers struct {
	FaceCount uint32
}

func (chunkFaceLayers) ID() uint32 { return idFaceLayers }

func (c *chunkFaceLayers) ReadFrom(r *Reader) error { return nil }

func (c *chunkFaceLayers) WriteTo(w *Writer) error {
	if w.Uint32(c.FaceCount) {
		return w.Err()
	}
	if c.FaceCount == 0 {
		return nil
	}
	if w.Uint32(faceLayerFormat) {
		return w.Err()
	}
	for i := uint32(0); i < c.FaceCount; i++ {
		if w.Uint32(0) {
			return w.Err()
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkMappingGroups is a list of mapping groups.
type chunkMappingGroups struct {
	Groups []sparkclip.MappingGroup
}

func (chunkMappingGroups) ID() uint32 { return idMappingGroups }

func (c *chunkMappingGroups) ReadFrom(r *Reader) error {
	var n uint32
	if r.Uint32(&n) {
		return r.Err()
	}
	for i := uint32(0); i < n; i++ {
		var m sparkclip.MappingGroup
		if r.Uint32(&m.ID) ||
			r.Float32(&m.Angle) ||
			r.Float32(&m.XScale) ||
			r.Float32(&m.YScale) ||
			r.Float32(&m.XOffset) ||
			r.Float32(&m.YOffset) ||
			r.Vec3(&m.Normal) {
			return r.Err()
		}
		c.Groups = append(c.Groups, m)
	}
	return nil
}

func (c *chunkMappingGroups) WriteTo(w *Writer) error {
	if w.Uint32(uint32(len(c.Groups))) {
		return w.Err()
	}
	for _, m := range c.Groups {
		if w.Uint32(m.ID) ||
			w.Float32(m.Angle) ||
			w.Float32(m.XScale) ||
			w.Float32(m.YScale) ||
			w.Float32(m.XOffset) ||
			w.Float32(m.YOffset) ||
			w.Vec3(m.Normal) {
			return w.Err()
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkGeometryGroups holds vertex, edge and face group counts. Groups are
// never written, and are skipped when decoding.
type chunkGeometryGroups struct{}

func (chunkGeometryGroups) ID() uint32 { return idGeometryGroups }

func (c *chunkGeometryGroups) ReadFrom(r *Reader) error { return nil }

func (c *chunkGeometryGroups) WriteTo(w *Writer) error {
	if w.Uint32(0) || w.Uint32(0) || w.Uint32(0) {
		return w.Err()
	}
	return nil
}

////////////////////////////////////////////////////////////////

// chunkUnknown is a chunk with an ID not known by the codec.
type chunkUnknown struct {
	Kind  uint32
	Bytes []byte
}

func (c *chunkUnknown) ID() uint32 { return c.Kind }

func (c *chunkUnknown) ReadFrom(r *Reader) error {
	c.Bytes = make([]byte, r.Len())
	if r.Bytes(c.Bytes) {
		return r.Err()
	}
	return nil
}

func (c *chunkUnknown) WriteTo(w *Writer) error {
	if w.Bytes(c.Bytes) {
		return w.Err()
	}
	return nil
}

////////////////////////////////////////////////////////////////

// geometryModel is the chunk-level representation of geometry.
type geometryModel struct {
	Selector uint16
	Chunks   []chunk
}

// readGeometry parses the payload of an outer geometry chunk. If the selector
// is not selectorGeometry, no chunks are read.
func readGeometry(r *Reader, strict bool) (f *geometryModel, warn, err error) {
	f = &geometryModel{}
	if r.Uint16(&f.Selector) {
		return nil, nil, r.Err()
	}
	if f.Selector != selectorGeometry {
		return f, nil, nil
	}

	var warns errors.Errors
	seen := map[uint32]bool{}
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			return nil, warns.Return(), r.Err()
		}
		gen := geometryChunks(raw.ID)
		if gen == nil {
			cerr := ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrUnknownChunk}
			if strict {
				return nil, warns.Return(), cerr
			}
			warns = append(warns, cerr)
			ch := &chunkUnknown{Kind: raw.ID}
			if err := ch.ReadFrom(raw.Reader()); err != nil {
				return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
			}
			f.Chunks = append(f.Chunks, ch)
			continue
		}
		if unique(raw.ID) {
			if seen[raw.ID] {
				return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrDuplicateChunk}
			}
			seen[raw.ID] = true
		}
		ch := gen()
		if err := ch.ReadFrom(raw.Reader()); err != nil {
			return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
		}
		f.Chunks = append(f.Chunks, ch)
	}
	if err := r.Err(); err != nil {
		return nil, warns.Return(), err
	}
	return f, warns.Return(), nil
}

// decodeGeometry transfers chunk content to a GeoData.
func (f *geometryModel) decode() *sparkclip.GeoData {
	g := &sparkclip.GeoData{}
	for _, ch := range f.Chunks {
		switch ch := ch.(type) {
		case *chunkMaterials:
			g.Materials = ch.Materials
		case *chunkVertices:
			g.Vertices = ch.Vertices
		case *chunkEdges:
			g.Edges = ch.Edges
		case *chunkFaces:
			g.Faces = ch.Faces
		case *chunkMappingGroups:
			g.MappingGroups = ch.Groups
		}
	}
	return g
}

// encodeGeometry produces the chunks of g in the order expected by the editor.
func encodeGeometry(g *sparkclip.GeoData) *geometryModel {
	return &geometryModel{
		Selector: selectorGeometry,
		Chunks: []chunk{
			&chunkMaterials{Materials: g.Materials},
			&chunkVertices{Vertices: g.Vertices},
			&chunkEdges{Edges: g.Edges},
			&chunkFaces{Faces: g.Faces},
			&chunkFaceLayers{FaceCount: uint32(len(g.Faces))},
			&chunkMappingGroups{Groups: g.MappingGroups},
			&chunkGeometryGroups{},
		},
	}
}

// writeGeometry writes f as an outer geometry chunk.
func writeGeometry(w *Writer, f *geometryModel) error {
	if w.BeginChunk(idGeometry) || w.Uint16(f.Selector) {
		return w.Err()
	}
	for _, ch := range f.Chunks {
		if w.BeginChunk(ch.ID()) {
			return w.Err()
		}
		if err := ch.WriteTo(w); err != nil {
			return ChunkError{Index: -1, ID: ch.ID(), Cause: err}
		}
		if w.EndChunk() {
			return w.Err()
		}
	}
	if w.EndChunk() {
		return w.Err()
	}
	return nil
}
