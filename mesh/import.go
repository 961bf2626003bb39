package mesh

import (
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
	"github.com/sparkclip/sparkclip/spark"
	"github.com/sparkclip/sparkclip/triangulate"
)

// ImportOptions configures an Importer.
type ImportOptions struct {
	// CorrectUnits scales Spark units into host units by InchesPerMeter.
	CorrectUnits bool

	// CorrectAxes maps Spark axes (x, y, z) to host axes (z, x, y).
	CorrectAxes bool

	// ImportTextures resolves the texture of each material. It is disabled,
	// with a warning, when none of the search paths exist.
	ImportTextures bool

	// SearchPaths lists the directories in which materials and models are
	// looked up. It is normalized anew by each import.
	SearchPaths []string
}

// Importer converts Spark clipboard data and feeds it to a Sink.
type Importer struct {
	Options ImportOptions
	Decoder spark.Decoder

	// Resolver resolves materials when textures are imported. If nil,
	// materials carry only their path.
	Resolver MaterialResolver

	// Projector computes texture coordinates. If nil, faces have no UVs.
	Projector UVProjector

	// Models loads prop models. If nil, DirModelLoader is used.
	Models ModelLoader
}

// ImportClipboard imports the payload currently held by cb.
func (imp *Importer) ImportClipboard(cb Clipboard, sink Sink) (warn, err error) {
	b, err := cb.GetClipboard()
	if err != nil {
		return nil, errors.Wrap(err, "read clipboard")
	}
	return imp.Import(b, sink)
}

// Import decodes the level payload b and sends its geometry and props to
// sink.
//
// Faces that cannot be represented in the host are skipped, each reported by
// a FaceError in warn. Props whose model cannot be loaded are skipped with a
// PropError. An error returned by sink stops the import.
func (imp *Importer) Import(b []byte, sink Sink) (warn, err error) {
	var warns errors.Errors
	level, w, err := imp.Decoder.DecodeLevel(b)
	warns = warns.Append(errors.List(w)...)
	if err != nil {
		return warns.Return(), err
	}

	paths := NewSearchPaths(imp.Options.SearchPaths...)
	textures := imp.Options.ImportTextures
	if textures && len(paths) == 0 {
		warns = warns.Append(ErrNoSearchPaths)
		textures = false
	}
	factor := float32(1)
	if imp.Options.CorrectUnits {
		factor = InchesPerMeter
	}

	if level.Geometry != nil {
		m, w := imp.importGeometry(level.Geometry, paths, textures, factor)
		warns = warns.Append(errors.List(w)...)
		if err := sink.AddMesh(m); err != nil {
			return warns.Return(), err
		}
	}

	if len(level.Props) == 0 {
		return warns.Return(), nil
	}
	loader := imp.Models
	if loader == nil {
		loader = DirModelLoader{}
	}
	cache := newModelCache(loader, paths, imp.Options.CorrectAxes, imp.Decoder)
	for i, prop := range level.Props {
		mm, w, err := cache.get(prop.Model)
		if w != nil {
			warns = warns.Append(PropError{Index: i, Model: prop.Model, Cause: w})
		}
		if err != nil {
			warns = warns.Append(PropError{Index: i, Model: prop.Model, Cause: err})
			continue
		}
		p := &PlacedProp{
			Model:    prop.Model,
			Mesh:     mm,
			Location: toHost(prop.Origin, imp.Options.CorrectAxes),
			Rotation: prop.Angles,
			Scale:    toHost(prop.Scale, imp.Options.CorrectAxes),
		}
		p.Location.Scale(factor)
		p.Scale.Scale(factor)
		if err := sink.AddProp(p); err != nil {
			return warns.Return(), err
		}
	}
	return warns.Return(), nil
}

func (imp *Importer) importGeometry(g *sparkclip.GeoData, paths SearchPaths, textures bool, factor float32) (m *ImportedMesh, warn error) {
	var warns errors.Errors
	m = &ImportedMesh{
		Vertices:  make([]vec3.T, len(g.Vertices)),
		Materials: make([]Material, len(g.Materials)),
	}

	for i, path := range g.Materials {
		m.Materials[i] = Material{Path: path}
		if !textures || imp.Resolver == nil {
			continue
		}
		mat, err := imp.Resolver.ResolveMaterial(path, paths)
		if err != nil {
			warns = warns.Append(MaterialError{Index: i, Path: path, Cause: err})
			continue
		}
		mat.Path = path
		m.Materials[i] = mat
	}

	for i, v := range g.Vertices {
		v = toHost(v, imp.Options.CorrectAxes)
		v.Scale(factor)
		m.Vertices[i] = v
	}

	for i := range g.Faces {
		if err := imp.importFace(m, g, i, factor); err != nil {
			warns = warns.Append(err)
		}
	}

	for _, e := range g.Edges {
		if e.Smooth {
			m.SharpEdges = append(m.SharpEdges, [2]uint32{e.A, e.B})
		}
	}
	return m, warns.Return()
}

// importFace adds the polygons of face i to m. Faces without holes are added
// as a single polygon. Faces with holes are added as triangles.
func (imp *Importer) importFace(m *ImportedMesh, g *sparkclip.GeoData, i int, factor float32) error {
	f := &g.Faces[i]
	s, hasNormal := g.Settings(f)
	if int(f.Material) >= len(m.Materials) {
		return FaceError{Face: i, Cause: sparkclip.IndexError{Table: "material", Index: f.Material, Len: len(m.Materials)}}
	}
	var normal vec3.T
	if hasNormal {
		normal = toHost(s.Normal, imp.Options.CorrectAxes)
	}

	if len(f.Inner) == 0 || len(f.Inner[0]) == 0 {
		ids, err := g.LoopVertices(f.Border)
		if err != nil {
			return FaceError{Face: i, Cause: err}
		}
		if len(ids) < 3 {
			return FaceError{Face: i, Cause: errors.ErrDegenerateGeometry}
		}
		if hasDuplicate(ids) {
			return FaceError{Face: i, Cause: errDuplicateVertex}
		}
		pos := m.positions(ids)
		if !hasNormal {
			var ok bool
			if normal, ok = polygonNormal(pos); !ok {
				return FaceError{Face: i, Cause: errCollinear}
			}
		}
		m.Faces = append(m.Faces, imp.face(i, ids, pos, normal, s, m.Materials[f.Material], factor))
		return nil
	}

	tris, err := triangulate.Face(g, f)
	if err != nil {
		return FaceError{Face: i, Cause: err}
	}
	for _, t := range tris {
		ids := []uint32{t[0], t[1], t[2]}
		pos := m.positions(ids)
		if !hasNormal {
			normal, hasNormal = triangleNormal(pos[0], pos[1], pos[2])
		}
		m.Faces = append(m.Faces, imp.face(i, ids, pos, normal, s, m.Materials[f.Material], factor))
	}
	return nil
}

func (imp *Importer) face(source int, ids []uint32, pos []vec3.T, normal vec3.T, s sparkclip.TextureSettings, mat Material, factor float32) ImportedFace {
	face := ImportedFace{
		Source:   source,
		Vertices: ids,
		Material: s.Material,
		Normal:   normal,
	}
	if imp.Projector != nil {
		face.UVs = imp.Projector.ProjectUVs(pos, normal, s, factor, mat)
	}
	return face
}

func (m *ImportedMesh) positions(ids []uint32) []vec3.T {
	pos := make([]vec3.T, len(ids))
	for i, id := range ids {
		pos[i] = m.Vertices[id]
	}
	return pos
}

func hasDuplicate(ids []uint32) bool {
	seen := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
