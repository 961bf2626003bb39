package mesh

import (
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
	"github.com/sparkclip/sparkclip/spark"
)

// DefaultExportMaterial is the material path given to polygons without a
// texture.
const DefaultExportMaterial = "ns2/materials/dev/dev_1024x1024.dds"

// ExportOptions configures an Exporter.
type ExportOptions struct {
	// CorrectUnits scales host units into Spark units by 1/InchesPerMeter.
	CorrectUnits bool

	// CorrectAxes maps host axes back to Spark axes, the inverse of
	// ImportOptions.CorrectAxes.
	CorrectAxes bool

	// ExportTextures fits texture settings to each polygon with the
	// Exporter's FaceMapper.
	ExportTextures bool
}

// Exporter converts host meshes into Spark geometry.
type Exporter struct {
	Options ExportOptions

	// Mapper fits texture settings when textures are exported. If nil, every
	// polygon gets the default settings and material.
	Mapper FaceMapper
}

// ExportClipboard exports the meshes of p and places the encoded geometry on
// cb.
func (e *Exporter) ExportClipboard(p Provider, cb Clipboard) error {
	g, err := e.Export(p)
	if err != nil {
		return err
	}
	b, err := spark.EncodeGeometry(g)
	if err != nil {
		return err
	}
	if err := cb.SetClipboard(b); err != nil {
		return errors.Wrap(err, "write clipboard")
	}
	return nil
}

// Export converts each mesh of p into Spark geometry, and merges the results
// in order. Returns ErrNoMeshes if p has no meshes.
func (e *Exporter) Export(p Provider) (*sparkclip.GeoData, error) {
	meshes, err := p.Meshes()
	if err != nil {
		return nil, err
	}
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}
	var merged *sparkclip.GeoData
	for i, m := range meshes {
		g, err := e.convert(m)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
		if merged == nil {
			merged = g
			continue
		}
		if merged, err = sparkclip.Merge(merged, g); err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
	}
	return merged, nil
}

func (e *Exporter) convert(m MeshView) (*sparkclip.GeoData, error) {
	g := &sparkclip.GeoData{}

	verts := m.Vertices()
	g.Vertices = make([]vec3.T, len(verts))
	for i, v := range verts {
		v = toSpark(v, e.Options.CorrectAxes)
		if e.Options.CorrectUnits {
			v.Scale(1 / InchesPerMeter)
		}
		g.Vertices[i] = v
	}

	edges := m.Edges()
	g.Edges = make([]sparkclip.Edge, len(edges))
	for i, edge := range edges {
		if int(edge.A) >= len(verts) || int(edge.B) >= len(verts) {
			return nil, errors.Wrapf(sparkclip.IndexError{Table: "vertex", Index: max(edge.A, edge.B), Len: len(verts)}, "edge %d", i)
		}
		g.Edges[i] = sparkclip.Edge{A: edge.A, B: edge.B, Smooth: edge.Sharp}
	}

	polys := m.Polygons()
	g.Faces = make([]sparkclip.Face, len(polys))
	for i, poly := range polys {
		f := sparkclip.Face{
			XScale:  1,
			YScale:  1,
			Mapping: sparkclip.MappingNone,
			Border:  make(sparkclip.EdgeLoop, len(poly.Loops)),
		}
		material := DefaultExportMaterial
		if e.Options.ExportTextures && e.Mapper != nil {
			if fit, ok := e.Mapper.MapFace(m, i); ok {
				f.Angle = fit.Angle
				f.XOffset = fit.XOffset
				f.YOffset = fit.YOffset
				f.XScale = fit.XScale
				f.YScale = fit.YScale
				if fit.Image != "" {
					material = fit.Image
				}
			}
		}
		f.Material = addMaterial(g, CleanMaterialPath(material))
		for j, loop := range poly.Loops {
			if int(loop.Edge) >= len(edges) {
				return nil, errors.Wrapf(sparkclip.IndexError{Table: "edge", Index: loop.Edge, Len: len(edges)}, "polygon %d", i)
			}
			f.Border[j] = sparkclip.LoopMember{
				Flipped: edges[loop.Edge].B == loop.Vertex,
				Edge:    loop.Edge,
			}
		}
		g.Faces[i] = f
	}
	return g, nil
}

func addMaterial(g *sparkclip.GeoData, path string) uint32 {
	for i, m := range g.Materials {
		if m == path {
			return uint32(i)
		}
	}
	g.Materials = append(g.Materials, path)
	return uint32(len(g.Materials) - 1)
}

// CleanMaterialPath converts the path of a texture file into a Spark material
// path. Everything up to and including the first "ns2" or "output" segment is
// removed, and the extension is replaced with "material". A path without
// either segment is kept whole, and a name without an extension gets one.
func CleanMaterialPath(path string) string {
	segments := strings.Split(strings.ReplaceAll(path, `\`, "/"), "/")
	for i, s := range segments {
		if s == "ns2" || s == "output" {
			segments = segments[i+1:]
			break
		}
	}
	if len(segments) == 0 {
		return ""
	}
	last := len(segments) - 1
	name := segments[last]
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		name = name[:dot]
	}
	segments[last] = name + ".material"
	return strings.Join(segments, "/")
}
