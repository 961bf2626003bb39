// The sparkclip-stat command displays stats for Spark clipboard data.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/capture"
	"github.com/sparkclip/sparkclip/spark"
	"github.com/sparkclip/sparkclip/triangulate"
)

const usage = `usage: sparkclip-stat [-model] [INPUT] [OUTPUT]

Reads clipboard data or a capture file from INPUT, and writes to OUTPUT
statistics for the data. With -model, INPUT is read as a model file instead.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.
`

type GeometryStats struct {
	MaterialCount     int
	VertexCount       int
	EdgeCount         int
	SmoothEdgeCount   int
	FaceCount         int
	HoleCount         int
	MappingGroupCount int

	// Number of triangles produced by triangulating every face.
	TriangleCount int

	// Faces that could not be triangulated.
	FailedFaces []int `json:",omitempty"`

	// Number of faces per material path.
	MaterialUse map[string]int
}

type Stats struct {
	Capture string `json:",omitempty"`

	Geometry *GeometryStats `json:",omitempty"`

	// Number of static props overall.
	PropCount int

	// Number of props per model path.
	ModelCount map[string]int `json:",omitempty"`
}

type ModelStats struct {
	VertexCount   int
	TriangleCount int
	FaceSetCount  int
	Materials     []string
	Bounds        sparkclip.BoundingBox
}

func geometryStats(g *sparkclip.GeoData) *GeometryStats {
	s := &GeometryStats{
		MaterialCount:     len(g.Materials),
		VertexCount:       len(g.Vertices),
		EdgeCount:         len(g.Edges),
		FaceCount:         len(g.Faces),
		MappingGroupCount: len(g.MappingGroups),
		MaterialUse:       map[string]int{},
	}
	for _, e := range g.Edges {
		if e.Smooth {
			s.SmoothEdgeCount++
		}
	}
	for i := range g.Faces {
		f := &g.Faces[i]
		s.HoleCount += len(f.Inner)
		if int(f.Material) < len(g.Materials) {
			s.MaterialUse[g.Materials[f.Material]]++
		}
		tris, err := triangulate.Face(g, f)
		if err != nil {
			s.FailedFaces = append(s.FailedFaces, i)
			continue
		}
		s.TriangleCount += len(tris)
	}
	return s
}

func modelStats(m *sparkclip.Model) *ModelStats {
	return &ModelStats{
		VertexCount:   len(m.Vertices),
		TriangleCount: len(m.Indices) / 3,
		FaceSetCount:  len(m.FaceSets),
		Materials:     m.Materials,
		Bounds:        m.Bounds,
	}
}

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	isModel := flag.Bool("model", false, "read INPUT as a model file")
	flag.Usage = func() { fmt.Fprintf(flag.CommandLine.Output(), usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("open input: %w", err))
			return
		}
		input = in
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("create output: %w", err))
			return
		}
		defer out.Close()
		defer func() {
			err := out.Sync()
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("sync output: %w", err))
				return
			}
		}()
		output = out
	}

	b, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("read input: %w", err))
		return
	}

	var result interface{}
	if *isModel {
		m, warn, err := spark.DecodeModel(b)
		if warn != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", warn))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
			return
		}
		result = modelStats(m)
	} else {
		var stats Stats
		if bytes.HasPrefix(b, []byte(capture.Magic)) {
			c, err := capture.Read(bytes.NewReader(b))
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("read capture: %w", err))
				return
			}
			stats.Capture = c.ID.String()
			b = c.Payload
		}
		l, warn, err := spark.DecodeLevel(b)
		if warn != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("warning: %w", warn))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("error: %w", err))
			return
		}
		if l.Geometry != nil {
			stats.Geometry = geometryStats(l.Geometry)
		}
		stats.PropCount = len(l.Props)
		if len(l.Props) > 0 {
			stats.ModelCount = map[string]int{}
			for _, prop := range l.Props {
				stats.ModelCount[prop.Model]++
			}
		}
		result = stats
	}

	je := json.NewEncoder(output)
	je.SetEscapeHTML(false)
	je.SetIndent("", "\t")
	if err := je.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("encode error: %w", err))
		return
	}
}
