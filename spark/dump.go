package spark

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

// Dump writes to w a readable representation of the chunks in b. Model assets
// are detected by their magic; anything else is read as a sequence of
// top-level clipboard chunks.
func (d Decoder) Dump(w io.Writer, b []byte) (warn, err error) {
	if w == nil {
		return nil, errors.New("nil writer")
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	if bytes.HasPrefix(b, []byte(ModelMagic)) {
		m, warn, err := readModel(NewReader(b))
		if err != nil {
			return warn, err
		}
		bw.WriteString("Model: {")
		dumpModel(bw, 1, m)
		bw.WriteString("\n}\n")
		return warn, nil
	}

	var warns errors.Errors
	r := NewReader(b)
	bw.WriteString("Chunks: {")
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			break
		}
		dumpNewline(bw, 1)
		fmt.Fprintf(bw, "#%d: id %d (len:%d) {", i, raw.ID, len(raw.Payload))
		cr := raw.Reader()
		var selector uint16
		if cr.Len() >= 2 {
			cr.Uint16(&selector)
		}
		dumpNewline(bw, 2)
		fmt.Fprintf(bw, "Selector: %d", selector)
		switch {
		case raw.ID == idGeometry && selector == selectorGeometry:
			f, ws, err := readGeometry(raw.Reader(), d.Strict)
			warns = warns.Append(errors.List(ws)...)
			if err != nil {
				dumpErrored(bw, 2, raw, err)
				break
			}
			for j, ch := range f.Chunks {
				dumpChunk(bw, 2, j, ch)
			}
		case selector == selectorEntities:
			dumpEntities(bw, 2, cr, &warns)
		default:
			dumpNewline(bw, 2)
			bw.WriteString("Bytes: ")
			dumpBytes(bw, 2, raw.Payload)
		}
		dumpNewline(bw, 1)
		bw.WriteByte('}')
	}
	bw.WriteString("\n}\n")
	if err := r.Err(); err != nil {
		return warns.Return(), err
	}
	return warns.Return(), nil
}

// Dump writes a readable representation of b with the default Decoder.
func Dump(w io.Writer, b []byte) (warn, err error) {
	return Decoder{}.Dump(w, b)
}

func dumpErrored(w *bufio.Writer, indent int, raw Chunk, err error) {
	dumpNewline(w, indent)
	w.WriteString("<errored chunk>")
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Offset: %d", raw.Offset)
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Error: %s", err)
	dumpNewline(w, indent)
	w.WriteString("Bytes: ")
	dumpBytes(w, indent, raw.Payload)
}

func dumpLoop(w *bufio.Writer, indent int, name string, loop sparkclip.EdgeLoop) {
	dumpNewline(w, indent)
	fmt.Fprintf(w, "%s: (count:%d)", name, len(loop))
	for _, m := range loop {
		if m.Flipped {
			fmt.Fprintf(w, " ~%d", m.Edge)
		} else {
			fmt.Fprintf(w, " %d", m.Edge)
		}
	}
}

func dumpChunk(w *bufio.Writer, indent, i int, ch chunk) {
	dumpNewline(w, indent)
	fmt.Fprintf(w, "#%d: %s (id %d) {", i, chunkName(ch.ID()), ch.ID())
	switch ch := ch.(type) {
	case *chunkMaterials:
		for j, s := range ch.Materials {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: ", j)
			dumpString(w, indent+1, s)
		}
	case *chunkVertices:
		for j, v := range ch.Vertices {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: %g, %g, %g", j, v[0], v[1], v[2])
		}
	case *chunkEdges:
		for j, e := range ch.Edges {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: %d - %d", j, e.A, e.B)
			if e.Smooth {
				w.WriteString(" (smooth)")
			}
		}
	case *chunkFaces:
		for j, f := range ch.Faces {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: {", j)
			dumpNewline(w, indent+2)
			fmt.Fprintf(w, "Angle: %g", f.Angle)
			dumpNewline(w, indent+2)
			fmt.Fprintf(w, "Offset: %g, %g", f.XOffset, f.YOffset)
			dumpNewline(w, indent+2)
			fmt.Fprintf(w, "Scale: %g, %g", f.XScale, f.YScale)
			dumpNewline(w, indent+2)
			if f.Mapping == sparkclip.MappingNone {
				w.WriteString("Mapping: none")
			} else {
				fmt.Fprintf(w, "Mapping: %d", f.Mapping)
			}
			dumpNewline(w, indent+2)
			fmt.Fprintf(w, "Material: %d", f.Material)
			dumpLoop(w, indent+2, "Border", f.Border)
			for k, loop := range f.Inner {
				dumpLoop(w, indent+2, "Inner "+strconv.Itoa(k), loop)
			}
			dumpNewline(w, indent+1)
			w.WriteByte('}')
		}
	case *chunkMappingGroups:
		for j, m := range ch.Groups {
			dumpNewline(w, indent+1)
			fmt.Fprintf(w, "%d: id %d angle %g scale %g, %g offset %g, %g normal %g, %g, %g",
				j, m.ID, m.Angle, m.XScale, m.YScale, m.XOffset, m.YOffset,
				m.Normal[0], m.Normal[1], m.Normal[2])
		}
	case *chunkUnknown:
		dumpNewline(w, indent+1)
		w.WriteString("<unknown chunk id>")
		dumpNewline(w, indent+1)
		w.WriteString("Bytes: ")
		dumpBytes(w, indent+1, ch.Bytes)
	}
	dumpNewline(w, indent)
	w.WriteByte('}')
}

func dumpEntities(w *bufio.Writer, indent int, r *Reader, warns *errors.Errors) {
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			break
		}
		dumpNewline(w, indent)
		if raw.ID != idEntity {
			fmt.Fprintf(w, "#%d: id %d (unknown) ", i, raw.ID)
			dumpBytes(w, indent, raw.Payload)
			continue
		}
		e, ws, err := readEntity(raw.Reader())
		*warns = warns.Append(errors.List(ws)...)
		if err != nil {
			fmt.Fprintf(w, "#%d: entity {", i)
			dumpErrored(w, indent+1, raw, err)
			dumpNewline(w, indent)
			w.WriteByte('}')
			continue
		}
		fmt.Fprintf(w, "#%d: entity ", i)
		dumpString(w, indent, e.Class)
		fmt.Fprintf(w, " (layer:%d group:%d) {", e.Layer, e.Group)
		for _, p := range e.Properties {
			dumpNewline(w, indent+1)
			dumpString(w, indent+1, p.Name)
			fmt.Fprintf(w, " (type:%d anim:%d): ", p.Type, p.AnimFlag)
			if p.Type == sparkclip.TypeString {
				dumpString(w, indent+1, p.Text)
			} else {
				fmt.Fprintf(w, "%g", p.Components)
			}
		}
		dumpNewline(w, indent)
		w.WriteByte('}')
	}
	if err := r.Err(); err != nil {
		dumpNewline(w, indent)
		fmt.Fprintf(w, "Error: %s", err)
	}
}

func dumpModel(w *bufio.Writer, indent int, m *sparkclip.Model) {
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Vertices: (count:%d) {", len(m.Vertices))
	for i, v := range m.Vertices {
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "%d: pos %g nrm %g uv %g color %08X", i, v.Pos, v.Normal, v.UV, v.Color)
	}
	dumpNewline(w, indent)
	w.WriteByte('}')
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Indices: (count:%d) %d", len(m.Indices), m.Indices)
	dumpNewline(w, indent)
	fmt.Fprintf(w, "FaceSets: (count:%d) {", len(m.FaceSets))
	for i, s := range m.FaceSets {
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "%d: material %d first %d count %d bones %d", i, s.Material, s.FirstFace, s.FaceCount, s.Bones)
	}
	dumpNewline(w, indent)
	w.WriteByte('}')
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Materials: (count:%d) {", len(m.Materials))
	for i, s := range m.Materials {
		dumpNewline(w, indent+1)
		fmt.Fprintf(w, "%d: ", i)
		dumpString(w, indent+1, s)
	}
	dumpNewline(w, indent)
	w.WriteByte('}')
	dumpNewline(w, indent)
	fmt.Fprintf(w, "Bounds: origin %g extents %g", m.Bounds.Origin, m.Bounds.Extents)
}

func dumpNewline(w *bufio.Writer, indent int) {
	w.WriteByte('\n')
	for i := 0; i < indent; i++ {
		w.WriteByte('\t')
	}
}

func dumpString(w *bufio.Writer, indent int, s string) {
	for _, r := range s {
		if !unicode.IsGraphic(r) {
			dumpBytes(w, indent, []byte(s))
			return
		}
	}
	fmt.Fprintf(w, "(len:%d) ", len(s))
	w.WriteString(strconv.Quote(s))
}

func dumpBytes(w *bufio.Writer, indent int, b []byte) {
	fmt.Fprintf(w, "(len:%d)", len(b))
	const width = 16
	for j := 0; j < len(b); j += width {
		dumpNewline(w, indent+1)
		w.WriteString("| ")
		for i := j; i < j+width; {
			if i < len(b) {
				s := strconv.FormatUint(uint64(b[i]), 16)
				if len(s) == 1 {
					w.WriteString("0")
				}
				w.WriteString(s)
			} else if len(b) < width {
				break
			} else {
				w.WriteString("  ")
			}
			i++
			if i%8 == 0 && i < j+width {
				w.WriteString("  ")
			} else {
				w.WriteString(" ")
			}
		}
		w.WriteString("|")
		n := len(b)
		if j+width < n {
			n = j + width
		}
		for i := j; i < n; i++ {
			if 32 <= b[i] && b[i] <= 126 {
				w.WriteRune(rune(b[i]))
			} else {
				w.WriteByte('.')
			}
		}
		w.WriteByte('|')
	}
}
