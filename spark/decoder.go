package spark

import (
	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

// Decoder decodes Spark data.
type Decoder struct {
	// If Strict is true, then geometry chunks with unknown IDs produce an error
	// instead of a warning.
	Strict bool
}

// DecodeGeometry decodes a mesh clipboard payload. The payload must begin with
// an outer geometry chunk. If the selector of that chunk does not indicate
// geometry, an empty GeoData is returned.
func (d Decoder) DecodeGeometry(b []byte) (g *sparkclip.GeoData, warn, err error) {
	r := NewReader(b)
	var outer Chunk
	if r.Chunk(&outer) {
		return nil, nil, r.Err()
	}
	if outer.ID != idGeometry {
		return nil, nil, DataError{Offset: 0, Cause: errors.ErrMalformedHeader}
	}
	f, warn, err := readGeometry(outer.Reader(), d.Strict)
	if err != nil {
		return nil, warn, err
	}
	if !r.Done() {
		warn = errors.Union(warn, DataError{Offset: r.Offset(), Cause: errors.New("trailing data after geometry")})
	}
	return f.decode(), warn, nil
}

// DecodeLevel decodes a level clipboard payload, which is a sequence of
// top-level chunks. The first chunk with the geometry selector is decoded as
// geometry, and the first chunk with the entity selector is decoded as entity
// data. Other chunks are skipped with a warning.
func (d Decoder) DecodeLevel(b []byte) (l *sparkclip.LevelData, warn, err error) {
	l = &sparkclip.LevelData{}
	r := NewReader(b)
	var warns errors.Errors
	var haveEntities bool
	for i := 0; !r.Done(); i++ {
		var raw Chunk
		if r.Chunk(&raw) {
			return nil, warns.Return(), r.Err()
		}
		cr := raw.Reader()
		var selector uint16
		if cr.Len() >= 2 {
			cr.Uint16(&selector)
		}
		switch {
		case raw.ID == idGeometry && selector == selectorGeometry:
			if l.Geometry != nil {
				return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrDuplicateChunk}
			}
			f, w, err := readGeometry(raw.Reader(), d.Strict)
			warns = warns.Append(errors.List(w)...)
			if err != nil {
				return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
			}
			l.Geometry = f.decode()
		case selector == selectorEntities && !haveEntities:
			haveEntities = true
			props, w, err := readEntities(cr)
			warns = warns.Append(errors.List(w)...)
			if err != nil {
				return nil, warns.Return(), ChunkError{Index: i, ID: raw.ID, Cause: err}
			}
			l.Props = props
		case selector != selectorEntities && selector != selectorGeometry:
			warns = append(warns, ChunkError{Index: i, ID: raw.ID, Cause: ErrUnrecognizedVersion(selector)})
		default:
			warns = append(warns, ChunkError{Index: i, ID: raw.ID, Cause: errors.ErrUnknownChunk})
		}
	}
	if err := r.Err(); err != nil {
		return nil, warns.Return(), err
	}
	return l, warns.Return(), nil
}

// DecodeModel decodes a model asset.
func (d Decoder) DecodeModel(b []byte) (m *sparkclip.Model, warn, err error) {
	return readModel(NewReader(b))
}

// DecodeGeometry decodes a mesh clipboard payload with the default Decoder.
func DecodeGeometry(b []byte) (g *sparkclip.GeoData, warn, err error) {
	return Decoder{}.DecodeGeometry(b)
}

// DecodeLevel decodes a level clipboard payload with the default Decoder.
func DecodeLevel(b []byte) (l *sparkclip.LevelData, warn, err error) {
	return Decoder{}.DecodeLevel(b)
}

// DecodeModel decodes a model asset with the default Decoder.
func DecodeModel(b []byte) (m *sparkclip.Model, warn, err error) {
	return Decoder{}.DecodeModel(b)
}

////////////////////////////////////////////////////////////////

// EncodeGeometry encodes g as a mesh clipboard payload. The output depends
// only on the content of g.
func EncodeGeometry(g *sparkclip.GeoData) ([]byte, error) {
	if g == nil {
		return nil, errors.New("nil geometry")
	}
	w := NewWriter()
	if err := writeGeometry(w, encodeGeometry(g)); err != nil {
		return nil, err
	}
	return w.Final()
}

// EncodeLevel encodes l as a level clipboard payload. Geometry is written
// first, followed by entity data if l has any props.
func EncodeLevel(l *sparkclip.LevelData) ([]byte, error) {
	if l == nil {
		return nil, errors.New("nil level")
	}
	w := NewWriter()
	if l.Geometry != nil {
		if err := writeGeometry(w, encodeGeometry(l.Geometry)); err != nil {
			return nil, err
		}
	}
	if len(l.Props) > 0 {
		if err := writeEntities(w, l.Props); err != nil {
			return nil, err
		}
	}
	return w.Final()
}

// EncodeModel encodes m as a model asset.
func EncodeModel(m *sparkclip.Model) ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	w := NewWriter()
	if err := writeModel(w, m); err != nil {
		return nil, err
	}
	return w.Final()
}
