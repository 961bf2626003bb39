package spark

import (
	"bytes"

	"github.com/anaminus/parse"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/sparkclip/sparkclip/errors"
)

// Narrow strings are single-byte text; wide strings are UTF-16 with a length
// counted in code units.
var (
	narrowEncoding encoding.Encoding = charmap.Windows1252
	wideEncoding   encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

////////////////////////////////////////////////////////////////

// Reader is a sequential cursor over an immutable byte buffer. Each method
// returns true if the read failed. Once a read fails, all further reads fail,
// and Err returns the first error.
//
// A read never goes past the end of the buffer; requesting more bytes than
// remain fails with errors.ErrTruncatedStream.
type Reader struct {
	src  *bytes.Reader
	fr   *parse.BinaryReader
	base int64
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return newReader(b, 0)
}

func newReader(b []byte, base int64) *Reader {
	src := bytes.NewReader(b)
	return &Reader{src: src, fr: parse.NewBinaryReader(src), base: base}
}

// Offset returns the position of the cursor, relative to the start of the
// outermost buffer.
func (r *Reader) Offset() int64 {
	return r.base + r.fr.N()
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return r.src.Len()
}

// Done returns whether the reader has no unread bytes or has failed.
func (r *Reader) Done() bool {
	return r.fr.Err() != nil || r.src.Len() == 0
}

// Err returns the first error that occurred, wrapped in a DataError with the
// offset of the failure.
func (r *Reader) Err() error {
	if err := r.fr.Err(); err != nil {
		return DataError{Offset: r.Offset(), Cause: err}
	}
	return nil
}

// Fail records err as the reader's error, if no error has occurred yet.
// Always returns true.
func (r *Reader) Fail(err error) bool {
	r.fr.Add(0, err)
	return true
}

func (r *Reader) need(n uint64) (failed bool) {
	if r.fr.Err() != nil {
		return true
	}
	if uint64(r.src.Len()) < n {
		return r.Fail(errors.ErrTruncatedStream)
	}
	return false
}

func (r *Reader) Uint8(v *uint8) (failed bool) {
	if r.need(1) {
		return true
	}
	return r.fr.Number(v)
}

func (r *Reader) Uint16(v *uint16) (failed bool) {
	if r.need(2) {
		return true
	}
	return r.fr.Number(v)
}

func (r *Reader) Uint32(v *uint32) (failed bool) {
	if r.need(4) {
		return true
	}
	return r.fr.Number(v)
}

func (r *Reader) Float32(v *float32) (failed bool) {
	if r.need(4) {
		return true
	}
	return r.fr.Number(v)
}

func (r *Reader) Vec2(v *vec2.T) (failed bool) {
	return r.Float32(&v[0]) || r.Float32(&v[1])
}

func (r *Reader) Vec3(v *vec3.T) (failed bool) {
	return r.Float32(&v[0]) || r.Float32(&v[1]) || r.Float32(&v[2])
}

// Bytes reads exactly len(p) bytes into p.
func (r *Reader) Bytes(p []byte) (failed bool) {
	if r.need(uint64(len(p))) {
		return true
	}
	return r.fr.Bytes(p)
}

// Skip discards n bytes.
func (r *Reader) Skip(n uint32) (failed bool) {
	if r.need(uint64(n)) {
		return true
	}
	return r.fr.Bytes(make([]byte, n))
}

// NarrowString reads a string prefixed with its uint32 byte length.
func (r *Reader) NarrowString(s *string) (failed bool) {
	var length uint32
	if r.Uint32(&length) || r.need(uint64(length)) {
		return true
	}
	b := make([]byte, length)
	if r.Bytes(b) {
		return true
	}
	text, err := narrowEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return r.Fail(err)
	}
	*s = string(text)
	return false
}

// WideString reads a UTF-16 string prefixed with its uint32 length in code
// units.
func (r *Reader) WideString(s *string) (failed bool) {
	var length uint32
	if r.Uint32(&length) || r.need(uint64(length)*2) {
		return true
	}
	b := make([]byte, uint64(length)*2)
	if r.Bytes(b) {
		return true
	}
	text, err := wideEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return r.Fail(err)
	}
	*s = string(text)
	return false
}

// Chunk is a chunk read from a Reader.
type Chunk struct {
	ID uint32

	// Offset is the position of the payload within the outermost buffer.
	Offset int64

	Payload []byte
}

// Reader returns a Reader over the chunk's payload.
func (c Chunk) Reader() *Reader {
	return newReader(c.Payload, c.Offset)
}

// Chunk reads a chunk header and its payload. The cursor is left after the
// payload.
func (r *Reader) Chunk(c *Chunk) (failed bool) {
	var length uint32
	if r.Uint32(&c.ID) || r.Uint32(&length) || r.need(uint64(length)) {
		return true
	}
	c.Offset = r.Offset()
	c.Payload = make([]byte, length)
	return r.Bytes(c.Payload)
}

////////////////////////////////////////////////////////////////

// Writer is an append-only byte sink that supports nested chunks. Each method
// returns true if the write failed. Once a write fails, all further writes
// fail, and Err returns the first error.
//
// BeginChunk writes a chunk ID and opens a new buffer; EndChunk closes the
// innermost buffer, writes its length, and appends its content to the
// enclosing buffer. Unbalanced use panics.
type Writer struct {
	bufs []*bytes.Buffer
	fws  []*parse.BinaryWriter
	err  error
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	w := &Writer{}
	w.push()
	return w
}

func (w *Writer) push() {
	buf := new(bytes.Buffer)
	w.bufs = append(w.bufs, buf)
	w.fws = append(w.fws, parse.NewBinaryWriter(buf))
}

func (w *Writer) top() *parse.BinaryWriter {
	return w.fws[len(w.fws)-1]
}

// Err returns the first error that occurred.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) check(failed bool) bool {
	if failed && w.err == nil {
		w.err = w.top().Err()
		if w.err == nil {
			w.err = errors.New("write failed")
		}
	}
	return w.err != nil
}

func (w *Writer) number(v interface{}) (failed bool) {
	if w.err != nil {
		return true
	}
	return w.check(w.top().Number(v))
}

func (w *Writer) Uint8(v uint8) (failed bool)   { return w.number(v) }
func (w *Writer) Uint16(v uint16) (failed bool) { return w.number(v) }
func (w *Writer) Uint32(v uint32) (failed bool) { return w.number(v) }
func (w *Writer) Float32(v float32) (failed bool) {
	return w.number(v)
}

func (w *Writer) Vec2(v vec2.T) (failed bool) {
	return w.Float32(v[0]) || w.Float32(v[1])
}

func (w *Writer) Vec3(v vec3.T) (failed bool) {
	return w.Float32(v[0]) || w.Float32(v[1]) || w.Float32(v[2])
}

// Bool writes b as a uint32 of 0 or 1.
func (w *Writer) Bool(b bool) (failed bool) {
	if b {
		return w.Uint32(1)
	}
	return w.Uint32(0)
}

func (w *Writer) Bytes(p []byte) (failed bool) {
	if w.err != nil {
		return true
	}
	return w.check(w.top().Bytes(p))
}

// NarrowString writes s as single-byte text prefixed with its byte length.
func (w *Writer) NarrowString(s string) (failed bool) {
	if w.err != nil {
		return true
	}
	b, err := narrowEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.err = err
		return true
	}
	return w.Uint32(uint32(len(b))) || w.Bytes(b)
}

// WideString writes s as UTF-16 prefixed with its length in code units.
func (w *Writer) WideString(s string) (failed bool) {
	if w.err != nil {
		return true
	}
	b, err := wideEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.err = err
		return true
	}
	return w.Uint32(uint32(len(b)/2)) || w.Bytes(b)
}

// BeginChunk writes id and opens a chunk.
func (w *Writer) BeginChunk(id uint32) (failed bool) {
	if w.Uint32(id) {
		return true
	}
	w.push()
	return false
}

// EndChunk closes the innermost open chunk.
func (w *Writer) EndChunk() (failed bool) {
	n := len(w.bufs)
	if n < 2 {
		panic("spark: EndChunk called with no open chunk")
	}
	buf := w.bufs[n-1]
	w.bufs = w.bufs[:n-1]
	w.fws = w.fws[:n-1]
	return w.Uint32(uint32(buf.Len())) || w.Bytes(buf.Bytes())
}

// Open returns the number of chunks that have not been ended.
func (w *Writer) Open() int {
	return len(w.bufs) - 1
}

// Final returns the written bytes. It panics if any chunk is still open.
func (w *Writer) Final() ([]byte, error) {
	if w.Open() != 0 {
		panic("spark: Final called with unterminated chunks")
	}
	if w.err != nil {
		return nil, w.err
	}
	return w.bufs[0].Bytes(), nil
}
