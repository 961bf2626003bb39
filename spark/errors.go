package spark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sparkclip/sparkclip/errors"
)

// ErrUnrecognizedVersion indicates a selector value not recognized by the
// codec.
type ErrUnrecognizedVersion uint16

func (err ErrUnrecognizedVersion) Error() string {
	return fmt.Sprintf("unrecognized selector %d", uint16(err))
}

func (err ErrUnrecognizedVersion) Unwrap() error {
	return errors.ErrUnknownFormatVersion
}

// DataError wraps an error that occurred while reading or writing byte data.
type DataError struct {
	// Offset is the byte offset where the error occurred.
	Offset int64

	Cause error
}

func (err DataError) Error() string {
	var s strings.Builder
	s.WriteString("data error")
	if err.Offset >= 0 {
		s.WriteString(" at ")
		s.Write(strconv.AppendInt(nil, err.Offset, 10))
	}
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err DataError) Unwrap() error {
	return err.Cause
}

// ChunkError indicates an error that occurred within a chunk.
type ChunkError struct {
	// Index is the position of the chunk within its parent, or -1 if not
	// applicable.
	Index int
	// ID is the chunk ID.
	ID uint32

	Cause error
}

func (err ChunkError) Error() string {
	if err.Index < 0 {
		return fmt.Sprintf("%s chunk: %s", chunkName(err.ID), err.Cause)
	}
	return fmt.Sprintf("#%d %s chunk: %s", err.Index, chunkName(err.ID), err.Cause)
}

func (err ChunkError) Unwrap() error {
	return err.Cause
}

// PropertyError indicates an entity property with an unexpected shape.
type PropertyError struct {
	Name       string
	Type       uint32
	Components uint32
}

func (err PropertyError) Error() string {
	return fmt.Sprintf("property %q: unexpected type %d with %d components", err.Name, err.Type, err.Components)
}

func (err PropertyError) Unwrap() error {
	return errors.ErrInvalidPropertyShape
}

// PropertyCountError indicates an entity with the wrong number of properties.
type PropertyCountError struct {
	Class string
	Count int
}

func (err PropertyCountError) Error() string {
	return fmt.Sprintf("entity %q: expected 10 properties, got %d", err.Class, err.Count)
}

func (err PropertyCountError) Unwrap() error {
	return errors.ErrInvalidPropertyShape
}

// chunkName returns a readable name for a chunk ID within geometry. IDs are
// reused across chunk families, so names are only indicative.
func chunkName(id uint32) string {
	switch id {
	case idVertices:
		return "vertex"
	case idEdges:
		return "edge"
	case idFaces:
		return "face"
	case idMaterials:
		return "material"
	case idFaceLayers:
		return "face-layers"
	case idMappingGroups:
		return "mapping"
	case idGeometryGroups:
		return "geometry group"
	case idModelBoundingBox:
		return "bounding box"
	default:
		return "id " + strconv.FormatUint(uint64(id), 10)
	}
}
