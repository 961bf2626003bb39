package mesh

import (
	"fmt"

	"github.com/sparkclip/sparkclip/errors"
)

var (
	// ErrNoMeshes is returned by an export when the provider has no meshes.
	ErrNoMeshes = errors.New("no mesh data to export")

	// ErrNoSearchPaths is a warning indicating that texture import was
	// requested but none of the search paths exist.
	ErrNoSearchPaths = errors.New("no valid search paths, textures disabled")

	errDuplicateVertex = errors.New("face contains duplicate vertices")
	errCollinear       = errors.New("face vertices are collinear")
	errModelNotFound   = errors.New("model not found in search paths")
)

// FaceError is a warning that a face was skipped during import.
type FaceError struct {
	Face  int
	Cause error
}

func (err FaceError) Error() string {
	return fmt.Sprintf("skipping face %d: %s", err.Face, err.Cause)
}

func (err FaceError) Unwrap() error {
	return err.Cause
}

// PropError is a warning that a prop was skipped during import.
type PropError struct {
	Index int
	Model string
	Cause error
}

func (err PropError) Error() string {
	return fmt.Sprintf("skipping prop %d (%q): %s", err.Index, err.Model, err.Cause)
}

func (err PropError) Unwrap() error {
	return err.Cause
}

// MaterialError is a warning that a material could not be resolved. The
// material is still imported, without a texture.
type MaterialError struct {
	Index int
	Path  string
	Cause error
}

func (err MaterialError) Error() string {
	return fmt.Sprintf("material %d (%q): %s", err.Index, err.Path, err.Cause)
}

func (err MaterialError) Unwrap() error {
	return err.Cause
}
