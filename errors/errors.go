// The errors package provides the error taxonomy shared by the codec and the
// triangulation engine, and additional error primitives.
package errors

import (
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrTruncatedStream indicates that a read needed more bytes than remained.
	ErrTruncatedStream = errors.New("unexpected end of stream")
	// ErrMalformedHeader indicates a wrong magic tag, outer chunk id, or
	// structural header field.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrDuplicateChunk indicates a chunk kind that may appear only once
	// appeared again.
	ErrDuplicateChunk = errors.New("duplicate chunk")
	// ErrMissingChunk indicates that a required chunk was never seen.
	ErrMissingChunk = errors.New("missing required chunk")
	// ErrUnknownChunk is the cause of warnings for skipped chunk ids.
	ErrUnknownChunk = errors.New("unknown chunk id")
	// ErrUnknownFormatVersion indicates a selector or version field with a
	// value the codec cannot interpret.
	ErrUnknownFormatVersion = errors.New("unknown format version")
	// ErrInvalidPropertyShape indicates a recognized entity property with the
	// wrong value type or component count, or an entity with the wrong
	// number of properties.
	ErrInvalidPropertyShape = errors.New("invalid property shape")
	// ErrDegenerateGeometry indicates a polygon that cannot be triangulated.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

func New(text string) error {
	return errors.New(text)
}

// Wrap annotates err with a message. Returns nil if err is nil.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Errors is a list of errors. It is used to accumulate warnings.
type Errors []error

// Errors formats the list by separating each message with a newline. Each
// produced line, including lines within messages, is prefixed with a tab.
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	default:
		var buf strings.Builder
		buf.WriteString("multiple errors:")
		for _, err := range errs {
			buf.WriteString("\n\t")
			msg := err.Error()
			msg = strings.ReplaceAll(msg, "\n", "\n\t")
			buf.WriteString(msg)
		}
		return buf.String()
	}
}

// Is reports whether any error in the list matches target.
func (errs Errors) Is(target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Unwrap returns the errors of the list, so that As can match any of them.
func (errs Errors) Unwrap() []error {
	return errs
}

// Append returns errs with each err appended to it. Arguments that are nil are
// skipped.
func (errs Errors) Append(err ...error) Errors {
	for _, err := range err {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Return prepares errs to be returned by a function by returning nil if errs is
// empty.
func (errs Errors) Return() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Union receives a number of errors and combines them into one Errors. Any errs
// that are Errors are concatenated directly. Returns nil if all errs are nil or
// empty.
func Union(errs ...error) error {
	var e Errors
	for _, err := range errs {
		switch err := err.(type) {
		case nil:
			continue
		case Errors:
			for _, err := range err {
				if err != nil {
					e = append(e, err)
				}
			}
		default:
			e = append(e, err)
		}
	}
	return e.Return()
}

// List flattens err into its individual errors. A nil err yields nil.
func List(err error) []error {
	switch err := err.(type) {
	case nil:
		return nil
	case Errors:
		return []error(err)
	default:
		return []error{err}
	}
}
