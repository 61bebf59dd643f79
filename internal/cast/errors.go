package cast

import (
	"errors"
	"fmt"

	"github.com/born-ml/onnxcast/internal/tensor"
)

var (
	// ErrUnsupportedType is matched by every UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("parse error")
)

// UnsupportedTypeError reports a kind outside the dispatcher's enabled sets.
type UnsupportedTypeError struct {
	Role   string // "source" or "destination"
	Type   tensor.DataType
	Source tensor.DataType // set when Role is "destination"
}

func (e *UnsupportedTypeError) Error() string {
	if e.Role == "destination" {
		return fmt.Sprintf("cast: unsupported destination type %s for source %s", e.Type, e.Source)
	}
	return fmt.Sprintf("cast: unsupported %s type %s", e.Role, e.Type)
}

// Unwrap lets errors.Is match ErrUnsupportedType.
func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// ParseError reports a string element that is not a valid value of the
// destination kind. Elements before Index may already have been written.
type ParseError struct {
	Index int
	Text  string
	Dest  tensor.DataType
	Err   error // underlying strconv error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cast: element %d: cannot parse %q as %s: %v", e.Index, e.Text, e.Dest, e.Err)
}

// Unwrap exposes both ErrParse and the strconv cause.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }
