package operators

import (
	"slices"

	"github.com/born-ml/onnxcast/internal/tensor"
)

// InplacePair says output Output may reuse the buffer of input Input.
type InplacePair struct {
	Input, Output int
}

// KernelDef declares what a kernel accepts: the opset range it serves, the
// element kinds each type variable may bind to, and in-place hints.
type KernelDef struct {
	OpType       string
	Domain       string
	SinceVersion int
	EndVersion   int // inclusive; 0 means open ended

	// TypeConstraints maps a type variable ("T", "T1", ...) to its allowed kinds.
	TypeConstraints map[string][]tensor.DataType
	// Inputs names the type variable bound by each input position.
	Inputs  []string
	Inplace []InplacePair
}

// Covers reports whether the definition serves the given opset version.
func (d *KernelDef) Covers(opset int) bool {
	if opset < d.SinceVersion {
		return false
	}
	return d.EndVersion == 0 || opset <= d.EndVersion
}

// Supports reports whether type variable name may bind to dtype.
func (d *KernelDef) Supports(name string, dtype tensor.DataType) bool {
	return slices.Contains(d.TypeConstraints[name], dtype)
}

// MayInplace reports whether output may alias input.
func (d *KernelDef) MayInplace(input, output int) bool {
	return slices.Contains(d.Inplace, InplacePair{Input: input, Output: output})
}

// allKinds lists every defined element kind.
func allKinds() []tensor.DataType {
	kinds := make([]tensor.DataType, 0, tensor.NumDataTypes-1)
	for dt := tensor.Bool; dt.Valid(); dt++ {
		kinds = append(kinds, dt)
	}
	return kinds
}
