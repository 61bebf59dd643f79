package operators

import (
	"fmt"

	"github.com/born-ml/onnxcast/internal/tensor"
)

// registerUtilityOps adds the operators that move or describe tensors
// without converting them.
func (r *Registry) registerUtilityOps() {
	anyKind := map[string][]tensor.DataType{"T": allKinds()}
	shapeOut := map[string][]tensor.DataType{"T": allKinds(), "T1": {tensor.Int64}}

	r.RegisterKernel(KernelDef{
		OpType:          "Identity",
		SinceVersion:    1,
		TypeConstraints: anyKind,
		Inputs:          []string{"T"},
		Inplace:         []InplacePair{{0, 0}},
	}, handleIdentity)
	r.RegisterKernel(KernelDef{
		OpType:          "Shape",
		SinceVersion:    1,
		TypeConstraints: shapeOut,
		Inputs:          []string{"T"},
	}, handleShape)
	r.RegisterKernel(KernelDef{
		OpType:          "Size",
		SinceVersion:    1,
		TypeConstraints: shapeOut,
		Inputs:          []string{"T"},
	}, handleSize)
}

// handleIdentity copies its input into a fresh output tensor.
func handleIdentity(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("identity requires 1 input, got %d", len(inputs))
	}

	in := inputs[0]
	out, err := ctx.allocator().Alloc(in.Shape(), in.DType())
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if err := tensor.Copy(out, in); err != nil {
		out.Release()
		return nil, fmt.Errorf("identity: %w", err)
	}
	return []*tensor.RawTensor{out}, nil
}

func handleShape(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("shape requires 1 input, got %d", len(inputs))
	}

	shape := inputs[0].Shape()
	result, err := ctx.allocator().Alloc(tensor.Shape{len(shape)}, tensor.Int64)
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}

	data := result.AsInt64()
	for i, v := range shape {
		data[i] = int64(v)
	}

	return []*tensor.RawTensor{result}, nil
}

// handleSize returns the element count as an int64 scalar.
func handleSize(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("size requires 1 input, got %d", len(inputs))
	}

	result, err := ctx.allocator().Alloc(tensor.Shape{}, tensor.Int64)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	result.AsInt64()[0] = int64(inputs[0].NumElements())

	return []*tensor.RawTensor{result}, nil
}
