package operators

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/onnxcast/internal/cast"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// castKernelDefs describes Cast for opsets 6-12 and 13+. The two ranges
// share semantics; 13 only widened the schema to bfloat16.
func castKernelDefs() []KernelDef {
	constraints := func() map[string][]tensor.DataType {
		return map[string][]tensor.DataType{
			"T1": cast.EnabledSourceTypes(),
			"T2": cast.EnabledDestTypes(),
		}
	}
	return []KernelDef{
		{
			OpType:          "Cast",
			SinceVersion:    6,
			EndVersion:      12,
			TypeConstraints: constraints(),
			Inputs:          []string{"T1"},
			Inplace:         []InplacePair{{0, 0}},
		},
		{
			OpType:          "Cast",
			SinceVersion:    13,
			TypeConstraints: constraints(),
			Inputs:          []string{"T1"},
			Inplace:         []InplacePair{{0, 0}},
		},
	}
}

func (r *Registry) registerCastOps() {
	for _, def := range castKernelDefs() {
		r.RegisterKernel(def, handleCast)
	}
}

// CastKernel converts a tensor to the element kind named by the node's
// "to" attribute. The attribute is read once, at construction.
type CastKernel struct {
	name string
	to   tensor.DataType
}

// NewCastKernel validates the node's "to" attribute.
func NewCastKernel(node *Node) (*CastKernel, error) {
	attr := FindAttr(node, "to")
	if attr == nil {
		return nil, &ConfigurationError{OpType: "Cast", Node: node.Name, Attr: "to", Reason: "missing"}
	}
	to, err := tensor.FromONNX(attr.I)
	if err != nil {
		return nil, &ConfigurationError{OpType: "Cast", Node: node.Name, Attr: "to", Reason: err.Error()}
	}
	if !slices.Contains(cast.EnabledDestTypes(), to) {
		return nil, &ConfigurationError{
			OpType: "Cast", Node: node.Name, Attr: "to",
			Reason: fmt.Sprintf("%s is not an enabled destination", to),
		}
	}
	return &CastKernel{name: node.Name, to: to}, nil
}

// To returns the configured destination kind.
func (k *CastKernel) To() tensor.DataType {
	return k.to
}

// Compute writes input converted to k.To() into output. Output must already
// have the input's shape and the destination kind. Same-kind casts copy,
// and are no-ops when output aliases input.
func (k *CastKernel) Compute(ctx *Context, input, output *tensor.RawTensor) error {
	if input == nil || output == nil {
		return errors.New("cast: nil tensor")
	}
	if !input.Shape().Equal(output.Shape()) {
		return fmt.Errorf("cast: output shape %v does not match input shape %v", output.Shape(), input.Shape())
	}
	if output.DType() != k.to {
		return fmt.Errorf("cast: output is %s, want %s", output.DType(), k.to)
	}

	log := ctx.logger()
	from, n := input.DType(), input.NumElements()
	if n == 0 {
		log.Debug().Str("node", k.name).Stringer("from", from).Stringer("to", k.to).Msg("cast: empty input")
		return nil
	}
	if from == k.to {
		log.Debug().Str("node", k.name).Stringer("type", from).Int("elements", n).Msg("cast: same type, copying")
		return tensor.Copy(output, input)
	}

	c, err := ctx.dispatcher().Resolve(from, k.to)
	if err != nil {
		return err
	}
	log.Debug().
		Str("node", k.name).
		Stringer("from", from).
		Stringer("to", k.to).
		Int("elements", n).
		Msg("cast: dispatch")
	return c.Cast(ctx.castContext(), input, output)
}

func handleCast(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("cast requires 1 input, got %d", len(inputs))
	}

	k, err := NewCastKernel(node)
	if err != nil {
		return nil, err
	}
	out, err := ctx.allocator().Alloc(inputs[0].Shape(), k.To())
	if err != nil {
		return nil, fmt.Errorf("cast: output: %w", err)
	}
	if err := k.Compute(ctx, inputs[0], out); err != nil {
		out.Release()
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}
