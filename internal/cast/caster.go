package cast

import (
	"fmt"

	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// Context carries the request-scoped resources a Caster may use.
type Context struct {
	// Allocator serves transient scratch tensors. Nil means the Go heap.
	Allocator tensor.Allocator
	// Parallel controls how buffers are split across goroutines.
	Parallel parallel.Config
}

func (c *Context) allocator() tensor.Allocator {
	if c == nil || c.Allocator == nil {
		return tensor.HeapAllocator{}
	}
	return c.Allocator
}

func (c *Context) parallelConfig() parallel.Config {
	if c == nil {
		return parallel.Sequential()
	}
	return c.Parallel
}

// Caster converts every element of a tensor of kind Source into the
// pre-allocated tensor of kind Dest, in index order.
type Caster interface {
	Source() tensor.DataType
	Dest() tensor.DataType
	Cast(ctx *Context, src, dst *tensor.RawTensor) error
}

// sliceCaster is a Caster whose source elements can also be fed from a
// plain slice. Two-stage casters use it to run the second leg on an
// intermediate buffer.
type sliceCaster[S any] interface {
	Caster
	castSlice(in []S, dst *tensor.RawTensor, offset int) error
}

type pair struct {
	src, dst tensor.DataType
}

func (p pair) Source() tensor.DataType { return p.src }
func (p pair) Dest() tensor.DataType   { return p.dst }

func (p pair) String() string { return p.src.String() + "->" + p.dst.String() }

// check validates that src and dst match the pair and describe the same
// number of elements.
func (p pair) check(src, dst *tensor.RawTensor) error {
	if src == nil || dst == nil {
		return fmt.Errorf("cast %s: nil tensor", p)
	}
	if src.DType() != p.src || dst.DType() != p.dst {
		return fmt.Errorf("cast %s: got tensors %s and %s", p, src.DType(), dst.DType())
	}
	if src.NumElements() != dst.NumElements() {
		return fmt.Errorf("cast %s: element count mismatch %d vs %d", p, src.NumElements(), dst.NumElements())
	}
	return nil
}

// genericCaster applies one batch kernel across the buffer, split into
// independent chunks.
type genericCaster[S, D tensor.Element] struct {
	pair
	kernel func(in []S, out []D)
}

func newGeneric[S, D tensor.Element](src, dst tensor.DataType, kernel func([]S, []D)) *genericCaster[S, D] {
	return &genericCaster[S, D]{pair: pair{src, dst}, kernel: kernel}
}

func (c *genericCaster[S, D]) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}
	in := tensor.Data[S](src)
	out := tensor.Data[D](dst)
	parallel.ForRange(len(in), func(start, end int) {
		c.kernel(in[start:end], out[start:end])
	}, ctx.parallelConfig())
	return nil
}

func (c *genericCaster[S, D]) castSlice(in []S, dst *tensor.RawTensor, offset int) error {
	out := tensor.Data[D](dst)
	c.kernel(in, out[offset:offset+len(in)])
	return nil
}

// castNumbers is the numeric batch kernel. Float to integer pairs use the
// floatToInt overflow rule; every other pair is a plain Go conversion.
func castNumbers[S, D number](in []S, out []D) {
	out = out[:len(in)]
	if isFloat[S]() && !isFloat[D]() {
		for i, v := range in {
			out[i] = floatToInt[D](float64(v))
		}
		return
	}
	for i, v := range in {
		out[i] = D(v)
	}
}

func castToBool[S number](in []S, out []bool) {
	out = out[:len(in)]
	for i, v := range in {
		out[i] = v != 0
	}
}

func castFromBool[D number](in []bool, out []D) {
	out = out[:len(in)]
	for i, v := range in {
		if v {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
}

// castToHalf returns a kernel that widens or narrows to float32 and then
// rounds into the half encoding.
func castToHalf[S number, H half](encode func(float32) H) func([]S, []H) {
	return func(in []S, out []H) {
		out = out[:len(in)]
		for i, v := range in {
			out[i] = encode(float32(v))
		}
	}
}

func castBoolToHalf[H half](encode func(float32) H) func([]bool, []H) {
	one, zero := encode(1), encode(0)
	return func(in []bool, out []H) {
		out = out[:len(in)]
		for i, v := range in {
			if v {
				out[i] = one
			} else {
				out[i] = zero
			}
		}
	}
}
