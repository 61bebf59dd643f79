package cast

import (
	"fmt"
	"sync"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// HalfConverter widens a float16 buffer to float32 in bulk.
// Every implementation must produce bit-identical output; they differ only in speed.
type HalfConverter interface {
	ConvertHalfToFloat(in []float16.Float16, out []float32, cfg parallel.Config)
	// Accelerated reports whether the dispatcher should route float16
	// sources through this converter instead of the generic caster.
	Accelerated() bool
}

// GenericHalfConverter decodes one element at a time.
type GenericHalfConverter struct{}

// ConvertHalfToFloat implements HalfConverter.
func (GenericHalfConverter) ConvertHalfToFloat(in []float16.Float16, out []float32, _ parallel.Config) {
	out = out[:len(in)]
	for i, v := range in {
		out[i] = v.Float32()
	}
}

// Accelerated implements HalfConverter.
func (GenericHalfConverter) Accelerated() bool { return false }

// TableHalfConverter decodes through a 64K-entry lookup table and splits
// large buffers across workers.
type TableHalfConverter struct{}

var (
	halfTableOnce sync.Once
	halfTable     *[1 << 16]float32
)

func halfToFloatTable() *[1 << 16]float32 {
	halfTableOnce.Do(func() {
		t := new([1 << 16]float32)
		for i := range t {
			t[i] = float16.Frombits(uint16(i)).Float32()
		}
		halfTable = t
	})
	return halfTable
}

// ConvertHalfToFloat implements HalfConverter.
func (TableHalfConverter) ConvertHalfToFloat(in []float16.Float16, out []float32, cfg parallel.Config) {
	table := halfToFloatTable()
	out = out[:len(in)]
	parallel.ForRange(len(in), func(start, end int) {
		dst := out[start:end]
		for i, v := range in[start:end] {
			dst[i] = table[v]
		}
	}, cfg)
}

// Accelerated implements HalfConverter.
func (TableHalfConverter) Accelerated() bool { return true }

// DefaultHalfConverter returns the converter selected for this build.
func DefaultHalfConverter() HalfConverter {
	return defaultHalfConverter()
}

// halfBlock is the number of elements promoted to float32 at a time by the
// generic half caster. It keeps the intermediate on the stack.
const halfBlock = 256

// halfCaster is the generic caster for half-precision sources: each element
// is promoted to float32 and the float32 rule for the destination applies.
// A nil next means the destination is float32 itself.
type halfCaster[H half] struct {
	pair
	next sliceCaster[float32]
}

func (c *halfCaster[H]) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}
	in := tensor.Data[H](src)
	return parallel.ForErr(len(in), func(start, end int) error {
		return c.castSlice(in[start:end], dst, start)
	}, ctx.parallelConfig())
}

func (c *halfCaster[H]) castSlice(in []H, dst *tensor.RawTensor, offset int) error {
	if c.next == nil {
		out := tensor.Data[float32](dst)[offset : offset+len(in)]
		for i, v := range in {
			out[i] = v.Float32()
		}
		return nil
	}

	var block [halfBlock]float32
	for start := 0; start < len(in); start += halfBlock {
		end := min(start+halfBlock, len(in))
		buf := block[:end-start]
		for i, v := range in[start:end] {
			buf[i] = v.Float32()
		}
		if err := c.next.castSlice(buf, dst, offset+start); err != nil {
			return err
		}
	}
	return nil
}

// fastHalfToFloat hands float16 -> float32 straight to the bulk converter.
type fastHalfToFloat struct {
	pair
	conv HalfConverter
}

func (c *fastHalfToFloat) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}
	c.conv.ConvertHalfToFloat(src.AsFloat16(), dst.AsFloat32(), ctx.parallelConfig())
	return nil
}

// fastHalfThroughFloat runs the bulk converter into a scratch float32
// tensor and then the float32 -> Dest caster on it.
type fastHalfThroughFloat struct {
	pair
	conv HalfConverter
	next Caster
}

func (c *fastHalfThroughFloat) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}

	scratch, err := ctx.allocator().Alloc(src.Shape(), tensor.Float32)
	if err != nil {
		return fmt.Errorf("cast %s: scratch buffer: %w", c.pair, err)
	}
	defer scratch.Release()

	c.conv.ConvertHalfToFloat(src.AsFloat16(), scratch.AsFloat32(), ctx.parallelConfig())
	return c.next.Cast(ctx, scratch, dst)
}
