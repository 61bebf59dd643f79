package cast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// allHalves returns every float16 bit pattern once.
func allHalves() []float16.Float16 {
	out := make([]float16.Float16, 1<<16)
	for i := range out {
		out[i] = float16.Frombits(uint16(i))
	}
	return out
}

func TestHalfConvertersAgree(t *testing.T) {
	in := allHalves()
	want := make([]float32, len(in))
	got := make([]float32, len(in))

	GenericHalfConverter{}.ConvertHalfToFloat(in, want, parallel.Sequential())
	TableHalfConverter{}.ConvertHalfToFloat(in, got, parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1024})

	for i := range in {
		if math.Float32bits(want[i]) != math.Float32bits(got[i]) {
			t.Fatalf("bits %#04x: generic %#08x, table %#08x", i, math.Float32bits(want[i]), math.Float32bits(got[i]))
		}
	}
}

func TestHalfConverterAccelerated(t *testing.T) {
	assert.False(t, GenericHalfConverter{}.Accelerated())
	assert.True(t, TableHalfConverter{}.Accelerated())
	assert.NotNil(t, DefaultHalfConverter())
}

// The accelerated two-stage path and the element-wise path must produce
// byte-identical output for every destination and every float16 input.
func TestFloat16FastPathMatchesGeneric(t *testing.T) {
	src, err := tensor.FromSlice(allHalves(), tensor.Shape{256, 256})
	require.NoError(t, err)

	generic, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(GenericHalfConverter{}))
	require.NoError(t, err)
	fast, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(TableHalfConverter{}))
	require.NoError(t, err)

	ctx := &Context{
		Allocator: tensor.NewPoolAllocator(0),
		Parallel:  parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 4096},
	}

	for _, to := range enabledDestTypes {
		if to == tensor.Float16 {
			continue
		}
		c, err := fast.Resolve(tensor.Float16, to)
		require.NoError(t, err)
		switch to {
		case tensor.Float32:
			assert.IsType(t, &fastHalfToFloat{}, c)
		default:
			assert.IsType(t, &fastHalfThroughFloat{}, c)
		}

		want := castWith(t, generic, nil, src, to)
		got := castWith(t, fast, ctx, src, to)
		if to == tensor.String {
			assert.Equal(t, want.AsString(), got.AsString())
			continue
		}
		assert.Equal(t, want.Data(), got.Data(), "dest %s", to)
	}
}

func TestFloat16TextRendering(t *testing.T) {
	src, err := tensor.FromSlice([]float16.Float16{
		float16.Fromfloat32(1.5),
		float16.NaN(),
		float16.Inf(1),
		float16.Inf(-1),
		float16.Fromfloat32(65504),
		float16.Frombits(0x0001),
	}, tensor.Shape{6})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.String)
	assert.Equal(t, []string{"1.5", "NaN", "INF", "-INF", "65504", "5.9604645e-08"}, out.AsString())
}

func TestFloat16ScratchReleased(t *testing.T) {
	d, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(TableHalfConverter{}))
	require.NoError(t, err)

	pool := tensor.NewPoolAllocator(1 << 20)
	src, err := tensor.FromSlice(make([]float16.Float16, 1000), tensor.Shape{1000})
	require.NoError(t, err)

	castWith(t, d, &Context{Allocator: pool}, src, tensor.Int64)
	assert.Equal(t, int64(0), pool.InUse())
}

func TestFloat16ScratchAllocationFailure(t *testing.T) {
	d, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(TableHalfConverter{}))
	require.NoError(t, err)

	src, err := tensor.FromSlice(make([]float16.Float16, 8), tensor.Shape{8})
	require.NoError(t, err)
	dst, err := tensor.NewRaw(src.Shape(), tensor.Int32)
	require.NoError(t, err)

	c, err := d.Resolve(tensor.Float16, tensor.Int32)
	require.NoError(t, err)

	// 8 float32 scratch elements need 32 bytes.
	err = c.Cast(&Context{Allocator: tensor.NewPoolAllocator(16)}, src, dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, tensor.ErrAllocation)

	var ae *tensor.AllocationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, int64(32), ae.Requested)
	assert.Equal(t, tensor.Float32, ae.DType)

	// The direct float32 destination needs no scratch.
	c, err = d.Resolve(tensor.Float16, tensor.Float32)
	require.NoError(t, err)
	f32, err := tensor.NewRaw(src.Shape(), tensor.Float32)
	require.NoError(t, err)
	assert.NoError(t, c.Cast(&Context{Allocator: tensor.NewPoolAllocator(16)}, src, f32))
}

func TestGenericHalfCasterSpansBlocks(t *testing.T) {
	const n = 3*halfBlock + 17
	in := make([]bfloat16.BFloat16, n)
	for i := range in {
		in[i] = bfloat16.FromFloat32(float32(i - n/2))
	}
	src, err := tensor.FromSlice(in, tensor.Shape{n})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.Int32)
	got := tensor.Data[int32](out)
	for i := range got {
		// bfloat16 keeps 8 significant bits, so compare against the rounded input.
		assert.Equal(t, int32(in[i].Float32()), got[i], "index %d", i)
	}
	assert.Equal(t, int32(-n/2), got[0])
}

func TestBFloat16ToFloat32IsExact(t *testing.T) {
	in := []bfloat16.BFloat16{bfloat16.Frombits(0x3fc0), bfloat16.Frombits(0xc2f7), bfloat16.Inf(-1)}
	src, err := tensor.FromSlice(in, tensor.Shape{3})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.Float32)
	for i, v := range out.AsFloat32() {
		assert.Equal(t, uint32(in[i].Bits())<<16, math.Float32bits(v))
	}
}
