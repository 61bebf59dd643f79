package cast

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

func castWith(t *testing.T, d *Dispatcher, ctx *Context, src *tensor.RawTensor, to tensor.DataType) *tensor.RawTensor {
	t.Helper()
	c, err := d.Resolve(src.DType(), to)
	require.NoError(t, err)
	dst, err := tensor.NewRaw(src.Shape(), to)
	require.NoError(t, err)
	require.NoError(t, c.Cast(ctx, src, dst))
	return dst
}

// render turns any tensor into its text form using the dispatcher itself.
func render(t *testing.T, d *Dispatcher, x *tensor.RawTensor) []string {
	t.Helper()
	if x.DType() == tensor.String {
		return x.AsString()
	}
	return castWith(t, d, nil, x, tensor.String).AsString()
}

func TestDispatcherCoversAllEnabledPairs(t *testing.T) {
	d := Default()
	src, dst := EnabledSourceTypes(), EnabledDestTypes()

	pairs := d.Pairs()
	assert.Len(t, pairs, len(src)*len(dst)-len(src))

	for _, s := range src {
		for _, to := range dst {
			c, err := d.Resolve(s, to)
			if s == to {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedType)
				continue
			}
			require.NoError(t, err, "%s -> %s", s, to)
			assert.Equal(t, s, c.Source())
			assert.Equal(t, to, c.Dest())
		}
	}
}

func TestDispatcherUnsupported(t *testing.T) {
	d, err := NewDispatcher(
		[]tensor.DataType{tensor.Float32, tensor.String},
		[]tensor.DataType{tensor.Int32, tensor.String},
	)
	require.NoError(t, err)

	_, err = d.Resolve(tensor.Float32, tensor.Int32)
	require.NoError(t, err)

	_, err = d.Resolve(tensor.Float32, tensor.Int64)
	var ute *UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "destination", ute.Role)
	assert.Equal(t, tensor.Int64, ute.Type)
	assert.Equal(t, tensor.Float32, ute.Source)

	_, err = d.Resolve(tensor.Int32, tensor.Float32)
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "source", ute.Role)

	_, err = d.Resolve(tensor.String, tensor.String)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = d.Resolve(tensor.Undefined, tensor.Int32)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = d.Resolve(tensor.DataType(200), tensor.Int32)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.Len(t, d.Pairs(), 3)
}

func TestNewDispatcherRejectsInvalidKinds(t *testing.T) {
	_, err := NewDispatcher([]tensor.DataType{tensor.Undefined}, []tensor.DataType{tensor.Int32})
	assert.Error(t, err)
	_, err = NewDispatcher([]tensor.DataType{tensor.Int32}, []tensor.DataType{tensor.DataType(tensor.NumDataTypes)})
	assert.Error(t, err)
}

// Every pair maps the small integers {0, 1, 2} to themselves, except that
// Bool on either side collapses 2 to 1.
func TestEveryPairPreservesSmallIntegers(t *testing.T) {
	for _, hc := range []HalfConverter{GenericHalfConverter{}, TableHalfConverter{}} {
		d, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(hc))
		require.NoError(t, err)

		text, err := tensor.FromStrings([]string{"0", "1", "2"}, tensor.Shape{3})
		require.NoError(t, err)

		for _, p := range d.Pairs() {
			from, to := p[0], p[1]
			src := text
			if from != tensor.String {
				src = castWith(t, d, nil, text, from)
			}
			out := castWith(t, d, nil, src, to)

			want := []string{"0", "1", "2"}
			if from == tensor.Bool || to == tensor.Bool {
				want = []string{"0", "1", "1"}
			}
			assert.Equal(t, want, render(t, d, out), "%s -> %s (accelerated=%v)", from, to, hc.Accelerated())
		}
	}
}

func TestCastFloatToText(t *testing.T) {
	src, err := tensor.FromSlice([]float32{1.5, float32(math.NaN()), 1e30}, tensor.Shape{3})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.String)
	assert.Equal(t, []string{"1.5", "NaN", "1e+30"}, out.AsString())
}

func TestCastTextToInt8(t *testing.T) {
	src, err := tensor.FromStrings([]string{"42", "-7"}, tensor.Shape{2})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.Int8)
	assert.Equal(t, []int8{42, -7}, tensor.Data[int8](out))
}

func TestCastTextReadsNumericPrefix(t *testing.T) {
	cases := []struct {
		text string
		dst  tensor.DataType
		want any
	}{
		{"1.5", tensor.Int32, []int32{1}},
		{"42abc", tensor.Int8, []int8{42}},
		{"-1", tensor.Uint8, []uint8{255}},
		{"-1", tensor.Bool, []bool{true}},
		{" 7 apples", tensor.Float64, []float64{7}},
	}
	for _, tc := range cases {
		src, err := tensor.FromStrings([]string{tc.text}, tensor.Shape{1})
		require.NoError(t, err)

		out := castWith(t, Default(), nil, src, tc.dst)
		var got any
		switch tc.dst {
		case tensor.Int32:
			got = tensor.Data[int32](out)
		case tensor.Int8:
			got = tensor.Data[int8](out)
		case tensor.Uint8:
			got = tensor.Data[uint8](out)
		case tensor.Bool:
			got = tensor.Data[bool](out)
		case tensor.Float64:
			got = tensor.Data[float64](out)
		}
		assert.Equal(t, tc.want, got, "%q -> %s", tc.text, tc.dst)
	}
}

func TestCastTextToFloat(t *testing.T) {
	src, err := tensor.FromStrings([]string{"NaN", "-INF", "0.5", " 2e3 "}, tensor.Shape{2, 2})
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.Float32)
	want := []float32{float32(math.NaN()), float32(math.Inf(-1)), 0.5, 2000}
	if diff := cmp.Diff(want, out.AsFloat32(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("float32 mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
}

func TestCastFloatToNarrowInt(t *testing.T) {
	src, err := tensor.FromSlice([]float64{300, -1.9, math.NaN(), 127.99}, tensor.Shape{4})
	require.NoError(t, err)

	i8 := castWith(t, Default(), nil, src, tensor.Int8)
	assert.Equal(t, []int8{44, -1, 0, 127}, tensor.Data[int8](i8))

	u8 := castWith(t, Default(), nil, src, tensor.Uint8)
	assert.Equal(t, []uint8{44, 255, 0, 127}, u8.AsUint8())
}

func TestCastHalfSourceOverflowMatchesFloatRule(t *testing.T) {
	src, err := tensor.FromSlice([]float16.Float16{float16.Fromfloat32(300)}, tensor.Shape{1})
	require.NoError(t, err)

	for _, hc := range []HalfConverter{GenericHalfConverter{}, TableHalfConverter{}} {
		d, err := NewDispatcher(enabledSourceTypes, enabledDestTypes, WithHalfConverter(hc))
		require.NoError(t, err)
		out := castWith(t, d, nil, src, tensor.Int8)
		assert.Equal(t, []int8{44}, tensor.Data[int8](out))
	}
}

func TestCastNumbersToBoolAndBack(t *testing.T) {
	src, err := tensor.FromSlice([]float32{0, -0.0, 0.1, float32(math.NaN()), -3}, tensor.Shape{5})
	require.NoError(t, err)

	b := castWith(t, Default(), nil, src, tensor.Bool)
	assert.Equal(t, []bool{false, false, true, true, true}, b.AsBool())

	back := castWith(t, Default(), nil, b, tensor.Float64)
	assert.Equal(t, []float64{0, 0, 1, 1, 1}, back.AsFloat64())
}

func TestCastIntegerWidening(t *testing.T) {
	src, err := tensor.FromSlice([]int8{-128, -1, 127}, tensor.Shape{3})
	require.NoError(t, err)

	assert.Equal(t, []int64{-128, -1, 127}, castWith(t, Default(), nil, src, tensor.Int64).AsInt64())
	assert.Equal(t, []uint8{128, 255, 127}, castWith(t, Default(), nil, src, tensor.Uint8).AsUint8())
	assert.Equal(t, []uint64{math.MaxUint64 - 127, math.MaxUint64, 127},
		tensor.Data[uint64](castWith(t, Default(), nil, src, tensor.Uint64)))
	assert.Equal(t, []string{"-128", "-1", "127"}, castWith(t, Default(), nil, src, tensor.String).AsString())
}

func TestCastEmptyTensor(t *testing.T) {
	src, err := tensor.NewRaw(tensor.Shape{0, 3}, tensor.String)
	require.NoError(t, err)

	out := castWith(t, Default(), nil, src, tensor.Float16)
	assert.Equal(t, 0, out.NumElements())
}

func TestCastParseError(t *testing.T) {
	src, err := tensor.FromStrings([]string{"1", "2", "x", "y"}, tensor.Shape{4})
	require.NoError(t, err)
	dst, err := tensor.NewRaw(src.Shape(), tensor.Int32)
	require.NoError(t, err)

	c, err := Resolve(tensor.String, tensor.Int32)
	require.NoError(t, err)

	err = c.Cast(nil, src, dst)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Index)
	assert.Equal(t, "x", pe.Text)
	assert.Equal(t, tensor.Int32, pe.Dest)
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), "element 2")
}

func TestCastParseErrorLowestIndexInParallel(t *testing.T) {
	text := make([]string, 100)
	for i := range text {
		text[i] = strconv.Itoa(i)
	}
	text[80] = "bad"
	text[30] = "worse"
	src, err := tensor.FromStrings(text, tensor.Shape{100})
	require.NoError(t, err)
	dst, err := tensor.NewRaw(src.Shape(), tensor.Float64)
	require.NoError(t, err)

	c, err := Resolve(tensor.String, tensor.Float64)
	require.NoError(t, err)

	ctx := &Context{Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 10}}
	err = c.Cast(ctx, src, dst)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 30, pe.Index)
}

func TestCastChecksTensors(t *testing.T) {
	c, err := Resolve(tensor.Float32, tensor.Int32)
	require.NoError(t, err)

	f32, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float32)
	require.NoError(t, err)
	i32, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32)
	require.NoError(t, err)
	i64, err := tensor.NewRaw(tensor.Shape{4}, tensor.Int64)
	require.NoError(t, err)

	assert.ErrorContains(t, c.Cast(nil, f32, i32), "element count mismatch")
	assert.ErrorContains(t, c.Cast(nil, f32, i64), "got tensors")
	assert.ErrorContains(t, c.Cast(nil, nil, i32), "nil tensor")
}

func TestCastParallelMatchesSequential(t *testing.T) {
	const n = 10_000
	in := make([]float64, n)
	for i := range in {
		in[i] = float64(i)*1.37 - 5000
	}
	src, err := tensor.FromSlice(in, tensor.Shape{n})
	require.NoError(t, err)

	par := &Context{Parallel: parallel.Config{Enabled: true, NumWorkers: 8, MinChunkSize: 100}}
	for _, to := range []tensor.DataType{tensor.Int16, tensor.Uint32, tensor.Float16, tensor.BFloat16, tensor.String} {
		seq := castWith(t, Default(), nil, src, to)
		got := castWith(t, Default(), par, src, to)
		if to == tensor.String {
			assert.Equal(t, seq.AsString(), got.AsString())
			continue
		}
		assert.Equal(t, seq.Data(), got.Data(), "dest %s", to)
	}
}

func TestTypeErrorMessages(t *testing.T) {
	_, err := Resolve(tensor.Int32, tensor.Int32)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "destination type int32"), err.Error())
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}
