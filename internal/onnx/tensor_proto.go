package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// TensorFromProto converts a TensorProto to a RawTensor.
//
// raw_data is little-endian. Without it, elements come from the typed field
// ONNX assigns to the kind: int32_data carries every kind of 16 bits or
// fewer (float16 and bfloat16 as bit patterns), uint64_data carries uint32
// and uint64.
func TensorFromProto(p *TensorProto) (*tensor.RawTensor, error) {
	dtype, err := tensor.FromONNX(int64(p.DataType))
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", p.Name, err)
	}

	shape := make(tensor.Shape, len(p.Dims))
	for i, dim := range p.Dims {
		if dim < 0 || dim > math.MaxInt {
			return nil, fmt.Errorf("tensor %q: invalid dimension %d", p.Name, dim)
		}
		shape[i] = int(dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %q: %w", p.Name, err)
	}
	// The payload must cover the dims before anything is allocated.
	if err := checkDataLength(p, dtype, shape.NumElements()); err != nil {
		return nil, fmt.Errorf("tensor %q: %w", p.Name, err)
	}

	t, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", p.Name, err)
	}
	if err := fillFromProto(t, p); err != nil {
		return nil, fmt.Errorf("tensor %q: %w", p.Name, err)
	}
	return t, nil
}

// checkDataLength compares the n elements the dims declare with the
// payload p carries for dtype.
func checkDataLength(p *TensorProto, dtype tensor.DataType, n int) error {
	switch {
	case dtype == tensor.String:
		if len(p.StringData) != n {
			return fmt.Errorf("string_data has %d elements, want %d", len(p.StringData), n)
		}
	case len(p.RawData) > 0:
		size := dtype.Size()
		if len(p.RawData)%size != 0 || len(p.RawData)/size != n {
			return fmt.Errorf("raw_data has %d bytes, want %d elements of %d bytes", len(p.RawData), n, size)
		}
	default:
		if got := typedDataLen(p, dtype); got != n {
			return fmt.Errorf("typed data has %d elements, want %d", got, n)
		}
	}
	return nil
}

// typedDataLen returns the length of the typed field that carries dtype.
func typedDataLen(p *TensorProto, dtype tensor.DataType) int {
	switch dtype {
	case tensor.Float32:
		return len(p.FloatData)
	case tensor.Float64:
		return len(p.DoubleData)
	case tensor.Int64:
		return len(p.Int64Data)
	case tensor.Uint32, tensor.Uint64:
		return len(p.Uint64Data)
	default:
		return len(p.Int32Data)
	}
}

// fillFromProto copies the payload into t. Lengths were checked by
// checkDataLength.
//
//nolint:gosec // G115: narrow kinds travel widened in int32_data and uint64_data.
func fillFromProto(t *tensor.RawTensor, p *TensorProto) error {
	if t.DType() == tensor.String {
		dst := t.AsString()
		for i, s := range p.StringData {
			dst[i] = string(s)
		}
		return nil
	}

	if len(p.RawData) > 0 {
		decodeLittleEndian(t.Data(), p.RawData, t.DType().Size())
		if t.DType() == tensor.Bool {
			normalizeBools(t.Data())
		}
		return nil
	}

	switch t.DType() {
	case tensor.Float32:
		return fill(t, p.FloatData, func(v float32) float32 { return v })
	case tensor.Float64:
		return fill(t, p.DoubleData, func(v float64) float64 { return v })
	case tensor.Int64:
		return fill(t, p.Int64Data, func(v int64) int64 { return v })
	case tensor.Uint32:
		return fill(t, p.Uint64Data, func(v uint64) uint32 { return uint32(v) })
	case tensor.Uint64:
		return fill(t, p.Uint64Data, func(v uint64) uint64 { return v })
	case tensor.Int32:
		return fill(t, p.Int32Data, func(v int32) int32 { return v })
	case tensor.Int16:
		return fill(t, p.Int32Data, func(v int32) int16 { return int16(v) })
	case tensor.Int8:
		return fill(t, p.Int32Data, func(v int32) int8 { return int8(v) })
	case tensor.Uint16:
		return fill(t, p.Int32Data, func(v int32) uint16 { return uint16(v) })
	case tensor.Uint8:
		return fill(t, p.Int32Data, func(v int32) uint8 { return uint8(v) })
	case tensor.Bool:
		return fill(t, p.Int32Data, func(v int32) bool { return v != 0 })
	case tensor.Float16:
		return fill(t, p.Int32Data, func(v int32) float16.Float16 { return float16.Frombits(uint16(v)) })
	case tensor.BFloat16:
		return fill(t, p.Int32Data, func(v int32) bfloat16.BFloat16 { return bfloat16.Frombits(uint16(v)) })
	default:
		return fmt.Errorf("no data field for %s", t.DType())
	}
}

// fill converts src into t. An empty src leaves a zero tensor only when t
// has no elements.
func fill[S any, D tensor.Element](t *tensor.RawTensor, src []S, conv func(S) D) error {
	dst := tensor.Data[D](t)
	if len(src) != len(dst) {
		return fmt.Errorf("typed data has %d elements, want %d", len(src), len(dst))
	}
	for i, v := range src {
		dst[i] = conv(v)
	}
	return nil
}

func decodeLittleEndian(dst, src []byte, size int) {
	switch size {
	case 2:
		for i := 0; i < len(src); i += 2 {
			binary.NativeEndian.PutUint16(dst[i:], binary.LittleEndian.Uint16(src[i:]))
		}
	case 4:
		for i := 0; i < len(src); i += 4 {
			binary.NativeEndian.PutUint32(dst[i:], binary.LittleEndian.Uint32(src[i:]))
		}
	case 8:
		for i := 0; i < len(src); i += 8 {
			binary.NativeEndian.PutUint64(dst[i:], binary.LittleEndian.Uint64(src[i:]))
		}
	default:
		copy(dst, src)
	}
}

// normalizeBools maps every nonzero byte to 1; Go bools must be 0 or 1.
func normalizeBools(b []byte) {
	for i, v := range b {
		if v != 0 {
			b[i] = 1
		}
	}
}
