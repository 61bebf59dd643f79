package tensor

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
)

// tensorBuffer is a reference-counted shared buffer.
// Fixed-width kinds live in data; String tensors live in strs.
type tensorBuffer struct {
	data     []byte
	strs     []string
	refCount atomic.Int32
	mu       sync.Mutex       // For safe deallocation
	onFree   func([]byte)     // Returns data to its allocator, if any
	freed    func(bytes int64) // Accounting hook for allocators
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
// The backing store is word aligned so any element kind can be viewed in place.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: alignedBytes(size),
	}
	buf.refCount.Store(1)
	return buf
}

func newStringBuffer(n int) *tensorBuffer {
	buf := &tensorBuffer{
		strs: make([]string, n),
	}
	buf.refCount.Store(1)
	return buf
}

func alignedBytes(size int) []byte {
	if size == 0 {
		return []byte{}
	}
	words := make([]uint64, (size+7)/8)
	//nolint:gosec // reinterpreting a freshly allocated []uint64 as bytes
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size)
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) != 0 {
		return
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.onFree != nil && tb.data != nil {
		tb.onFree(tb.data)
	}
	if tb.freed != nil {
		tb.freed(int64(len(tb.data) + len(tb.strs)*String.Size()))
	}
	tb.data = nil
	tb.strs = nil
}

// RawTensor is the low-level tensor representation: a shape, one element
// kind, and a reference-counted contiguous buffer.
type RawTensor struct {
	buffer *tensorBuffer // Shared reference-counted buffer
	shape  Shape         // Tensor dimensions
	stride []int         // Memory strides (row-major)
	dtype  DataType      // Runtime type information
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zeroed; String tensors start with empty strings.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %s", dtype)
	}

	numElements, err := elementCount(shape, dtype)
	if err != nil {
		return nil, err
	}
	var buf *tensorBuffer
	if dtype == String {
		buf = newStringBuffer(numElements)
	} else {
		buf = newTensorBuffer(numElements * dtype.Size())
	}

	return newRawWithBuffer(shape, dtype, buf), nil
}

// elementCount returns the number of elements in shape, failing when the
// tensor's byte size would not fit in an int. shape must be valid.
func elementCount(shape Shape, dtype DataType) (int, error) {
	n := shape.NumElements()
	if n > math.MaxInt/dtype.Size() {
		return 0, fmt.Errorf("shape %v of %s overflows the addressable size", shape, dtype)
	}
	return n, nil
}

func newRawWithBuffer(shape Shape, dtype DataType, buf *tensorBuffer) *RawTensor {
	return &RawTensor{
		buffer: buf,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}
}

// FromSlice creates a tensor of T's kind holding a copy of data.
func FromSlice[T Element](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	r, err := NewRaw(shape, inferDataType[T]())
	if err != nil {
		return nil, err
	}
	copy(Data[T](r), data)
	return r, nil
}

// FromStrings creates a String tensor holding a copy of data.
func FromStrings(data []string, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	r, err := NewRaw(shape, String)
	if err != nil {
		return nil, err
	}
	copy(r.AsString(), data)
	return r, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice. It is nil for String tensors.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data
}

// SharesBuffer reports whether r and other view the same underlying storage.
func (r *RawTensor) SharesBuffer(other *RawTensor) bool {
	return r.buffer == other.buffer
}

// Data interprets the tensor's storage as []T without copying.
// Panics if the tensor's dtype is not the kind backed by T.
func Data[T Element](r *RawTensor) []T {
	want := inferDataType[T]()
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	n := r.NumElements()
	if n == 0 {
		return []T{}
	}
	data := r.buffer.data
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 { return Data[float32](r) }

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 { return Data[float64](r) }

// AsInt32 interprets the data as []int32.
func (r *RawTensor) AsInt32() []int32 { return Data[int32](r) }

// AsInt64 interprets the data as []int64.
func (r *RawTensor) AsInt64() []int64 { return Data[int64](r) }

// AsUint8 interprets the data as []uint8.
func (r *RawTensor) AsUint8() []uint8 { return Data[uint8](r) }

// AsBool interprets the data as []bool.
func (r *RawTensor) AsBool() []bool { return Data[bool](r) }

// AsFloat16 interprets the data as []float16.Float16.
func (r *RawTensor) AsFloat16() []float16.Float16 { return Data[float16.Float16](r) }

// AsBFloat16 interprets the data as []bfloat16.BFloat16.
func (r *RawTensor) AsBFloat16() []bfloat16.BFloat16 { return Data[bfloat16.BFloat16](r) }

// AsString returns the tensor's string elements.
// Panics if the tensor's dtype is not String.
func (r *RawTensor) AsString() []string {
	if r.dtype != String {
		panic(fmt.Sprintf("tensor dtype is %s, not string", r.dtype))
	}
	return r.buffer.strs
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef() // Increment reference count
	return &RawTensor{
		buffer: r.buffer, // Share the same buffer
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...), // Copy strides
		dtype:  r.dtype,
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
// Tensors obtained from an Allocator return their memory to it here.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.refCount.Load() == 1
}
