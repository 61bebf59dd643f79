// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/onnxcast/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Type-safe data access via AsFloat32(), AsInt64(), AsString(), etc.
//   - Reference counting via Clone() and Release()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32()  // Type-safe access
//	clone := raw.Clone()     // Shares buffer via reference counting
type RawTensor = tensor.RawTensor

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// DataType identifies an element kind.
type DataType = tensor.DataType

// Element is the set of Go types backing fixed-width element kinds.
type Element = tensor.Element

// Element kinds.
const (
	Undefined = tensor.Undefined
	Bool      = tensor.Bool
	Int8      = tensor.Int8
	Int16     = tensor.Int16
	Int32     = tensor.Int32
	Int64     = tensor.Int64
	Uint8     = tensor.Uint8
	Uint16    = tensor.Uint16
	Uint32    = tensor.Uint32
	Uint64    = tensor.Uint64
	Float32   = tensor.Float32
	Float64   = tensor.Float64
	Float16   = tensor.Float16
	BFloat16  = tensor.BFloat16
	String    = tensor.String
)

// Allocator hands out tensors whose lifetime the caller scopes with Release.
type Allocator = tensor.Allocator

// HeapAllocator allocates from the Go heap.
type HeapAllocator = tensor.HeapAllocator

// PoolAllocator recycles buffers and enforces an optional byte limit.
type PoolAllocator = tensor.PoolAllocator

// AllocationError reports a request over an allocator's limit.
type AllocationError = tensor.AllocationError

// ErrAllocation is matched by every AllocationError.
var ErrAllocation = tensor.ErrAllocation

// NewRaw creates a zeroed tensor of the given shape and kind.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a tensor of T's kind holding a copy of data.
func FromSlice[T Element](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromStrings creates a String tensor holding a copy of data.
func FromStrings(data []string, shape Shape) (*RawTensor, error) {
	return tensor.FromStrings(data, shape)
}

// Data returns the elements of r as a []T view. It panics if T does not
// match r's kind.
func Data[T Element](r *RawTensor) []T {
	return tensor.Data[T](r)
}

// Copy duplicates src's elements into dst.
func Copy(dst, src *RawTensor) error {
	return tensor.Copy(dst, src)
}

// NewPoolAllocator returns a PoolAllocator capped at limit bytes (0 = no cap).
func NewPoolAllocator(limit int64) *PoolAllocator {
	return tensor.NewPoolAllocator(limit)
}

// FromONNX maps a TensorProto.DataType code to a DataType.
func FromONNX(code int64) (DataType, error) {
	return tensor.FromONNX(code)
}

// ParseDataType maps a kind name such as "int8" or "float" to a DataType.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}
