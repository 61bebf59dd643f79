// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the raw tensor types consumed by the Cast operator.
//
// # Overview
//
// A RawTensor is a shape, one element kind and a reference-counted
// contiguous buffer. Fixed-width kinds are viewed in place through typed
// accessors; String tensors hold Go strings.
//
// # Basic Usage
//
//	import "github.com/born-ml/onnxcast/tensor"
//
//	x, _ := tensor.FromSlice([]float32{1.5, 2, 3}, tensor.Shape{3})
//	fmt.Println(x.DType(), x.Shape()) // float32 [3]
//
//	s, _ := tensor.FromStrings([]string{"42", "-7"}, tensor.Shape{2})
//	fmt.Println(s.AsString())
//
// # Element Kinds
//
// Bool, Int8..Int64, Uint8..Uint64, Float32, Float64, Float16 (IEEE half),
// BFloat16 and String. [FromONNX] and [DataType.ONNX] map kinds to
// TensorProto codes.
//
// # Memory
//
// Transient buffers come from an [Allocator]. [PoolAllocator] recycles
// buffers and can cap the bytes outstanding; requests over the cap fail
// with an error matching [ErrAllocation].
package tensor
