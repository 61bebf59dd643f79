// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/onnxcast/tensor"
)

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want float32", raw.DType())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}
	if len(raw.AsFloat32()) != 6 {
		t.Errorf("AsFloat32() length = %d, want 6", len(raw.AsFloat32()))
	}
}

func TestFromSliceAndData(t *testing.T) {
	raw, err := tensor.FromSlice([]uint16{1, 2, 3, 4}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if raw.DType() != tensor.Uint16 {
		t.Errorf("DType() = %v, want uint16", raw.DType())
	}
	data := tensor.Data[uint16](raw)
	if data[3] != 4 {
		t.Errorf("Data()[3] = %d, want 4", data[3])
	}
}

func TestFromStringsAndCopy(t *testing.T) {
	src, err := tensor.FromStrings([]string{"a", "b"}, tensor.Shape{2})
	if err != nil {
		t.Fatalf("FromStrings failed: %v", err)
	}
	dst, err := tensor.NewRaw(tensor.Shape{2}, tensor.String)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if err := tensor.Copy(dst, src); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if got := dst.AsString(); got[0] != "a" || got[1] != "b" {
		t.Errorf("Copy result = %v, want [a b]", got)
	}
}

func TestONNXCodes(t *testing.T) {
	dt, err := tensor.FromONNX(16)
	if err != nil || dt != tensor.BFloat16 {
		t.Errorf("FromONNX(16) = %v, %v; want bfloat16", dt, err)
	}
	if tensor.Float32.ONNX() != 1 {
		t.Errorf("Float32.ONNX() = %d, want 1", tensor.Float32.ONNX())
	}
	dt, err = tensor.ParseDataType("double")
	if err != nil || dt != tensor.Float64 {
		t.Errorf("ParseDataType(double) = %v, %v; want float64", dt, err)
	}
}

func TestPoolAllocatorLimit(t *testing.T) {
	pool := tensor.NewPoolAllocator(8)
	_, err := pool.Alloc(tensor.Shape{4}, tensor.Float32)
	if !errors.Is(err, tensor.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	var ae *tensor.AllocationError
	if !errors.As(err, &ae) || ae.Requested != 16 {
		t.Errorf("AllocationError = %+v, want Requested 16", ae)
	}
}
