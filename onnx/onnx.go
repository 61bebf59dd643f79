// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx provides the ONNX Cast operator.
//
// Cast converts every element of a tensor to the element kind named by the
// node's "to" attribute. Every pair of supported kinds converts in both
// directions, including text, float16 and bfloat16.
//
// # Example Usage
//
//	import (
//	    "github.com/born-ml/onnxcast/onnx"
//	    "github.com/born-ml/onnxcast/tensor"
//	)
//
//	in, _ := tensor.FromStrings([]string{"42", "-7"}, tensor.Shape{2})
//	out, err := onnx.Cast(in, tensor.Int8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(tensor.Data[int8](out)) // [42 -7]
//
// Whole models load with [Load]. Their graphs may combine Cast with
// Identity, Shape and Size, and [Model.CastNodes] reports which Cast nodes
// can run before any input is supplied.
//
// For graph engines, [NewRegistry] returns a registry whose Cast kernel is
// declared for opsets 6-12 and 13+, with type constraints T1 (input) and T2
// (output).
//
// # Errors
//
// Failures match one of [ErrUnsupportedType], [ErrParse],
// [ErrConfiguration] or [tensor.ErrAllocation] under errors.Is.
package onnx

import (
	"github.com/born-ml/onnxcast/internal/cast"
	internalonnx "github.com/born-ml/onnxcast/internal/onnx"
	"github.com/born-ml/onnxcast/internal/onnx/operators"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// Error sentinels.
var (
	ErrUnsupportedType = cast.ErrUnsupportedType
	ErrParse           = cast.ErrParse
	ErrConfiguration   = operators.ErrConfiguration
)

type (
	// Registry maps operator types to handlers and kernel definitions.
	Registry = operators.Registry
	// Context carries the allocator, parallelism, logger and opset of a call.
	Context = operators.Context
	// Node is an ONNX graph node.
	Node = operators.Node
	// Attribute is a node attribute.
	Attribute = operators.Attribute
	// KernelDef declares the opsets and element kinds a kernel accepts.
	KernelDef = operators.KernelDef
	// CastKernel is a configured Cast operator.
	CastKernel = operators.CastKernel
	// ParseError reports a string element that could not be parsed.
	ParseError = cast.ParseError
	// UnsupportedTypeError reports a kind outside the enabled sets.
	UnsupportedTypeError = cast.UnsupportedTypeError
	// ConfigurationError reports an invalid node attribute.
	ConfigurationError = operators.ConfigurationError
	// LoadOptions configures ONNX model loading behavior.
	LoadOptions = internalonnx.LoadOptions
	// ModelInfo contains metadata about an ONNX model without loading it.
	ModelInfo = internalonnx.ModelInfo
	// CastNode describes one Cast node of a loaded model.
	CastNode = internalonnx.CastNode
)

// NewRegistry returns a registry with Cast, Identity, Shape and Size.
func NewRegistry() *Registry {
	return operators.NewRegistry()
}

// NewCastKernel validates the node's "to" attribute.
func NewCastKernel(node *Node) (*CastKernel, error) {
	return operators.NewCastKernel(node)
}

// Cast converts input to the kind to and returns a new tensor.
// Casting to the input's own kind returns a copy.
func Cast(input *tensor.RawTensor, to tensor.DataType) (*tensor.RawTensor, error) {
	k, err := operators.NewCastKernel(&Node{
		OpType:     "Cast",
		Attributes: []Attribute{operators.IntAttr("to", int64(to.ONNX()))},
	})
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewRaw(input.Shape(), to)
	if err != nil {
		return nil, err
	}
	if err := k.Compute(nil, input, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SupportedPairs lists every (source, destination) pair Cast resolves.
func SupportedPairs() [][2]tensor.DataType {
	return cast.Default().Pairs()
}

// ListSupportedOps returns the operator types in a default registry.
func ListSupportedOps() []string {
	return operators.NewRegistry().SupportedOps()
}

// DefaultLoadOptions returns the default options for loading ONNX models.
func DefaultLoadOptions() LoadOptions {
	return internalonnx.DefaultLoadOptions()
}

// Load loads an ONNX model from a file path.
//
// Example:
//
//	model, err := onnx.Load("preprocess.onnx", onnx.LoadOptions{StrictMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//	fmt.Println("Inputs:", model.InputNames())
func Load(path string, opts ...LoadOptions) (Model, error) {
	m, err := internalonnx.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFromBytes loads an ONNX model from raw bytes.
func LoadFromBytes(data []byte, opts ...LoadOptions) (Model, error) {
	m, err := internalonnx.LoadFromBytes(data, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetModelInfo extracts metadata from an ONNX file without loading the full model.
func GetModelInfo(path string) (*ModelInfo, error) {
	return internalonnx.GetModelInfo(path)
}
