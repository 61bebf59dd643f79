// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package onnx

import (
	internalonnx "github.com/born-ml/onnxcast/internal/onnx"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// Model represents a loaded ONNX graph built from Cast, Identity, Shape and
// Size nodes.
//
// The model holds the graph, its initializers and the opset it was
// exported for. Use Forward or Run to execute it.
type Model interface {
	// Forward runs the graph with a single input tensor.
	// Returns an error unless the model has exactly one input and one output.
	Forward(ctx *Context, input *tensor.RawTensor) (*tensor.RawTensor, error)

	// Run executes the graph with named inputs and returns the outputs by
	// name. A nil ctx, or one with Opset 0, runs at the model's opset.
	//
	// Example:
	//
	//	outputs, err := model.Run(nil, map[string]*tensor.RawTensor{
	//	    "text": text,
	//	})
	//	if err != nil {
	//	    log.Fatal(err)
	//	}
	//	ids := outputs["ids"]
	Run(ctx *Context, inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error)

	// InputNames returns the names of model inputs.
	InputNames() []string

	// OutputNames returns the names of model outputs.
	OutputNames() []string

	// OpsetVersion returns the ONNX opset version used by the model.
	OpsetVersion() int64

	// Metadata returns model metadata as key-value pairs.
	Metadata() map[string]string

	// CastNodes reports every Cast node with its input and output kinds and
	// the error it would fail with, if any.
	CastNodes() []CastNode

	// Close releases the model's initializers.
	Close()
}

var _ Model = (*internalonnx.Model)(nil)
