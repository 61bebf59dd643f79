// Package onnx reads ONNX models and runs graphs built from the operators
// in the operators package.
//
// Parsing decodes the protobuf wire format with
// google.golang.org/protobuf/encoding/protowire and keeps only the fields a
// Cast graph needs:
//   - ModelProto: IR version, producer, opset imports and the graph
//   - GraphProto: nodes, typed inputs and outputs, initializers
//   - NodeProto: operator type, inputs, outputs and attributes
//   - TensorProto: initializer data, raw_data or the typed fields
//   - ValueInfoProto: tensor name and element type
//
// Initializers may use every element kind Cast handles, string, float16 and
// bfloat16 included. External data is rejected.
//
// Example usage:
//
//	model, err := onnx.Load("preprocess.onnx", onnx.LoadOptions{StrictMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range model.CastNodes() {
//	    fmt.Printf("%s: %s -> %s\n", c.Node, c.From, c.To)
//	}
//	outputs, err := model.Run(&operators.Context{}, inputs)
package onnx
