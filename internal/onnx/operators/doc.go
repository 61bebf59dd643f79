// Package operators implements the ONNX Cast operator and the utility
// operators that share its copy path.
//
// A Registry maps operator types to handlers and to versioned KernelDefs.
// Execute checks the requested opset and the input element kinds against
// the definition before running the handler. Cast is served by CastKernel,
// which reads its "to" attribute once and delegates conversion to the
// dispatcher in internal/cast.
package operators
