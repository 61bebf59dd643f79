package operators

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/born-ml/onnxcast/internal/cast"
	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// OpHandler processes an ONNX node and returns output tensors.
type OpHandler func(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// Context provides the execution resources for one operator invocation.
// A nil Context and zero-valued fields fall back to sequential execution,
// heap allocation, the default dispatcher and a disabled logger.
type Context struct {
	Allocator  tensor.Allocator // Outputs and scratch buffers
	Parallel   parallel.Config
	Logger     *zerolog.Logger
	Opset      int // 0 means latest
	Dispatcher *cast.Dispatcher
}

func (c *Context) allocator() tensor.Allocator {
	if c == nil || c.Allocator == nil {
		return tensor.HeapAllocator{}
	}
	return c.Allocator
}

func (c *Context) logger() *zerolog.Logger {
	if c == nil || c.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return c.Logger
}

func (c *Context) dispatcher() *cast.Dispatcher {
	if c == nil || c.Dispatcher == nil {
		return cast.Default()
	}
	return c.Dispatcher
}

func (c *Context) castContext() *cast.Context {
	if c == nil {
		return nil
	}
	return &cast.Context{Allocator: c.Allocator, Parallel: c.Parallel}
}

// Registry maps ONNX operator types to handler functions and the kernel
// definitions that describe them.
type Registry struct {
	handlers map[string]OpHandler
	kernels  map[string][]KernelDef
}

// NewRegistry creates a new operator registry with all supported operators.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]OpHandler),
		kernels:  make(map[string][]KernelDef),
	}

	r.registerCastOps()
	r.registerUtilityOps()

	return r
}

// Register adds a custom operator handler without a kernel definition.
// Such handlers run at every opset and skip input type checks.
func (r *Registry) Register(opType string, handler OpHandler) {
	r.handlers[opType] = handler
}

// RegisterKernel adds a handler together with one versioned definition.
// Call it once per opset range; the handler is shared.
func (r *Registry) RegisterKernel(def KernelDef, handler OpHandler) {
	r.handlers[def.OpType] = handler
	r.kernels[def.OpType] = append(r.kernels[def.OpType], def)
}

// Get returns the handler for an operator type.
func (r *Registry) Get(opType string) (OpHandler, bool) {
	h, ok := r.handlers[opType]
	return h, ok
}

// KernelDef returns the definition of opType that serves opset.
// An opset of 0 selects the newest definition.
func (r *Registry) KernelDef(opType string, opset int) (*KernelDef, bool) {
	defs := r.kernels[opType]
	if len(defs) == 0 {
		return nil, false
	}
	if opset == 0 {
		newest := &defs[0]
		for i := range defs {
			if defs[i].SinceVersion > newest.SinceVersion {
				newest = &defs[i]
			}
		}
		return newest, true
	}
	for i := range defs {
		if defs[i].Covers(opset) {
			return &defs[i], true
		}
	}
	return nil, false
}

// Execute runs an operator with the given inputs. Registered kernel
// definitions are checked first: the context opset must be covered and each
// input kind must satisfy its type variable.
func (r *Registry) Execute(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	handler, ok := r.handlers[node.OpType]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", node.OpType)
	}

	if len(r.kernels[node.OpType]) > 0 {
		opset := 0
		if ctx != nil {
			opset = ctx.Opset
		}
		def, ok := r.KernelDef(node.OpType, opset)
		if !ok {
			return nil, fmt.Errorf("operator %s is not available at opset %d", node.OpType, opset)
		}
		if err := checkInputKinds(def, inputs); err != nil {
			return nil, err
		}
	}

	return handler(ctx, node, inputs)
}

func checkInputKinds(def *KernelDef, inputs []*tensor.RawTensor) error {
	for i, name := range def.Inputs {
		if i >= len(inputs) || inputs[i] == nil {
			break
		}
		if !def.Supports(name, inputs[i].DType()) {
			err := &cast.UnsupportedTypeError{Role: "source", Type: inputs[i].DType()}
			return fmt.Errorf("%s: input %d (%s): %w", def.OpType, i, name, err)
		}
	}
	return nil
}

// SupportedOps returns a sorted list of all supported operator types.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
