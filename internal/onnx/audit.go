package onnx

import (
	"fmt"

	"github.com/born-ml/onnxcast/internal/cast"
	"github.com/born-ml/onnxcast/internal/onnx/operators"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// CastNode describes one Cast node of a loaded graph.
type CastNode struct {
	Node  string
	Input string
	From  tensor.DataType // Undefined when no kind is known before running
	To    tensor.DataType // Undefined when the "to" attribute is invalid
	Err   error           // Why the node cannot run, or nil
}

// CastNodes reports every Cast node in execution order. Input kinds are
// derived from initializers and typed graph inputs and followed through
// Cast, Identity, Shape and Size nodes. A node whose configuration, opset
// or type pair would fail at run time carries the error in Err.
func (m *Model) CastNodes() []CastNode {
	kinds := make(map[string]tensor.DataType, len(m.tensors)+len(m.inputKinds))
	for name, t := range m.tensors {
		kinds[name] = t.DType()
	}
	for name, dt := range m.inputKinds {
		kinds[name] = dt
	}

	var nodes []CastNode
	for i := range m.sortedNodes {
		node := &m.sortedNodes[i]
		out := tensor.Undefined

		switch node.OpType {
		case "Cast":
			c := m.auditCast(node, kinds)
			out = c.To
			nodes = append(nodes, c)
		case "Identity":
			if len(node.Inputs) > 0 {
				out = kinds[node.Inputs[0]]
			}
		case "Shape", "Size":
			out = tensor.Int64
		}

		if out != tensor.Undefined && len(node.Outputs) > 0 {
			kinds[node.Outputs[0]] = out
		}
	}
	return nodes
}

func (m *Model) auditCast(node *NodeProto, kinds map[string]tensor.DataType) CastNode {
	c := CastNode{Node: node.Name}
	if len(node.Inputs) != 1 {
		c.Err = fmt.Errorf("cast requires 1 input, got %d", len(node.Inputs))
		return c
	}
	c.Input = node.Inputs[0]
	c.From = kinds[c.Input]

	k, err := operators.NewCastKernel(nodeProtoToOperatorNode(node))
	if err != nil {
		c.Err = err
		return c
	}
	c.To = k.To()

	def, ok := m.registry.KernelDef("Cast", int(m.opsetVersion))
	if !ok {
		c.Err = fmt.Errorf("operator Cast is not available at opset %d", m.opsetVersion)
		return c
	}
	if c.From == tensor.Undefined || c.From == c.To {
		return c
	}
	if !def.Supports("T1", c.From) {
		c.Err = &cast.UnsupportedTypeError{Role: "source", Type: c.From}
		return c
	}
	if _, err := cast.Resolve(c.From, c.To); err != nil {
		c.Err = err
	}
	return c
}
