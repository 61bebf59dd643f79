package onnx

import (
	"fmt"

	"github.com/born-ml/onnxcast/internal/onnx/operators"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// Model represents a loaded ONNX graph ready to run.
type Model struct {
	proto        *ModelProto
	registry     *operators.Registry
	tensors      map[string]*tensor.RawTensor // Initializers
	inputNames   []string
	inputKinds   map[string]tensor.DataType // Declared kinds of graph inputs
	outputNames  []string
	sortedNodes  []NodeProto
	opsetVersion int64
}

// InputNames returns the names of model inputs.
func (m *Model) InputNames() []string {
	return m.inputNames
}

// OutputNames returns the names of model outputs.
func (m *Model) OutputNames() []string {
	return m.outputNames
}

// OpsetVersion returns the ONNX opset version.
func (m *Model) OpsetVersion() int64 {
	return m.opsetVersion
}

// InputKind returns the declared element kind of a graph input, or
// Undefined when the graph leaves it open.
func (m *Model) InputKind(name string) tensor.DataType {
	return m.inputKinds[name]
}

// Metadata returns model metadata as key-value pairs.
func (m *Model) Metadata() map[string]string {
	return map[string]string{
		"producer_name":    m.proto.ProducerName,
		"producer_version": m.proto.ProducerVersion,
		"graph":            m.graphName(),
	}
}

func (m *Model) graphName() string {
	if m.proto.Graph == nil {
		return ""
	}
	return m.proto.Graph.Name
}

// Forward runs the graph with a single input tensor.
// For models with multiple inputs, use Run.
func (m *Model) Forward(ctx *operators.Context, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(m.inputNames) != 1 {
		return nil, fmt.Errorf("model has %d inputs, use Run", len(m.inputNames))
	}
	if len(m.outputNames) != 1 {
		return nil, fmt.Errorf("model has %d outputs, use Run", len(m.outputNames))
	}

	outputs, err := m.Run(ctx, map[string]*tensor.RawTensor{m.inputNames[0]: input})
	if err != nil {
		return nil, err
	}
	return outputs[m.outputNames[0]], nil
}

// Run executes the graph with named inputs and returns the graph outputs
// by name. A context opset of 0 is replaced by the model's opset.
// Intermediate tensors that are not graph outputs are released before Run
// returns. Every returned tensor may be released by the caller.
func (m *Model) Run(ctx *operators.Context, inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	runCtx := m.runContext(ctx)

	tensors := make(map[string]*tensor.RawTensor, len(m.tensors)+len(inputs))
	for name, t := range m.tensors {
		tensors[name] = t
	}
	for _, name := range m.inputNames {
		t, ok := inputs[name]
		if !ok || t == nil {
			return nil, fmt.Errorf("missing input: %s", name)
		}
		if want := m.inputKinds[name]; want != tensor.Undefined && t.DType() != want {
			return nil, fmt.Errorf("input %s: got %s, want %s", name, t.DType(), want)
		}
		tensors[name] = t
	}

	external := make([]*tensor.RawTensor, 0, len(tensors))
	for _, t := range tensors {
		external = append(external, t)
	}
	var produced []*tensor.RawTensor
	fail := func(err error) (map[string]*tensor.RawTensor, error) {
		releaseAll(produced, external)
		return nil, err
	}

	log := runCtx.Logger
	for i := range m.sortedNodes {
		node := &m.sortedNodes[i]
		nodeInputs := make([]*tensor.RawTensor, len(node.Inputs))
		for j, name := range node.Inputs {
			if name == "" {
				continue // Optional input not provided
			}
			t, ok := tensors[name]
			if !ok {
				return fail(fmt.Errorf("node %s: missing input %s", node.Name, name))
			}
			nodeInputs[j] = t
		}

		outputs, err := m.registry.Execute(runCtx, nodeProtoToOperatorNode(node), nodeInputs)
		if err != nil {
			return fail(fmt.Errorf("node %s (%s): %w", node.Name, node.OpType, err))
		}
		if log != nil {
			log.Debug().Str("node", node.Name).Str("op", node.OpType).Int("outputs", len(outputs)).Msg("node done")
		}

		for j, name := range node.Outputs {
			if j < len(outputs) {
				tensors[name] = outputs[j]
				produced = append(produced, outputs[j])
			}
		}
	}

	result := make(map[string]*tensor.RawTensor, len(m.outputNames))
	for _, name := range m.outputNames {
		t, ok := tensors[name]
		if !ok {
			return fail(fmt.Errorf("missing output: %s", name))
		}
		// Outputs backed by an input or initializer carry their own
		// reference, so releasing one leaves the model intact.
		if sharesAny(t, external) {
			t = t.Clone()
		}
		result[name] = t
	}

	keep := external
	for _, t := range result {
		keep = append(keep, t)
	}
	releaseAll(produced, keep)

	return result, nil
}

func (m *Model) runContext(ctx *operators.Context) *operators.Context {
	var c operators.Context
	if ctx != nil {
		c = *ctx
	}
	if c.Opset == 0 {
		c.Opset = int(m.opsetVersion)
	}
	return &c
}

// releaseAll releases every tensor in ts whose buffer no tensor in keep
// shares. Each buffer is released once.
func releaseAll(ts, keep []*tensor.RawTensor) {
	var done []*tensor.RawTensor
	for _, t := range ts {
		if t == nil || sharesAny(t, keep) || sharesAny(t, done) {
			continue
		}
		t.Release()
		done = append(done, t)
	}
}

func sharesAny(t *tensor.RawTensor, ts []*tensor.RawTensor) bool {
	for _, o := range ts {
		if o != nil && t.SharesBuffer(o) {
			return true
		}
	}
	return false
}

// Close releases the model's initializers.
func (m *Model) Close() {
	for name, t := range m.tensors {
		t.Release()
		delete(m.tensors, name)
	}
}

// compile prepares the model for execution.
func (m *Model) compile() error {
	graph := m.proto.Graph
	if graph == nil {
		return fmt.Errorf("model has no graph")
	}

	m.tensors = make(map[string]*tensor.RawTensor, len(graph.Initializers))
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		t, err := TensorFromProto(init)
		if err != nil {
			return fmt.Errorf("failed to load initializer %s: %w", init.Name, err)
		}
		m.tensors[init.Name] = t
	}

	// Inputs are graph inputs minus initializers
	m.inputKinds = make(map[string]tensor.DataType)
	for i := range graph.Inputs {
		in := &graph.Inputs[i]
		if _, ok := m.tensors[in.Name]; ok {
			continue
		}
		m.inputNames = append(m.inputNames, in.Name)
		if in.ElemType != 0 {
			dt, err := tensor.FromONNX(int64(in.ElemType))
			if err != nil {
				return fmt.Errorf("input %s: %w", in.Name, err)
			}
			m.inputKinds[in.Name] = dt
		}
	}

	for i := range graph.Outputs {
		m.outputNames = append(m.outputNames, graph.Outputs[i].Name)
	}

	sorted, err := topologicalSort(graph.Nodes)
	if err != nil {
		return err
	}
	m.sortedNodes = sorted
	m.opsetVersion = m.proto.DefaultOpset()

	return nil
}

// nodeProtoToOperatorNode converts NodeProto to operators.Node.
func nodeProtoToOperatorNode(proto *NodeProto) *operators.Node {
	attrs := make([]operators.Attribute, len(proto.Attributes))
	for i := range proto.Attributes {
		attr := &proto.Attributes[i]
		attrs[i] = operators.Attribute{
			Name:    attr.Name,
			Type:    attr.Type,
			F:       attr.F,
			I:       attr.I,
			S:       attr.S,
			Floats:  attr.Floats,
			Ints:    attr.Ints,
			Strings: attr.Strings,
		}
	}
	return &operators.Node{
		Name:       proto.Name,
		OpType:     proto.OpType,
		Inputs:     proto.Inputs,
		Outputs:    proto.Outputs,
		Attributes: attrs,
		Domain:     proto.Domain,
	}
}

// topologicalSort sorts nodes in execution order.
// Ensures dependencies are executed before dependents; a cycle is an error.
func topologicalSort(nodes []NodeProto) ([]NodeProto, error) {
	outputToNode := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			outputToNode[output] = i
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(nodes))
	result := make([]NodeProto, 0, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("graph has a cycle through node %q", nodes[i].Name)
		}
		state[i] = visiting

		for _, input := range nodes[i].Inputs {
			if depIdx, ok := outputToNode[input]; ok {
				if err := visit(depIdx); err != nil {
					return err
				}
			}
		}

		state[i] = done
		result = append(result, nodes[i])
		return nil
	}

	for i := range nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return result, nil
}
