package onnx

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/born-ml/onnxcast/internal/onnx/operators"
)

// msg builds protobuf messages field by field.
type msg []byte

func (m msg) str(num protowire.Number, s string) msg {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendString(m, s)
}

func (m msg) bytes(num protowire.Number, b []byte) msg {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendBytes(m, b)
}

func (m msg) sub(num protowire.Number, sub msg) msg {
	return m.bytes(num, sub)
}

func (m msg) varint(num protowire.Number, v uint64) msg {
	m = protowire.AppendTag(m, num, protowire.VarintType)
	return protowire.AppendVarint(m, v)
}

func (m msg) fixed32(num protowire.Number, v uint32) msg {
	m = protowire.AppendTag(m, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(m, v)
}

func (m msg) packedVarints(num protowire.Number, vs ...uint64) msg {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, v)
	}
	return m.bytes(num, packed)
}

func (m msg) packedFixed32(num protowire.Number, vs ...uint32) msg {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendFixed32(packed, v)
	}
	return m.bytes(num, packed)
}

func (m msg) packedFixed64(num protowire.Number, vs ...uint64) msg {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendFixed64(packed, v)
	}
	return m.bytes(num, packed)
}

func buildModel(opset int64, graph msg) []byte {
	return msg(nil).
		varint(1, 8).
		str(2, "onnxcast-test").
		str(3, "0.1").
		sub(8, msg(nil).str(1, "").varint(2, uint64(opset))).
		sub(7, graph)
}

func buildValueInfo(name string, elemType int32) msg {
	tensorType := msg(nil).varint(1, uint64(elemType))
	return msg(nil).str(1, name).sub(2, msg(nil).sub(1, tensorType))
}

func buildNode(opType, name string, inputs, outputs []string, attrs ...msg) msg {
	m := msg(nil)
	for _, in := range inputs {
		m = m.str(1, in)
	}
	for _, out := range outputs {
		m = m.str(2, out)
	}
	m = m.str(3, name).str(4, opType)
	for _, a := range attrs {
		m = m.sub(5, a)
	}
	return m
}

func buildCastNode(name, input, output string, to int64) msg {
	attr := msg(nil).str(1, "to").varint(3, uint64(to)).varint(20, operators.AttributeInt)
	return buildNode("Cast", name, []string{input}, []string{output}, attr)
}

// graphOf assembles a graph from node, input, output and initializer
// messages.
type graphOf struct {
	name         string
	nodes        []msg
	inputs       []msg
	outputs      []msg
	initializers []msg
}

func (g graphOf) build() msg {
	m := msg(nil).str(2, g.name)
	for _, n := range g.nodes {
		m = m.sub(1, n)
	}
	for _, t := range g.initializers {
		m = m.sub(5, t)
	}
	for _, in := range g.inputs {
		m = m.sub(11, in)
	}
	for _, out := range g.outputs {
		m = m.sub(12, out)
	}
	return m
}

// buildTextToHalfModel converts a string input to int32 and then to float16,
// and also reports the shape of the parsed integers.
func buildTextToHalfModel(opset int64) []byte {
	return buildModel(opset, graphOf{
		name: "text_to_half",
		nodes: []msg{
			buildCastNode("to_half", "ints", "half", operators.TensorProtoFloat16),
			buildCastNode("parse", "text", "ints", operators.TensorProtoInt32),
			buildNode("Shape", "shape", []string{"ints"}, []string{"dims"}),
		},
		inputs:  []msg{buildValueInfo("text", operators.TensorProtoString)},
		outputs: []msg{buildValueInfo("half", operators.TensorProtoFloat16), buildValueInfo("dims", operators.TensorProtoInt64)},
	}.build())
}
