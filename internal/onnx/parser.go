package onnx

import (
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is matched by every wire-format decoding error.
var ErrMalformed = errors.New("malformed protobuf")

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := readModelProto(data, model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// field is one decoded tag and the raw bytes of its value.
type field struct {
	num protowire.Number
	typ protowire.Type
	raw []byte
}

// forEachField calls fn for every field of the message encoded in b.
// Unknown fields are handed to fn too; ignoring them skips them.
func forEachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: tag: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(m))
		}
		if err := fn(field{num: num, typ: typ, raw: b[:m]}); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func (f field) wrongType() error {
	return fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, f.num, f.typ)
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType()
	}
	v, _ := protowire.ConsumeBytes(f.raw)
	return v, nil
}

func (f field) string() (string, error) {
	v, err := f.bytes()
	return string(v), err
}

func (f field) varint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, f.wrongType()
	}
	v, _ := protowire.ConsumeVarint(f.raw)
	return v, nil
}

func (f field) float32() (float32, error) {
	if f.typ != protowire.Fixed32Type {
		return 0, f.wrongType()
	}
	v, _ := protowire.ConsumeFixed32(f.raw)
	return math.Float32frombits(v), nil
}

// varints decodes a repeated varint field, packed or not.
func (f field) varints(fn func(v uint64)) error {
	if f.typ == protowire.VarintType {
		v, _ := protowire.ConsumeVarint(f.raw)
		fn(v)
		return nil
	}
	b, err := f.bytes()
	if err != nil {
		return err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, f.num, protowire.ParseError(n))
		}
		fn(v)
		b = b[n:]
	}
	return nil
}

// fixed32s decodes a repeated fixed32 field, packed or not.
func (f field) fixed32s(fn func(v uint32)) error {
	if f.typ == protowire.Fixed32Type {
		v, _ := protowire.ConsumeFixed32(f.raw)
		fn(v)
		return nil
	}
	b, err := f.bytes()
	if err != nil {
		return err
	}
	if len(b)%4 != 0 {
		return fmt.Errorf("%w: field %d: packed fixed32 length %d", ErrMalformed, f.num, len(b))
	}
	for ; len(b) > 0; b = b[4:] {
		v, _ := protowire.ConsumeFixed32(b)
		fn(v)
	}
	return nil
}

// fixed64s decodes a repeated fixed64 field, packed or not.
func (f field) fixed64s(fn func(v uint64)) error {
	if f.typ == protowire.Fixed64Type {
		v, _ := protowire.ConsumeFixed64(f.raw)
		fn(v)
		return nil
	}
	b, err := f.bytes()
	if err != nil {
		return err
	}
	if len(b)%8 != 0 {
		return fmt.Errorf("%w: field %d: packed fixed64 length %d", ErrMalformed, f.num, len(b))
	}
	for ; len(b) > 0; b = b[8:] {
		v, _ := protowire.ConsumeFixed64(b)
		fn(v)
	}
	return nil
}

func readModelProto(b []byte, m *ModelProto) error {
	return forEachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // ir_version
			var v uint64
			v, err = f.varint()
			m.IRVersion = int64(v) //nolint:gosec // G115: two's complement int64
		case 2: // producer_name
			m.ProducerName, err = f.string()
		case 3: // producer_version
			m.ProducerVersion, err = f.string()
		case 5: // model_version
			var v uint64
			v, err = f.varint()
			m.ModelVersion = int64(v) //nolint:gosec // G115: two's complement int64
		case 7: // graph
			var b []byte
			if b, err = f.bytes(); err == nil {
				m.Graph = &GraphProto{}
				err = readGraphProto(b, m.Graph)
			}
		case 8: // opset_import
			var b []byte
			if b, err = f.bytes(); err == nil {
				var opset OperatorSetID
				err = readOperatorSetID(b, &opset)
				m.OpsetImport = append(m.OpsetImport, opset)
			}
		}
		return err
	})
}

func readGraphProto(b []byte, m *GraphProto) error {
	return forEachField(b, func(f field) error {
		if f.num == 2 { // name
			var err error
			m.Name, err = f.string()
			return err
		}
		if f.num != 1 && f.num != 5 && f.num != 11 && f.num != 12 {
			return nil
		}

		sub, err := f.bytes()
		if err != nil {
			return err
		}
		switch f.num {
		case 1: // node
			var node NodeProto
			err = readNodeProto(sub, &node)
			m.Nodes = append(m.Nodes, node)
		case 5: // initializer
			var t TensorProto
			err = readTensorProto(sub, &t)
			m.Initializers = append(m.Initializers, t)
		case 11: // input
			var vi ValueInfoProto
			err = readValueInfoProto(sub, &vi)
			m.Inputs = append(m.Inputs, vi)
		case 12: // output
			var vi ValueInfoProto
			err = readValueInfoProto(sub, &vi)
			m.Outputs = append(m.Outputs, vi)
		}
		return err
	})
}

func readNodeProto(b []byte, m *NodeProto) error {
	return forEachField(b, func(f field) error {
		var (
			s   string
			err error
		)
		switch f.num {
		case 1: // input
			s, err = f.string()
			m.Inputs = append(m.Inputs, s)
		case 2: // output
			s, err = f.string()
			m.Outputs = append(m.Outputs, s)
		case 3: // name
			m.Name, err = f.string()
		case 4: // op_type
			m.OpType, err = f.string()
		case 5: // attribute
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				var attr AttributeProto
				err = readAttributeProto(sub, &attr)
				m.Attributes = append(m.Attributes, attr)
			}
		case 7: // domain
			m.Domain, err = f.string()
		}
		return err
	})
}

//nolint:gosec // G115: ONNX stores narrow integers and bit patterns in wider wire fields.
func readTensorProto(b []byte, m *TensorProto) error {
	return forEachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // dims
			err = f.varints(func(v uint64) { m.Dims = append(m.Dims, int64(v)) })
		case 2: // data_type
			var v uint64
			v, err = f.varint()
			m.DataType = int32(v)
		case 4: // float_data
			err = f.fixed32s(func(v uint32) { m.FloatData = append(m.FloatData, math.Float32frombits(v)) })
		case 5: // int32_data
			err = f.varints(func(v uint64) { m.Int32Data = append(m.Int32Data, int32(v)) })
		case 6: // string_data
			var s []byte
			s, err = f.bytes()
			m.StringData = append(m.StringData, s)
		case 7: // int64_data
			err = f.varints(func(v uint64) { m.Int64Data = append(m.Int64Data, int64(v)) })
		case 8: // name
			m.Name, err = f.string()
		case 9: // raw_data
			m.RawData, err = f.bytes()
		case 10: // double_data
			err = f.fixed64s(func(v uint64) { m.DoubleData = append(m.DoubleData, math.Float64frombits(v)) })
		case 11: // uint64_data
			err = f.varints(func(v uint64) { m.Uint64Data = append(m.Uint64Data, v) })
		case 14: // data_location
			var v uint64
			if v, err = f.varint(); err == nil && v != 0 {
				err = fmt.Errorf("tensor %q: external data is not supported", m.Name)
			}
		}
		return err
	})
}

// readValueInfoProto keeps the name and the tensor element type, which sit
// at type(2).tensor_type(1).elem_type(1).
func readValueInfoProto(b []byte, m *ValueInfoProto) error {
	return forEachField(b, func(f field) error {
		switch f.num {
		case 1: // name
			var err error
			m.Name, err = f.string()
			return err
		case 2: // type
			typ, err := f.bytes()
			if err != nil {
				return err
			}
			return forEachField(typ, func(f field) error {
				if f.num != 1 { // tensor_type
					return nil
				}
				tt, err := f.bytes()
				if err != nil {
					return err
				}
				return forEachField(tt, func(f field) error {
					if f.num != 1 { // elem_type
						return nil
					}
					v, err := f.varint()
					m.ElemType = int32(v) //nolint:gosec // G115: enum value
					return err
				})
			})
		}
		return nil
	})
}

//nolint:gosec // G115: ONNX stores attribute enums and ints as varints.
func readAttributeProto(b []byte, m *AttributeProto) error {
	return forEachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // name
			m.Name, err = f.string()
		case 2: // f
			m.F, err = f.float32()
		case 3: // i
			var v uint64
			v, err = f.varint()
			m.I = int64(v)
		case 4: // s
			m.S, err = f.bytes()
		case 7: // floats
			err = f.fixed32s(func(v uint32) { m.Floats = append(m.Floats, math.Float32frombits(v)) })
		case 8: // ints
			err = f.varints(func(v uint64) { m.Ints = append(m.Ints, int64(v)) })
		case 9: // strings
			var s []byte
			s, err = f.bytes()
			m.Strings = append(m.Strings, s)
		case 20: // type
			var v uint64
			v, err = f.varint()
			m.Type = int32(v)
		}
		return err
	})
}

func readOperatorSetID(b []byte, m *OperatorSetID) error {
	return forEachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // domain
			m.Domain, err = f.string()
		case 2: // version
			var v uint64
			v, err = f.varint()
			m.Version = int64(v) //nolint:gosec // G115: opset versions are small
		}
		return err
	})
}
