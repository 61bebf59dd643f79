// Package tensor provides the raw tensor types used by the Cast operator.
package tensor

import (
	"fmt"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
)

// Element is the set of Go types backing fixed-width element kinds.
// String tensors are stored separately and are not part of this set.
type Element interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | float16.Float16 | bfloat16.BFloat16
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Undefined DataType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Float16
	BFloat16
	String

	numDataTypes
)

// NumDataTypes is the number of defined kinds, Undefined included.
// Kinds are dense in [0, NumDataTypes) and can index lookup tables.
const NumDataTypes = int(numDataTypes)

// ONNX TensorProto.DataType codes.
const (
	onnxUndefined = 0
	onnxFloat     = 1
	onnxUint8     = 2
	onnxInt8      = 3
	onnxUint16    = 4
	onnxInt16     = 5
	onnxInt32     = 6
	onnxInt64     = 7
	onnxString    = 8
	onnxBool      = 9
	onnxFloat16   = 10
	onnxDouble    = 11
	onnxUint32    = 12
	onnxUint64    = 13
	onnxBFloat16  = 16
)

var dataTypeInfo = [numDataTypes]struct {
	name string
	size int
	onnx int32
}{
	Undefined: {"undefined", 0, onnxUndefined},
	Bool:      {"bool", 1, onnxBool},
	Int8:      {"int8", 1, onnxInt8},
	Int16:     {"int16", 2, onnxInt16},
	Int32:     {"int32", 4, onnxInt32},
	Int64:     {"int64", 8, onnxInt64},
	Uint8:     {"uint8", 1, onnxUint8},
	Uint16:    {"uint16", 2, onnxUint16},
	Uint32:    {"uint32", 4, onnxUint32},
	Uint64:    {"uint64", 8, onnxUint64},
	Float32:   {"float32", 4, onnxFloat},
	Float64:   {"float64", 8, onnxDouble},
	Float16:   {"float16", 2, onnxFloat16},
	BFloat16:  {"bfloat16", 2, onnxBFloat16},
	String:    {"string", 16, onnxString},
}

// Valid reports whether dt is one of the defined kinds (Undefined excluded).
func (dt DataType) Valid() bool {
	return dt > Undefined && dt < numDataTypes
}

// Size returns the byte size of one element.
// String elements report the size of a Go string header.
func (dt DataType) Size() int {
	if dt < 0 || dt >= numDataTypes {
		panic("unknown data type")
	}
	return dataTypeInfo[dt].size
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	if dt < 0 || dt >= numDataTypes {
		return "unknown"
	}
	return dataTypeInfo[dt].name
}

// IsFloat reports whether dt is a floating point kind, reduced precision included.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float32, Float64, Float16, BFloat16:
		return true
	default:
		return false
	}
}

// IsInteger reports whether dt is a signed or unsigned integer kind.
func (dt DataType) IsInteger() bool {
	return dt >= Int8 && dt <= Uint64
}

// ONNX returns the TensorProto.DataType code for dt.
func (dt DataType) ONNX() int32 {
	if dt < 0 || dt >= numDataTypes {
		return onnxUndefined
	}
	return dataTypeInfo[dt].onnx
}

// FromONNX maps a TensorProto.DataType code to a DataType.
func FromONNX(code int64) (DataType, error) {
	for dt := Bool; dt < numDataTypes; dt++ {
		if int64(dataTypeInfo[dt].onnx) == code {
			return dt, nil
		}
	}
	return Undefined, fmt.Errorf("unsupported ONNX data type %d", code)
}

// ParseDataType maps a kind name ("int8", "float16", ...) to a DataType.
// ONNX spellings such as "FLOAT" and "DOUBLE" are accepted too.
func ParseDataType(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	case "half":
		return Float16, nil
	}
	for dt := Bool; dt < numDataTypes; dt++ {
		if dataTypeInfo[dt].name == n {
			return dt, nil
		}
	}
	return Undefined, fmt.Errorf("unknown data type %q", name)
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case float16.Float16:
		return Float16
	case bfloat16.BFloat16:
		return BFloat16
	default:
		panic("unsupported type")
	}
}

// DataTypeOf returns the kind backed by the Go type T.
func DataTypeOf[T Element]() DataType {
	return inferDataType[T]()
}
