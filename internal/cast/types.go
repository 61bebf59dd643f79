package cast

import "github.com/born-ml/onnxcast/internal/tensor"

// Kinds accepted as Cast input. Removing a line drops every pair with that
// source from the dispatch table.
var enabledSourceTypes = []tensor.DataType{
	tensor.Bool,
	tensor.Float32, tensor.Float64,
	tensor.Uint8, tensor.Uint16, tensor.Uint32, tensor.Uint64,
	tensor.Int8, tensor.Int16, tensor.Int32, tensor.Int64,
	tensor.Float16, tensor.BFloat16,
	tensor.String,
}

// Kinds accepted as Cast output.
var enabledDestTypes = []tensor.DataType{
	tensor.Bool,
	tensor.Float32, tensor.Float64,
	tensor.Uint8, tensor.Uint16, tensor.Uint32, tensor.Uint64,
	tensor.Int8, tensor.Int16, tensor.Int32, tensor.Int64,
	tensor.Float16, tensor.BFloat16,
	tensor.String,
}

// EnabledSourceTypes returns the kinds the default dispatcher accepts as source.
func EnabledSourceTypes() []tensor.DataType {
	return append([]tensor.DataType(nil), enabledSourceTypes...)
}

// EnabledDestTypes returns the kinds the default dispatcher accepts as destination.
func EnabledDestTypes() []tensor.DataType {
	return append([]tensor.DataType(nil), enabledDestTypes...)
}
