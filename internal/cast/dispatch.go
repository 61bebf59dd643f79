package cast

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/born-ml/onnxcast/internal/bfloat16"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// Dispatcher maps a runtime (source, destination) kind pair to its Caster.
// The table is filled once at construction; lookups are two array indexes.
// A Dispatcher is immutable and safe for concurrent use.
type Dispatcher struct {
	srcEnabled [tensor.NumDataTypes]bool
	dstEnabled [tensor.NumDataTypes]bool
	table      [tensor.NumDataTypes][tensor.NumDataTypes]Caster
	half       HalfConverter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHalfConverter selects the float16 -> float32 bulk routine. Float16
// sources take the two-stage path only when it reports Accelerated.
func WithHalfConverter(hc HalfConverter) Option {
	return func(d *Dispatcher) {
		d.half = hc
	}
}

// NewDispatcher builds the caster table for every enabled pair with
// distinct source and destination.
func NewDispatcher(src, dst []tensor.DataType, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{half: DefaultHalfConverter()}
	for _, opt := range opts {
		opt(d)
	}

	for _, t := range src {
		if !t.Valid() {
			return nil, fmt.Errorf("cast: invalid source type %s", t)
		}
		d.srcEnabled[t] = true
	}
	for _, t := range dst {
		if !t.Valid() {
			return nil, fmt.Errorf("cast: invalid destination type %s", t)
		}
		d.dstEnabled[t] = true
	}

	for _, s := range src {
		for _, t := range dst {
			if s == t {
				continue
			}
			c, err := newCaster(s, t, d.half)
			if err != nil {
				return nil, err
			}
			d.table[s][t] = c
		}
	}
	return d, nil
}

var defaultDispatcher = mustDispatcher(NewDispatcher(enabledSourceTypes, enabledDestTypes))

func mustDispatcher(d *Dispatcher, err error) *Dispatcher {
	if err != nil {
		panic(err)
	}
	return d
}

// Default returns the dispatcher built from the enabled type declarations.
func Default() *Dispatcher {
	return defaultDispatcher
}

// Resolve returns the Caster for src -> dst. It fails with an
// UnsupportedTypeError when src is not an enabled source, or dst is not an
// enabled destination or equals src.
func (d *Dispatcher) Resolve(src, dst tensor.DataType) (Caster, error) {
	if !src.Valid() || !d.srcEnabled[src] {
		return nil, &UnsupportedTypeError{Role: "source", Type: src}
	}
	if !dst.Valid() || !d.dstEnabled[dst] || dst == src {
		return nil, &UnsupportedTypeError{Role: "destination", Type: dst, Source: src}
	}
	return d.table[src][dst], nil
}

// Resolve looks the pair up in the default dispatcher.
func Resolve(src, dst tensor.DataType) (Caster, error) {
	return defaultDispatcher.Resolve(src, dst)
}

// Pairs lists every resolvable pair in source-major order.
func (d *Dispatcher) Pairs() [][2]tensor.DataType {
	var pairs [][2]tensor.DataType
	for s := range d.table {
		for t, c := range d.table[s] {
			if c != nil {
				pairs = append(pairs, [2]tensor.DataType{tensor.DataType(s), tensor.DataType(t)})
			}
		}
	}
	return pairs
}

// HalfConverter returns the float16 bulk routine the dispatcher was built with.
func (d *Dispatcher) HalfConverter() HalfConverter {
	return d.half
}

// newCaster is the outer, source-side switch.
func newCaster(src, dst tensor.DataType, hc HalfConverter) (Caster, error) {
	switch src {
	case tensor.Bool:
		return fromBool(dst)
	case tensor.Int8:
		return fromNumber[int8](src, dst)
	case tensor.Int16:
		return fromNumber[int16](src, dst)
	case tensor.Int32:
		return fromNumber[int32](src, dst)
	case tensor.Int64:
		return fromNumber[int64](src, dst)
	case tensor.Uint8:
		return fromNumber[uint8](src, dst)
	case tensor.Uint16:
		return fromNumber[uint16](src, dst)
	case tensor.Uint32:
		return fromNumber[uint32](src, dst)
	case tensor.Uint64:
		return fromNumber[uint64](src, dst)
	case tensor.Float32:
		return fromNumber[float32](src, dst)
	case tensor.Float64:
		return fromNumber[float64](src, dst)
	case tensor.Float16:
		return fromHalf[float16.Float16](src, dst, hc)
	case tensor.BFloat16:
		return fromHalf[bfloat16.BFloat16](src, dst, nil)
	case tensor.String:
		return fromText(dst)
	}
	return nil, &UnsupportedTypeError{Role: "source", Type: src}
}

func fromNumber[S number](src, dst tensor.DataType) (Caster, error) {
	switch dst {
	case tensor.Bool:
		return newGeneric(src, dst, castToBool[S]), nil
	case tensor.Int8:
		return newGeneric(src, dst, castNumbers[S, int8]), nil
	case tensor.Int16:
		return newGeneric(src, dst, castNumbers[S, int16]), nil
	case tensor.Int32:
		return newGeneric(src, dst, castNumbers[S, int32]), nil
	case tensor.Int64:
		return newGeneric(src, dst, castNumbers[S, int64]), nil
	case tensor.Uint8:
		return newGeneric(src, dst, castNumbers[S, uint8]), nil
	case tensor.Uint16:
		return newGeneric(src, dst, castNumbers[S, uint16]), nil
	case tensor.Uint32:
		return newGeneric(src, dst, castNumbers[S, uint32]), nil
	case tensor.Uint64:
		return newGeneric(src, dst, castNumbers[S, uint64]), nil
	case tensor.Float32:
		return newGeneric(src, dst, castNumbers[S, float32]), nil
	case tensor.Float64:
		return newGeneric(src, dst, castNumbers[S, float64]), nil
	case tensor.Float16:
		return newGeneric(src, dst, castToHalf[S](float16.Fromfloat32)), nil
	case tensor.BFloat16:
		return newGeneric(src, dst, castToHalf[S](bfloat16.FromFloat32)), nil
	case tensor.String:
		return newToText(src, numberFormatter[S]()), nil
	}
	return nil, &UnsupportedTypeError{Role: "destination", Type: dst, Source: src}
}

func fromBool(dst tensor.DataType) (Caster, error) {
	src := tensor.Bool
	switch dst {
	case tensor.Int8:
		return newGeneric(src, dst, castFromBool[int8]), nil
	case tensor.Int16:
		return newGeneric(src, dst, castFromBool[int16]), nil
	case tensor.Int32:
		return newGeneric(src, dst, castFromBool[int32]), nil
	case tensor.Int64:
		return newGeneric(src, dst, castFromBool[int64]), nil
	case tensor.Uint8:
		return newGeneric(src, dst, castFromBool[uint8]), nil
	case tensor.Uint16:
		return newGeneric(src, dst, castFromBool[uint16]), nil
	case tensor.Uint32:
		return newGeneric(src, dst, castFromBool[uint32]), nil
	case tensor.Uint64:
		return newGeneric(src, dst, castFromBool[uint64]), nil
	case tensor.Float32:
		return newGeneric(src, dst, castFromBool[float32]), nil
	case tensor.Float64:
		return newGeneric(src, dst, castFromBool[float64]), nil
	case tensor.Float16:
		return newGeneric(src, dst, castBoolToHalf(float16.Fromfloat32)), nil
	case tensor.BFloat16:
		return newGeneric(src, dst, castBoolToHalf(bfloat16.FromFloat32)), nil
	case tensor.String:
		return newToText(src, formatBool), nil
	}
	return nil, &UnsupportedTypeError{Role: "destination", Type: dst, Source: src}
}

// fromHalf builds half-precision source casters on top of the float32
// casters. With an accelerated converter the float16 path becomes
// bulk-convert then cast; otherwise each element is promoted inline.
func fromHalf[H half](src, dst tensor.DataType, hc HalfConverter) (Caster, error) {
	fast := hc != nil && hc.Accelerated()
	p := pair{src, dst}

	if dst == tensor.Float32 {
		if fast {
			return &fastHalfToFloat{pair: p, conv: hc}, nil
		}
		return &halfCaster[H]{pair: p}, nil
	}

	next, err := fromNumber[float32](tensor.Float32, dst)
	if err != nil {
		return nil, &UnsupportedTypeError{Role: "destination", Type: dst, Source: src}
	}
	if fast {
		return &fastHalfThroughFloat{pair: p, conv: hc, next: next}, nil
	}
	sc, ok := next.(sliceCaster[float32])
	if !ok {
		return nil, fmt.Errorf("cast %s: float32 caster cannot stage slices", p)
	}
	return &halfCaster[H]{pair: p, next: sc}, nil
}

func fromText(dst tensor.DataType) (Caster, error) {
	switch dst {
	case tensor.Bool:
		return newFromText(dst, parseBool), nil
	case tensor.Int8:
		return newFromText(dst, numberParser[int8]()), nil
	case tensor.Int16:
		return newFromText(dst, numberParser[int16]()), nil
	case tensor.Int32:
		return newFromText(dst, numberParser[int32]()), nil
	case tensor.Int64:
		return newFromText(dst, numberParser[int64]()), nil
	case tensor.Uint8:
		return newFromText(dst, numberParser[uint8]()), nil
	case tensor.Uint16:
		return newFromText(dst, numberParser[uint16]()), nil
	case tensor.Uint32:
		return newFromText(dst, numberParser[uint32]()), nil
	case tensor.Uint64:
		return newFromText(dst, numberParser[uint64]()), nil
	case tensor.Float32:
		return newFromText(dst, numberParser[float32]()), nil
	case tensor.Float64:
		return newFromText(dst, numberParser[float64]()), nil
	case tensor.Float16:
		return newFromText(dst, halfParser(float16.Fromfloat32)), nil
	case tensor.BFloat16:
		return newFromText(dst, halfParser(bfloat16.FromFloat32)), nil
	}
	return nil, &UnsupportedTypeError{Role: "destination", Type: dst, Source: tensor.String}
}
