package cast

import (
	"github.com/born-ml/onnxcast/internal/parallel"
	"github.com/born-ml/onnxcast/internal/tensor"
)

// toTextCaster formats each element with a scalar text rule.
type toTextCaster[S tensor.Element] struct {
	pair
	format func(S) string
}

func newToText[S tensor.Element](src tensor.DataType, format func(S) string) *toTextCaster[S] {
	return &toTextCaster[S]{pair: pair{src, tensor.String}, format: format}
}

func (c *toTextCaster[S]) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}
	in := tensor.Data[S](src)
	parallel.ForRange(len(in), func(start, end int) {
		_ = c.castSlice(in[start:end], dst, start)
	}, ctx.parallelConfig())
	return nil
}

func (c *toTextCaster[S]) castSlice(in []S, dst *tensor.RawTensor, offset int) error {
	out := dst.AsString()[offset : offset+len(in)]
	for i, v := range in {
		out[i] = c.format(v)
	}
	return nil
}

// fromTextCaster parses each string with a scalar parse rule. The first
// malformed element (lowest index) fails the whole cast.
type fromTextCaster[D tensor.Element] struct {
	pair
	parse func(string) (D, error)
}

func newFromText[D tensor.Element](dst tensor.DataType, parse func(string) (D, error)) *fromTextCaster[D] {
	return &fromTextCaster[D]{pair: pair{tensor.String, dst}, parse: parse}
}

func (c *fromTextCaster[D]) Cast(ctx *Context, src, dst *tensor.RawTensor) error {
	if err := c.check(src, dst); err != nil {
		return err
	}
	in := src.AsString()
	out := tensor.Data[D](dst)
	return parallel.ForErr(len(in), func(start, end int) error {
		for i := start; i < end; i++ {
			v, err := c.parse(in[i])
			if err != nil {
				return &ParseError{Index: i, Text: in[i], Dest: c.dst, Err: err}
			}
			out[i] = v
		}
		return nil
	}, ctx.parallelConfig())
}
