package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/onnxcast/internal/cast"
	"github.com/born-ml/onnxcast/internal/config"
	"github.com/born-ml/onnxcast/internal/onnx/operators"
	"github.com/born-ml/onnxcast/internal/tensor"
)

func newCastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cast --to KIND [VALUE...]",
		Short: "Cast values to another element kind",
		Long: `Cast reads values as the --from kind, converts them with the ONNX Cast
operator and prints one result per line. Without arguments, values are read
from stdin, one per line.`,
		Example: `  onnxcast cast --to int8 42 -7
  onnxcast cast --from float32 --to string 1.5 NaN 1e30
  printf '300\n' | onnxcast cast --from float16 --to int8`,
		RunE: castHandler,
	}
	cmd.Flags().String("to", "", "destination kind (required)")
	cmd.Flags().String("from", "string", "source kind of the input values")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func castHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	toName, _ := cmd.Flags().GetString("to")
	fromName, _ := cmd.Flags().GetString("from")
	to, err := tensor.ParseDataType(toName)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	from, err := tensor.ParseDataType(fromName)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}

	values := args
	if len(values) == 0 {
		if values, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	disp, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	logger := log.Logger
	ctx := &operators.Context{
		Allocator:  cfg.Allocator(),
		Parallel:   cfg.Parallel(),
		Logger:     &logger,
		Dispatcher: disp,
	}

	input, err := tensor.FromStrings(values, tensor.Shape{len(values)})
	if err != nil {
		return err
	}
	if from != tensor.String {
		if input, err = castTo(ctx, input, from); err != nil {
			return fmt.Errorf("reading input as %s: %w", from, err)
		}
	}

	output, err := castTo(ctx, input, to)
	if err != nil {
		return err
	}
	defer output.Release()

	text := output
	if to != tensor.String {
		if text, err = castTo(ctx, output, tensor.String); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, s := range text.AsString() {
		fmt.Fprintln(w, s)
	}
	return w.Flush()
}

// castTo runs a Cast node through the operator registry.
func castTo(ctx *operators.Context, input *tensor.RawTensor, to tensor.DataType) (*tensor.RawTensor, error) {
	node := &operators.Node{
		Name:       "cli",
		OpType:     "Cast",
		Attributes: []operators.Attribute{operators.IntAttr("to", int64(to.ONNX()))},
	}
	if input.DType() == to {
		k, err := operators.NewCastKernel(node)
		if err != nil {
			return nil, err
		}
		return input, k.Compute(ctx, input, input)
	}
	out, err := operators.NewRegistry().Execute(ctx, node, []*tensor.RawTensor{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func newPairsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairs",
		Short: "List every (source, destination) pair the dispatcher resolves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			disp, err := newDispatcher(cfg)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, p := range disp.Pairs() {
				c, _ := disp.Resolve(p[0], p[1])
				fmt.Fprintf(w, "%-8s -> %-8s %T\n", p[0], p[1], c)
			}
			return w.Flush()
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(viper.New(), path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.InitLogger(cfg, cmd.ErrOrStderr()); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newDispatcher(cfg config.Config) (*cast.Dispatcher, error) {
	hc := cast.DefaultHalfConverter()
	if !cfg.FastHalf {
		hc = cast.GenericHalfConverter{}
	}
	log.Debug().Bool("accelerated", hc.Accelerated()).Msg("half converter selected")
	return cast.NewDispatcher(cast.EnabledSourceTypes(), cast.EnabledDestTypes(), cast.WithHalfConverter(hc))
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return lines, nil
}
