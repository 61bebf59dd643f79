package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/born-ml/onnxcast/internal/onnx"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect MODEL",
		Short: "Show an ONNX model's Cast nodes and whether they can run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectHandler,
	}
	cmd.Flags().Bool("strict", false, "fail when any Cast node cannot run")
	return cmd
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")

	proto, err := onnx.ParseFile(args[0])
	if err != nil {
		return err
	}
	info := onnx.InfoFromProto(proto)

	w := bufio.NewWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "graph:    %s\n", info.GraphName)
	fmt.Fprintf(w, "producer: %s %s\n", info.ProducerName, info.ProducerVersion)
	fmt.Fprintf(w, "ir:       %d\n", info.IRVersion)
	fmt.Fprintf(w, "opset:    %d\n", info.OpsetVersion)
	fmt.Fprintf(w, "inputs:   %s\n", strings.Join(info.InputNames, ", "))
	fmt.Fprintf(w, "outputs:  %s\n", strings.Join(info.OutputNames, ", "))
	fmt.Fprintf(w, "nodes:    %d (%d Cast)\n", info.NodeCount, info.CastCount)

	model, err := onnx.LoadFromProto(proto, onnx.LoadOptions{StrictMode: strict})
	if err != nil {
		_ = w.Flush()
		return err
	}
	defer model.Close()

	failed := 0
	for _, c := range model.CastNodes() {
		status := "ok"
		if c.Err != nil {
			status = c.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%-20s %-8s -> %-8s %s\n", c.Node, c.From, c.To, status)
	}
	log.Debug().Str("model", args[0]).Int("casts", info.CastCount).Int("failed", failed).Msg("inspected")
	return w.Flush()
}
