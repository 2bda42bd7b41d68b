// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command conv reads a trace in any supported form and re-writes it
// as an index trace (spec §4.10, §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvtrace/rvtrace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "conv <in> <out-base>",
		Short: "Convert a trace to an index trace",
		Args:  cobra.ExactArgs(2),
		RunE:  runConv,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConv(cmd *cobra.Command, args []string) error {
	in, outBase := args[0], args[1]

	reader, closeFn, err := rvtrace.OpenTrace(in)
	if err != nil {
		return err
	}
	defer closeFn()

	writer, err := rvtrace.NewTraceIndexWriter(outBase)
	if err != nil {
		return err
	}

	converted := 0
	for !reader.IsEnd() {
		cycle, err := reader.CurrentCycle()
		if err != nil {
			writer.Close()
			return err
		}

		encoded, err := rvtrace.EncodeLoggerCycle(cycle)
		if err != nil {
			writer.Close()
			return err
		}
		if err := writer.Write(encoded); err != nil {
			writer.Close()
			return err
		}
		converted++

		if err := reader.Next(); err != nil {
			writer.Close()
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return err
	}

	fmt.Printf("converted %d cycles from %s to %s\n", converted, in, outBase)
	return nil
}
