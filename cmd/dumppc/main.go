// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command dump-pc prints one hex PC per line from a trace (spec §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvtrace/rvtrace"
)

var (
	startCycle int
	pcCount    int
	virtual    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dump-pc <path>",
		Short: "Print one hex PC per cycle from a trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runDumpPC,
	}

	rootCmd.Flags().IntVar(&startCycle, "start-cycle", 0, "first cycle index to print")
	rootCmd.Flags().IntVar(&pcCount, "count", 1<<31-1, "maximum number of PCs to print")
	rootCmd.Flags().BoolVar(&virtual, "virtual", false, "print the virtual PC instead of the physical PC")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDumpPC(cmd *cobra.Command, args []string) error {
	path := args[0]

	reader, closeFn, err := rvtrace.OpenTrace(path)
	if err != nil {
		return err
	}
	defer closeFn()

	printer := rvtrace.NewPCPrinter(os.Stdout, !virtual)

	upper := startCycle + pcCount
	for i := 0; !reader.IsEnd() && i < upper; i++ {
		cycle, err := reader.CurrentCycle()
		if err != nil {
			return err
		}

		if i >= startCycle {
			if err := printer.PrintCycle(cycle); err != nil {
				return err
			}
		}

		if err := reader.Next(); err != nil {
			return err
		}
	}

	return nil
}
