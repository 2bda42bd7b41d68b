// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command check-io walks each trace to its last cycle and checks the
// host I/O pass/fail word (spec §6, §7).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rvtrace/rvtrace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "check-io <trace...>",
		Short: "Check the final Io.Host word of one or more traces",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheckIO,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCheckIO(cmd *cobra.Command, args []string) error {
	passed, failed := 0, 0

	for _, path := range args {
		ok, err := checkOne(path)
		if err != nil {
			fmt.Printf("[ FAILED ] %s: %v\n", path, err)
			failed++
			continue
		}
		if ok {
			fmt.Printf("[ PASS ] %s\n", path)
			passed++
		} else {
			fmt.Printf("[ FAILED ] %s\n", path)
			failed++
		}
	}

	fmt.Printf("%d passed, %d failed, %d total\n", passed, failed, passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

// checkOne walks path to its last cycle and reports whether its Io
// node's Host word equals 1.
func checkOne(path string) (bool, error) {
	reader, closeFn, err := rvtrace.OpenTrace(path)
	if err != nil {
		return false, err
	}
	defer closeFn()

	if reader.IsEnd() {
		return false, rvtrace.ErrEmptyTrace
	}

	var last rvtrace.Cycle
	for !reader.IsEnd() {
		cycle, err := reader.CurrentCycle()
		if err != nil {
			return false, err
		}
		last = cycle

		if err := reader.Next(); err != nil {
			return false, err
		}
	}

	if !last.HasIO() {
		return false, rvtrace.ErrNoIONode
	}
	io, err := last.CopyIO()
	if err != nil {
		return false, err
	}
	return io.Host == 1, nil
}
