// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command dump prints cycles from a trace, filtered and rendered as
// text or JSON (spec §6).
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rvtrace/rvtrace"
	"github.com/rvtrace/rvtrace/internal/tracelog"
	"github.com/rvtrace/rvtrace/internal/tracemetrics"
)

var (
	begin       int
	count       int
	end         int
	filterExpr  string
	jsonOutput  bool
	noColor     bool
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Print cycles from a trace",
		Long:  "Prints cycles [begin, min(begin+count, end)) from a trace, filtered and rendered as text or JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}

	rootCmd.Flags().IntVar(&begin, "begin", 0, "first cycle index to print")
	rootCmd.Flags().IntVar(&count, "count", 1<<31-1, "maximum number of cycles to print")
	rootCmd.Flags().IntVar(&end, "end", 1<<31-1, "exclusive upper cycle index bound")
	rootCmd.Flags().StringVar(&filterExpr, "filter", "", "cycle filter DSL expression, e.g. P:80000000")
	rootCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "render cycles as newline-delimited JSON")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI cycle-index headers even on a terminal")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while dumping")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	logger := tracelog.Default()
	path := args[0]

	var metrics *tracemetrics.Registry
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = tracemetrics.New(reg)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	var opts []rvtrace.ReaderOption
	if metrics != nil {
		opts = append(opts, rvtrace.WithReaderMetrics(metrics))
	}

	reader, closeFn, err := rvtrace.OpenTrace(path, opts...)
	if err != nil {
		return err
	}
	defer closeFn()

	var filter rvtrace.Filter = rvtrace.AlwaysFilter{}
	if filterExpr != "" {
		filter, err = rvtrace.ParseFilter(filterExpr)
		if err != nil {
			return err
		}
	}

	colorEnabled := !noColor && isatty.IsTerminal(os.Stdout.Fd())

	var jsonPrinter *rvtrace.JSONPrinter
	var textPrinter *rvtrace.TextPrinter
	if jsonOutput {
		jsonPrinter = rvtrace.NewJSONPrinter(os.Stdout, rvtrace.NopDecoder{})
	}

	upper := end
	if begin+count < upper {
		upper = begin + count
	}

	for i := 0; !reader.IsEnd() && i < upper; i++ {
		cycle, err := reader.CurrentCycle()
		if err != nil {
			return err
		}

		if i >= begin {
			matched, err := filter.Apply(cycle)
			if err != nil {
				return err
			}
			if matched {
				if jsonOutput {
					if err := jsonPrinter.PrintCycle(cycle); err != nil {
						return err
					}
				} else {
					if textPrinter == nil {
						textPrinter, err = rvtrace.NewTextPrinter(os.Stdout, cycle.XLEN())
						if err != nil {
							return err
						}
					}
					printCycleHeader(i, colorEnabled)
					if err := textPrinter.PrintCycle(cycle); err != nil {
						return err
					}
				}
			}
		}

		if err := reader.Next(); err != nil {
			return err
		}
	}

	return nil
}

func printCycleHeader(index int, color bool) {
	if color {
		fmt.Printf("\x1b[36m=== cycle %d ===\x1b[0m\n", index)
	} else {
		fmt.Printf("=== cycle %d ===\n", index)
	}
}
