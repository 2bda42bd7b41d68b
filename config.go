// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import env "github.com/xyproto/env/v2"

// Environment variable overrides for the two process-level defaults
// named in SPEC_FULL §4.5/§4.10.
const (
	envLoggerBuffer = "RVTRACE_LOGGER_BUFFER"
	envShardCycles  = "RVTRACE_SHARD_CYCLES"
)

// DefaultLoggerBufferCeiling is CycleLogger's default internal buffer
// capacity in bytes (spec §4.5: "4096 bytes is the source's value"),
// overridable via RVTRACE_LOGGER_BUFFER.
func DefaultLoggerBufferCeiling() int {
	return env.Int(envLoggerBuffer, 4096)
}

// DefaultShardCycleCap is TraceIndexWriter's default per-shard cycle
// count cap, overridable via RVTRACE_SHARD_CYCLES.
func DefaultShardCycleCap() int {
	return env.Int(envShardCycles, 100000)
}

// DefaultShardByteCap is TraceIndexWriter's default per-shard byte
// size cap (spec §4.10: "default 256 MiB").
const DefaultShardByteCap int64 = 256 * 1024 * 1024

// CycleConfig is a per-cycle declaration of how many instances of each
// node kind a built cycle carries, plus the two sizing parameters
// variable-size nodes need (spec §4.2).
type CycleConfig struct {
	counts   [nodeKindCount]int32
	CsrCount int32
	RamSize  int64
}

// NewCycleConfig returns an empty config (all node counts zero).
func NewCycleConfig() CycleConfig {
	return CycleConfig{}
}

// SetCount sets the number of instances of kind k this cycle carries.
func (c *CycleConfig) SetCount(k NodeKind, n int32) {
	if k < 0 || int(k) >= len(c.counts) {
		return
	}
	c.counts[k] = n
}

// Count returns the configured instance count for kind k.
func (c CycleConfig) Count(k NodeKind) int32 {
	if k < 0 || int(k) >= len(c.counts) {
		return 0
	}
	return c.counts[k]
}

// TotalCount returns the sum of all per-kind instance counts, i.e. the
// total number of meta entries a CycleBuilder built from this config
// will have.
func (c CycleConfig) TotalCount() int32 {
	var total int32
	for _, n := range c.counts {
		total += n
	}
	return total
}
