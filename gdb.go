// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// gdbCycle is the minimal, read-only Cycle adapter for a line from a
// GDB session log (SPEC_FULL §3: "a minimal third text dialect").
// Only the virtual PC is ever known; every other capability is
// reported absent.
type gdbCycle struct {
	pc       uint64
	mnemonic string
}

func (c *gdbCycle) CycleIndex() uint32 { return 0 }
func (c *gdbCycle) XLEN() XLEN         { return XLEN64 }

func (c *gdbCycle) PC(physical bool) (uint64, error) {
	if physical {
		return 0, &NotImplementedError{Feature: "physical PC in a GDB log"}
	}
	return c.pc, nil
}

func (c *gdbCycle) HasIntReg() bool { return false }
func (c *gdbCycle) HasFpReg() bool  { return false }
func (c *gdbCycle) HasIO() bool     { return false }

func (c *gdbCycle) OpEventCount() int     { return 0 }
func (c *gdbCycle) MemoryEventCount() int { return 0 }
func (c *gdbCycle) TrapEventCount() int   { return 0 }

func (c *gdbCycle) IntReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	return 0, &NodeNotFoundError{Kind: NodeIntReg32, Index: 0}
}

func (c *gdbCycle) FpReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	return 0, &NodeNotFoundError{Kind: NodeFpReg, Index: 0}
}

func (c *gdbCycle) CopyIO() (IoNode, error) {
	return IoNode{}, &NodeNotFoundError{Kind: NodeIo, Index: 0}
}

func (c *gdbCycle) CopyOpEvent(i int) (OpEventNode, error) {
	return OpEventNode{}, &IndexOutOfRangeError{Index: i, N: 0}
}

func (c *gdbCycle) CopyMemoryEvent(i int) (MemoryAccessNode, error) {
	return MemoryAccessNode{}, &IndexOutOfRangeError{Index: i, N: 0}
}

func (c *gdbCycle) CopyTrapEvent(i int) (TrapEvent, error) {
	return TrapEvent{}, &IndexOutOfRangeError{Index: i, N: 0}
}

// Mnemonic returns the disassembly text that followed the PC on this
// log line, if the hardware debugger printed one.
func (c *gdbCycle) Mnemonic() string { return c.mnemonic }

// GdbTraceReader parses a GDB session log: one line per cycle, each
// `<hex-pc>[ <mnemonic>...]`. Read-only — GDB produces the log, this
// system never does (SPEC_FULL §3).
type GdbTraceReader struct {
	cycles []*gdbCycle
	index  int
}

// NewGdbTraceReader reads every well-formed line of r into a cycle.
// A line that doesn't start with a hex PC is skipped, matching GDB
// session logs interleaving non-trace chatter with PC lines.
func NewGdbTraceReader(r io.Reader) (*GdbTraceReader, error) {
	sc := bufio.NewScanner(r)
	tr := &GdbTraceReader{}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		pc, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			continue
		}
		tr.cycles = append(tr.cycles, &gdbCycle{
			pc:       pc,
			mnemonic: strings.Join(fields[1:], " "),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tr, nil
}

// IsEnd reports whether every line has been consumed.
func (r *GdbTraceReader) IsEnd() bool { return r.index == len(r.cycles) }

// CurrentCycle returns the cycle at the current position.
func (r *GdbTraceReader) CurrentCycle() (Cycle, error) {
	if r.IsEnd() {
		return nil, newCorruption("CurrentCycle called at End")
	}
	return r.cycles[r.index], nil
}

// Next advances to the next line's cycle.
func (r *GdbTraceReader) Next() error {
	if r.IsEnd() {
		return newCorruption("Next called at End")
	}
	r.index++
	return nil
}
