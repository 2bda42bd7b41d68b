// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextTraceWriterReaderRoundTrip(t *testing.T) {
	l, err := NewCycleLogger(5, XLEN64, 0x80000000)
	if err != nil {
		t.Fatalf("NewCycleLogger() failed: %v", err)
	}
	var intReg IntReg64Node
	intReg.Regs[6] = 0x123
	if err := l.AddIntReg64(intReg); err != nil {
		t.Fatalf("AddIntReg64() failed: %v", err)
	}
	if err := l.AddIo(IoNode{Host: 1}); err != nil {
		t.Fatalf("AddIo() failed: %v", err)
	}
	if err := l.AddOpEvent(OpEventNode{Insn: 0x33, Priv: uint32(PrivilegeSupervisor)}); err != nil {
		t.Fatalf("AddOpEvent() failed: %v", err)
	}
	if err := l.AddMemoryAccess(MemoryAccessNode{
		AccessType:   uint32(AccessStore),
		Size:         8,
		Value:        0xff,
		VirtualAddr:  0x2000,
		PhysicalAddr: 0x3000,
	}); err != nil {
		t.Fatalf("AddMemoryAccess() failed: %v", err)
	}
	if err := l.AddTrap64(Trap64Node{
		TrapType:  uint32(TrapInterrupt),
		From:      uint32(PrivilegeUser),
		To:        uint32(PrivilegeMachine),
		Cause:     7,
		TrapValue: 0xabc,
	}); err != nil {
		t.Fatalf("AddTrap64() failed: %v", err)
	}
	data, err := l.Finish()
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	source, err := newLoggerCycle(data)
	if err != nil {
		t.Fatalf("newLoggerCycle() failed: %v", err)
	}

	var buf bytes.Buffer
	tw, err := NewTextTraceWriter(&buf, XLEN64)
	if err != nil {
		t.Fatalf("NewTextTraceWriter() failed: %v", err)
	}
	if err := tw.WriteCycle(source); err != nil {
		t.Fatalf("WriteCycle() failed: %v", err)
	}

	if !strings.HasPrefix(buf.String(), "XLEN 64\n") {
		t.Fatalf("rendered trace does not start with XLEN header:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "BREAK\n") {
		t.Fatalf("rendered trace has no BREAK terminator:\n%s", buf.String())
	}

	tr, err := NewTextTraceReader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("NewTextTraceReader() failed: %v", err)
	}
	if err := tr.Err(); err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	if tr.IsEnd() {
		t.Fatal("IsEnd() = true, want one parsed cycle")
	}

	got, err := tr.CurrentCycle()
	if err != nil {
		t.Fatalf("CurrentCycle() failed: %v", err)
	}

	pc, err := got.PC(false)
	if err != nil || pc != 0x80000000 {
		t.Errorf("PC(false) = (%#x, %v), want (0x80000000, nil)", pc, err)
	}
	if reg, err := got.IntReg(6); err != nil || reg != 0x123 {
		t.Errorf("IntReg(6) = (%#x, %v), want (0x123, nil)", reg, err)
	}
	if got.OpEventCount() != 1 {
		t.Errorf("OpEventCount() = %d, want 1", got.OpEventCount())
	}
	op, err := got.CopyOpEvent(0)
	if err != nil || op.Insn != 0x33 || PrivilegeLevel(op.Priv) != PrivilegeSupervisor {
		t.Errorf("CopyOpEvent(0) = (%+v, %v), want Insn=0x33 Priv=Supervisor", op, err)
	}
	ma, err := got.CopyMemoryEvent(0)
	if err != nil || MemoryAccessType(ma.AccessType) != AccessStore || ma.PhysicalAddr != 0x3000 {
		t.Errorf("CopyMemoryEvent(0) = (%+v, %v), want AccessStore at physical 0x3000", ma, err)
	}
	trap, err := got.CopyTrapEvent(0)
	if err != nil || trap.TrapType != TrapInterrupt || trap.Cause != 7 {
		t.Errorf("CopyTrapEvent(0) = (%+v, %v), want TrapInterrupt cause=7", trap, err)
	}

	if err := tr.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if !tr.IsEnd() {
		t.Error("IsEnd() = false after consuming the only cycle, want true")
	}
}

func TestTextTraceReaderRejectsUnknownRecord(t *testing.T) {
	const trace = "XLEN 64\nWAT 1\nBREAK\n"
	tr, err := NewTextTraceReader(strings.NewReader(trace))
	if err != nil {
		t.Fatalf("NewTextTraceReader() failed: %v", err)
	}
	if tr.Err() == nil {
		t.Error("Err() = nil after an unrecognized record, want a ParseError")
	}
}
