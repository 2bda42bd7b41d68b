// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"errors"
	"testing"
)

func buildContainerCycle(t *testing.T, xlen XLEN) *CycleView {
	t.Helper()

	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	if xlen == XLEN32 {
		cfg.SetCount(NodeIntReg32, 1)
	} else {
		cfg.SetCount(NodeIntReg64, 1)
	}
	cfg.SetCount(NodeIo, 1)

	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}
	if err := b.SetBasicInfo(BasicInfoNode{Cycle: 3, XLEN: uint32(xlen), PC: 0x1000}); err != nil {
		t.Fatalf("SetBasicInfo() failed: %v", err)
	}
	if xlen == XLEN32 {
		if err := b.SetIntReg32(IntReg32Node{}); err != nil {
			t.Fatalf("SetIntReg32() failed: %v", err)
		}
	} else {
		if err := b.SetIntReg64(IntReg64Node{}); err != nil {
			t.Fatalf("SetIntReg64() failed: %v", err)
		}
	}
	if err := b.SetIo(IoNode{Host: 1}); err != nil {
		t.Fatalf("SetIo() failed: %v", err)
	}

	view, err := NewCycleView(b.Data())
	if err != nil {
		t.Fatalf("NewCycleView() failed: %v", err)
	}
	return view
}

func TestContainerCycleBasics(t *testing.T) {
	view := buildContainerCycle(t, XLEN64)

	c, err := newContainerCycle(view)
	if err != nil {
		t.Fatalf("newContainerCycle() failed: %v", err)
	}

	if got := c.CycleIndex(); got != 3 {
		t.Errorf("CycleIndex() = %d, want 3", got)
	}
	if got := c.XLEN(); got != XLEN64 {
		t.Errorf("XLEN() = %v, want XLEN64", got)
	}
	pc, err := c.PC(false)
	if err != nil {
		t.Fatalf("PC(false) failed: %v", err)
	}
	if pc != 0x1000 {
		t.Errorf("PC(false) = %#x, want 0x1000", pc)
	}
	if !c.HasIntReg() {
		t.Error("HasIntReg() = false, want true")
	}
	if !c.HasIO() {
		t.Error("HasIO() = false, want true")
	}
	if c.OpEventCount() != 0 {
		t.Errorf("OpEventCount() = %d, want 0 (container-form carries no separate OpEvent nodes)", c.OpEventCount())
	}
}

func TestContainerCycleAmbiguousPCRejected(t *testing.T) {
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	cfg.SetCount(NodePc32, 1)
	cfg.SetCount(NodePc64, 1)

	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}
	if err := b.SetBasicInfo(BasicInfoNode{XLEN: uint32(XLEN64)}); err != nil {
		t.Fatalf("SetBasicInfo() failed: %v", err)
	}
	if err := b.SetPc32(Pc32Node{VirtualPC: 1}); err != nil {
		t.Fatalf("SetPc32() failed: %v", err)
	}
	if err := b.SetPc64(Pc64Node{VirtualPC: 2}); err != nil {
		t.Fatalf("SetPc64() failed: %v", err)
	}

	view, err := NewCycleView(b.Data())
	if err != nil {
		t.Fatalf("NewCycleView() failed: %v", err)
	}

	if _, err := newContainerCycle(view); !errors.Is(err, ErrAmbiguousPC) {
		t.Errorf("newContainerCycle() error = %v, want ErrAmbiguousPC", err)
	}
}

func TestLoggerCycleRoundTrip(t *testing.T) {
	l, err := NewCycleLogger(42, XLEN64, 0x80001000)
	if err != nil {
		t.Fatalf("NewCycleLogger() failed: %v", err)
	}

	var intReg IntReg64Node
	intReg.Regs[2] = 0xdead
	if err := l.AddIntReg64(intReg); err != nil {
		t.Fatalf("AddIntReg64() failed: %v", err)
	}
	if err := l.AddIo(IoNode{Host: 1}); err != nil {
		t.Fatalf("AddIo() failed: %v", err)
	}
	if err := l.AddOpEvent(OpEventNode{Insn: 0x13, Priv: uint32(PrivilegeMachine)}); err != nil {
		t.Fatalf("AddOpEvent() failed: %v", err)
	}
	if err := l.AddMemoryAccess(MemoryAccessNode{AccessType: uint32(AccessLoad), Size: 4, VirtualAddr: 0x2000, PhysicalAddr: 0x2000}); err != nil {
		t.Fatalf("AddMemoryAccess() failed: %v", err)
	}
	if err := l.AddTrap64(Trap64Node{TrapType: uint32(TrapException), From: uint32(PrivilegeUser), To: uint32(PrivilegeMachine), Cause: 2, TrapValue: 0x99}); err != nil {
		t.Fatalf("AddTrap64() failed: %v", err)
	}

	data, err := l.Finish()
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	c, err := newLoggerCycle(data)
	if err != nil {
		t.Fatalf("newLoggerCycle() failed: %v", err)
	}

	if got := c.CycleIndex(); got != 42 {
		t.Errorf("CycleIndex() = %d, want 42", got)
	}
	pc, err := c.PC(false)
	if err != nil {
		t.Fatalf("PC(false) failed: %v", err)
	}
	if pc != 0x80001000 {
		t.Errorf("PC(false) = %#x, want 0x80001000", pc)
	}
	if reg, err := c.IntReg(2); err != nil || reg != 0xdead {
		t.Errorf("IntReg(2) = (%#x, %v), want (0xdead, nil)", reg, err)
	}
	if c.OpEventCount() != 1 {
		t.Errorf("OpEventCount() = %d, want 1", c.OpEventCount())
	}
	if c.MemoryEventCount() != 1 {
		t.Errorf("MemoryEventCount() = %d, want 1", c.MemoryEventCount())
	}
	if c.TrapEventCount() != 1 {
		t.Errorf("TrapEventCount() = %d, want 1", c.TrapEventCount())
	}

	trap, err := c.CopyTrapEvent(0)
	if err != nil {
		t.Fatalf("CopyTrapEvent(0) failed: %v", err)
	}
	if trap.Cause != 2 || trap.TrapValue != 0x99 {
		t.Errorf("CopyTrapEvent(0) = %+v, want Cause=2 TrapValue=0x99", trap)
	}
}

func TestLoggerSealing(t *testing.T) {
	l, err := NewCycleLogger(1, XLEN64, 0)
	if err != nil {
		t.Fatalf("NewCycleLogger() failed: %v", err)
	}

	data, err := l.Finish()
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	if len(data) < 4 || string(data[0:2]) != "BA" {
		t.Errorf("logger output does not start with BA node id, got %q", data[:2])
	}
	tail := data[len(data)-loggerNodeHeaderSize:]
	if string(tail[0:2]) != "BR" {
		t.Errorf("logger output does not end with BR node id, got %q", tail[0:2])
	}

	c, err := newLoggerCycle(data)
	if err != nil {
		t.Fatalf("newLoggerCycle() failed: %v", err)
	}
	if c.CycleIndex() != 1 {
		t.Errorf("CycleIndex() = %d, want 1", c.CycleIndex())
	}

	if _, err := l.Finish(); !errors.Is(err, ErrLoggerSealed) {
		t.Errorf("second Finish() error = %v, want ErrLoggerSealed", err)
	}
	if err := l.Break(); !errors.Is(err, ErrLoggerSealed) {
		t.Errorf("Break() after Finish error = %v, want ErrLoggerSealed", err)
	}
}
