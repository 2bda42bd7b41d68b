// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"encoding/binary"
	"math"
)

// XLEN is the RISC-V integer register width, 32 or 64 bits.
type XLEN uint32

const (
	XLEN32 XLEN = 32
	XLEN64 XLEN = 64
)

func (x XLEN) String() string {
	switch x {
	case XLEN32:
		return "XLEN32"
	case XLEN64:
		return "XLEN64"
	default:
		return "XLENUnknown"
	}
}

// PrivilegeLevel is a RISC-V privilege mode.
type PrivilegeLevel uint32

const (
	PrivilegeUser PrivilegeLevel = iota
	PrivilegeSupervisor
	_ // reserved, matches the RISC-V privilege encoding gap
	PrivilegeMachine
)

func (p PrivilegeLevel) String() string {
	switch p {
	case PrivilegeUser:
		return "User"
	case PrivilegeSupervisor:
		return "Supervisor"
	case PrivilegeMachine:
		return "Machine"
	default:
		return "Unknown"
	}
}

// TrapType distinguishes a RISC-V exception from an interrupt.
type TrapType uint32

const (
	TrapException TrapType = iota
	TrapInterrupt
)

func (t TrapType) String() string {
	switch t {
	case TrapException:
		return "Exception"
	case TrapInterrupt:
		return "Interrupt"
	default:
		return "Unknown"
	}
}

// MemoryAccessType distinguishes how a MemoryAccess node touched
// memory.
type MemoryAccessType uint32

const (
	AccessInstruction MemoryAccessType = iota
	AccessLoad
	AccessStore
)

func (a MemoryAccessType) String() string {
	switch a {
	case AccessInstruction:
		return "Instruction"
	case AccessLoad:
		return "Load"
	case AccessStore:
		return "Store"
	default:
		return "Unknown"
	}
}

// BasicInfoNode carries the per-cycle counter, XLEN tag and program
// counter. It is always the first node of a logger-form cycle and,
// when present, the canonical source of cycle/XLEN/PC for a
// container-form cycle.
type BasicInfoNode struct {
	Cycle uint32
	XLEN  uint32
	PC    uint64
}

const basicInfoNodeSize = 4 + 4 + 8

// IntReg32Node is the 32-bit-wide integer register file.
type IntReg32Node struct {
	Regs [IntRegCount]uint32
}

const intReg32NodeSize = IntRegCount * 4

// IntReg64Node is the 64-bit-wide integer register file.
type IntReg64Node struct {
	Regs [IntRegCount]uint64
}

const intReg64NodeSize = IntRegCount * 8

// FpRegUnion is one floating-point register, readable as a raw u64,
// as a float32 (with 4 bytes of padding for alignment with the u64
// view), or as a float64.
type FpRegUnion struct {
	Bits uint64
}

// AsU64 returns the register's raw 64-bit bit pattern.
func (u FpRegUnion) AsU64() uint64 { return u.Bits }

// AsF32 returns the register reinterpreted as the low 32 bits of an
// IEEE-754 single-precision float.
func (u FpRegUnion) AsF32() float32 {
	return math.Float32frombits(uint32(u.Bits))
}

// AsF64 returns the register reinterpreted as an IEEE-754
// double-precision float.
func (u FpRegUnion) AsF64() float64 {
	return math.Float64frombits(u.Bits)
}

// FpRegNode is the floating-point register file, one 8-byte union per
// register.
type FpRegNode struct {
	Regs [IntRegCount]FpRegUnion
}

const fpRegNodeSize = IntRegCount * 8

// Pc32Node carries the virtual and physical program counter for an
// XLEN32 cycle.
type Pc32Node struct {
	VirtualPC  uint64
	PhysicalPC uint64
}

const pc32NodeSize = 8 + 8

// Pc64Node carries the virtual and physical program counter for an
// XLEN64 cycle.
type Pc64Node struct {
	VirtualPC  uint64
	PhysicalPC uint64
}

const pc64NodeSize = 8 + 8

// CsrRecord32 is one (address, value) pair in a Csr32 node.
type CsrRecord32 struct {
	Address uint32
	Value   uint32
}

const csr32RecordSize = 4 + 4

// CsrRecord64 is one (address, value) pair in a Csr64 node.
type CsrRecord64 struct {
	Address uint32
	Value   uint64
}

const csr64RecordSize = 4 + 4 + 8 // address, reserved pad, value (natural alignment)

// Trap32Node describes a trap event taken while running at XLEN32.
type Trap32Node struct {
	TrapType  uint32
	From      uint32
	To        uint32
	Cause     uint32
	TrapValue uint32
}

const trap32NodeSize = 4 * 5

// Trap64Node describes a trap event taken while running at XLEN64.
type Trap64Node struct {
	TrapType  uint32
	From      uint32
	To        uint32
	Cause     uint32
	TrapValue uint64
}

const trap64NodeSize = 4*4 + 8

// MemoryAccessNode describes one memory access (instruction fetch,
// load or store).
type MemoryAccessNode struct {
	AccessType   uint32
	Size         uint32
	Value        uint64
	VirtualAddr  uint64
	PhysicalAddr uint64
}

const memoryAccessNodeSize = 4 + 4 + 8 + 8 + 8

// IoNode is a single memory-mapped "host I/O" word, used as a
// test-harness pass/fail channel (spec §3).
type IoNode struct {
	Host     uint32
	Reserved uint32
}

const ioNodeSize = 4 + 4

// OpEventNode records one retired instruction and the privilege level
// it executed under.
type OpEventNode struct {
	Insn uint32
	Priv uint32
}

const opEventNodeSize = 4 + 4

// byteOrder is the wire byte order for every fixed-layout node in
// this package (spec §3: "semantic, fixed little-endian").
var byteOrder = binary.LittleEndian
