// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

// NodeKind identifies what a node carries and how to parse its bytes.
// The enumeration order is the declaration order used by CycleBuilder
// when laying out the meta table (spec §4.3 "Tie-break").
type NodeKind int

const (
	NodeBasicInfo NodeKind = iota
	NodeIntReg32
	NodeIntReg64
	NodeFpReg
	NodePc32
	NodePc64
	NodeCsr32
	NodeCsr64
	NodeTrap32
	NodeTrap64
	NodeMemoryAccess
	NodeIo
	NodeMemory

	nodeKindCount
)

// IntRegCount is the number of integer (and floating-point) registers
// in the RISC-V register file.
const IntRegCount = 32

func (k NodeKind) String() string {
	if int(k) < 0 || int(k) >= len(nodeKindNames) {
		return "Unknown"
	}
	return nodeKindNames[k]
}

var nodeKindNames = [nodeKindCount]string{
	NodeBasicInfo:    "BasicInfo",
	NodeIntReg32:     "IntReg32",
	NodeIntReg64:     "IntReg64",
	NodeFpReg:        "FpReg",
	NodePc32:         "Pc32",
	NodePc64:         "Pc64",
	NodeCsr32:        "Csr32",
	NodeCsr64:        "Csr64",
	NodeTrap32:       "Trap32",
	NodeTrap64:       "Trap64",
	NodeMemoryAccess: "MemoryAccess",
	NodeIo:           "Io",
	NodeMemory:       "Memory",
}

// Logger-form node ids, ASCII packed little-endian into a uint16
// (spec §6). Break shares the catalog even though it is never an
// addressable NodeKind in the container form.
const (
	nodeIDBasic uint16 = 0x4142 // "BA"
	nodeIDBreak uint16 = 0x5242 // "BR"
	nodeIDInt   uint16 = 0x4e49 // "IN"
	nodeIDFp    uint16 = 0x5046 // "FP"
	nodeIDIo    uint16 = 0x4f49 // "IO"
	nodeIDOp    uint16 = 0x504f // "OP"
	nodeIDTrap  uint16 = 0x5254 // "TR"
	nodeIDMa    uint16 = 0x414d // "MA"
)

// properNodeSize computes the size in bytes a node of kind k occupies
// for a given CycleConfig, per the catalog rule in spec §4.1: fixed
// for most kinds, variable (CsrCount/RamSize driven) for Csr32/Csr64/
// Memory.
func properNodeSize(k NodeKind, cfg CycleConfig) int64 {
	switch k {
	case NodeBasicInfo:
		return basicInfoNodeSize
	case NodeIntReg32:
		return intReg32NodeSize
	case NodeIntReg64:
		return intReg64NodeSize
	case NodeFpReg:
		return fpRegNodeSize
	case NodePc32:
		return pc32NodeSize
	case NodePc64:
		return pc64NodeSize
	case NodeCsr32:
		return csr32RecordSize * int64(cfg.CsrCount)
	case NodeCsr64:
		return csr64RecordSize * int64(cfg.CsrCount)
	case NodeTrap32:
		return trap32NodeSize
	case NodeTrap64:
		return trap64NodeSize
	case NodeMemoryAccess:
		return memoryAccessNodeSize
	case NodeIo:
		return ioNodeSize
	case NodeMemory:
		return cfg.RamSize
	default:
		return 0
	}
}
