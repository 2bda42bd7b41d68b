// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import "github.com/rvtrace/rvtrace/internal/tracelog"

// TrapEvent is a width-normalized view of a Trap32Node/Trap64Node,
// returned by Cycle.CopyTrapEvent regardless of the cycle's XLEN.
type TrapEvent struct {
	TrapType  TrapType
	From      uint32
	To        uint32
	Cause     uint32
	TrapValue uint64
}

// Cycle is the polymorphic read surface every trace reader hands
// callers, implemented by containerCycle, loggerCycle, textCycle and
// gdbCycle (spec §4.6).
type Cycle interface {
	CycleIndex() uint32
	XLEN() XLEN
	PC(physical bool) (uint64, error)

	HasIntReg() bool
	HasFpReg() bool
	HasIO() bool

	OpEventCount() int
	MemoryEventCount() int
	TrapEventCount() int

	IntReg(i int) (uint64, error)
	FpReg(i int) (uint64, error)

	CopyIO() (IoNode, error)
	CopyOpEvent(i int) (OpEventNode, error)
	CopyMemoryEvent(i int) (MemoryAccessNode, error)
	CopyTrapEvent(i int) (TrapEvent, error)
}

func checkRegIndex(i int) error {
	if i < 0 || i >= IntRegCount {
		return &IndexOutOfRangeError{Index: i, N: IntRegCount}
	}
	return nil
}

// containerCycle adapts a CycleView to the Cycle interface (spec §4.6
// "Resolved Open Question — mixed XLEN / PC").
type containerCycle struct {
	view *CycleView

	xlen       XLEN
	cycleIndex uint32
	virtualPC  uint64
	physicalPC uint64

	hasIntReg32 bool
	hasIntReg64 bool
	hasFpReg    bool
	hasIO       bool

	memoryEventCount int
	trapsAre64       bool
	trapEventCount   int
}

// newContainerCycle builds the unified adapter for a container-form
// cycle. It forbids a meta table carrying both Pc32 and Pc64 — the
// builder itself stays permissive (§4.3 is a dumb layout engine); this
// constructor is where the ambiguity is rejected.
func newContainerCycle(view *CycleView) (*containerCycle, error) {
	hasPc32 := view.NodeCount(NodePc32) > 0
	hasPc64 := view.NodeCount(NodePc64) > 0
	if hasPc32 && hasPc64 {
		return nil, ErrAmbiguousPC
	}

	c := &containerCycle{view: view}

	basic, basicErr := view.BasicInfo()
	switch {
	case hasPc32:
		pc, err := view.Pc32()
		if err != nil {
			return nil, err
		}
		c.xlen = XLEN32
		c.virtualPC, c.physicalPC = pc.VirtualPC, pc.PhysicalPC
	case hasPc64:
		pc, err := view.Pc64()
		if err != nil {
			return nil, err
		}
		c.xlen = XLEN64
		c.virtualPC, c.physicalPC = pc.VirtualPC, pc.PhysicalPC
	case basicErr == nil:
		c.xlen = XLEN(basic.XLEN)
		c.virtualPC = basic.PC
		c.physicalPC = basic.PC
	default:
		return nil, ErrNoPC
	}

	if basicErr == nil {
		c.cycleIndex = basic.Cycle
	}

	c.hasIntReg32 = view.NodeCount(NodeIntReg32) > 0
	c.hasIntReg64 = view.NodeCount(NodeIntReg64) > 0
	c.hasFpReg = view.NodeCount(NodeFpReg) > 0
	c.hasIO = view.NodeCount(NodeIo) > 0
	c.memoryEventCount = int(view.NodeCount(NodeMemoryAccess))

	if n := view.NodeCount(NodeTrap64); n > 0 {
		c.trapsAre64 = true
		c.trapEventCount = int(n)
	} else {
		c.trapEventCount = int(view.NodeCount(NodeTrap32))
	}

	return c, nil
}

func (c *containerCycle) CycleIndex() uint32 { return c.cycleIndex }
func (c *containerCycle) XLEN() XLEN         { return c.xlen }

func (c *containerCycle) PC(physical bool) (uint64, error) {
	if physical {
		return c.physicalPC, nil
	}
	return c.virtualPC, nil
}

func (c *containerCycle) HasIntReg() bool { return c.hasIntReg32 || c.hasIntReg64 }
func (c *containerCycle) HasFpReg() bool  { return c.hasFpReg }
func (c *containerCycle) HasIO() bool     { return c.hasIO }

// OpEventCount is always 0 for a container-form cycle: the retired
// instruction this cycle represents is the cycle itself (BasicInfo's
// PC), not a separately addressable OpEvent node — those only exist
// in logger-form streams that fold several instructions together.
func (c *containerCycle) OpEventCount() int     { return 0 }
func (c *containerCycle) MemoryEventCount() int { return c.memoryEventCount }
func (c *containerCycle) TrapEventCount() int   { return c.trapEventCount }

func (c *containerCycle) IntReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	if c.hasIntReg64 {
		regs, err := c.view.IntReg64()
		if err != nil {
			return 0, err
		}
		return regs.Regs[i], nil
	}
	regs, err := c.view.IntReg32()
	if err != nil {
		return 0, err
	}
	return uint64(regs.Regs[i]), nil
}

func (c *containerCycle) FpReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	regs, err := c.view.FpReg()
	if err != nil {
		return 0, err
	}
	return regs.Regs[i].AsU64(), nil
}

func (c *containerCycle) CopyIO() (IoNode, error) {
	return c.view.Io()
}

func (c *containerCycle) CopyOpEvent(i int) (OpEventNode, error) {
	return OpEventNode{}, &NotImplementedError{Feature: "container-form OpEvent nodes"}
}

func (c *containerCycle) CopyMemoryEvent(i int) (MemoryAccessNode, error) {
	return c.view.MemoryAccess(i)
}

func (c *containerCycle) CopyTrapEvent(i int) (TrapEvent, error) {
	if c.trapsAre64 {
		t, err := trap64At(c.view, i)
		if err != nil {
			return TrapEvent{}, err
		}
		return TrapEvent{
			TrapType:  TrapType(t.TrapType),
			From:      t.From,
			To:        t.To,
			Cause:     t.Cause,
			TrapValue: t.TrapValue,
		}, nil
	}
	t, err := trap32At(c.view, i)
	if err != nil {
		return TrapEvent{}, err
	}
	return TrapEvent{
		TrapType:  TrapType(t.TrapType),
		From:      t.From,
		To:        t.To,
		Cause:     t.Cause,
		TrapValue: uint64(t.TrapValue),
	}, nil
}

// trap32At/trap64At read the index-th Trap32/Trap64 node directly,
// since CycleView only exposes the sole (index 0) instance via its
// typed getters.
func trap32At(v *CycleView, index int) (Trap32Node, error) {
	buf, err := v.Node(NodeTrap32, index)
	if err != nil {
		return Trap32Node{}, err
	}
	if int64(len(buf)) != trap32NodeSize {
		return Trap32Node{}, &SizeMismatchError{Kind: NodeTrap32, Expected: trap32NodeSize, Actual: int64(len(buf))}
	}
	return Trap32Node{
		TrapType:  byteOrder.Uint32(buf[0:4]),
		From:      byteOrder.Uint32(buf[4:8]),
		To:        byteOrder.Uint32(buf[8:12]),
		Cause:     byteOrder.Uint32(buf[12:16]),
		TrapValue: byteOrder.Uint32(buf[16:20]),
	}, nil
}

func trap64At(v *CycleView, index int) (Trap64Node, error) {
	buf, err := v.Node(NodeTrap64, index)
	if err != nil {
		return Trap64Node{}, err
	}
	if int64(len(buf)) != trap64NodeSize {
		return Trap64Node{}, &SizeMismatchError{Kind: NodeTrap64, Expected: trap64NodeSize, Actual: int64(len(buf))}
	}
	return Trap64Node{
		TrapType:  byteOrder.Uint32(buf[0:4]),
		From:      byteOrder.Uint32(buf[4:8]),
		To:        byteOrder.Uint32(buf[8:12]),
		Cause:     byteOrder.Uint32(buf[12:16]),
		TrapValue: byteOrder.Uint64(buf[16:24]),
	}, nil
}

// loggerTLVNode is one parsed TLV entry from a logger-form cycle
// stream: its ASCII id and the byte range of its payload.
type loggerTLVNode struct {
	id      uint16
	payload []byte
}

// loggerCycle adapts a scanned logger-form TLV stream to the Cycle
// interface (spec §4.6 "walk the TLV stream once at construction").
type loggerCycle struct {
	basic  BasicInfoNode
	intReg []uint64 // nil if absent; length 32 either way
	fpReg  []uint64
	io     *IoNode
	ops    []OpEventNode
	traps  []TrapEvent
	mem    []MemoryAccessNode
}

// newLoggerCycle scans data (the bytes of exactly one logger-form
// cycle, Break node included) and builds its Cycle adapter.
func newLoggerCycle(data []byte) (*loggerCycle, error) {
	nodes, err := scanLoggerNodes(data)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0].id != nodeIDBasic {
		return nil, newCorruption("logger-form cycle does not start with a Basic node")
	}

	c := &loggerCycle{}
	if int64(len(nodes[0].payload)) != basicInfoNodeSize {
		return nil, &SizeMismatchError{Kind: NodeBasicInfo, Expected: basicInfoNodeSize, Actual: int64(len(nodes[0].payload))}
	}
	buf := nodes[0].payload
	c.basic = BasicInfoNode{
		Cycle: byteOrder.Uint32(buf[0:4]),
		XLEN:  byteOrder.Uint32(buf[4:8]),
		PC:    byteOrder.Uint64(buf[8:16]),
	}

	for _, n := range nodes[1:] {
		switch n.id {
		case nodeIDBreak:
			// terminator; ignore (may appear mid-stream for a
			// multi-cycle buffer already split by the caller)
		case nodeIDInt:
			c.intReg = decodeIntReg(n.payload)
		case nodeIDFp:
			c.fpReg = decodeFpReg(n.payload)
		case nodeIDIo:
			if int64(len(n.payload)) != ioNodeSize {
				return nil, &SizeMismatchError{Kind: NodeIo, Expected: ioNodeSize, Actual: int64(len(n.payload))}
			}
			io := IoNode{Host: byteOrder.Uint32(n.payload[0:4]), Reserved: byteOrder.Uint32(n.payload[4:8])}
			c.io = &io
		case nodeIDOp:
			if int64(len(n.payload)) != opEventNodeSize {
				return nil, &SizeMismatchError{Kind: NodeMemoryAccess, Expected: opEventNodeSize, Actual: int64(len(n.payload))}
			}
			c.ops = append(c.ops, OpEventNode{
				Insn: byteOrder.Uint32(n.payload[0:4]),
				Priv: byteOrder.Uint32(n.payload[4:8]),
			})
		case nodeIDTrap:
			t, err := decodeTrapEvent(n.payload)
			if err != nil {
				return nil, err
			}
			c.traps = append(c.traps, t)
		case nodeIDMa:
			if int64(len(n.payload)) != memoryAccessNodeSize {
				return nil, &SizeMismatchError{Kind: NodeMemoryAccess, Expected: memoryAccessNodeSize, Actual: int64(len(n.payload))}
			}
			p := n.payload
			c.mem = append(c.mem, MemoryAccessNode{
				AccessType:   byteOrder.Uint32(p[0:4]),
				Size:         byteOrder.Uint32(p[4:8]),
				Value:        byteOrder.Uint64(p[8:16]),
				VirtualAddr:  byteOrder.Uint64(p[16:24]),
				PhysicalAddr: byteOrder.Uint64(p[24:32]),
			})
		default:
			tracelog.Default().Warnf("logger cycle: unknown node id 0x%04x, skipping", n.id)
		}
	}

	return c, nil
}

func decodeIntReg(payload []byte) []uint64 {
	regs := make([]uint64, IntRegCount)
	switch int64(len(payload)) {
	case intReg64NodeSize:
		for i := range regs {
			regs[i] = byteOrder.Uint64(payload[i*8 : i*8+8])
		}
	case intReg32NodeSize:
		for i := range regs {
			regs[i] = uint64(byteOrder.Uint32(payload[i*4 : i*4+4]))
		}
	default:
		return nil
	}
	return regs
}

func decodeFpReg(payload []byte) []uint64 {
	if int64(len(payload)) != fpRegNodeSize {
		return nil
	}
	regs := make([]uint64, IntRegCount)
	for i := range regs {
		regs[i] = byteOrder.Uint64(payload[i*8 : i*8+8])
	}
	return regs
}

func decodeTrapEvent(payload []byte) (TrapEvent, error) {
	switch int64(len(payload)) {
	case trap64NodeSize:
		return TrapEvent{
			TrapType:  TrapType(byteOrder.Uint32(payload[0:4])),
			From:      byteOrder.Uint32(payload[4:8]),
			To:        byteOrder.Uint32(payload[8:12]),
			Cause:     byteOrder.Uint32(payload[12:16]),
			TrapValue: byteOrder.Uint64(payload[16:24]),
		}, nil
	case trap32NodeSize:
		return TrapEvent{
			TrapType:  TrapType(byteOrder.Uint32(payload[0:4])),
			From:      byteOrder.Uint32(payload[4:8]),
			To:        byteOrder.Uint32(payload[8:12]),
			Cause:     byteOrder.Uint32(payload[12:16]),
			TrapValue: uint64(byteOrder.Uint32(payload[16:20])),
		}, nil
	default:
		return TrapEvent{}, &SizeMismatchError{Kind: NodeTrap64, Expected: trap64NodeSize, Actual: int64(len(payload))}
	}
}

// scanLoggerNodes walks data once, splitting it into TLV nodes up to
// and including the terminating Break.
func scanLoggerNodes(data []byte) ([]loggerTLVNode, error) {
	var nodes []loggerTLVNode
	offset := 0
	for {
		if offset+loggerNodeHeaderSize > len(data) {
			return nil, newCorruptionAt("truncated logger node header", int64(offset))
		}
		id := byteOrder.Uint16(data[offset : offset+2])
		size := byteOrder.Uint32(data[offset+4 : offset+8])
		payloadStart := offset + loggerNodeHeaderSize
		payloadEnd := payloadStart + int(size)
		if payloadEnd > len(data) {
			return nil, newCorruptionAt("logger node payload exceeds buffer", int64(offset))
		}
		nodes = append(nodes, loggerTLVNode{id: id, payload: data[payloadStart:payloadEnd]})
		offset = payloadEnd
		if id == nodeIDBreak {
			return nodes, nil
		}
	}
}

func (c *loggerCycle) CycleIndex() uint32 { return c.basic.Cycle }
func (c *loggerCycle) XLEN() XLEN         { return XLEN(c.basic.XLEN) }

func (c *loggerCycle) PC(physical bool) (uint64, error) {
	return c.basic.PC, nil
}

func (c *loggerCycle) HasIntReg() bool { return c.intReg != nil }
func (c *loggerCycle) HasFpReg() bool  { return c.fpReg != nil }
func (c *loggerCycle) HasIO() bool     { return c.io != nil }

func (c *loggerCycle) OpEventCount() int     { return len(c.ops) }
func (c *loggerCycle) MemoryEventCount() int { return len(c.mem) }
func (c *loggerCycle) TrapEventCount() int   { return len(c.traps) }

func (c *loggerCycle) IntReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	if c.intReg == nil {
		return 0, &NodeNotFoundError{Kind: NodeIntReg32, Index: 0}
	}
	return c.intReg[i], nil
}

func (c *loggerCycle) FpReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	if c.fpReg == nil {
		return 0, &NodeNotFoundError{Kind: NodeFpReg, Index: 0}
	}
	return c.fpReg[i], nil
}

func (c *loggerCycle) CopyIO() (IoNode, error) {
	if c.io == nil {
		return IoNode{}, &NodeNotFoundError{Kind: NodeIo, Index: 0}
	}
	return *c.io, nil
}

func (c *loggerCycle) CopyOpEvent(i int) (OpEventNode, error) {
	if i < 0 || i >= len(c.ops) {
		return OpEventNode{}, &IndexOutOfRangeError{Index: i, N: len(c.ops)}
	}
	return c.ops[i], nil
}

func (c *loggerCycle) CopyMemoryEvent(i int) (MemoryAccessNode, error) {
	if i < 0 || i >= len(c.mem) {
		return MemoryAccessNode{}, &IndexOutOfRangeError{Index: i, N: len(c.mem)}
	}
	return c.mem[i], nil
}

func (c *loggerCycle) CopyTrapEvent(i int) (TrapEvent, error) {
	if i < 0 || i >= len(c.traps) {
		return TrapEvent{}, &IndexOutOfRangeError{Index: i, N: len(c.traps)}
	}
	return c.traps[i], nil
}
