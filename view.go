// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

// CycleView is a read-only, random-access accessor over a byte region
// built by CycleBuilder (spec §4.4). It never mutates the region and
// performs no allocations beyond the typed-getter return values.
type CycleView struct {
	data []byte
}

// NewCycleView wraps data, which is believed to be a well-formed
// container-form cycle, for random-access reads.
func NewCycleView(data []byte) (*CycleView, error) {
	if int64(len(data)) < cycleHeaderSize+cycleFooterSize {
		return nil, newCorruption("cycle data smaller than header+footer")
	}
	v := &CycleView{data: data}

	footerOffset := v.footerOffset()
	if footerOffset < cycleHeaderSize || footerOffset+cycleFooterSize != int64(len(data)) {
		return nil, newCorruption("footer offset inconsistent with region size")
	}
	back := int64(byteOrder.Uint64(data[footerOffset : footerOffset+8]))
	if back != footerOffset {
		return nil, newCorruption("footer back-pointer does not match header's footerOffset")
	}

	return v, nil
}

func (v *CycleView) footerOffset() int64 {
	return int64(byteOrder.Uint64(v.data[0:8]))
}

func (v *CycleView) metaCount() uint32 {
	return byteOrder.Uint32(v.data[8:12])
}

func (v *CycleView) metaAt(i uint32) cycleMeta {
	off := cycleHeaderSize + int(i)*cycleMetaEntrySize
	return cycleMeta{
		kind:   NodeKind(byteOrder.Uint32(v.data[off : off+4])),
		offset: int64(byteOrder.Uint64(v.data[off+8 : off+16])),
		size:   int64(byteOrder.Uint64(v.data[off+16 : off+24])),
	}
}

func (v *CycleView) findMeta(kind NodeKind, index int) *cycleMeta {
	matched := 0
	count := v.metaCount()
	for i := uint32(0); i < count; i++ {
		m := v.metaAt(i)
		if m.kind == kind {
			if matched == index {
				return &m
			}
			matched++
		}
	}
	return nil
}

// NodeCount returns how many instances of kind this cycle's meta
// table carries.
func (v *CycleView) NodeCount(kind NodeKind) int32 {
	var count int32
	n := v.metaCount()
	for i := uint32(0); i < n; i++ {
		if v.metaAt(i).kind == kind {
			count++
		}
	}
	return count
}

// NodeSize returns the size of the index-th instance of kind.
func (v *CycleView) NodeSize(kind NodeKind, index int) (int64, error) {
	meta := v.findMeta(kind, index)
	if meta == nil {
		return 0, &NodeNotFoundError{Kind: kind, Index: index}
	}
	return meta.size, nil
}

// Node returns the raw payload bytes of the index-th instance of
// kind.
func (v *CycleView) Node(kind NodeKind, index int) ([]byte, error) {
	meta := v.findMeta(kind, index)
	if meta == nil {
		return nil, &NodeNotFoundError{Kind: kind, Index: index}
	}
	return v.data[meta.offset : meta.offset+meta.size], nil
}

func (v *CycleView) checkSizeEqual(kind NodeKind, index int, size int64) error {
	got, err := v.NodeSize(kind, index)
	if err != nil {
		return err
	}
	if got != size {
		return &SizeMismatchError{Kind: kind, Expected: size, Actual: got}
	}
	return nil
}

func (v *CycleView) checkSizeGreaterThan(kind NodeKind, index int, size int64) error {
	got, err := v.NodeSize(kind, index)
	if err != nil {
		return err
	}
	if got <= size {
		return &SizeMismatchError{Kind: kind, Expected: size + 1, Actual: got}
	}
	return nil
}

// BasicInfo returns the sole BasicInfo node.
func (v *CycleView) BasicInfo() (BasicInfoNode, error) {
	if err := v.checkSizeEqual(NodeBasicInfo, 0, basicInfoNodeSize); err != nil {
		return BasicInfoNode{}, err
	}
	buf, _ := v.Node(NodeBasicInfo, 0)
	return BasicInfoNode{
		Cycle: byteOrder.Uint32(buf[0:4]),
		XLEN:  byteOrder.Uint32(buf[4:8]),
		PC:    byteOrder.Uint64(buf[8:16]),
	}, nil
}

// IntReg32 returns the sole IntReg32 node.
func (v *CycleView) IntReg32() (IntReg32Node, error) {
	if err := v.checkSizeEqual(NodeIntReg32, 0, intReg32NodeSize); err != nil {
		return IntReg32Node{}, err
	}
	buf, _ := v.Node(NodeIntReg32, 0)
	var n IntReg32Node
	for i := range n.Regs {
		n.Regs[i] = byteOrder.Uint32(buf[i*4 : i*4+4])
	}
	return n, nil
}

// IntReg64 returns the sole IntReg64 node.
func (v *CycleView) IntReg64() (IntReg64Node, error) {
	if err := v.checkSizeEqual(NodeIntReg64, 0, intReg64NodeSize); err != nil {
		return IntReg64Node{}, err
	}
	buf, _ := v.Node(NodeIntReg64, 0)
	var n IntReg64Node
	for i := range n.Regs {
		n.Regs[i] = byteOrder.Uint64(buf[i*8 : i*8+8])
	}
	return n, nil
}

// FpReg returns the sole FpReg node.
func (v *CycleView) FpReg() (FpRegNode, error) {
	if err := v.checkSizeEqual(NodeFpReg, 0, fpRegNodeSize); err != nil {
		return FpRegNode{}, err
	}
	buf, _ := v.Node(NodeFpReg, 0)
	var n FpRegNode
	for i := range n.Regs {
		n.Regs[i] = FpRegUnion{Bits: byteOrder.Uint64(buf[i*8 : i*8+8])}
	}
	return n, nil
}

// Pc32 returns the sole Pc32 node.
func (v *CycleView) Pc32() (Pc32Node, error) {
	if err := v.checkSizeEqual(NodePc32, 0, pc32NodeSize); err != nil {
		return Pc32Node{}, err
	}
	buf, _ := v.Node(NodePc32, 0)
	return Pc32Node{VirtualPC: byteOrder.Uint64(buf[0:8]), PhysicalPC: byteOrder.Uint64(buf[8:16])}, nil
}

// Pc64 returns the sole Pc64 node.
func (v *CycleView) Pc64() (Pc64Node, error) {
	if err := v.checkSizeEqual(NodePc64, 0, pc64NodeSize); err != nil {
		return Pc64Node{}, err
	}
	buf, _ := v.Node(NodePc64, 0)
	return Pc64Node{VirtualPC: byteOrder.Uint64(buf[0:8]), PhysicalPC: byteOrder.Uint64(buf[8:16])}, nil
}

// Csr32 returns the sole Csr32 node's (address, value) records.
func (v *CycleView) Csr32() ([]CsrRecord32, error) {
	if err := v.checkSizeGreaterThan(NodeCsr32, 0, 0); err != nil {
		return nil, err
	}
	buf, _ := v.Node(NodeCsr32, 0)
	regs := make([]CsrRecord32, len(buf)/csr32RecordSize)
	for i := range regs {
		off := i * csr32RecordSize
		regs[i] = CsrRecord32{
			Address: byteOrder.Uint32(buf[off : off+4]),
			Value:   byteOrder.Uint32(buf[off+4 : off+8]),
		}
	}
	return regs, nil
}

// Csr64 returns the sole Csr64 node's (address, value) records.
func (v *CycleView) Csr64() ([]CsrRecord64, error) {
	if err := v.checkSizeGreaterThan(NodeCsr64, 0, 0); err != nil {
		return nil, err
	}
	buf, _ := v.Node(NodeCsr64, 0)
	regs := make([]CsrRecord64, len(buf)/csr64RecordSize)
	for i := range regs {
		off := i * csr64RecordSize
		regs[i] = CsrRecord64{
			Address: byteOrder.Uint32(buf[off : off+4]),
			Value:   byteOrder.Uint64(buf[off+8 : off+16]),
		}
	}
	return regs, nil
}

// Trap32 returns the sole Trap32 node.
func (v *CycleView) Trap32() (Trap32Node, error) {
	if err := v.checkSizeEqual(NodeTrap32, 0, trap32NodeSize); err != nil {
		return Trap32Node{}, err
	}
	buf, _ := v.Node(NodeTrap32, 0)
	return Trap32Node{
		TrapType:  byteOrder.Uint32(buf[0:4]),
		From:      byteOrder.Uint32(buf[4:8]),
		To:        byteOrder.Uint32(buf[8:12]),
		Cause:     byteOrder.Uint32(buf[12:16]),
		TrapValue: byteOrder.Uint32(buf[16:20]),
	}, nil
}

// Trap64 returns the sole Trap64 node.
func (v *CycleView) Trap64() (Trap64Node, error) {
	if err := v.checkSizeEqual(NodeTrap64, 0, trap64NodeSize); err != nil {
		return Trap64Node{}, err
	}
	buf, _ := v.Node(NodeTrap64, 0)
	return Trap64Node{
		TrapType:  byteOrder.Uint32(buf[0:4]),
		From:      byteOrder.Uint32(buf[4:8]),
		To:        byteOrder.Uint32(buf[8:12]),
		Cause:     byteOrder.Uint32(buf[12:16]),
		TrapValue: byteOrder.Uint64(buf[16:24]),
	}, nil
}

// MemoryAccess returns the index-th MemoryAccess node.
func (v *CycleView) MemoryAccess(index int) (MemoryAccessNode, error) {
	if err := v.checkSizeEqual(NodeMemoryAccess, index, memoryAccessNodeSize); err != nil {
		return MemoryAccessNode{}, err
	}
	buf, _ := v.Node(NodeMemoryAccess, index)
	return MemoryAccessNode{
		AccessType:   byteOrder.Uint32(buf[0:4]),
		Size:         byteOrder.Uint32(buf[4:8]),
		Value:        byteOrder.Uint64(buf[8:16]),
		VirtualAddr:  byteOrder.Uint64(buf[16:24]),
		PhysicalAddr: byteOrder.Uint64(buf[24:32]),
	}, nil
}

// Io returns the sole Io node.
func (v *CycleView) Io() (IoNode, error) {
	if err := v.checkSizeEqual(NodeIo, 0, ioNodeSize); err != nil {
		return IoNode{}, err
	}
	buf, _ := v.Node(NodeIo, 0)
	return IoNode{Host: byteOrder.Uint32(buf[0:4]), Reserved: byteOrder.Uint32(buf[4:8])}, nil
}

// Memory returns the sole Memory node's raw RAM snapshot bytes.
func (v *CycleView) Memory() ([]byte, error) {
	if err := v.checkSizeGreaterThan(NodeMemory, 0, 0); err != nil {
		return nil, err
	}
	return v.Node(NodeMemory, 0)
}
