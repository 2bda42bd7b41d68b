// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import "math"

// cycleHeaderSize, cycleMetaEntrySize and cycleFooterSize are the
// fixed sizes of the container-form framing structures (spec §3):
//
//	Header: footerOffset (i64), metaCount (u32), reserved (u32)
//	MetaEntry: kind (u32), reserved (u32), offset (i64), size (i64)
//	Footer: headerOffset (i64)
const (
	cycleHeaderSize    = 8 + 4 + 4
	cycleMetaEntrySize = 4 + 4 + 8 + 8
	cycleFooterSize    = 8
)

// CycleBuilder allocates a single contiguous byte region sized from a
// CycleConfig, writes the header, meta table and footer up front, and
// lets callers fill node payloads by kind+index (spec §4.3). The
// region is never resized after construction.
type CycleBuilder struct {
	data   []byte
	config CycleConfig
}

// NewCycleBuilder constructs a builder whose byte region is already
// the exact final size, with header/meta table/footer initialized.
// Payload bytes are zeroed and must be set via SetNode before the
// cycle is published.
func NewCycleBuilder(config CycleConfig) (*CycleBuilder, error) {
	size, err := calculateDataSize(config)
	if err != nil {
		return nil, err
	}

	b := &CycleBuilder{
		data:   make([]byte, size),
		config: config,
	}

	footerOffset := size - cycleFooterSize
	byteOrder.PutUint64(b.data[0:8], uint64(footerOffset))
	byteOrder.PutUint32(b.data[8:12], uint32(config.TotalCount()))
	byteOrder.PutUint64(b.data[footerOffset:footerOffset+8], uint64(footerOffset))

	b.initializeMetaNodes()

	return b, nil
}

// Data returns the builder's backing byte region.
func (b *CycleBuilder) Data() []byte { return b.data }

// DataSize returns the size of the builder's backing byte region.
func (b *CycleBuilder) DataSize() int64 { return int64(len(b.data)) }

// NodeSize returns the configured size of the sole instance of kind,
// which must have exactly one configured instance.
func (b *CycleBuilder) NodeSize(kind NodeKind) (int64, error) {
	return b.NodeSizeAt(kind, 0)
}

// NodeSizeAt returns the configured size of the index-th instance of
// kind.
func (b *CycleBuilder) NodeSizeAt(kind NodeKind, index int) (int64, error) {
	meta := b.findMeta(kind, index)
	if meta == nil {
		return 0, &NodeNotFoundError{Kind: kind, Index: index}
	}
	return meta.size, nil
}

// NodePtr returns a mutable slice over the sole instance of kind's
// payload bytes, for in-place fill.
func (b *CycleBuilder) NodePtr(kind NodeKind) ([]byte, error) {
	return b.NodePtrAt(kind, 0)
}

// NodePtrAt returns a mutable slice over the index-th instance of
// kind's payload bytes.
func (b *CycleBuilder) NodePtrAt(kind NodeKind, index int) ([]byte, error) {
	meta := b.findMeta(kind, index)
	if meta == nil {
		return nil, &NodeNotFoundError{Kind: kind, Index: index}
	}
	return b.data[meta.offset : meta.offset+meta.size], nil
}

// SetNode bulk-copies buf into the sole instance of kind's payload.
// It fails SizeMismatchError when len(buf) does not equal the node's
// configured size.
func (b *CycleBuilder) SetNode(kind NodeKind, buf []byte) error {
	return b.SetNodeAt(kind, 0, buf)
}

// SetNodeAt bulk-copies buf into the index-th instance of kind's
// payload.
func (b *CycleBuilder) SetNodeAt(kind NodeKind, index int, buf []byte) error {
	meta := b.findMeta(kind, index)
	if meta == nil {
		return &NodeNotFoundError{Kind: kind, Index: index}
	}
	if meta.size != int64(len(buf)) {
		return &SizeMismatchError{Kind: kind, Expected: meta.size, Actual: int64(len(buf))}
	}
	copy(b.data[meta.offset:meta.offset+meta.size], buf)
	return nil
}

// SetBasicInfo writes the BasicInfo node (index 0).
func (b *CycleBuilder) SetBasicInfo(n BasicInfoNode) error {
	buf := make([]byte, basicInfoNodeSize)
	byteOrder.PutUint32(buf[0:4], n.Cycle)
	byteOrder.PutUint32(buf[4:8], n.XLEN)
	byteOrder.PutUint64(buf[8:16], n.PC)
	return b.SetNode(NodeBasicInfo, buf)
}

// SetIntReg32 writes the IntReg32 node (index 0).
func (b *CycleBuilder) SetIntReg32(n IntReg32Node) error {
	buf := make([]byte, intReg32NodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint32(buf[i*4:i*4+4], r)
	}
	return b.SetNode(NodeIntReg32, buf)
}

// SetIntReg64 writes the IntReg64 node (index 0).
func (b *CycleBuilder) SetIntReg64(n IntReg64Node) error {
	buf := make([]byte, intReg64NodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint64(buf[i*8:i*8+8], r)
	}
	return b.SetNode(NodeIntReg64, buf)
}

// SetFpReg writes the FpReg node (index 0).
func (b *CycleBuilder) SetFpReg(n FpRegNode) error {
	buf := make([]byte, fpRegNodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint64(buf[i*8:i*8+8], r.Bits)
	}
	return b.SetNode(NodeFpReg, buf)
}

// SetPc32 writes the Pc32 node (index 0).
func (b *CycleBuilder) SetPc32(n Pc32Node) error {
	buf := make([]byte, pc32NodeSize)
	byteOrder.PutUint64(buf[0:8], n.VirtualPC)
	byteOrder.PutUint64(buf[8:16], n.PhysicalPC)
	return b.SetNode(NodePc32, buf)
}

// SetPc64 writes the Pc64 node (index 0).
func (b *CycleBuilder) SetPc64(n Pc64Node) error {
	buf := make([]byte, pc64NodeSize)
	byteOrder.PutUint64(buf[0:8], n.VirtualPC)
	byteOrder.PutUint64(buf[8:16], n.PhysicalPC)
	return b.SetNode(NodePc64, buf)
}

// SetCsr32 writes the Csr32 node (index 0) from a slice of
// (address, value) records.
func (b *CycleBuilder) SetCsr32(regs []CsrRecord32) error {
	buf := make([]byte, len(regs)*csr32RecordSize)
	for i, r := range regs {
		off := i * csr32RecordSize
		byteOrder.PutUint32(buf[off:off+4], r.Address)
		byteOrder.PutUint32(buf[off+4:off+8], r.Value)
	}
	return b.SetNode(NodeCsr32, buf)
}

// SetCsr64 writes the Csr64 node (index 0) from a slice of
// (address, value) records.
func (b *CycleBuilder) SetCsr64(regs []CsrRecord64) error {
	buf := make([]byte, len(regs)*csr64RecordSize)
	for i, r := range regs {
		off := i * csr64RecordSize
		byteOrder.PutUint32(buf[off:off+4], r.Address)
		byteOrder.PutUint64(buf[off+8:off+16], r.Value)
	}
	return b.SetNode(NodeCsr64, buf)
}

// SetTrap32 writes the Trap32 node (index 0).
func (b *CycleBuilder) SetTrap32(n Trap32Node) error {
	buf := make([]byte, trap32NodeSize)
	byteOrder.PutUint32(buf[0:4], n.TrapType)
	byteOrder.PutUint32(buf[4:8], n.From)
	byteOrder.PutUint32(buf[8:12], n.To)
	byteOrder.PutUint32(buf[12:16], n.Cause)
	byteOrder.PutUint32(buf[16:20], n.TrapValue)
	return b.SetNode(NodeTrap32, buf)
}

// SetTrap64 writes the Trap64 node (index 0).
func (b *CycleBuilder) SetTrap64(n Trap64Node) error {
	buf := make([]byte, trap64NodeSize)
	byteOrder.PutUint32(buf[0:4], n.TrapType)
	byteOrder.PutUint32(buf[4:8], n.From)
	byteOrder.PutUint32(buf[8:12], n.To)
	byteOrder.PutUint32(buf[12:16], n.Cause)
	byteOrder.PutUint64(buf[16:24], n.TrapValue)
	return b.SetNode(NodeTrap64, buf)
}

// SetMemoryAccess writes the index-th MemoryAccess node.
func (b *CycleBuilder) SetMemoryAccess(index int, n MemoryAccessNode) error {
	buf := make([]byte, memoryAccessNodeSize)
	byteOrder.PutUint32(buf[0:4], n.AccessType)
	byteOrder.PutUint32(buf[4:8], n.Size)
	byteOrder.PutUint64(buf[8:16], n.Value)
	byteOrder.PutUint64(buf[16:24], n.VirtualAddr)
	byteOrder.PutUint64(buf[24:32], n.PhysicalAddr)
	return b.SetNodeAt(NodeMemoryAccess, index, buf)
}

// SetIo writes the Io node (index 0).
func (b *CycleBuilder) SetIo(n IoNode) error {
	buf := make([]byte, ioNodeSize)
	byteOrder.PutUint32(buf[0:4], n.Host)
	byteOrder.PutUint32(buf[4:8], n.Reserved)
	return b.SetNode(NodeIo, buf)
}

type cycleMeta struct {
	kind   NodeKind
	offset int64
	size   int64
}

func calculateDataSize(config CycleConfig) (int64, error) {
	total := int64(config.TotalCount())
	size := int64(cycleHeaderSize) + total*int64(cycleMetaEntrySize)

	for k := NodeKind(0); k < nodeKindCount; k++ {
		n := int64(config.Count(k))
		if n == 0 {
			continue
		}
		nodeSize := properNodeSize(k, config)
		if nodeSize > math.MaxInt64/2 {
			return 0, ErrOverflow
		}
		size += nodeSize * n
	}

	size += cycleFooterSize

	if size > math.MaxInt64/2 {
		return 0, ErrOverflow
	}

	return size, nil
}

func (b *CycleBuilder) initializeMetaNodes() {
	total := b.config.TotalCount()
	offset := int64(cycleHeaderSize) + int64(total)*int64(cycleMetaEntrySize)

	entryIndex := 0
	for k := NodeKind(0); k < nodeKindCount; k++ {
		count := b.config.Count(k)
		size := properNodeSize(k, b.config)

		for i := int32(0); i < count; i++ {
			entryOff := cycleHeaderSize + entryIndex*cycleMetaEntrySize
			byteOrder.PutUint32(b.data[entryOff:entryOff+4], uint32(k))
			// 4 bytes reserved at entryOff+4
			byteOrder.PutUint64(b.data[entryOff+8:entryOff+16], uint64(offset))
			byteOrder.PutUint64(b.data[entryOff+16:entryOff+24], uint64(size))

			offset += size
			entryIndex++
		}
	}
}

// metaCount returns the header's recorded meta entry count.
func (b *CycleBuilder) metaCount() uint32 {
	return byteOrder.Uint32(b.data[8:12])
}

func (b *CycleBuilder) metaAt(i uint32) cycleMeta {
	off := cycleHeaderSize + int(i)*cycleMetaEntrySize
	return cycleMeta{
		kind:   NodeKind(byteOrder.Uint32(b.data[off : off+4])),
		offset: int64(byteOrder.Uint64(b.data[off+8 : off+16])),
		size:   int64(byteOrder.Uint64(b.data[off+16 : off+24])),
	}
}

func (b *CycleBuilder) findMeta(kind NodeKind, index int) *cycleMeta {
	matched := 0
	count := b.metaCount()
	for i := uint32(0); i < count; i++ {
		m := b.metaAt(i)
		if m.kind == kind {
			if matched == index {
				return &m
			}
			matched++
		}
	}
	return nil
}
