// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

// loggerNodeHeaderSize is the size of one TLV node header: a 16-bit
// ASCII id, a reserved 16-bit field, and a u32 payload size (spec §3
// "NodeHeader").
const loggerNodeHeaderSize = 2 + 2 + 4

// CycleLogger builds a single logger-form cycle by appending nodes to
// an internal fixed-capacity buffer (spec §4.5). The first node is
// always Basic, appended at construction time; Finish appends a Break
// terminator and seals the logger.
type CycleLogger struct {
	buf      []byte
	ceiling  int
	finished bool
}

// LoggerOption configures a CycleLogger at construction time.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	ceiling int
}

// WithBufferCeiling overrides the logger's internal buffer capacity.
// Without this option, NewCycleLogger uses DefaultLoggerBufferCeiling
// (itself overridable via RVTRACE_LOGGER_BUFFER).
func WithBufferCeiling(n int) LoggerOption {
	return func(c *loggerConfig) { c.ceiling = n }
}

// NewCycleLogger constructs a logger and immediately appends a Basic
// node built from cycle, xlen and pc.
func NewCycleLogger(cycle uint32, xlen XLEN, pc uint64, opts ...LoggerOption) (*CycleLogger, error) {
	cfg := loggerConfig{ceiling: DefaultLoggerBufferCeiling()}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &CycleLogger{
		buf:     make([]byte, 0, cfg.ceiling),
		ceiling: cfg.ceiling,
	}

	basic := make([]byte, basicInfoNodeSize)
	byteOrder.PutUint32(basic[0:4], cycle)
	byteOrder.PutUint32(basic[4:8], uint32(xlen))
	byteOrder.PutUint64(basic[8:16], pc)

	if err := l.appendNode(nodeIDBasic, basic); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *CycleLogger) appendNode(id uint16, payload []byte) error {
	if l.finished {
		return ErrLoggerSealed
	}
	if len(payload) > 0xffffffff {
		return ErrOverflow
	}
	need := loggerNodeHeaderSize + len(payload)
	if len(l.buf)+need > l.ceiling {
		return ErrBufferOverflow
	}

	header := make([]byte, loggerNodeHeaderSize)
	byteOrder.PutUint16(header[0:2], id)
	// bytes [2:4] reserved, left zero
	byteOrder.PutUint32(header[4:8], uint32(len(payload)))

	l.buf = append(l.buf, header...)
	l.buf = append(l.buf, payload...)
	return nil
}

// AddIntReg32 appends an IntReg32 node.
func (l *CycleLogger) AddIntReg32(n IntReg32Node) error {
	buf := make([]byte, intReg32NodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint32(buf[i*4:i*4+4], r)
	}
	return l.appendNode(nodeIDInt, buf)
}

// AddIntReg64 appends an IntReg64 node.
func (l *CycleLogger) AddIntReg64(n IntReg64Node) error {
	buf := make([]byte, intReg64NodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint64(buf[i*8:i*8+8], r)
	}
	return l.appendNode(nodeIDInt, buf)
}

// AddFpReg appends an FpReg node.
func (l *CycleLogger) AddFpReg(n FpRegNode) error {
	buf := make([]byte, fpRegNodeSize)
	for i, r := range n.Regs {
		byteOrder.PutUint64(buf[i*8:i*8+8], r.Bits)
	}
	return l.appendNode(nodeIDFp, buf)
}

// AddIo appends an Io node.
func (l *CycleLogger) AddIo(n IoNode) error {
	buf := make([]byte, ioNodeSize)
	byteOrder.PutUint32(buf[0:4], n.Host)
	byteOrder.PutUint32(buf[4:8], n.Reserved)
	return l.appendNode(nodeIDIo, buf)
}

// AddOpEvent appends an OpEvent node.
func (l *CycleLogger) AddOpEvent(n OpEventNode) error {
	buf := make([]byte, opEventNodeSize)
	byteOrder.PutUint32(buf[0:4], n.Insn)
	byteOrder.PutUint32(buf[4:8], n.Priv)
	return l.appendNode(nodeIDOp, buf)
}

// AddTrap32 appends a Trap32 node.
func (l *CycleLogger) AddTrap32(n Trap32Node) error {
	buf := make([]byte, trap32NodeSize)
	byteOrder.PutUint32(buf[0:4], n.TrapType)
	byteOrder.PutUint32(buf[4:8], n.From)
	byteOrder.PutUint32(buf[8:12], n.To)
	byteOrder.PutUint32(buf[12:16], n.Cause)
	byteOrder.PutUint32(buf[16:20], n.TrapValue)
	return l.appendNode(nodeIDTrap, buf)
}

// AddTrap64 appends a Trap64 node.
func (l *CycleLogger) AddTrap64(n Trap64Node) error {
	buf := make([]byte, trap64NodeSize)
	byteOrder.PutUint32(buf[0:4], n.TrapType)
	byteOrder.PutUint32(buf[4:8], n.From)
	byteOrder.PutUint32(buf[8:12], n.To)
	byteOrder.PutUint32(buf[12:16], n.Cause)
	byteOrder.PutUint64(buf[16:24], n.TrapValue)
	return l.appendNode(nodeIDTrap, buf)
}

// AddMemoryAccess appends a MemoryAccess node.
func (l *CycleLogger) AddMemoryAccess(n MemoryAccessNode) error {
	buf := make([]byte, memoryAccessNodeSize)
	byteOrder.PutUint32(buf[0:4], n.AccessType)
	byteOrder.PutUint32(buf[4:8], n.Size)
	byteOrder.PutUint64(buf[8:16], n.Value)
	byteOrder.PutUint64(buf[16:24], n.VirtualAddr)
	byteOrder.PutUint64(buf[24:32], n.PhysicalAddr)
	return l.appendNode(nodeIDMa, buf)
}

// Break appends a mid-stream Break node without sealing the logger.
// Readers of the resulting stream treat each Break-delimited run as
// one logical cycle; only Finish's trailing Break seals construction.
func (l *CycleLogger) Break() error {
	return l.appendNode(nodeIDBreak, nil)
}

// Finish appends the terminating Break node, seals the logger against
// further Add/Break calls, and returns the complete cycle bytes.
func (l *CycleLogger) Finish() ([]byte, error) {
	if l.finished {
		return nil, ErrLoggerSealed
	}
	if err := l.appendNode(nodeIDBreak, nil); err != nil {
		return nil, err
	}
	l.finished = true
	return l.buf, nil
}
