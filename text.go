// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// textCycle is the Cycle adapter produced by TextTraceReader (spec
// §4.11/§4.6).
type textCycle struct {
	note string
	xlen XLEN

	hasPC      bool
	virtualPC  uint64
	physicalPC uint64

	intReg []uint64
	fpReg  []uint64
	io     *IoNode
	ops    []OpEventNode
	mem    []MemoryAccessNode
	traps  []TrapEvent
}

// Note returns the cycle's NOTE record text, or "" if it had none.
func (c *textCycle) Note() string { return c.note }

func (c *textCycle) CycleIndex() uint32 { return 0 }
func (c *textCycle) XLEN() XLEN         { return c.xlen }

func (c *textCycle) PC(physical bool) (uint64, error) {
	if !c.hasPC {
		return 0, ErrNoPC
	}
	if physical {
		return c.physicalPC, nil
	}
	return c.virtualPC, nil
}

func (c *textCycle) HasIntReg() bool { return c.intReg != nil }
func (c *textCycle) HasFpReg() bool  { return c.fpReg != nil }
func (c *textCycle) HasIO() bool     { return c.io != nil }

func (c *textCycle) OpEventCount() int     { return len(c.ops) }
func (c *textCycle) MemoryEventCount() int { return len(c.mem) }
func (c *textCycle) TrapEventCount() int   { return len(c.traps) }

func (c *textCycle) IntReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	if c.intReg == nil {
		return 0, &NodeNotFoundError{Kind: NodeIntReg32, Index: 0}
	}
	return c.intReg[i], nil
}

func (c *textCycle) FpReg(i int) (uint64, error) {
	if err := checkRegIndex(i); err != nil {
		return 0, err
	}
	if c.fpReg == nil {
		return 0, &NodeNotFoundError{Kind: NodeFpReg, Index: 0}
	}
	return c.fpReg[i], nil
}

func (c *textCycle) CopyIO() (IoNode, error) {
	if c.io == nil {
		return IoNode{}, &NodeNotFoundError{Kind: NodeIo, Index: 0}
	}
	return *c.io, nil
}

func (c *textCycle) CopyOpEvent(i int) (OpEventNode, error) {
	if i < 0 || i >= len(c.ops) {
		return OpEventNode{}, &IndexOutOfRangeError{Index: i, N: len(c.ops)}
	}
	return c.ops[i], nil
}

func (c *textCycle) CopyMemoryEvent(i int) (MemoryAccessNode, error) {
	if i < 0 || i >= len(c.mem) {
		return MemoryAccessNode{}, &IndexOutOfRangeError{Index: i, N: len(c.mem)}
	}
	return c.mem[i], nil
}

func (c *textCycle) CopyTrapEvent(i int) (TrapEvent, error) {
	if i < 0 || i >= len(c.traps) {
		return TrapEvent{}, &IndexOutOfRangeError{Index: i, N: len(c.traps)}
	}
	return c.traps[i], nil
}

// privilegeToken/tokenToPrivilege and the equivalent trap-type and
// access-type mappings round-trip enum values through the text
// grammar's word tokens, reusing each enum's own String() form.
func privilegeToken(p PrivilegeLevel) string { return p.String() }

func tokenToPrivilege(s string) (PrivilegeLevel, error) {
	switch s {
	case "User":
		return PrivilegeUser, nil
	case "Supervisor":
		return PrivilegeSupervisor, nil
	case "Machine":
		return PrivilegeMachine, nil
	default:
		return 0, &ParseError{Literal: s, HasLiteral: true}
	}
}

func tokenToTrapType(s string) (TrapType, error) {
	switch s {
	case "Exception":
		return TrapException, nil
	case "Interrupt":
		return TrapInterrupt, nil
	default:
		return 0, &ParseError{Literal: s, HasLiteral: true}
	}
}

func tokenToAccessType(s string) (MemoryAccessType, error) {
	switch s {
	case "Instruction":
		return AccessInstruction, nil
	case "Load":
		return AccessLoad, nil
	case "Store":
		return AccessStore, nil
	default:
		return 0, &ParseError{Literal: s, HasLiteral: true}
	}
}

// regsPerLine and regLineCount describe the register-block layout
// used for both INT and FP records: 32 registers, 16 per line, 2
// lines, matching the worked S6 scenario (spec §8).
const (
	regsPerLine  = 16
	regLineCount = IntRegCount / regsPerLine
)

// TextTraceWriter renders cycles to the line-oriented text format
// (spec §4.11), in the record order the grammar lists them.
type TextTraceWriter struct {
	w io.Writer
}

// NewTextTraceWriter writes the "XLEN N" header line and returns a
// writer ready to accept cycles.
func NewTextTraceWriter(w io.Writer, xlen XLEN) (*TextTraceWriter, error) {
	if _, err := fmt.Fprintf(w, "XLEN %d\n", xlen); err != nil {
		return nil, err
	}
	return &TextTraceWriter{w: w}, nil
}

// WriteCycle renders one cycle's records followed by BREAK.
func (tw *TextTraceWriter) WriteCycle(c Cycle) error {
	if n, ok := c.(interface{ Note() string }); ok && n.Note() != "" {
		if _, err := fmt.Fprintf(tw.w, "NOTE %s\n", n.Note()); err != nil {
			return err
		}
	}

	if pc, err := c.PC(false); err == nil {
		pcPhys, _ := c.PC(true)
		if _, err := fmt.Fprintf(tw.w, "PC %x %x\n", pc, pcPhys); err != nil {
			return err
		}
	}

	if c.HasIntReg() {
		if err := tw.writeRegBlock("INT", func(i int) (uint64, error) { return c.IntReg(i) }); err != nil {
			return err
		}
	}
	if c.HasFpReg() {
		if err := tw.writeRegBlock("FP", func(i int) (uint64, error) { return c.FpReg(i) }); err != nil {
			return err
		}
	}
	if c.HasIO() {
		io, err := c.CopyIO()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tw.w, "IO %x\n", io.Host); err != nil {
			return err
		}
	}
	for i := 0; i < c.OpEventCount(); i++ {
		op, err := c.CopyOpEvent(i)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tw.w, "OP %x %s\n", op.Insn, privilegeToken(PrivilegeLevel(op.Priv))); err != nil {
			return err
		}
	}
	for i := 0; i < c.MemoryEventCount(); i++ {
		ma, err := c.CopyMemoryEvent(i)
		if err != nil {
			return err
		}
		token := MemoryAccessType(ma.AccessType).String()
		if _, err := fmt.Fprintf(tw.w, "MA %s %x %x %x %x\n", token, ma.Size, ma.Value, ma.VirtualAddr, ma.PhysicalAddr); err != nil {
			return err
		}
	}
	for i := 0; i < c.TrapEventCount(); i++ {
		t, err := c.CopyTrapEvent(i)
		if err != nil {
			return err
		}
		from := privilegeToken(PrivilegeLevel(t.From))
		to := privilegeToken(PrivilegeLevel(t.To))
		if _, err := fmt.Fprintf(tw.w, "TRAP %s %s %s %x %x\n", t.TrapType.String(), from, to, t.Cause, t.TrapValue); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(tw.w, "BREAK")
	return err
}

func (tw *TextTraceWriter) writeRegBlock(tag string, get func(int) (uint64, error)) error {
	if _, err := fmt.Fprintln(tw.w, tag); err != nil {
		return err
	}
	for line := 0; line < regLineCount; line++ {
		var sb strings.Builder
		for col := 0; col < regsPerLine; col++ {
			v, err := get(line*regsPerLine + col)
			if err != nil {
				return err
			}
			fmt.Fprintf(&sb, " %x", v)
		}
		if _, err := fmt.Fprintln(tw.w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// TextTraceReader parses a text-form trace into a sequence of cycles
// (spec §4.11). Unlike the binary readers it parses the whole stream
// upfront, since a cycle's extent is only known once its BREAK line
// is reached.
type TextTraceReader struct {
	cycles []*textCycle
	index  int
	err    error // set if parsing stopped early on a ParseError
}

// NewTextTraceReader reads the "XLEN N" header and every well-formed
// cycle that follows. A malformed line stops parsing; Err reports why.
func NewTextTraceReader(r io.Reader) (*TextTraceReader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return nil, newCorruption("text trace missing XLEN header")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 || fields[0] != "XLEN" {
		return nil, &ParseError{Literal: sc.Text(), HasLiteral: true}
	}
	xlenVal, convErr := strconv.Atoi(fields[1])
	if convErr != nil || (xlenVal != int(XLEN32) && xlenVal != int(XLEN64)) {
		return nil, &ParseError{Literal: fields[1], HasLiteral: true}
	}
	xlen := XLEN(xlenVal)

	tr := &TextTraceReader{}
	for {
		cycle, ok, err := parseTextCycle(sc, xlen)
		if err != nil {
			tr.err = err
			break
		}
		if !ok {
			break
		}
		tr.cycles = append(tr.cycles, cycle)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tr, nil
}

// Err reports the ParseError that stopped parsing early, if any.
func (r *TextTraceReader) Err() error { return r.err }

// IsEnd reports whether every parsed cycle has been consumed.
func (r *TextTraceReader) IsEnd() bool { return r.index == len(r.cycles) }

// CurrentCycle returns the cycle at the current position.
func (r *TextTraceReader) CurrentCycle() (Cycle, error) {
	if r.IsEnd() {
		return nil, newCorruption("CurrentCycle called at End")
	}
	return r.cycles[r.index], nil
}

// Next advances to the next parsed cycle.
func (r *TextTraceReader) Next() error {
	if r.IsEnd() {
		return newCorruption("Next called at End")
	}
	r.index++
	return nil
}

// parseTextCycle consumes lines up to and including a BREAK line,
// returning (nil, false, nil) at clean EOF with no partial cycle.
func parseTextCycle(sc *bufio.Scanner, xlen XLEN) (*textCycle, bool, error) {
	c := &textCycle{xlen: xlen}
	started := false

	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		started = true

		switch fields[0] {
		case "BREAK":
			return c, true, nil
		case "NOTE":
			c.note = strings.TrimPrefix(line, "NOTE ")
		case "PC":
			if len(fields) != 3 {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			v, err1 := strconv.ParseUint(fields[1], 16, 64)
			p, err2 := strconv.ParseUint(fields[2], 16, 64)
			if err1 != nil || err2 != nil {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			c.hasPC = true
			c.virtualPC, c.physicalPC = v, p
		case "INT":
			regs, err := parseRegBlock(sc)
			if err != nil {
				return nil, false, err
			}
			c.intReg = regs
		case "FP":
			regs, err := parseRegBlock(sc)
			if err != nil {
				return nil, false, err
			}
			c.fpReg = regs
		case "IO":
			if len(fields) != 2 {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			host, err := strconv.ParseUint(fields[1], 16, 32)
			if err != nil {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			c.io = &IoNode{Host: uint32(host)}
		case "OP":
			if len(fields) != 3 {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			insn, err1 := strconv.ParseUint(fields[1], 16, 32)
			priv, err2 := tokenToPrivilege(fields[2])
			if err1 != nil || err2 != nil {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			c.ops = append(c.ops, OpEventNode{Insn: uint32(insn), Priv: uint32(priv)})
		case "MA":
			if len(fields) != 6 {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			access, errA := tokenToAccessType(fields[1])
			size, err1 := strconv.ParseUint(fields[2], 16, 32)
			value, err2 := strconv.ParseUint(fields[3], 16, 64)
			vaddr, err3 := strconv.ParseUint(fields[4], 16, 64)
			paddr, err4 := strconv.ParseUint(fields[5], 16, 64)
			if errA != nil || err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			c.mem = append(c.mem, MemoryAccessNode{
				AccessType:   uint32(access),
				Size:         uint32(size),
				Value:        value,
				VirtualAddr:  vaddr,
				PhysicalAddr: paddr,
			})
		case "TRAP":
			if len(fields) != 6 {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			kind, errK := tokenToTrapType(fields[1])
			from, errF := tokenToPrivilege(fields[2])
			to, errT := tokenToPrivilege(fields[3])
			cause, err1 := strconv.ParseUint(fields[4], 16, 32)
			value, err2 := strconv.ParseUint(fields[5], 16, 64)
			if errK != nil || errF != nil || errT != nil || err1 != nil || err2 != nil {
				return nil, false, &ParseError{Literal: line, HasLiteral: true}
			}
			c.traps = append(c.traps, TrapEvent{
				TrapType:  kind,
				From:      uint32(from),
				To:        uint32(to),
				Cause:     uint32(cause),
				TrapValue: value,
			})
		default:
			return nil, false, &ParseError{Literal: fields[0], HasLiteral: true}
		}
	}

	if !started {
		return nil, false, nil
	}
	return nil, false, newCorruption("text trace ended mid-cycle without BREAK")
}

func parseRegBlock(sc *bufio.Scanner) ([]uint64, error) {
	regs := make([]uint64, 0, IntRegCount)
	for line := 0; line < regLineCount; line++ {
		if !sc.Scan() {
			return nil, newCorruption("text trace register block truncated")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != regsPerLine {
			return nil, &ParseError{Literal: sc.Text(), HasLiteral: true}
		}
		for _, f := range fields {
			v, err := strconv.ParseUint(f, 16, 64)
			if err != nil {
				return nil, &ParseError{Literal: f, HasLiteral: true}
			}
			regs = append(regs, v)
		}
	}
	return regs, nil
}
