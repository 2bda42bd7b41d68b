// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodedInstruction is the structured result of disassembling a raw
// instruction word, produced by an InstructionDecoder.
type DecodedInstruction struct {
	Opcode   string
	Operands string
}

// String renders the decoded instruction the way both printers embed
// it: "{opcode} {operands}" (spec §4.13).
func (d DecodedInstruction) String() string {
	if d.Operands == "" {
		return d.Opcode
	}
	return fmt.Sprintf("%s %s", d.Opcode, d.Operands)
}

// InstructionDecoder disassembles a raw instruction word. The actual
// RISC-V decoder is an external collaborator out of scope for this
// module (spec §1); printers accept any implementation.
type InstructionDecoder interface {
	Decode(insn uint32, xlen XLEN) (DecodedInstruction, error)
}

// NopDecoder is an InstructionDecoder that never resolves a mnemonic,
// for callers with no decoder wired in.
type NopDecoder struct{}

// Decode always returns the instruction word's hex form as the
// opcode, with empty operands.
func (NopDecoder) Decode(insn uint32, xlen XLEN) (DecodedInstruction, error) {
	return DecodedInstruction{Opcode: fmt.Sprintf("0x%08x", insn)}, nil
}

// TextPrinter renders a cycle as a text-trace-format block. It is a
// thin wrapper over TextTraceWriter restricted to a single cycle at a
// time, suitable for round-tripping through TextTraceReader.
type TextPrinter struct {
	w TextTraceWriter
}

// NewTextPrinter constructs a printer that writes "XLEN xlen" once,
// then one block per PrintCycle call.
func NewTextPrinter(w io.Writer, xlen XLEN) (*TextPrinter, error) {
	tw, err := NewTextTraceWriter(w, xlen)
	if err != nil {
		return nil, err
	}
	return &TextPrinter{w: *tw}, nil
}

// PrintCycle renders one cycle's text block.
func (p *TextPrinter) PrintCycle(c Cycle) error {
	return p.w.WriteCycle(c)
}

// jsonCycle is the wire shape of JSONPrinter's per-cycle object (spec
// §4.13: "note, pc, int, fp, io, opEvents, memoryEvents, trapEvents").
type jsonCycle struct {
	Note         string          `json:"note,omitempty"`
	PC           *jsonPC         `json:"pc,omitempty"`
	Int          []uint64        `json:"int,omitempty"`
	Fp           []uint64        `json:"fp,omitempty"`
	IO           *IoNode         `json:"io,omitempty"`
	OpEvents     []jsonOpEvent   `json:"opEvents,omitempty"`
	MemoryEvents []jsonMemEvent  `json:"memoryEvents,omitempty"`
	TrapEvents   []jsonTrapEvent `json:"trapEvents,omitempty"`
}

type jsonPC struct {
	Virtual  uint64 `json:"virtual"`
	Physical uint64 `json:"physical"`
}

type jsonOpEvent struct {
	Insn        uint32 `json:"insn"`
	Privilege   string `json:"privilege"`
	Disassembly string `json:"disassembly,omitempty"`
}

type jsonMemEvent struct {
	AccessType   string `json:"accessType"`
	Size         uint32 `json:"size"`
	Value        uint64 `json:"value"`
	VirtualAddr  uint64 `json:"virtualAddr"`
	PhysicalAddr uint64 `json:"physicalAddr"`
}

type jsonTrapEvent struct {
	TrapType  string `json:"trapType"`
	From      string `json:"from"`
	To        string `json:"to"`
	Cause     uint32 `json:"cause"`
	TrapValue uint64 `json:"trapValue"`
}

// JSONPrinter renders one JSON object per cycle, newline-delimited.
type JSONPrinter struct {
	enc     *json.Encoder
	decoder InstructionDecoder
}

// NewJSONPrinter constructs a printer writing newline-delimited JSON
// to w. decoder may be nil, in which case NopDecoder is used and the
// disassembly is the instruction word in hex.
func NewJSONPrinter(w io.Writer, decoder InstructionDecoder) *JSONPrinter {
	if decoder == nil {
		decoder = NopDecoder{}
	}
	return &JSONPrinter{enc: json.NewEncoder(w), decoder: decoder}
}

// PrintCycle renders one cycle's JSON object.
func (p *JSONPrinter) PrintCycle(c Cycle) error {
	out := jsonCycle{}
	if n, ok := c.(interface{ Note() string }); ok {
		out.Note = n.Note()
	}
	if pc, err := c.PC(false); err == nil {
		phys, _ := c.PC(true)
		out.PC = &jsonPC{Virtual: pc, Physical: phys}
	}
	if c.HasIntReg() {
		out.Int = make([]uint64, IntRegCount)
		for i := range out.Int {
			v, err := c.IntReg(i)
			if err != nil {
				return err
			}
			out.Int[i] = v
		}
	}
	if c.HasFpReg() {
		out.Fp = make([]uint64, IntRegCount)
		for i := range out.Fp {
			v, err := c.FpReg(i)
			if err != nil {
				return err
			}
			out.Fp[i] = v
		}
	}
	if c.HasIO() {
		io, err := c.CopyIO()
		if err != nil {
			return err
		}
		out.IO = &io
	}
	for i := 0; i < c.OpEventCount(); i++ {
		op, err := c.CopyOpEvent(i)
		if err != nil {
			return err
		}
		decoded, err := p.decoder.Decode(op.Insn, c.XLEN())
		if err != nil {
			return err
		}
		out.OpEvents = append(out.OpEvents, jsonOpEvent{
			Insn:        op.Insn,
			Privilege:   PrivilegeLevel(op.Priv).String(),
			Disassembly: decoded.String(),
		})
	}
	for i := 0; i < c.MemoryEventCount(); i++ {
		ev, err := c.CopyMemoryEvent(i)
		if err != nil {
			return err
		}
		out.MemoryEvents = append(out.MemoryEvents, jsonMemEvent{
			AccessType:   MemoryAccessType(ev.AccessType).String(),
			Size:         ev.Size,
			Value:        ev.Value,
			VirtualAddr:  ev.VirtualAddr,
			PhysicalAddr: ev.PhysicalAddr,
		})
	}
	for i := 0; i < c.TrapEventCount(); i++ {
		t, err := c.CopyTrapEvent(i)
		if err != nil {
			return err
		}
		out.TrapEvents = append(out.TrapEvents, jsonTrapEvent{
			TrapType:  t.TrapType.String(),
			From:      PrivilegeLevel(t.From).String(),
			To:        PrivilegeLevel(t.To).String(),
			Cause:     t.Cause,
			TrapValue: t.TrapValue,
		})
	}

	return p.enc.Encode(out)
}

// PCPrinter renders one hex PC per cycle, one per line.
type PCPrinter struct {
	w        io.Writer
	physical bool
}

// NewPCPrinter constructs a printer that prints the virtual PC unless
// physical is true.
func NewPCPrinter(w io.Writer, physical bool) *PCPrinter {
	return &PCPrinter{w: w, physical: physical}
}

// PrintCycle renders one cycle's PC.
func (p *PCPrinter) PrintCycle(c Cycle) error {
	pc, err := c.PC(p.physical)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.w, "%x\n", pc)
	return err
}
