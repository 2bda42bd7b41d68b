// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

// EncodeLoggerCycle re-serializes any Cycle (container-form,
// logger-form, text, or GDB log) as logger-form TLV bytes, for tools
// that convert between trace representations (spec §6 "conv").
func EncodeLoggerCycle(c Cycle) ([]byte, error) {
	pc, err := c.PC(false)
	if err != nil {
		return nil, err
	}

	l, err := NewCycleLogger(c.CycleIndex(), c.XLEN(), pc)
	if err != nil {
		return nil, err
	}

	if c.HasIntReg() {
		if err := addIntReg(l, c); err != nil {
			return nil, err
		}
	}
	if c.HasFpReg() {
		var regs [IntRegCount]FpRegUnion
		for i := range regs {
			v, err := c.FpReg(i)
			if err != nil {
				return nil, err
			}
			regs[i] = FpRegUnion{Bits: v}
		}
		if err := l.AddFpReg(FpRegNode{Regs: regs}); err != nil {
			return nil, err
		}
	}
	if c.HasIO() {
		io, err := c.CopyIO()
		if err != nil {
			return nil, err
		}
		if err := l.AddIo(io); err != nil {
			return nil, err
		}
	}
	for i := 0; i < c.OpEventCount(); i++ {
		op, err := c.CopyOpEvent(i)
		if err != nil {
			return nil, err
		}
		if err := l.AddOpEvent(op); err != nil {
			return nil, err
		}
	}
	for i := 0; i < c.MemoryEventCount(); i++ {
		ev, err := c.CopyMemoryEvent(i)
		if err != nil {
			return nil, err
		}
		if err := l.AddMemoryAccess(ev); err != nil {
			return nil, err
		}
	}
	for i := 0; i < c.TrapEventCount(); i++ {
		t, err := c.CopyTrapEvent(i)
		if err != nil {
			return nil, err
		}
		if err := addTrapEvent(l, c.XLEN(), t); err != nil {
			return nil, err
		}
	}

	return l.Finish()
}

func addIntReg(l *CycleLogger, c Cycle) error {
	if c.XLEN() == XLEN32 {
		var regs [IntRegCount]uint32
		for i := range regs {
			v, err := c.IntReg(i)
			if err != nil {
				return err
			}
			regs[i] = uint32(v)
		}
		return l.AddIntReg32(IntReg32Node{Regs: regs})
	}

	var regs [IntRegCount]uint64
	for i := range regs {
		v, err := c.IntReg(i)
		if err != nil {
			return err
		}
		regs[i] = v
	}
	return l.AddIntReg64(IntReg64Node{Regs: regs})
}

func addTrapEvent(l *CycleLogger, xlen XLEN, t TrapEvent) error {
	if xlen == XLEN32 {
		return l.AddTrap32(Trap32Node{
			TrapType:  uint32(t.TrapType),
			From:      t.From,
			To:        t.To,
			Cause:     t.Cause,
			TrapValue: uint32(t.TrapValue),
		})
	}
	return l.AddTrap64(Trap64Node{
		TrapType:  uint32(t.TrapType),
		From:      t.From,
		To:        t.To,
		Cause:     t.Cause,
		TrapValue: t.TrapValue,
	})
}
