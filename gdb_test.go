// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"strings"
	"testing"
)

func TestGdbTraceReader(t *testing.T) {
	const log = "80000000 auipc t0, 0\n" +
		"not a pc line, ignored\n" +
		"80000004 addi t0, t0, 4\n"

	tr, err := NewGdbTraceReader(strings.NewReader(log))
	if err != nil {
		t.Fatalf("NewGdbTraceReader() failed: %v", err)
	}

	var pcs []uint64
	var mnemonics []string
	for !tr.IsEnd() {
		c, err := tr.CurrentCycle()
		if err != nil {
			t.Fatalf("CurrentCycle() failed: %v", err)
		}
		pc, err := c.PC(false)
		if err != nil {
			t.Fatalf("PC(false) failed: %v", err)
		}
		pcs = append(pcs, pc)
		mnemonics = append(mnemonics, c.(*gdbCycle).Mnemonic())

		if _, err := c.PC(true); err == nil {
			t.Error("PC(true) on a GDB cycle succeeded, want NotImplementedError")
		}

		if err := tr.Next(); err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
	}

	wantPCs := []uint64{0x80000000, 0x80000004}
	if len(pcs) != len(wantPCs) || pcs[0] != wantPCs[0] || pcs[1] != wantPCs[1] {
		t.Errorf("pcs = %v, want %v", pcs, wantPCs)
	}
	if mnemonics[0] != "auipc t0, 0" {
		t.Errorf("mnemonics[0] = %q, want %q", mnemonics[0], "auipc t0, 0")
	}
}
