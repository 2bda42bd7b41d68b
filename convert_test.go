// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import "testing"

func TestEncodeLoggerCycleFromContainerForm(t *testing.T) {
	view := buildContainerCycle(t, XLEN64)
	source, err := newContainerCycle(view)
	if err != nil {
		t.Fatalf("newContainerCycle() failed: %v", err)
	}

	encoded, err := EncodeLoggerCycle(source)
	if err != nil {
		t.Fatalf("EncodeLoggerCycle() failed: %v", err)
	}

	replayed, err := newLoggerCycle(encoded)
	if err != nil {
		t.Fatalf("newLoggerCycle() on re-encoded bytes failed: %v", err)
	}

	pc, err := replayed.PC(false)
	if err != nil || pc != 0x1000 {
		t.Errorf("re-encoded PC(false) = (%#x, %v), want (0x1000, nil)", pc, err)
	}
	if !replayed.HasIO() {
		t.Error("re-encoded cycle HasIO() = false, want true")
	}
	io, err := replayed.CopyIO()
	if err != nil || io.Host != 1 {
		t.Errorf("re-encoded CopyIO() = (%+v, %v), want Host=1", io, err)
	}
}
