// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import "testing"

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
		check   func(t *testing.T, f Filter)
	}{
		{
			expr: "P:80000000",
			check: func(t *testing.T, f Filter) {
				pf, ok := f.(PcFilter)
				if !ok || pf.Physical || pf.Address != 0x80000000 {
					t.Errorf("ParseFilter(P:...) = %#v, want virtual PcFilter at 0x80000000", f)
				}
			},
		},
		{
			expr: "PP:1000",
			check: func(t *testing.T, f Filter) {
				pf, ok := f.(PcFilter)
				if !ok || !pf.Physical || pf.Address != 0x1000 {
					t.Errorf("ParseFilter(PP:...) = %#v, want physical PcFilter at 0x1000", f)
				}
			},
		},
		{
			expr: "L:2000",
			check: func(t *testing.T, f Filter) {
				mf, ok := f.(MemoryAccessFilter)
				if !ok || !mf.MatchLoad || mf.MatchStore || mf.Physical {
					t.Errorf("ParseFilter(L:...) = %#v, want load-only virtual MemoryAccessFilter", f)
				}
			},
		},
		{
			expr: "SP:3000",
			check: func(t *testing.T, f Filter) {
				mf, ok := f.(MemoryAccessFilter)
				if !ok || !mf.MatchStore || mf.MatchLoad || !mf.Physical {
					t.Errorf("ParseFilter(SP:...) = %#v, want store-only physical MemoryAccessFilter", f)
				}
			},
		},
		{
			expr: "A:4000",
			check: func(t *testing.T, f Filter) {
				mf, ok := f.(MemoryAccessFilter)
				if !ok || !mf.MatchStore || !mf.MatchLoad {
					t.Errorf("ParseFilter(A:...) = %#v, want load+store MemoryAccessFilter", f)
				}
			},
		},
		{expr: "Q:1000", wantErr: true},
		{expr: "P:zzzz", wantErr: true},
		{expr: "no-colon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFilter(%q) succeeded, want error", tt.expr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter(%q) failed: %v", tt.expr, err)
			}
			tt.check(t, f)
		})
	}
}

func TestMemoryAccessFilterApply(t *testing.T) {
	l, err := NewCycleLogger(0, XLEN64, 0)
	if err != nil {
		t.Fatalf("NewCycleLogger() failed: %v", err)
	}
	if err := l.AddMemoryAccess(MemoryAccessNode{
		AccessType:  uint32(AccessLoad),
		Size:        4,
		VirtualAddr: 0x2000,
	}); err != nil {
		t.Fatalf("AddMemoryAccess() failed: %v", err)
	}
	data, err := l.Finish()
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	cycle, err := newLoggerCycle(data)
	if err != nil {
		t.Fatalf("newLoggerCycle() failed: %v", err)
	}

	inRange := MemoryAccessFilter{Address: 0x2002, MatchLoad: true}
	matched, err := inRange.Apply(cycle)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if !matched {
		t.Error("Apply() with address inside [2000,2004) and MatchLoad = false, want true")
	}

	outOfRange := MemoryAccessFilter{Address: 0x3000, MatchLoad: true}
	matched, err = outOfRange.Apply(cycle)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if matched {
		t.Error("Apply() with address outside range = true, want false")
	}

	wrongKind := MemoryAccessFilter{Address: 0x2000, MatchStore: true}
	matched, err = wrongKind.Apply(cycle)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if matched {
		t.Error("Apply() for a Load event with MatchStore only = true, want false")
	}
}
