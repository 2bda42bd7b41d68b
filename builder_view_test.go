// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCycleBuilderViewRoundTrip(t *testing.T) {
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	cfg.SetCount(NodeIntReg64, 1)
	cfg.SetCount(NodeFpReg, 1)
	cfg.SetCount(NodeMemoryAccess, 2)
	cfg.SetCount(NodeIo, 1)

	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}

	wantBasic := BasicInfoNode{Cycle: 7, XLEN: uint32(XLEN64), PC: 0x80000000}
	if err := b.SetBasicInfo(wantBasic); err != nil {
		t.Fatalf("SetBasicInfo() failed: %v", err)
	}

	var wantInt IntReg64Node
	for i := range wantInt.Regs {
		wantInt.Regs[i] = uint64(i) * 11
	}
	if err := b.SetIntReg64(wantInt); err != nil {
		t.Fatalf("SetIntReg64() failed: %v", err)
	}

	var wantFp FpRegNode
	for i := range wantFp.Regs {
		wantFp.Regs[i] = FpRegUnion{Bits: uint64(i) * 3}
	}
	if err := b.SetFpReg(wantFp); err != nil {
		t.Fatalf("SetFpReg() failed: %v", err)
	}

	wantMa0 := MemoryAccessNode{AccessType: uint32(AccessLoad), Size: 8, Value: 0x42, VirtualAddr: 0x1000, PhysicalAddr: 0x1000}
	wantMa1 := MemoryAccessNode{AccessType: uint32(AccessStore), Size: 4, Value: 0x7, VirtualAddr: 0x2000, PhysicalAddr: 0x3000}
	if err := b.SetMemoryAccess(0, wantMa0); err != nil {
		t.Fatalf("SetMemoryAccess(0) failed: %v", err)
	}
	if err := b.SetMemoryAccess(1, wantMa1); err != nil {
		t.Fatalf("SetMemoryAccess(1) failed: %v", err)
	}

	wantIo := IoNode{Host: 1}
	if err := b.SetIo(wantIo); err != nil {
		t.Fatalf("SetIo() failed: %v", err)
	}

	view, err := NewCycleView(b.Data())
	if err != nil {
		t.Fatalf("NewCycleView() failed: %v", err)
	}

	gotBasic, err := view.BasicInfo()
	if err != nil {
		t.Fatalf("BasicInfo() failed: %v", err)
	}
	if diff := cmp.Diff(wantBasic, gotBasic); diff != "" {
		t.Errorf("BasicInfo() mismatch (-want +got):\n%s", diff)
	}

	gotInt, err := view.IntReg64()
	if err != nil {
		t.Fatalf("IntReg64() failed: %v", err)
	}
	if diff := cmp.Diff(wantInt, gotInt); diff != "" {
		t.Errorf("IntReg64() mismatch (-want +got):\n%s", diff)
	}

	gotFp, err := view.FpReg()
	if err != nil {
		t.Fatalf("FpReg() failed: %v", err)
	}
	if diff := cmp.Diff(wantFp, gotFp); diff != "" {
		t.Errorf("FpReg() mismatch (-want +got):\n%s", diff)
	}

	gotMa0, err := view.MemoryAccess(0)
	if err != nil {
		t.Fatalf("MemoryAccess(0) failed: %v", err)
	}
	if diff := cmp.Diff(wantMa0, gotMa0); diff != "" {
		t.Errorf("MemoryAccess(0) mismatch (-want +got):\n%s", diff)
	}

	gotMa1, err := view.MemoryAccess(1)
	if err != nil {
		t.Fatalf("MemoryAccess(1) failed: %v", err)
	}
	if diff := cmp.Diff(wantMa1, gotMa1); diff != "" {
		t.Errorf("MemoryAccess(1) mismatch (-want +got):\n%s", diff)
	}

	gotIo, err := view.Io()
	if err != nil {
		t.Fatalf("Io() failed: %v", err)
	}
	if diff := cmp.Diff(wantIo, gotIo); diff != "" {
		t.Errorf("Io() mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleBuilderSizeAlgebra(t *testing.T) {
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	cfg.SetCount(NodeIntReg64, 1)

	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}

	wantSize := int64(cycleHeaderSize) +
		2*int64(cycleMetaEntrySize) +
		basicInfoNodeSize +
		intReg64NodeSize +
		int64(cycleFooterSize)

	if got := b.DataSize(); got != wantSize {
		t.Errorf("DataSize() = %d, want %d", got, wantSize)
	}
}

func TestCycleBuilderSetNodeSizeMismatch(t *testing.T) {
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}

	err = b.SetNode(NodeBasicInfo, []byte{1, 2, 3})
	var mismatch *SizeMismatchError
	if err == nil {
		t.Fatal("SetNode() with wrong size succeeded, want SizeMismatchError")
	}
	if !asSizeMismatchError(err, &mismatch) {
		t.Errorf("SetNode() error = %v, want *SizeMismatchError", err)
	}
}

func asSizeMismatchError(err error, target **SizeMismatchError) bool {
	e, ok := err.(*SizeMismatchError)
	if ok {
		*target = e
	}
	return ok
}

func TestCycleViewRejectsCorruptFooter(t *testing.T) {
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}

	data := append([]byte(nil), b.Data()...)
	byteOrder.PutUint64(data[0:8], uint64(len(data))) // footerOffset now points past EOF

	if _, err := NewCycleView(data); err == nil {
		t.Fatal("NewCycleView() with corrupt footerOffset succeeded, want error")
	}
}
