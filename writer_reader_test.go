// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"errors"
	"path/filepath"
	"testing"
)

func loggerCycleBytes(t *testing.T, cycle uint32, pc uint64) []byte {
	t.Helper()
	l, err := NewCycleLogger(cycle, XLEN64, pc)
	if err != nil {
		t.Fatalf("NewCycleLogger() failed: %v", err)
	}
	data, err := l.Finish()
	if err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	return data
}

func containerCycleBytes(t *testing.T, cycle uint32, pc uint64) []byte {
	t.Helper()
	cfg := NewCycleConfig()
	cfg.SetCount(NodeBasicInfo, 1)
	b, err := NewCycleBuilder(cfg)
	if err != nil {
		t.Fatalf("NewCycleBuilder() failed: %v", err)
	}
	if err := b.SetBasicInfo(BasicInfoNode{Cycle: cycle, XLEN: uint32(XLEN64), PC: pc}); err != nil {
		t.Fatalf("SetBasicInfo() failed: %v", err)
	}
	return b.Data()
}

func TestFileTraceReaderContainerFormRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.tbin")

	fw, err := NewFileTraceWriter(path)
	if err != nil {
		t.Fatalf("NewFileTraceWriter() failed: %v", err)
	}
	if err := fw.Write(containerCycleBytes(t, 0, 0x80000000)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := fw.Write(containerCycleBytes(t, 1, 0x80000004)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	fr, err := NewFileTraceReader(path, ContainerForm)
	if err != nil {
		t.Fatalf("NewFileTraceReader() failed: %v", err)
	}
	defer fr.Close()

	var pcs []uint64
	for !fr.IsEnd() {
		cycle, err := fr.CurrentCycle()
		if err != nil {
			t.Fatalf("CurrentCycle() failed: %v", err)
		}
		pc, err := cycle.PC(false)
		if err != nil {
			t.Fatalf("PC(false) failed: %v", err)
		}
		pcs = append(pcs, pc)
		if err := fr.Next(); err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
	}
	if len(pcs) != 2 || pcs[0] != 0x80000000 || pcs[1] != 0x80000004 {
		t.Errorf("pcs = %v, want [0x80000000 0x80000004]", pcs)
	}

	var corruptErr *CorruptionError
	if err := fr.Next(); !errors.As(err, &corruptErr) {
		t.Errorf("Next() past End error = %v, want *CorruptionError", err)
	}
}

func TestMemoryTraceWriterReaderRoundTrip(t *testing.T) {
	c0 := loggerCycleBytes(t, 0, 0x100)
	c1 := loggerCycleBytes(t, 1, 0x104)

	w := NewMemoryTraceWriter(int64(len(c0) + len(c1)))
	if err := w.Write(c0); err != nil {
		t.Fatalf("Write(c0) failed: %v", err)
	}
	if err := w.Write(c1); err != nil {
		t.Fatalf("Write(c1) failed: %v", err)
	}

	r, err := NewMemoryTraceReader(w.Bytes(), LoggerForm)
	if err != nil {
		t.Fatalf("NewMemoryTraceReader() failed: %v", err)
	}

	var pcs []uint64
	for !r.IsEnd() {
		cycle, err := r.CurrentCycle()
		if err != nil {
			t.Fatalf("CurrentCycle() failed: %v", err)
		}
		pc, err := cycle.PC(false)
		if err != nil {
			t.Fatalf("PC() failed: %v", err)
		}
		pcs = append(pcs, pc)
		if err := r.Next(); err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
	}

	if len(pcs) != 2 || pcs[0] != 0x100 || pcs[1] != 0x104 {
		t.Errorf("pcs = %v, want [0x100 0x104]", pcs)
	}
}

func TestMemoryTraceWriterOverflow(t *testing.T) {
	c0 := loggerCycleBytes(t, 0, 0)
	w := NewMemoryTraceWriter(int64(len(c0)) - 1)
	if err := w.Write(c0); err == nil {
		t.Fatal("Write() into undersized writer succeeded, want ErrBufferOverflow")
	}
}

func TestFileTraceWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.tbin")

	fw, err := NewFileTraceWriter(path)
	if err != nil {
		t.Fatalf("NewFileTraceWriter() failed: %v", err)
	}
	if err := fw.Write(loggerCycleBytes(t, 0, 0x10)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := fw.Write(loggerCycleBytes(t, 1, 0x14)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	fr, err := NewFileTraceReader(path, LoggerForm)
	if err != nil {
		t.Fatalf("NewFileTraceReader() failed: %v", err)
	}
	defer fr.Close()

	count := 0
	for !fr.IsEnd() {
		if _, err := fr.CurrentCycle(); err != nil {
			t.Fatalf("CurrentCycle() failed: %v", err)
		}
		count++
		if err := fr.Next(); err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
	}
	if count != 2 {
		t.Errorf("read %d cycles, want 2", count)
	}
}
