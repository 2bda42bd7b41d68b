// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// FileTraceReader memory-maps a trace file and delegates all cursor
// operations to an embedded MemoryTraceReader (spec §4.8), the way
// the teacher's pe.New memory-maps its input instead of reading it
// into a []byte.
type FileTraceReader struct {
	*MemoryTraceReader

	f  *os.File
	mm mmap.MMap
}

// NewFileTraceReader opens path, maps it read-only, and constructs a
// reader positioned at the first cycle.
func NewFileTraceReader(path string, form CycleForm, opts ...ReaderOption) (*FileTraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, &FileOpenError{Path: path, Err: err}
	}

	mr, err := NewMemoryTraceReader([]byte(m), form, opts...)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}

	return &FileTraceReader{MemoryTraceReader: mr, f: f, mm: m}, nil
}

// Close unmaps the file and releases its handle.
func (r *FileTraceReader) Close() error {
	err := r.mm.Unmap()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Previous moves the cursor back to the start of the cycle preceding
// the current one, via the container-form footer's back-pointer.
// Logger-form traces do not support backward navigation (spec §4.8).
func (r *FileTraceReader) Previous() error {
	if r.form != ContainerForm {
		return &NotImplementedError{Feature: "Previous() on a logger-form trace"}
	}
	if r.offset < cycleHeaderSize+cycleFooterSize {
		return newCorruptionAt("Previous called with no preceding cycle", r.offset)
	}

	// The footer immediately preceding the current offset carries the
	// back-pointer (its own cycle's footerOffset, relative to that
	// cycle's start).
	footerEnd := r.offset
	footerStart := footerEnd - cycleFooterSize
	if footerStart < 0 {
		return newCorruptionAt("Previous: no room for a preceding footer", r.offset)
	}
	backOffset := int64(byteOrder.Uint64(r.data[footerStart:footerEnd]))
	prevCycleSize := backOffset + cycleFooterSize
	prevStart := r.offset - prevCycleSize
	if prevStart < 0 {
		return newCorruptionAt("Previous: back-pointer points before start of buffer", r.offset)
	}

	r.offset = prevStart
	return nil
}
