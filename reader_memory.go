// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import "github.com/rvtrace/rvtrace/internal/tracemetrics"

// CycleForm distinguishes which binary shape a MemoryTraceReader is
// scanning. Nothing in the byte stream self-describes this (spec
// §4.7): the caller must know.
type CycleForm int

const (
	ContainerForm CycleForm = iota
	LoggerForm
)

// TraceReader is the forward-cursor surface shared by every trace
// reader variant (memory, file, index, text, GDB log), letting CLI
// tools and conv work against any of them uniformly.
type TraceReader interface {
	IsEnd() bool
	CurrentCycle() (Cycle, error)
	Next() error
}

// ReaderOption configures a MemoryTraceReader or FileTraceReader.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	metrics *tracemetrics.Registry
}

// WithReaderMetrics attaches a metrics registry incremented on every
// successful Next().
func WithReaderMetrics(reg *tracemetrics.Registry) ReaderOption {
	return func(c *readerConfig) { c.metrics = reg }
}

// MemoryTraceReader is a forward-only cursor over a byte slice holding
// a concatenation of cycles in one CycleForm (spec §4.7).
type MemoryTraceReader struct {
	data   []byte
	form   CycleForm
	offset int64

	metrics *tracemetrics.Registry
}

// NewMemoryTraceReader wraps data for forward scanning in the given
// form.
func NewMemoryTraceReader(data []byte, form CycleForm, opts ...ReaderOption) (*MemoryTraceReader, error) {
	cfg := readerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &MemoryTraceReader{data: data, form: form, metrics: cfg.metrics}
	if !r.IsEnd() {
		if _, err := r.currentCycleSize(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// IsEnd reports whether the cursor has consumed the whole buffer.
func (r *MemoryTraceReader) IsEnd() bool {
	return r.offset == int64(len(r.data))
}

// currentCycleSize computes the byte length of the cycle starting at
// the current offset without advancing, detecting corruption before
// any view is produced. Every corruption it reports is counted in the
// reader's metrics registry.
func (r *MemoryTraceReader) currentCycleSize() (_ int64, err error) {
	defer func() {
		if _, ok := err.(*CorruptionError); ok {
			r.metrics.IncCorruptionErrors()
		}
	}()

	remaining := r.data[r.offset:]

	switch r.form {
	case ContainerForm:
		if int64(len(remaining)) < cycleHeaderSize+cycleFooterSize {
			return 0, newCorruptionAt("remaining buffer smaller than header+footer", r.offset)
		}
		footerOffset := int64(byteOrder.Uint64(remaining[0:8]))
		size := footerOffset + cycleFooterSize
		if footerOffset < cycleHeaderSize || size > int64(len(remaining)) {
			return 0, newCorruptionAt("container cycle footerOffset out of range", r.offset)
		}
		return size, nil

	case LoggerForm:
		if int64(len(remaining)) < loggerNodeHeaderSize {
			return 0, newCorruptionAt("remaining buffer smaller than a node header", r.offset)
		}
		pos := 0
		for {
			if pos+loggerNodeHeaderSize > len(remaining) {
				return 0, newCorruptionAt("truncated logger node header", r.offset+int64(pos))
			}
			id := byteOrder.Uint16(remaining[pos : pos+2])
			size := int(byteOrder.Uint32(remaining[pos+4 : pos+8]))
			pos += loggerNodeHeaderSize + size
			if pos > len(remaining) {
				return 0, newCorruptionAt("logger node payload exceeds buffer", r.offset+int64(pos))
			}
			if id == nodeIDBreak {
				return int64(pos), nil
			}
		}

	default:
		return 0, ErrUnknownForm
	}
}

// CurrentCycle returns a Cycle view over the bytes at the current
// offset. The view is valid until the next call to Next.
func (r *MemoryTraceReader) CurrentCycle() (Cycle, error) {
	if r.IsEnd() {
		return nil, newCorruptionAt("CurrentCycle called at End", r.offset)
	}
	size, err := r.currentCycleSize()
	if err != nil {
		return nil, err
	}
	raw := r.data[r.offset : r.offset+size]

	switch r.form {
	case ContainerForm:
		view, err := NewCycleView(raw)
		if err != nil {
			return nil, err
		}
		return newContainerCycle(view)
	case LoggerForm:
		return newLoggerCycle(raw)
	default:
		return nil, ErrUnknownForm
	}
}

// Next advances the cursor past the current cycle. After Next, either
// IsEnd is true or CurrentCycle reflects the next cycle.
func (r *MemoryTraceReader) Next() error {
	if r.IsEnd() {
		return newCorruptionAt("Next called at End", r.offset)
	}
	size, err := r.currentCycleSize()
	if err != nil {
		return err
	}

	next := r.offset + size
	if next > int64(len(r.data)) {
		return newCorruptionAt("advance would move past end of buffer", next)
	}
	r.offset = next
	r.metrics.IncCyclesRead()

	if !r.IsEnd() {
		if _, err := r.currentCycleSize(); err != nil {
			return err
		}
	}
	return nil
}
