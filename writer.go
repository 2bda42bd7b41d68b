// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"io"
	"os"

	"github.com/orcaman/writerseeker"
	"github.com/rvtrace/rvtrace/internal/tracemetrics"
)

// TraceWriter is the append-only sink every trace producer writes
// cycle bytes to (spec §4.9).
type TraceWriter interface {
	Write(cycleBytes []byte) error
	Close() error
}

// MemoryTraceWriter appends cycle bytes to a fixed-capacity in-memory
// buffer, backed by writerseeker's seekable in-memory sink instead of
// a hand-rolled growable buffer.
type MemoryTraceWriter struct {
	ws       writerseeker.WriterSeeker
	size     int64
	capacity int64
	metrics  *tracemetrics.Registry
}

// NewMemoryTraceWriter constructs a writer bounded to capacity bytes.
func NewMemoryTraceWriter(capacity int64, opts ...ReaderOption) *MemoryTraceWriter {
	cfg := readerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryTraceWriter{capacity: capacity, metrics: cfg.metrics}
}

// Write appends cycleBytes, failing ErrBufferOverflow when doing so
// would exceed the writer's capacity.
func (w *MemoryTraceWriter) Write(cycleBytes []byte) error {
	if w.size+int64(len(cycleBytes)) > w.capacity {
		return ErrBufferOverflow
	}
	n, err := w.ws.Write(cycleBytes)
	if err != nil {
		return err
	}
	w.size += int64(n)
	w.metrics.IncCyclesWritten()
	return nil
}

// Close is a no-op for the memory variant; Bytes stays readable after
// Close.
func (w *MemoryTraceWriter) Close() error { return nil }

// Bytes returns everything written so far.
func (w *MemoryTraceWriter) Bytes() []byte {
	b, _ := io.ReadAll(w.ws.Reader())
	return b
}

// FileTraceWriter appends cycle bytes to an os.File, syncing after
// every write (spec §4.9: "File variant flushes on each write").
type FileTraceWriter struct {
	f       *os.File
	metrics *tracemetrics.Registry
}

// NewFileTraceWriter creates (or truncates) path for append-only
// writing.
func NewFileTraceWriter(path string, opts ...ReaderOption) (*FileTraceWriter, error) {
	cfg := readerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	return &FileTraceWriter{f: f, metrics: cfg.metrics}, nil
}

// Write appends cycleBytes to the file and flushes.
func (w *FileTraceWriter) Write(cycleBytes []byte) error {
	if _, err := w.f.Write(cycleBytes); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return err
	}
	w.metrics.IncCyclesWritten()
	return nil
}

// Close flushes and closes the underlying file.
func (w *FileTraceWriter) Close() error {
	return w.f.Close()
}
