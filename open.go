// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"os"
	"strings"
)

// OpenTrace dispatches path to the right reader variant by extension
// (spec §6 "Path extension dispatch"): .tbin/.bin → binary,
// .tidx/.idx → index, .gdb.log → GDB log, else → text. The returned
// closer should be closed by the caller once done (a no-op for
// variants with nothing to release).
func OpenTrace(path string, opts ...ReaderOption) (TraceReader, func() error, error) {
	switch {
	case strings.HasSuffix(path, ".gdb.log"):
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, &FileOpenError{Path: path, Err: err}
		}
		tr, err := NewGdbTraceReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return tr, f.Close, nil

	case strings.HasSuffix(path, ".tidx") || strings.HasSuffix(path, ".idx"):
		base := strings.TrimSuffix(strings.TrimSuffix(path, ".tidx"), ".idx")
		tr, err := NewTraceIndexReader(base, opts...)
		if err != nil {
			return nil, nil, err
		}
		return tr, func() error { return nil }, nil

	case strings.HasSuffix(path, ".tbin") || strings.HasSuffix(path, ".bin"):
		return openBinaryTrace(path, opts...)

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, &FileOpenError{Path: path, Err: err}
		}
		tr, err := NewTextTraceReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return tr, f.Close, nil
	}
}

// openBinaryTrace resolves the ambiguity spec §6 leaves unaddressed:
// a bare ".tbin"/".bin" file may hold either container-form or
// logger-form cycles, and nothing on disk says which. This
// reimplementation probes container-form first (its header is
// self-checking) and falls back to logger-form on corruption.
func openBinaryTrace(path string, opts ...ReaderOption) (TraceReader, func() error, error) {
	tr, err := NewFileTraceReader(path, ContainerForm, opts...)
	if err == nil {
		return tr, tr.Close, nil
	}

	tr, lerr := NewFileTraceReader(path, LoggerForm, opts...)
	if lerr != nil {
		return nil, nil, err
	}
	return tr, tr.Close, nil
}
