// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/rvtrace/rvtrace/internal/tracemetrics"
)

// indexFileSuffix and shardPath name an index trace's on-disk
// layout (spec §4.10): "<base>.tidx" plus "<base>.N.tbin" shards.
const indexFileSuffix = ".tidx"

func shardPath(base string, n int) string {
	return fmt.Sprintf("%s.%d.tbin", base, n)
}

// IndexOption configures a TraceIndexWriter.
type IndexOption func(*indexConfig)

type indexConfig struct {
	cycleCap int
	byteCap  int64
	metrics  *tracemetrics.Registry
}

// WithShardCycleCap overrides the per-shard cycle count cap.
func WithShardCycleCap(n int) IndexOption {
	return func(c *indexConfig) { c.cycleCap = n }
}

// WithShardByteCap overrides the per-shard byte size cap.
func WithShardByteCap(n int64) IndexOption {
	return func(c *indexConfig) { c.byteCap = n }
}

// WithIndexMetrics attaches a metrics registry incremented on shard
// rollover and cycle writes.
func WithIndexMetrics(reg *tracemetrics.Registry) IndexOption {
	return func(c *indexConfig) { c.metrics = reg }
}

// TraceIndexWriter fans append-only logger-form cycle bytes out
// across size-capped shard files, recording each shard's path and
// final cycle count in a line-oriented index file (spec §4.10).
type TraceIndexWriter struct {
	base     string
	cycleCap int
	byteCap  int64
	metrics  *tracemetrics.Registry

	indexFile *os.File

	shardN      int
	shard       *os.File
	shardCycles int
	shardBytes  int64
}

// NewTraceIndexWriter creates "<base>.tidx" and opens the first shard
// at "<base>.0.tbin".
func NewTraceIndexWriter(base string, opts ...IndexOption) (*TraceIndexWriter, error) {
	cfg := indexConfig{cycleCap: DefaultShardCycleCap(), byteCap: DefaultShardByteCap}
	for _, opt := range opts {
		opt(&cfg)
	}

	indexFile, err := os.Create(base + indexFileSuffix)
	if err != nil {
		return nil, &FileOpenError{Path: base + indexFileSuffix, Err: err}
	}

	w := &TraceIndexWriter{
		base:     base,
		cycleCap: cfg.cycleCap,
		byteCap:  cfg.byteCap,
		metrics:  cfg.metrics,

		indexFile: indexFile,
	}
	if err := w.openShard(); err != nil {
		indexFile.Close()
		return nil, err
	}
	return w, nil
}

func (w *TraceIndexWriter) openShard() error {
	path := shardPath(w.base, w.shardN)
	f, err := os.Create(path)
	if err != nil {
		return &FileOpenError{Path: path, Err: err}
	}
	if _, err := fmt.Fprintln(w.indexFile, path); err != nil {
		f.Close()
		return err
	}
	w.shard = f
	w.shardCycles = 0
	w.shardBytes = 0
	return nil
}

// closeShard flushes the shard's final cycle count to the index file
// and closes the shard.
func (w *TraceIndexWriter) closeShard() error {
	if _, err := fmt.Fprintln(w.indexFile, w.shardCycles); err != nil {
		return err
	}
	return w.shard.Close()
}

// Write appends cycleBytes to the active shard, rolling to a new
// shard first when either configured cap would be exceeded.
func (w *TraceIndexWriter) Write(cycleBytes []byte) error {
	if w.shardCycles >= w.cycleCap || w.shardBytes+int64(len(cycleBytes)) > w.byteCap {
		if err := w.closeShard(); err != nil {
			return err
		}
		w.shardN++
		if err := w.openShard(); err != nil {
			return err
		}
		w.metrics.IncShardsRolled()
	}

	if _, err := w.shard.Write(cycleBytes); err != nil {
		return err
	}
	w.shardCycles++
	w.shardBytes += int64(len(cycleBytes))
	w.metrics.IncCyclesWritten()
	return nil
}

// Close performs the final shard's close sequence and closes the
// index file.
func (w *TraceIndexWriter) Close() error {
	if err := w.closeShard(); err != nil {
		w.indexFile.Close()
		return err
	}
	return w.indexFile.Close()
}

// indexEntry is one (shard path, cycle count) pair parsed from an
// index file.
type indexEntry struct {
	path   string
	cycles int
}

// TraceIndexReader replays an index-written trace shard by shard,
// presenting the same forward-cursor surface as a single
// FileTraceReader (spec §4.10).
type TraceIndexReader struct {
	entries []indexEntry
	index   int
	opts    []ReaderOption

	active *FileTraceReader
}

// NewTraceIndexReader parses "<base>.tidx" and opens the first shard.
func NewTraceIndexReader(base string, opts ...ReaderOption) (*TraceIndexReader, error) {
	path := base + indexFileSuffix
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer f.Close()

	var entries []indexEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		shardPath := sc.Text()
		if !sc.Scan() {
			return nil, newCorruption("index file has an odd number of lines")
		}
		count, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, newCorruption("index file cycle count is not an integer: " + sc.Text())
		}
		entries = append(entries, indexEntry{path: shardPath, cycles: count})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	r := &TraceIndexReader{entries: entries, opts: opts}

	if len(entries) > 0 {
		if err := r.openShard(0); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *TraceIndexReader) openShard(i int) error {
	fr, err := NewFileTraceReader(r.entries[i].path, LoggerForm, r.opts...)
	if err != nil {
		return err
	}
	r.active = fr
	r.index = i
	return nil
}

// IsEnd reports whether every shard has been fully consumed.
func (r *TraceIndexReader) IsEnd() bool {
	return r.active == nil
}

// CurrentCycle delegates to the active shard's reader.
func (r *TraceIndexReader) CurrentCycle() (Cycle, error) {
	if r.IsEnd() {
		return nil, newCorruption("CurrentCycle called at End")
	}
	return r.active.CurrentCycle()
}

// Next delegates to the active shard, tearing it down and opening the
// next shard when the active reader reaches its own End.
func (r *TraceIndexReader) Next() error {
	if r.IsEnd() {
		return newCorruption("Next called at End")
	}
	if err := r.active.Next(); err != nil {
		return err
	}

	if r.active.IsEnd() {
		if err := r.active.Close(); err != nil {
			return err
		}
		r.active = nil

		if r.index+1 < len(r.entries) {
			if err := r.openShard(r.index + 1); err != nil {
				return err
			}
		}
	}
	return nil
}
