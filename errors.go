// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rvtrace

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrBufferOverflow is returned by fixed-capacity writers and the
	// cycle logger when a write would exceed their destination's
	// capacity.
	ErrBufferOverflow = errors.New("rvtrace: buffer overflow")

	// ErrOverflow is returned by size computations that would exceed
	// int64/uint32 range.
	ErrOverflow = errors.New("rvtrace: size computation overflow")

	// ErrAmbiguousPC is returned when a container cycle carries both a
	// Pc32 and a Pc64 meta entry (spec §9 Open Question, resolved:
	// forbidden rather than mechanically resolved like the original).
	ErrAmbiguousPC = errors.New("rvtrace: cycle has both Pc32 and Pc64 nodes")

	// ErrNoPC is returned when a cycle has neither a BasicInfo nor a
	// Pc32/Pc64 node to derive a program counter from.
	ErrNoPC = errors.New("rvtrace: cycle has no PC information")

	// ErrLoggerSealed is returned by CycleLogger.Add/Break after
	// Finish has already been called.
	ErrLoggerSealed = errors.New("rvtrace: logger already finished")

	// ErrUnknownForm is returned when a MemoryTraceReader is asked to
	// operate in a CycleForm it does not recognize.
	ErrUnknownForm = errors.New("rvtrace: unknown cycle form")

	// ErrEmptyTrace is returned when an operation that needs at least
	// one cycle (such as check-io's walk to the last cycle) is given a
	// trace with none.
	ErrEmptyTrace = errors.New("rvtrace: trace has no cycles")

	// ErrNoIONode is returned when check-io's walk reaches the last
	// cycle of a trace that never recorded an Io node.
	ErrNoIONode = errors.New("rvtrace: cycle has no Io node")
)

// FileOpenError is returned when a trace file cannot be opened or
// read.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rvtrace: failed to open %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("rvtrace: failed to open %q", e.Path)
}

func (e *FileOpenError) Unwrap() error { return e.Err }

// CorruptionError reports an internal inconsistency detected while
// parsing a cycle or advancing a trace reader: a bad header/footer,
// an out-of-range offset, or a meta-entry size mismatch.
type CorruptionError struct {
	Offset    int64
	HasOffset bool
	Reason    string
}

func (e *CorruptionError) Error() string {
	if e.HasOffset {
		return fmt.Sprintf("rvtrace: corruption detected: %s (offset:0x%x)", e.Reason, e.Offset)
	}
	return fmt.Sprintf("rvtrace: corruption detected: %s", e.Reason)
}

func newCorruption(reason string) *CorruptionError {
	return &CorruptionError{Reason: reason}
}

func newCorruptionAt(reason string, offset int64) *CorruptionError {
	return &CorruptionError{Offset: offset, HasOffset: true, Reason: reason}
}

// NodeNotFoundError is returned when a (kind, index) lookup misses in
// a CycleBuilder or CycleView.
type NodeNotFoundError struct {
	Kind  NodeKind
	Index int
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("rvtrace: node not found: kind=%s index=%d", e.Kind, e.Index)
}

// SizeMismatchError is returned by CycleBuilder.SetNode when the
// supplied buffer does not match the node's configured size.
type SizeMismatchError struct {
	Kind     NodeKind
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("rvtrace: size mismatch for %s: expected %d, got %d", e.Kind, e.Expected, e.Actual)
}

// IndexOutOfRangeError is returned by register accessors on the
// unified Cycle interface.
type IndexOutOfRangeError struct {
	Index int
	N     int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("rvtrace: index %d out of range [0,%d)", e.Index, e.N)
}

// ParseError is returned by the text trace reader when a line contains
// an unrecognized literal, and by ParseFilter for a malformed filter
// string. The GDB log reader skips such lines instead.
type ParseError struct {
	Literal    string
	HasLiteral bool
}

func (e *ParseError) Error() string {
	if e.HasLiteral {
		return fmt.Sprintf("rvtrace: parse error: unknown literal %q", e.Literal)
	}
	return "rvtrace: parse error"
}

// NotImplementedError is returned for reserved or partially-specified
// features.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("rvtrace: not implemented: %s", e.Feature)
}
