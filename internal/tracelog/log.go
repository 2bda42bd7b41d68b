// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package tracelog is a small leveled logger modeled on the shape of
// github.com/saferwall/pe's own log subpackage (Logger interface,
// level-filtering Filter, a Helper with Debugf/Infof/Warnf/Errorf).
package tracelog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink every helper writes through.
type Logger interface {
	Log(level Level, msg string) error
}

// stdLogger writes timestamped, leveled lines to an io.Writer.
type stdLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w}
}

func (l *stdLogger) Log(level Level, msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintf(l.w, "%s [%s] %s\n", time.Now().UTC().Format(time.RFC3339Nano), level, msg)
	return err
}

// filterLogger drops any message below a minimum level.
type filterLogger struct {
	next Logger
	min  Level
}

// FilterOption configures a Filter-wrapped Logger.
type FilterOption func(*filterLogger)

// FilterLevel sets the minimum level that passes through the filter.
func FilterLevel(min Level) FilterOption {
	return func(f *filterLogger) { f.min = min }
}

// NewFilter wraps next so that only messages at or above the
// configured minimum level reach it.
func NewFilter(next Logger, opts ...FilterOption) Logger {
	f := &filterLogger{next: next, min: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filterLogger) Log(level Level, msg string) error {
	if level < f.min {
		return nil
	}
	return f.next.Log(level, msg)
}

// Helper provides printf-style convenience methods over a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper. A nil logger produces a Helper
// whose methods are all no-ops, so callers may pass a nil *Helper
// freely (e.g. when no logger was configured).
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, fmt.Sprintf(format, args...))
}

func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...interface{})  { h.log(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...interface{})  { h.log(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }

// Default returns a Helper writing to stderr at LevelWarn and above,
// the same default severity the teacher's CLI tools ship with.
func Default() *Helper {
	return NewHelper(NewFilter(NewStdLogger(os.Stderr), FilterLevel(LevelWarn)))
}
