// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag collects compiler diagnostics. All phases report through one
// Logger; error counts are checkpointed between phases so a failing phase
// stops the run before the next one consumes bad data.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mfc-lang/mfc/ir"
)

// A Level classifies a diagnostic.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

var levelName = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string { return levelName[l] }

func (l Level) slogLevel() slog.Level {
	switch l {
	case Trace:
		return slog.LevelDebug - 4
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// A Logger receives all diagnostics of one compiler run.
type Logger struct {
	mu         sync.Mutex
	sl         *slog.Logger
	minLevel   Level
	fatalWarns bool // -Wfatal: warnings count as errors
	errorCount int  // errors since the last checkpoint
	exit       func(code int)
}

// New creates a logger writing human-readable diagnostics to w.
func New(w io.Writer, minLevel Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: minLevel.slogLevel(),
	})
	return &Logger{
		sl:       slog.New(h),
		minLevel: minLevel,
		exit:     os.Exit,
	}
}

// SetFatalWarnings makes warnings count toward the error total (-Wfatal).
func (l *Logger) SetFatalWarnings(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fatalWarns = on
}

// SetExit overrides process termination, for tests.
func (l *Logger) SetExit(fn func(code int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exit = fn
}

func (l *Logger) log(level Level, pos *ir.Position, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel && level < Error {
		if level == Warn && l.fatalWarns {
			l.errorCount++
		}
		return
	}
	msg := fmt.Sprintf(format, args...)
	attrs := []any{}
	if pos != nil {
		attrs = append(attrs, "file", pos.File, "line", pos.Line)
	}
	l.sl.Log(context.Background(), level.slogLevel(), msg, attrs...)
	switch level {
	case Error:
		l.errorCount++
	case Warn:
		if l.fatalWarns {
			l.errorCount++
		}
	case Fatal:
		l.exit(1)
	}
}

// Tracef logs a trace-level diagnostic.
func (l *Logger) Tracef(format string, args ...any) { l.log(Trace, nil, format, args...) }

// Debugf logs a debug-level diagnostic.
func (l *Logger) Debugf(format string, args ...any) { l.log(Debug, nil, format, args...) }

// Infof logs an informational diagnostic.
func (l *Logger) Infof(format string, args ...any) { l.log(Info, nil, format, args...) }

// Warnf logs a warning. Warnings are non-fatal unless -Wfatal.
func (l *Logger) Warnf(format string, args ...any) { l.log(Warn, nil, format, args...) }

// Errorf logs an error attributed to a source position (nil allowed).
func (l *Logger) Errorf(pos *ir.Position, format string, args ...any) {
	l.log(Error, pos, format, args...)
}

// Fatalf logs a fatal diagnostic and aborts the run immediately.
func (l *Logger) Fatalf(format string, args ...any) { l.log(Fatal, nil, format, args...) }

// ErrorCount returns the number of errors since the last checkpoint.
func (l *Logger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorCount
}

// AssertNoErrors checkpoints the error count after a phase. If any errors
// occurred since the previous checkpoint, it reports the failing phase and
// returns false; the driver must stop the run.
func (l *Logger) AssertNoErrors(phase string) bool {
	l.mu.Lock()
	n := l.errorCount
	l.errorCount = 0
	l.mu.Unlock()
	if n > 0 {
		l.Infof("%s failed with %d error(s)", phase, n)
		return false
	}
	return true
}
