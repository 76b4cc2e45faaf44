// Package rlog is a small leveled logger wrapping the standard library's
// log.Logger, driven by the CLI's -v[N] verbosity flag (spec.md §6's
// `-v[N]` / `HPCRUN_DEBUG` verbosity knobs). No structured-logging
// dependency appears anywhere in the retrieved pack, so this stays a thin
// wrapper in the teacher's own bare-struct style rather than reaching for
// one.
package rlog

import (
	"io"
	"log"
	"os"
)

// Level is the logger's verbosity threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger emits leveled messages to an underlying *log.Logger, gated by
// Level.
type Logger struct {
	level Level
	out   *log.Logger
	warned map[string]bool
}

// New creates a Logger writing to w at the given verbosity level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

// Default returns a Logger writing to stderr at LevelWarn, the CLI's
// default verbosity before any -v flag is parsed.
func Default() *Logger { return New(os.Stderr, LevelWarn) }

// SetLevel changes the logger's verbosity threshold, e.g. from the CLI's
// parsed -v[N] flag.
func (l *Logger) SetLevel(level Level) { l.level = level }

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level >= LevelError {
		l.out.Printf("error: "+format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.level >= LevelWarn {
		l.out.Printf("warning: "+format, args...)
	}
}

// WarnOnce emits a warning the first time it is called for a given key and
// is silent on every later call with the same key — used for the "warn
// once per file" disposition (spec.md §7's "source file not found on any
// -I path" error kind).
func (l *Logger) WarnOnce(key, format string, args ...interface{}) {
	if l.warned == nil {
		l.warned = make(map[string]bool)
	}
	if l.warned[key] {
		return
	}
	l.warned[key] = true
	l.Warnf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LevelInfo {
		l.out.Printf(format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		l.out.Printf("debug: "+format, args...)
	}
}
