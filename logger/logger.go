// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"

	"github.com/netdata/hostprobe/pkg/executable"
)

var (
	isTerm    = isatty.IsTerminal(os.Stderr.Fd())
	isJournal = isStderrConnectedToJournal()
)

var nopLogger = &Logger{sl: slog.New(nopHandler{})}

// New creates a Logger writing to stderr.
// The terminal handler is used when stderr is a TTY, plain text otherwise.
func New() *Logger {
	if isTerm {
		return &Logger{sl: slog.New(withCallDepth(4, newTerminalHandler()))}
	}
	sl := slog.New(withCallDepth(4, newTextHandler())).With(slog.String("app", executable.Name))
	return &Logger{sl: sl}
}

// NewWithHandler is used by tests to capture records.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{sl: slog.New(withCallDepth(4, h))}
}

// Nop returns a logger that discards everything.
func Nop() *Logger { return nopLogger }

type Logger struct {
	muted atomic.Bool
	sl    *slog.Logger
}

func (l *Logger) Error(a ...any)   { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Warning(a ...any) { l.log(slog.LevelWarn, fmt.Sprint(a...)) }
func (l *Logger) Notice(a ...any)  { l.log(levelNotice, fmt.Sprint(a...)) }
func (l *Logger) Info(a ...any)    { l.log(slog.LevelInfo, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any)   { l.log(slog.LevelDebug, fmt.Sprint(a...)) }

func (l *Logger) Errorf(format string, a ...any)   { l.log(slog.LevelError, fmt.Sprintf(format, a...)) }
func (l *Logger) Warningf(format string, a ...any) { l.log(slog.LevelWarn, fmt.Sprintf(format, a...)) }
func (l *Logger) Noticef(format string, a ...any)  { l.log(levelNotice, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)    { l.log(slog.LevelInfo, fmt.Sprintf(format, a...)) }
func (l *Logger) Debugf(format string, a ...any)   { l.log(slog.LevelDebug, fmt.Sprintf(format, a...)) }

// Mute suppresses everything but errors until Unmute is called.
func (l *Logger) Mute()   { l.mute(true) }
func (l *Logger) Unmute() { l.mute(false) }

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if l.isNil() {
		return &Logger{sl: New().sl.With(args...)}
	}
	ll := &Logger{sl: l.sl.With(args...)}
	ll.muted.Store(l.muted.Load())
	return ll
}

func (l *Logger) log(level slog.Level, msg string) {
	if l.isNil() {
		nilLogger.sl.Log(context.Background(), level, msg)
		return
	}
	if !l.muted.Load() || level >= slog.LevelError {
		l.sl.Log(context.Background(), level, msg)
	}
}

func (l *Logger) mute(v bool) {
	if l.isNil() || isTerm && Level.Enabled(slog.LevelDebug) {
		return
	}
	l.muted.Store(v)
}

func (l *Logger) isNil() bool { return l == nil || l.sl == nil }

var nilLogger = New()

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
