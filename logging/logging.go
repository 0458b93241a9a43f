// Package logging provides the leveled Logger used by every controller package.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type DefaultLogger struct {
	mu    sync.Mutex
	debug bool
	out   zerolog.Logger
	err   zerolog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLoggerTo(
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"},
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"},
		prefix,
		debug,
	)
}

// NewLoggerTo builds a logger writing info/debug to out and warn/error to errOut.
func NewLoggerTo(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return &DefaultLogger{
		debug: debug,
		out:   newZerolog(out, prefix),
		err:   newZerolog(errOut, prefix),
	}
}

func newZerolog(w io.Writer, prefix string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if prefix != "" {
		ctx = ctx.Str("component", prefix)
	}
	return ctx.Logger()
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Debug().Msgf(format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Info().Msgf(format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Warn().Msgf(format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Error().Msgf(format, args...)
}

type nopLogger struct{}

func NewNopLogger() Logger                            { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// OrNop returns l, or a no-op logger when l is nil. Never returns nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
