package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
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
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
}

// NewLoggerTo builds a DefaultLogger that writes every level to the given logger.
// Used when stdout belongs to a terminal canvas.
func NewLoggerTo(prefix string, debug bool, l *log.Logger) *DefaultLogger {
	return &DefaultLogger{debug: debug, prefix: prefix, out: l, err: l}
}

// With returns a logger sharing the destination but carrying a sub-prefix.
func (l *DefaultLogger) With(prefix string) *DefaultLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := prefix
	if l.prefix != "" {
		p = l.prefix + "/" + prefix
	}
	return &DefaultLogger{debug: l.debug, prefix: p, out: l.out, err: l.err}
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

func (l *DefaultLogger) prefixf(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

type nopLogger struct{}

func NewNopLogger() Logger                                 { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                    { return false }
func (n *nopLogger) SetDebug(enabled bool)                 {}
func (n *nopLogger) Debugf(format string, args ...any)     {}
func (n *nopLogger) Infof(format string, args ...any)      {}
func (n *nopLogger) Warnf(format string, args ...any)      {}
func (n *nopLogger) Errorf(format string, args ...any)     {}

// OrNop returns l, or a no-op logger when l is nil. Never returns nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
