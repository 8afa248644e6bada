// Package obslog is a minimal leveled logger for the ambient observability
// the pipeline needs (plan-cache misses, dropped palette entries) without pulling
// in a structured logging dependency nothing else in the module needs.
package obslog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes leveled lines to an underlying writer. The zero value logs
// to os.Stderr.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
}

// New returns a Logger writing to w. A nil w defaults to os.Stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w}
}

func (l *Logger) writer() io.Writer {
	if l == nil || l.out == nil {
		return os.Stderr
	}
	return l.out
}

// Debugf logs a low-priority diagnostic line, such as an FFT plan-cache miss.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer(), "debug: "+format+"\n", args...)
}

// Warnf logs a recoverable problem, such as a dropped palette entry.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer(), "warn: "+format+"\n", args...)
}
