// Package logging holds the quest UI logging helpers shared by the dev server,
// the CLI and the submission detail controller.
package logging

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger represents the minimal logging interface used across the project.
type Logger interface {
	Printf(format string, v ...any)
}

type stdLoggerProvider interface {
	StdLogger() *log.Logger
}

type stdLogger struct {
	base *log.Logger
}

type prefixedLogger struct {
	prefix string
	next   Logger
}

type discardLogger struct{}

type newlineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

var (
	defaultWriter   io.Writer = os.Stdout
	defaultWriterMu sync.RWMutex
)

// New returns a Logger that writes to the default writer using Go's date/time flags.
func New() Logger {
	return NewWithWriter(getDefaultWriter())
}

// NewWithWriter builds a Logger that writes to w and keeps a blank line
// between timestamped entries.
func NewWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	adapter := &newlineWriter{w: w}
	return &stdLogger{base: log.New(adapter, "", log.LstdFlags)}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return discardLogger{}
}

// OrDiscard returns logger, or a discarding Logger when logger is nil.
func OrDiscard(logger Logger) Logger {
	if logger == nil {
		return discardLogger{}
	}
	return logger
}

// WithPrefix tags every entry written through the returned Logger.
func WithPrefix(logger Logger, prefix string) Logger {
	if logger == nil {
		return discardLogger{}
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return logger
	}
	return prefixedLogger{prefix: prefix, next: logger}
}

// SetDefaultWriter overrides the writer used by New().
func SetDefaultWriter(w io.Writer) {
	defaultWriterMu.Lock()
	defer defaultWriterMu.Unlock()
	if w == nil {
		defaultWriter = os.Stdout
		return
	}
	defaultWriter = w
}

func getDefaultWriter() io.Writer {
	defaultWriterMu.RLock()
	defer defaultWriterMu.RUnlock()
	return defaultWriter
}

// AsStdLogger returns the underlying *log.Logger when available so packages
// like net/http can keep using their native logger type.
func AsStdLogger(logger Logger) *log.Logger {
	if logger == nil {
		return nil
	}
	if provider, ok := logger.(stdLoggerProvider); ok {
		return provider.StdLogger()
	}
	return nil
}

func (l *stdLogger) Printf(format string, v ...any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Printf(format, v...)
}

func (l *stdLogger) StdLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.base
}

func (l prefixedLogger) Printf(format string, v ...any) {
	l.next.Printf("[%s] %s", l.prefix, fmt.Sprintf(format, v...))
}

func (l prefixedLogger) StdLogger() *log.Logger {
	return AsStdLogger(l.next)
}

func (discardLogger) Printf(string, ...any) {}

func (w *newlineWriter) Write(p []byte) (int, error) {
	if w == nil || w.w == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write([]byte("\n")); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := w.w.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WithHTTPLogging wraps the handler so every request/response pair is logged.
// Request bodies are never dumped: uploads routinely carry tens of megabytes.
func WithHTTPLogging(next http.Handler, logger Logger) http.Handler {
	if logger == nil || next == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dump, err := httputil.DumpRequest(r, false); err == nil {
			logger.Printf("---- %s %s from %s ----\n%s", r.Method, r.URL.Path, r.RemoteAddr, strings.TrimSpace(string(dump)))
		} else {
			logger.Printf("failed to dump request from %s: %v", r.RemoteAddr, err)
		}

		started := time.Now()
		lrw := newStatusRecorder(w)
		next.ServeHTTP(lrw, r)

		status := lrw.StatusCode()
		logger.Printf(
			"---- %s %s -> %d %s (%d bytes, %s) ----",
			r.Method,
			r.URL.Path,
			status,
			http.StatusText(status),
			lrw.written,
			time.Since(started).Round(time.Millisecond),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.written += int64(n)
	return n, err
}

func (s *statusRecorder) StatusCode() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
