// Package accesslog implements the request log sink: one TAB-separated
// line per served connection, of the form
//
//	YYYY-MM-DDTHH:MM:SS<TAB>peer<TAB>status<TAB>target
//
// Timestamps are UTC. Writes are serialized so concurrent connection
// workers never interleave lines.
package accesslog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const timeLayout = "2006-01-02T15:04:05"

// Logger is an append-only access log sink.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// Discard drops every line. Useful as an explicit no-op sink in tests.
var Discard = &Logger{w: io.Discard}

// New opens an access log sink. output is "stdout", "stderr", or a file
// path opened for append; the empty string means stdout.
func New(output string) (*Logger, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return &Logger{w: os.Stdout}, nil
	case "stderr":
		return &Logger{w: os.Stderr}, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open access log %q: %w", output, err)
		}
		return &Logger{w: f, closer: f}, nil
	}
}

// NewWithWriter wraps an arbitrary writer. Primarily for tests.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Log appends one line for a finished connection. target is the decoded
// request target as received, or empty when parsing failed before target
// extraction. Write failures are ignored; the log is best-effort.
func (l *Logger) Log(ts time.Time, peer string, status int, target string) {
	line := fmt.Sprintf("%s\t%s\t%d\t%s\n", ts.UTC().Format(timeLayout), peer, status, target)

	l.mu.Lock()
	_, _ = io.WriteString(l.w, line)
	l.mu.Unlock()
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
