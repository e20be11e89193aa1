// Package diag emits JSON-line diagnostic records for hook executions.
// Records go to stderr so they never interfere with the decision contract
// on stdout.
package diag

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Record is a single diagnostic entry. Hook, Event, and Timestamp are always
// present.
type Record struct {
	Hook      string    `json:"hook"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger writes diagnostic records as JSON lines.
type Logger struct {
	mu   sync.Mutex
	w    io.Writer
	hook string

	// now is swappable for tests.
	now func() time.Time
}

// NewLogger creates a logger for the named hook writing to w.
func NewLogger(w io.Writer, hook string) *Logger {
	return &Logger{w: w, hook: hook, now: time.Now}
}

// Emit writes an informational record.
func (l *Logger) Emit(event, message string) {
	l.write(Record{Event: event, Message: message})
}

// Errorf writes an error record.
func (l *Logger) Errorf(event string, err error) {
	rec := Record{Event: event}
	if err != nil {
		rec.Error = err.Error()
	}
	l.write(rec)
}

func (l *Logger) write(rec Record) {
	if l == nil || l.w == nil {
		return
	}
	rec.Hook = l.hook
	rec.Timestamp = l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_, _ = l.w.Write(append(data, '\n'))
}
