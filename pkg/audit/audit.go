// Package audit appends one JSON line per vault operation to events.jsonl
// inside the vault root. The log is best effort: a vault on a read-only
// mount still works, it just goes unlogged. Events never contain record
// bodies, blob content, passwords or key material.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the log file inside a vault root.
const FileName = "events.jsonl"

// Event is one logged operation.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Op        string    `json:"op"`
	Target    string    `json:"target,omitempty"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
}

// Logger appends events to a single vault's log. The zero value is a no-op
// logger; use New for a real one.
type Logger struct {
	mu   sync.Mutex
	path string
}

// New returns a logger writing to events.jsonl under root.
func New(root string) *Logger {
	return &Logger{path: filepath.Join(root, FileName)}
}

// Record logs one completed operation. err == nil logs result "ok";
// otherwise result "error" with the error text. Logging failures are
// swallowed: the audit trail never fails the operation it describes.
func (l *Logger) Record(op, target string, err error) {
	if l == nil || l.path == "" {
		return
	}

	ev := Event{
		Timestamp: time.Now().UTC(),
		Op:        op,
		Target:    target,
		Result:    "ok",
	}
	if err != nil {
		ev.Result = "error"
		ev.Error = err.Error()
	}

	line, marshalErr := json.Marshal(&ev)
	if marshalErr != nil {
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, openErr := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if openErr != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(line)
}
