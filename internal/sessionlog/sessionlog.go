// Package sessionlog records the events and commentary of one session as
// a flat JSON file for offline review.
package sessionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// ErrClosed is returned when recording into a closed log.
var ErrClosed = errors.New("session log closed")

// Entry is one record of the log.
type Entry struct {
	Timestamp      time.Time             `json:"timestamp"`
	Event          event.ClassifiedEvent `json:"event"`
	CommentaryText string                `json:"commentaryText"`
}

// Recorder buffers entries in order and writes them to
// <dir>/session-<id>.json.
type Recorder struct {
	path string

	mu      sync.Mutex
	entries []Entry
	closed  bool
}

// New returns a recorder for session id under dir.
func New(dir, id string) *Recorder {
	return &Recorder{path: filepath.Join(dir, fmt.Sprintf("session-%s.json", id))}
}

// Path returns the file the log is written to.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends the line and its source event.
func (r *Recorder) Record(line event.CommentaryLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	e := Entry{Timestamp: line.Timestamp, CommentaryText: line.Text}
	if line.Source != nil {
		e.Event = line.Source.Clone()
	}
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Flush writes every entry recorded so far. The file is replaced
// atomically so readers never see a partial log.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	entries := r.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session log directory: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// Close flushes the log and rejects further records. Closing twice is a
// no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.flushLocked()
}

// Read loads a session log file.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse session log: %w", err)
	}
	return entries, nil
}
