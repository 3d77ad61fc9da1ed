// Package runlog records per-chart and per-sheet outcomes of a single generation run.
package runlog

import (
	"fmt"
	"sync"
)

// Status is the outcome of one logged unit of work.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// SheetName is the name of the log sheet appended last to every output workbook.
const SheetName = "Run_Log"

// Header is the header row of the log sheet.
var Header = []string{"Chart", "Status", "Reason"}

// Entry is one line of the run log.
type Entry struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Log is an append-only list of entries. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Add appends an entry.
func (l *Log) Add(id string, status Status, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{ID: id, Status: status, Reason: reason})
}

// OK appends a successful entry.
func (l *Log) OK(id, format string, args ...any) {
	l.Add(id, StatusOK, fmt.Sprintf(format, args...))
}

// Skip appends a skipped entry.
func (l *Log) Skip(id, reason string) {
	l.Add(id, StatusSkipped, reason)
}

// Fail appends an error entry.
func (l *Log) Fail(id, reason string) {
	l.Add(id, StatusError, reason)
}

// Entries returns a copy of all entries in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns how many entries have the given status.
func (l *Log) Count(status Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Rows renders the log as sheet rows, header first.
func (l *Log) Rows() [][]string {
	entries := l.Entries()
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, e := range entries {
		rows = append(rows, []string{e.ID, string(e.Status), e.Reason})
	}
	return rows
}
