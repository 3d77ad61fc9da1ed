// Package progress renders a single-line progress bar for multi-Cono runs. Output goes
// to stderr so stdout stays clean for --json and pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Bar is a progress bar safe for use from concurrent workers.
type Bar struct {
	Total   int
	Label   string
	Width   int
	Enabled bool

	mu      sync.Mutex
	current int
	out     io.Writer
}

// New creates a bar on stderr. It is disabled when stderr is not a terminal, when
// json is set, or when GRPH_NO_PROGRESS=1.
func New(label string, total int, json bool) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: !json && os.Getenv("GRPH_NO_PROGRESS") != "1" && isTTY(),
		out:     os.Stderr,
	}
}

// NewWriter creates an enabled bar writing to w.
func NewWriter(w io.Writer, label string, total int) *Bar {
	return &Bar{Total: total, Label: label, Width: 30, Enabled: true, out: w}
}

// Increment advances the bar by one and redraws it with status.
func (b *Bar) Increment(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current < b.Total {
		b.current++
	}
	b.render(status)
}

// Current returns the number of completed steps.
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Finish clears the bar line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Enabled {
		fmt.Fprint(b.out, "\r\033[K")
	}
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}
	filled := 0
	if b.Total > 0 {
		filled = b.current * b.Width / b.Total
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.Width-filled)
	fmt.Fprintf(b.out, "\r\033[K%s [%s] %d/%d  %s", b.Label, bar, b.current, b.Total, status)
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
