package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Status line kinds, matching the run log statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Symbol returns the coloured marker for a status.
func Symbol(status string) string {
	switch status {
	case StatusOK:
		return color.New(color.FgGreen).Sprint("✓")
	case StatusSkipped:
		return color.New(color.FgYellow).Sprint("!")
	case StatusError:
		return color.New(color.FgRed).Sprint("✗")
	}
	return "-"
}

// Line writes "  <symbol> <text>" to w.
func Line(w io.Writer, status, format string, args ...interface{}) {
	fmt.Fprintf(w, "  %s %s\n", Symbol(status), fmt.Sprintf(format, args...))
}

// Summary writes the closing counts line.
func Summary(w io.Writer, ok, skipped, failed int) {
	fmt.Fprintf(w, "\n  %d ok, %d skipped, %d failed\n", ok, skipped, failed)
}
