package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klytics/conokit/cmd/version"
)

// JSONResult is the envelope every --json command prints.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// NewResult wraps data in a success envelope.
func NewResult(cmd string, data interface{}) JSONResult {
	return JSONResult{OK: true, Command: cmd, Version: version.Version, Data: data}
}

// ErrorResult wraps err in a failure envelope.
func ErrorResult(cmd string, err error, code int) JSONResult {
	return JSONResult{OK: false, Command: cmd, Version: version.Version, Error: err.Error(), Code: code}
}

// Encode writes v as indented JSON.
func Encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode JSON: %w", err)
	}
	return nil
}

// PrintJSON writes a success envelope to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return Encode(os.Stdout, NewResult(cmd, data))
}

// PrintJSONError writes a failure envelope to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return Encode(os.Stdout, ErrorResult(cmd, err, code))
}
