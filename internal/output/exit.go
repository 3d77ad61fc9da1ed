// Package output holds the CLI's JSON envelope, exit codes and coloured status lines.
package output

import "errors"

// Exit codes.
const (
	ExitOK          = 0 // success, including runs where some charts were skipped
	ExitUserError   = 1 // bad flags, missing or invalid config
	ExitSystemError = 2 // a workbook could not be read or written
)

// ExitError carries the process exit code for err.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// WithCode tags err with an exit code. A nil err stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// CodeOf returns the exit code for err: ExitOK for nil, the tagged code when present,
// ExitUserError otherwise.
func CodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitUserError
}
