package cmd

import (
	"context"
	"errors"
)

// Process exit codes.
const (
	ExitFailure = 1
	// ExitConfig covers unreadable config, invalid languages and missing
	// notifier credentials: problems a rerun will not fix.
	ExitConfig      = 2
	ExitInterrupted = 130
)

// ExitError wraps an error with a specific process exit code.
// Use errors.As to extract it from an error chain.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// configError marks err as a project configuration problem.
func configError(err error) *ExitError {
	return &ExitError{Code: ExitConfig, Err: err}
}

// ExitCode maps a command error to the process exit code. An ExitError in
// the chain wins; a canceled run exits with ExitInterrupted.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return ExitFailure
}
