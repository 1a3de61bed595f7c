// Package output provides structured output and exit-code handling for the gitmigrate CLI.
package output

import (
	"errors"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// Exit codes:
// 0 = Success, including an empty change
// 1 = User error (bad args, unknown reference)
// 2 = System error (git failed to run, I/O error, lock held)
// 3 = Conflict (rebase could not merge)
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
	ExitConflict    = 3
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for user-caused issues (exit code 1).
func NewUserError(message string) *ExitError {
	return &ExitError{
		Code:    ExitUserError,
		Message: message,
	}
}

// NewSystemErrorWithCause creates a system error wrapping an underlying cause.
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitSystemError,
		Message: message,
		Cause:   cause,
	}
}

// ExitCode extracts the exit code from an error.
// An explicit ExitError wins; otherwise the repository error kind decides.
// Unclassified errors are user errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, apperrors.ErrEmptyChange):
		return ExitSuccess
	case errors.Is(err, apperrors.ErrRebaseConflict):
		return ExitConflict
	case errors.Is(err, apperrors.ErrCannotFindReference),
		errors.Is(err, apperrors.ErrInvalidRef),
		errors.Is(err, apperrors.ErrInvalidSHA1):
		return ExitUserError
	case errors.Is(err, apperrors.ErrRepository),
		errors.Is(err, apperrors.ErrGitNotFound),
		errors.Is(err, apperrors.ErrRepositoryLocked):
		return ExitSystemError
	default:
		return ExitUserError
	}
}
