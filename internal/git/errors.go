package git

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// RepoError is a classified repository failure.
//
// Kind is one of the taxonomy sentinels in internal/errors, so callers can
// test errors.Is(err, apperrors.ErrRebaseConflict). Cause, when set, is the
// underlying failure (process exit, launch error, parse error).
type RepoError struct {
	Kind    error
	Message string
	Ref     string // offending reference, only for ErrCannotFindReference
	Cause   error
}

func (e *RepoError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *RepoError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ExitError describes a git process that exited with a non-zero status.
type ExitError struct {
	Args     []string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
}

// newRepositoryError builds an ErrRepository failure.
func newRepositoryError(message string, cause error) *RepoError {
	return &RepoError{Kind: apperrors.ErrRepository, Message: message, Cause: cause}
}

// Kind returns the taxonomy sentinel err belongs to, or nil when err is not
// a classified repository failure.
func Kind(err error) error {
	var repoErr *RepoError
	if errors.As(err, &repoErr) {
		return repoErr.Kind
	}
	return nil
}

// KindName returns a stable, machine-friendly name for the kind of err.
// A nil error is "ok"; an unclassified error is "error".
func KindName(err error) string {
	if err == nil {
		return "ok"
	}
	switch {
	case errors.Is(err, apperrors.ErrEmptyChange):
		return "empty_change"
	case errors.Is(err, apperrors.ErrRebaseConflict):
		return "rebase_conflict"
	case errors.Is(err, apperrors.ErrCannotFindReference):
		return "cannot_find_reference"
	case errors.Is(err, apperrors.ErrRepository):
		return "repository_error"
	default:
		return "error"
	}
}
