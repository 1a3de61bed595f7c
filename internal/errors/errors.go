// Package errors provides sentinel errors for gitmigrate operations.
package errors

import "errors"

// Repository error kinds. Every classified git failure matches exactly one of these.
var (
	// ErrEmptyChange indicates the requested change has no net effect.
	// Callers usually treat it as an already-migrated change, not a failure.
	ErrEmptyChange = errors.New("empty change")

	// ErrRebaseConflict indicates an automatic history replay could not merge.
	ErrRebaseConflict = errors.New("rebase conflict")

	// ErrCannotFindReference indicates a named reference or path does not exist.
	ErrCannotFindReference = errors.New("cannot find reference")

	// ErrRepository indicates an unexpected repository failure.
	ErrRepository = errors.New("repository error")
)

// Git errors
var (
	// ErrGitNotFound indicates the git executable could not be located.
	ErrGitNotFound = errors.New("git command not found")

	// ErrMissingGitDir indicates the repository metadata directory does not exist.
	ErrMissingGitDir = errors.New("git directory does not exist or is not a directory")

	// ErrInvalidSHA1 indicates a string is not a complete 40 character SHA-1.
	ErrInvalidSHA1 = errors.New("not a complete 40 character SHA-1")

	// ErrInvalidRef indicates a reference name failed input validation.
	ErrInvalidRef = errors.New("invalid git ref")
)

// Lock errors
var (
	// ErrRepositoryLocked indicates another operation holds the repository lock.
	ErrRepositoryLocked = errors.New("repository is locked by another operation")
)

// Ledger errors
var (
	// ErrResolutionNotFound indicates no recorded resolution matched the query.
	ErrResolutionNotFound = errors.New("resolution not found")
)
