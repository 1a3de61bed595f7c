package git

import (
	"fmt"
	"regexp"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// emptyChangeMessage is reported when git had nothing to commit.
const emptyChangeMessage = "Migration of the revision resulted in an empty change. Is the change already migrated?"

var (
	nothingToCommitPattern = regexp.MustCompile(`nothing to commit, working (directory|tree) clean`)

	rebaseConflictPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Failed to merge in the changes`),
		regexp.MustCompile(`could not apply [0-9a-f]+`),
	}

	// Order matters: the first matching pattern supplies the reference name.
	refNotFoundPatterns = []*regexp.Regexp{
		regexp.MustCompile(`pathspec '(.+)' did not match any file`),
		regexp.MustCompile(`ambiguous argument '(.+)': unknown revision or path not in the working tree`),
		regexp.MustCompile(`fatal: Couldn't find remote ref ([^\n]+)\n`),
	}
)

// rule is one named classification step. It returns nil when it does not apply.
type rule struct {
	name  string
	match func(outcome Outcome, args []string) *RepoError
}

// rules are evaluated in order; the first match wins. The fallback rule
// always matches, so every failed outcome gets a kind.
var rules = []rule{
	{name: "nothing-to-commit", match: matchNothingToCommit},
	{name: "rebase-conflict", match: matchRebaseConflict},
	{name: "reference-not-found", match: matchReferenceNotFound},
	{name: "repository-error", match: matchRepositoryError},
}

// Rules returns the classification rule names in evaluation order.
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// Classify maps a failed git outcome to a *RepoError. It returns nil for a
// successful outcome. args is the argv that produced the outcome and is only
// used to describe the failure.
func Classify(outcome Outcome, args []string) error {
	_, err := classify(outcome, args)
	if err == nil {
		return nil
	}
	return err
}

// classify also reports the name of the rule that matched.
func classify(outcome Outcome, args []string) (string, *RepoError) {
	if outcome.Success() {
		return "", nil
	}
	for _, r := range rules {
		if err := r.match(outcome, args); err != nil {
			return r.name, err
		}
	}
	// unreachable: repository-error always matches
	return "", nil
}

func matchNothingToCommit(outcome Outcome, _ []string) *RepoError {
	if !nothingToCommitPattern.MatchString(outcome.Stdout) {
		return nil
	}
	return &RepoError{
		Kind:    apperrors.ErrEmptyChange,
		Message: emptyChangeMessage,
	}
}

func matchRebaseConflict(outcome Outcome, _ []string) *RepoError {
	for _, p := range rebaseConflictPatterns {
		if p.MatchString(outcome.Stderr) {
			return &RepoError{
				Kind:    apperrors.ErrRebaseConflict,
				Message: outcome.Stdout,
			}
		}
	}
	return nil
}

func matchReferenceNotFound(outcome Outcome, _ []string) *RepoError {
	for _, p := range refNotFoundPatterns {
		if m := p.FindStringSubmatch(outcome.Stderr); m != nil {
			return &RepoError{
				Kind:    apperrors.ErrCannotFindReference,
				Message: fmt.Sprintf("Cannot find reference '%s'", m[1]),
				Ref:     m[1],
			}
		}
	}
	return nil
}

func matchRepositoryError(outcome Outcome, args []string) *RepoError {
	cause := &ExitError{Args: append([]string(nil), args...), ExitCode: outcome.ExitCode}
	return newRepositoryError(
		fmt.Sprintf("Error executing 'git': %v. Stderr: \n%s", cause, outcome.Stderr),
		cause,
	)
}
