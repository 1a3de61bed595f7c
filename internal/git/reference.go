package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// OriginRevIDLabel is the commit metadata key that records the origin
// revision of a migrated change. Downstream tooling matches it verbatim.
const OriginRevIDLabel = "GitOrigin-RevId"

var (
	sha1Pattern         = regexp.MustCompile(`^[a-f0-9]{7,40}$`)
	completeSHA1Pattern = regexp.MustCompile(`^[a-f0-9]{40}$`)
)

// IsSHA1Reference reports whether text is 7 to 40 lowercase hex characters.
func IsSHA1Reference(text string) bool {
	return sha1Pattern.MatchString(text)
}

// IsCompleteSHA1Reference reports whether text is exactly 40 lowercase hex characters.
func IsCompleteSHA1Reference(text string) bool {
	return completeSHA1Pattern.MatchString(text)
}

// ShortSHA returns the first 7 characters of sha.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Reference identifies a point in the history of a repository.
type Reference struct {
	text string
	repo *Repository
}

// ResolveReference resolves text with rev-parse and wraps the canonical hash.
// Classified failures, usually ErrCannotFindReference, are returned unchanged.
func (r *Repository) ResolveReference(ctx context.Context, text string) (*Reference, error) {
	sha, err := r.RevParse(ctx, text)
	if err != nil {
		return nil, err
	}
	return &Reference{text: sha, repo: r}, nil
}

// CreateReferenceFromCompleteSHA1 wraps a trusted 40 character hash without
// running git.
func (r *Repository) CreateReferenceFromCompleteSHA1(text string) (*Reference, error) {
	if !IsCompleteSHA1Reference(text) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidSHA1, text)
	}
	return &Reference{text: text, repo: r}, nil
}

// AsString returns the text the reference was created from.
func (ref *Reference) AsString() string { return ref.text }

func (ref *Reference) String() string { return ref.text }

// Repository returns the handle the reference belongs to.
func (ref *Reference) Repository() *Repository { return ref.repo }

// LabelName returns the provenance label key, OriginRevIDLabel.
func (ref *Reference) LabelName() string { return OriginRevIDLabel }

// ReadTimestamp returns the author time of the reference in seconds since
// the Unix epoch.
func (ref *Reference) ReadTimestamp(ctx context.Context) (int64, error) {
	outcome, err := ref.repo.SimpleCommand(ctx, "show", "-s", "--format=%at", ref.text)
	if err != nil {
		return 0, err
	}

	raw := strings.TrimSpace(outcome.Stdout)
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, newRepositoryError(
			fmt.Sprintf("Cannot parse timestamp %q for reference %s", raw, ref.text), err)
	}
	return ts, nil
}
