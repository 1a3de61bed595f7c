// Package validate provides input validation for gitmigrate.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jayteealao/gitmigrate/internal/errors"
)

// Ref validates a revision expression passed on the command line (tag,
// branch, SHA, or suffix forms like HEAD~1). Ranges are rejected because
// they resolve to more than one commit.
func Ref(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: cannot be empty", errors.ErrInvalidRef)
	}

	// A leading dash would be parsed by git as an option
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("%w: cannot start with '-'", errors.ErrInvalidRef)
	}

	for _, r := range ref {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace or control character %q", errors.ErrInvalidRef, r)
		}
	}

	invalid := []string{"?", "*", "[", "\\"}
	for _, char := range invalid {
		if strings.Contains(ref, char) {
			return fmt.Errorf("%w: contains invalid character %q", errors.ErrInvalidRef, char)
		}
	}

	if strings.Contains(ref, "..") {
		return fmt.Errorf("%w: cannot contain '..'", errors.ErrInvalidRef)
	}

	return nil
}

// GitDir validates that path names an existing directory.
func GitDir(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path cannot be empty", errors.ErrMissingGitDir)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrMissingGitDir, path)
		}
		return fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", errors.ErrMissingGitDir, path)
	}

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory and makes the
// path absolute. An empty path stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, path[2:])
		}
	}
	return filepath.Abs(path)
}
