package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingRunner records commands and replays canned outcomes.
type recordingRunner struct {
	mu       sync.Mutex
	commands []Command
	outcomes []Outcome
	err      error
}

func (r *recordingRunner) Run(_ context.Context, cmd Command) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	if r.err != nil {
		return Outcome{}, r.err
	}
	if len(r.outcomes) == 0 {
		return Outcome{}, nil
	}
	next := r.outcomes[0]
	r.outcomes = r.outcomes[1:]
	return next, nil
}

func (r *recordingRunner) calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// setupTestRepo creates a non-bare repository with one commit and returns
// its work tree.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	repoPath := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, os.MkdirAll(repoPath, 0755))

	runGit(t, repoPath, "init")
	runGit(t, repoPath, "config", "user.email", "test@test.com")
	runGit(t, repoPath, "config", "user.name", "Test")
	runGit(t, repoPath, "config", "commit.gpgsign", "false")

	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "README.md"), []byte("# Test\n"), 0644))
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath, "commit", "-m", "Initial commit")

	return repoPath
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}
