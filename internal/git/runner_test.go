package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("diagnostics closed")
}

func TestExecRunner_CapturesStreamsSeparately(t *testing.T) {
	repoPath := setupTestRepo(t)
	runner := NewExecRunner()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		outcome, err := runner.Run(ctx, Command{Args: []string{"rev-parse", "--is-inside-work-tree"}, Dir: repoPath})
		require.NoError(t, err)
		assert.True(t, outcome.Success())
		assert.Equal(t, "true\n", outcome.Stdout)
		assert.Empty(t, outcome.Stderr)
	})

	t.Run("non-zero exit is an outcome", func(t *testing.T) {
		outcome, err := runner.Run(ctx, Command{Args: []string{"rev-parse", "--verify", "no-such-ref"}, Dir: repoPath})
		require.NoError(t, err)
		assert.False(t, outcome.Success())
		assert.NotZero(t, outcome.ExitCode)
		assert.Empty(t, outcome.Stdout)
		assert.Contains(t, outcome.Stderr, "fatal")
	})
}

func TestExecRunner_Verbose(t *testing.T) {
	repoPath := setupTestRepo(t)
	ctx := context.Background()

	t.Run("streams without altering capture", func(t *testing.T) {
		var diag bytes.Buffer
		runner := NewExecRunner(WithDiagnostics(&diag))

		outcome, err := runner.Run(ctx, Command{Args: []string{"rev-parse", "--is-inside-work-tree"}, Dir: repoPath, Verbose: true})
		require.NoError(t, err)
		assert.Equal(t, "true\n", outcome.Stdout)
		assert.Equal(t, "true\n", diag.String())
	})

	t.Run("quiet does not stream", func(t *testing.T) {
		var diag bytes.Buffer
		runner := NewExecRunner(WithDiagnostics(&diag))

		_, err := runner.Run(ctx, Command{Args: []string{"rev-parse", "--is-inside-work-tree"}, Dir: repoPath})
		require.NoError(t, err)
		assert.Empty(t, diag.String())
	})

	t.Run("broken diagnostics keep capture", func(t *testing.T) {
		runner := NewExecRunner(WithDiagnostics(failingWriter{}))

		outcome, err := runner.Run(ctx, Command{Args: []string{"rev-parse", "--is-inside-work-tree"}, Dir: repoPath, Verbose: true})
		require.NoError(t, err)
		assert.Equal(t, "true\n", outcome.Stdout)
	})
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	runner := NewExecRunner(WithBinary("gitmigrate-no-such-binary"))

	_, err := runner.Run(context.Background(), Command{Args: []string{"status"}, Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRepository)
	assert.ErrorIs(t, err, apperrors.ErrGitNotFound)
	assert.Equal(t, "gitmigrate-no-such-binary", runner.Binary())
}

func TestExecRunner_Cancelled(t *testing.T) {
	requireGit(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecRunner().Run(ctx, Command{Args: []string{"--version"}, Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRepository)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecRunner_Environment(t *testing.T) {
	if _, err := exec.LookPath("env"); err != nil {
		t.Skip("env binary not available")
	}
	runner := NewExecRunner(WithBinary("env"))
	ctx := context.Background()

	t.Run("explicit", func(t *testing.T) {
		outcome, err := runner.Run(ctx, Command{Dir: t.TempDir(), Env: ExplicitEnvironment(map[string]string{"GITMIGRATE_TEST": "yes"})})
		require.NoError(t, err)
		assert.Equal(t, "GITMIGRATE_TEST=yes\n", outcome.Stdout)
	})

	t.Run("empty", func(t *testing.T) {
		outcome, err := runner.Run(ctx, Command{Dir: t.TempDir(), Env: EmptyEnvironment()})
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(outcome.Stdout))
	})

	t.Run("inherit", func(t *testing.T) {
		t.Setenv("GITMIGRATE_INHERITED", "1")
		outcome, err := runner.Run(ctx, Command{Dir: t.TempDir()})
		require.NoError(t, err)
		assert.Contains(t, outcome.Stdout, "GITMIGRATE_INHERITED=1")
	})
}

func TestExecRunner_Logs(t *testing.T) {
	repoPath := setupTestRepo(t)
	core, logs := observer.New(zapcore.DebugLevel)
	runner := NewExecRunner(WithRunnerLogger(zap.New(core)))

	_, err := runner.Run(context.Background(), Command{Args: []string{"rev-parse", "HEAD"}, Dir: repoPath})
	require.NoError(t, err)

	started := logs.FilterMessage("running git").All()
	require.Len(t, started, 1)
	assert.Equal(t, repoPath, started[0].ContextMap()["dir"])

	finished := logs.FilterMessage("git finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 0, finished[0].ContextMap()["exit_code"])
}
