package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// Command describes one git invocation.
type Command struct {
	Args    []string // arguments after the binary name
	Dir     string   // working directory of the process
	Env     Environment
	Verbose bool // also stream output to the diagnostic writer
}

// Outcome is the captured result of a git process that ran to completion.
// Stdout and Stderr are kept separate because classification depends on
// which stream a phrase appeared in.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (o Outcome) Success() bool {
	return o.ExitCode == 0
}

// Runner spawns git processes.
//
// Run blocks until the process exits. A non-zero exit is not an error: the
// outcome is returned as-is and classification is left to the caller, since
// the same status means different things for different subcommands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Outcome, error)
}

// ExecRunner runs git through os/exec.
type ExecRunner struct {
	binary      string
	diagnostics io.Writer
	logger      *zap.Logger
}

// RunnerOption configures an ExecRunner.
type RunnerOption func(*ExecRunner)

// WithBinary sets the git executable name or path.
func WithBinary(binary string) RunnerOption {
	return func(r *ExecRunner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithDiagnostics sets where verbose commands stream their output.
func WithDiagnostics(w io.Writer) RunnerOption {
	return func(r *ExecRunner) {
		if w != nil {
			r.diagnostics = w
		}
	}
}

// WithRunnerLogger sets the logger for command lifecycle events.
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *ExecRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...RunnerOption) *ExecRunner {
	r := &ExecRunner{
		binary:      DefaultBinary,
		diagnostics: os.Stderr,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the configured git executable.
func (r *ExecRunner) Binary() string {
	return r.binary
}

// Run executes the command and captures stdout and stderr independently.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Outcome, error) {
	execCmd := exec.CommandContext(ctx, r.binary, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = cmd.Env.Slice()

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	var diag *syncWriter
	if cmd.Verbose {
		diag = newSyncWriter(r.diagnostics)
		execCmd.Stdout = io.MultiWriter(&stdout, diag)
		execCmd.Stderr = io.MultiWriter(&stderr, diag)
	}

	r.logger.Debug("running git",
		zap.Strings("args", cmd.Args),
		zap.String("dir", cmd.Dir),
		zap.Stringer("environment", cmd.Env.Mode()),
	)

	err := execCmd.Run()

	if diag != nil {
		if diagErr := diag.Err(); diagErr != nil {
			r.logger.Debug("diagnostic stream failed", zap.Error(diagErr))
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("git cancelled", zap.Strings("args", cmd.Args), zap.Error(ctx.Err()))
			return Outcome{}, newRepositoryError(
				fmt.Sprintf("Error executing 'git': %v", ctx.Err()), ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome := Outcome{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
			}
			r.logger.Debug("git finished", zap.Strings("args", cmd.Args), zap.Int("exit_code", outcome.ExitCode))
			return outcome, nil
		}

		// Launch failure: binary missing, permission denied, bad working directory.
		cause := err
		if errors.Is(err, exec.ErrNotFound) {
			cause = fmt.Errorf("%w: %w", apperrors.ErrGitNotFound, err)
		}
		r.logger.Debug("git failed to start", zap.Strings("args", cmd.Args), zap.Error(err))
		return Outcome{}, newRepositoryError(fmt.Sprintf("Error executing 'git': %v", err), cause)
	}

	r.logger.Debug("git finished", zap.Strings("args", cmd.Args), zap.Int("exit_code", 0))
	return Outcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}
