// Package git drives the git CLI for the migration pipeline and turns its
// output into classified errors.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

// Locker serializes operations against one git-dir/work-tree pair.
// Lock blocks until the lock is held or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

// Repository is an immutable handle on a git directory and an optional
// work tree. A handle without a work tree is bare.
type Repository struct {
	gitDir   string
	workTree string
	env      Environment
	verbose  bool

	runner Runner
	logger *zap.Logger
	locker Locker
}

// Option configures a Repository.
type Option func(*Repository)

// WithRunner sets the process runner. The default is an ExecRunner.
func WithRunner(runner Runner) Option {
	return func(r *Repository) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLocker serializes every git process on the handle through locker.
func WithLocker(locker Locker) Option {
	return func(r *Repository) {
		r.locker = locker
	}
}

// New creates a handle. An empty workTree makes the handle bare.
func New(gitDir, workTree string, verbose bool, env Environment, opts ...Option) *Repository {
	r := &Repository{
		gitDir:   gitDir,
		workTree: workTree,
		env:      env,
		verbose:  verbose,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runner == nil {
		r.runner = NewExecRunner(WithRunnerLogger(r.logger))
	}
	return r
}

// Bare wraps an existing bare git directory.
func Bare(gitDir string, verbose bool, env Environment, opts ...Option) *Repository {
	return New(gitDir, "", verbose, env, opts...)
}

// InitScratch creates a fresh non-bare repository in a new temporary
// directory. The caller owns the directory and must remove it. On failure
// the directory is removed before returning.
func InitScratch(ctx context.Context, verbose bool, opts ...Option) (*Repository, error) {
	dir, err := os.MkdirTemp("", "gitmigrate-scratch-*")
	if err != nil {
		return nil, newRepositoryError(
			fmt.Sprintf("Cannot create temporary directory: %v", err), err)
	}

	repo := New(filepath.Join(dir, ".git"), dir, verbose, InheritEnvironment(), opts...)
	if _, err := repo.Git(ctx, dir, "init", "."); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return repo, nil
}

// WithWorkTree returns a new handle on the same git directory with a
// different work tree. The receiver is not modified.
func (r *Repository) WithWorkTree(workTree string) *Repository {
	derived := *r
	derived.workTree = workTree
	return &derived
}

// GitDir returns the git metadata directory.
func (r *Repository) GitDir() string { return r.gitDir }

// WorkTree returns the work tree, or "" for a bare handle.
func (r *Repository) WorkTree() string { return r.workTree }

// IsBare reports whether the handle has no work tree.
func (r *Repository) IsBare() bool { return r.workTree == "" }

// Verbose reports whether git output is streamed to the diagnostic writer.
func (r *Repository) Verbose() bool { return r.verbose }

// Environment returns the environment policy.
func (r *Repository) Environment() Environment { return r.env }

func (r *Repository) String() string {
	return fmt.Sprintf("git.Repository{gitDir=%s, workTree=%s, verbose=%t}", r.gitDir, r.workTree, r.verbose)
}

// SimpleCommand runs a git subcommand against the handle's git dir and work
// tree. It fails without spawning git when the git dir does not exist.
func (r *Repository) SimpleCommand(ctx context.Context, args ...string) (Outcome, error) {
	info, err := os.Stat(r.gitDir)
	if err != nil || !info.IsDir() {
		cause := fmt.Errorf("%w: %s", apperrors.ErrMissingGitDir, r.gitDir)
		return Outcome{}, newRepositoryError(
			fmt.Sprintf("git repository dir '%s' doesn't exist or it is not a directory", r.gitDir), cause)
	}

	argv := make([]string, 0, len(args)+2)
	argv = append(argv, "--git-dir="+r.gitDir)
	cwd := r.gitDir
	if r.workTree != "" {
		argv = append(argv, "--work-tree="+r.workTree)
		cwd = r.workTree
	}
	argv = append(argv, args...)

	return r.run(ctx, cwd, argv)
}

// Git runs git in cwd without the git-dir and work-tree prefix.
func (r *Repository) Git(ctx context.Context, cwd string, args ...string) (Outcome, error) {
	return r.run(ctx, cwd, append([]string(nil), args...))
}

func (r *Repository) run(ctx context.Context, cwd string, argv []string) (Outcome, error) {
	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, LockKey(r.gitDir, r.workTree))
		if err != nil {
			return Outcome{}, newRepositoryError(
				fmt.Sprintf("Cannot lock repository %s: %v", r.gitDir, err), err)
		}
		defer func() {
			if err := unlock(); err != nil {
				r.logger.Warn("failed to release repository lock", zap.String("git_dir", r.gitDir), zap.Error(err))
			}
		}()
	}

	outcome, err := r.runner.Run(ctx, Command{
		Args:    argv,
		Dir:     cwd,
		Env:     r.env,
		Verbose: r.verbose,
	})
	if err != nil {
		return Outcome{}, err
	}

	name, repoErr := classify(outcome, argv)
	if repoErr != nil {
		r.logger.Debug("git command failed",
			zap.Strings("args", argv),
			zap.Int("exit_code", outcome.ExitCode),
			zap.String("rule", name),
			zap.String("kind", KindName(repoErr)),
		)
		return outcome, repoErr
	}
	return outcome, nil
}

// LockKey identifies a git-dir/work-tree pair. It is the key a handle passes
// to its Locker.
func LockKey(gitDir, workTree string) string {
	return gitDir + "|" + workTree
}

// InitGitDir creates the git directory, including missing parents, and
// initializes a bare repository in it.
func (r *Repository) InitGitDir(ctx context.Context) error {
	if err := os.MkdirAll(r.gitDir, 0o755); err != nil {
		return newRepositoryError(fmt.Sprintf("Cannot create git directory '%s': %v", r.gitDir, err), err)
	}
	_, err := r.Git(ctx, r.gitDir, "init", "--bare")
	return err
}

// RevParse resolves ref to its canonical form, trimmed of whitespace.
func (r *Repository) RevParse(ctx context.Context, ref string) (string, error) {
	outcome, err := r.SimpleCommand(ctx, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(outcome.Stdout), nil
}

// Rebase rebases the work tree onto baseline. A conflict keeps the
// ErrRebaseConflict kind and names the work tree and baseline.
func (r *Repository) Rebase(ctx context.Context, baseline string) error {
	if baseline == "" {
		return newRepositoryError("Cannot rebase: empty baseline", nil)
	}

	_, err := r.SimpleCommand(ctx, "rebase", baseline)
	if err == nil {
		return nil
	}

	var repoErr *RepoError
	if errors.As(err, &repoErr) && errors.Is(repoErr.Kind, apperrors.ErrRebaseConflict) {
		return &RepoError{
			Kind: apperrors.ErrRebaseConflict,
			Message: fmt.Sprintf("Conflict detected while rebasing %s to %s. Git output was:\n%s",
				r.workTree, baseline, repoErr.Message),
			Cause: repoErr,
		}
	}
	return err
}
