// Package cmd provides CLI commands for gitmigrate.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/lock"
	"github.com/jayteealao/gitmigrate/internal/logging"
	"github.com/jayteealao/gitmigrate/internal/output"
	"github.com/jayteealao/gitmigrate/internal/state"
	"github.com/jayteealao/gitmigrate/internal/validate"
)

// Version is the current version of gitmigrate.
// Can be overridden at build time: go build -ldflags "-X github.com/jayteealao/gitmigrate/cmd.Version=v1.0.0"
var Version = "v0.1.0"

const envPrefix = "GITMIGRATE"

var (
	cfgFile      string
	envFlags     []string
	cleanEnvFlag bool
	noLockFlag   bool
	noRecordFlag bool
)

// current holds the settings resolved for the running command.
var current settings

// logger is replaced in PersistentPreRunE once settings are known.
var logger = zap.NewNop()

// settings is the merged view of flags, environment and config file.
type settings struct {
	DataDir     string              `mapstructure:"data-dir"`
	Verbose     bool                `mapstructure:"verbose"`
	GitBinary   string              `mapstructure:"git-binary"`
	GitDir      string              `mapstructure:"git-dir"`
	WorkTree    string              `mapstructure:"work-tree"`
	LogLevel    logging.Level       `mapstructure:"log-level"`
	LogFormat   logging.Format      `mapstructure:"log-format"`
	Output      output.Format       `mapstructure:"output"`
	Lock        bool                `mapstructure:"lock"`
	Record      bool                `mapstructure:"record"`
	Environment environmentSettings `mapstructure:"environment"`

	configFileUsed string
}

// environmentSettings is the configured git environment policy. Variables
// are read as KEY=VALUE strings because viper lowercases map keys.
type environmentSettings struct {
	Mode  git.EnvironmentMode `mapstructure:"mode"`
	Pairs []string            `mapstructure:"vars"`
	Vars  map[string]string   `mapstructure:"-"`
}

var defaultSettings = map[string]any{
	"verbose":          false,
	"git-binary":       git.DefaultBinary,
	"log-level":        string(logging.LevelWarn),
	"log-format":       string(logging.FormatConsole),
	"output":           string(output.FormatText),
	"lock":             true,
	"record":           true,
	"environment.mode": git.EnvironmentInherit.String(),
	"environment.vars": []string{},
}

// flagKeys are the persistent flags that share a name with a config key.
var flagKeys = []string{"data-dir", "verbose", "git-binary", "git-dir", "work-tree", "log-level", "log-format", "output"}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitmigrate",
	Short: "Git repository plumbing for revision migration",
	Long: `gitmigrate drives the git CLI on behalf of a revision migration pipeline.

It resolves references to canonical SHA-1 hashes, rebases work trees onto
baselines and runs raw git commands, turning git's output into classified
errors: empty change, rebase conflict, unknown reference and repository
failure. Resolutions and operations are recorded in a local ledger.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	err := fang.Execute(ctx, rootCmd, fang.WithVersion(Version))
	if syncErr := logging.Sync(logger); syncErr != nil && err == nil {
		err = output.NewSystemErrorWithCause("failed to flush logs", syncErr)
	}
	return output.ExitCode(err)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gitmigrate/config.yaml)")
	flags.String("data-dir", "", "data directory for locks and the ledger (default is $HOME/.gitmigrate)")
	flags.BoolP("verbose", "v", false, "stream git output to stderr while it runs")
	flags.String("git-binary", git.DefaultBinary, "git executable to run")
	flags.String("git-dir", "", "git directory of the repository")
	flags.String("work-tree", "", "work tree of the repository (omit for a bare repository)")
	flags.String("log-level", string(logging.LevelWarn), "log level (debug, info, warn, error)")
	flags.String("log-format", string(logging.FormatConsole), "log format (console, json)")
	flags.StringP("output", "o", string(output.FormatText), "output format (text, json, yaml)")
	flags.StringArrayVar(&envFlags, "env", nil, "run git with exactly these KEY=VALUE variables (repeatable)")
	flags.BoolVar(&cleanEnvFlag, "clean-env", false, "run git with an empty environment")
	flags.BoolVar(&noLockFlag, "no-lock", false, "do not serialize git commands per repository")
	flags.BoolVar(&noRecordFlag, "no-record", false, "do not write to the ledger")
}

// setup resolves settings and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	built, err := logging.NewFactory(cmd.ErrOrStderr()).CreateLogger(loaded.LogLevel, loaded.LogFormat)
	if err != nil {
		return output.NewUserError(err.Error())
	}

	current = loaded
	logger = built
	if current.configFileUsed != "" {
		logger.Debug("using config file", zap.String("path", current.configFileUsed))
	}
	return nil
}

// loadSettings merges defaults, config file, GITMIGRATE_* variables and
// flags, in increasing order of precedence.
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".gitmigrate"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for key, value := range defaultSettings {
		v.SetDefault(key, value)
	}

	flags := cmd.Root().PersistentFlags()
	for _, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return settings{}, fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return settings{}, output.NewUserError(fmt.Sprintf("failed to read config: %v", err))
		}
	}

	var s settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&s, hook); err != nil {
		return settings{}, output.NewUserError(fmt.Sprintf("invalid configuration: %v", err))
	}
	s.configFileUsed = v.ConfigFileUsed()

	vars, err := parseEnvPairs(s.Environment.Pairs, "environment.vars entry")
	if err != nil {
		return settings{}, err
	}
	s.Environment.Vars = vars

	if noLockFlag {
		s.Lock = false
	}
	if noRecordFlag {
		s.Record = false
	}
	if err := s.applyEnvironmentFlags(envFlags, cleanEnvFlag); err != nil {
		return settings{}, err
	}
	if err := s.expandPaths(); err != nil {
		return settings{}, err
	}
	return s, nil
}

// applyEnvironmentFlags lets --env and --clean-env override the configured
// environment policy.
func (s *settings) applyEnvironmentFlags(pairs []string, clean bool) error {
	if clean && len(pairs) > 0 {
		return output.NewUserError("--env and --clean-env cannot be combined")
	}
	if clean {
		s.Environment = environmentSettings{Mode: git.EnvironmentEmpty}
		return nil
	}
	if len(pairs) == 0 {
		return nil
	}

	vars, err := parseEnvPairs(pairs, "--env")
	if err != nil {
		return err
	}
	s.Environment = environmentSettings{Mode: git.EnvironmentExplicit, Pairs: pairs, Vars: vars}
	return nil
}

// parseEnvPairs turns KEY=VALUE strings into a map, keeping the case of
// every key. A later pair overrides an earlier one with the same key.
func parseEnvPairs(pairs []string, source string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, output.NewUserError(fmt.Sprintf("invalid %s %q: expected KEY=VALUE", source, pair))
		}
		vars[key] = value
	}
	return vars, nil
}

func (s *settings) expandPaths() error {
	for _, path := range []*string{&s.DataDir, &s.GitDir, &s.WorkTree} {
		if *path == "" {
			continue
		}
		expanded, err := validate.ExpandPath(*path)
		if err != nil {
			return output.NewUserError(err.Error())
		}
		*path = expanded
	}
	return nil
}

// environment returns the git environment policy the settings describe.
func (s settings) environment() git.Environment {
	switch s.Environment.Mode {
	case git.EnvironmentEmpty:
		return git.EmptyEnvironment()
	case git.EnvironmentExplicit:
		return git.ExplicitEnvironment(s.Environment.Vars)
	default:
		return git.InheritEnvironment()
	}
}

// getDataDir returns the data directory, defaulting to $HOME/.gitmigrate
func getDataDir() (string, error) {
	if current.DataDir != "" {
		return current.DataDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", output.NewSystemErrorWithCause(fmt.Sprintf("failed to get home directory: %v", err), err)
	}
	return filepath.Join(home, ".gitmigrate"), nil
}

// initStore initializes and returns the ledger, or nil when recording is
// disabled.
func initStore() (state.Ledger, error) {
	if !current.Record {
		return nil, nil
	}

	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	store, err := state.New(dir)
	if err != nil {
		return nil, output.NewSystemErrorWithCause(fmt.Sprintf("failed to initialize store: %v", err), err)
	}

	return store, nil
}

// initLockManager initializes and returns the lock manager.
func initLockManager() (*lock.Manager, error) {
	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	manager, err := lock.NewManager(dir)
	if err != nil {
		return nil, output.NewSystemErrorWithCause(fmt.Sprintf("failed to initialize lock manager: %v", err), err)
	}

	return manager, nil
}

// repositoryOptions wires the runner, logger and lock manager shared by
// every repository handle a command creates.
func repositoryOptions(cmd *cobra.Command) ([]git.Option, error) {
	runner := git.NewExecRunner(
		git.WithBinary(current.GitBinary),
		git.WithDiagnostics(cmd.ErrOrStderr()),
		git.WithRunnerLogger(logger),
	)
	opts := []git.Option{git.WithRunner(runner), git.WithLogger(logger)}

	if current.Lock {
		manager, err := initLockManager()
		if err != nil {
			return nil, err
		}
		opts = append(opts, git.WithLocker(manager))
	}
	return opts, nil
}

// openRepository builds a handle for --git-dir and --work-tree. The git
// directory must already exist.
func openRepository(cmd *cobra.Command) (*git.Repository, error) {
	if current.GitDir == "" {
		return nil, output.NewUserError("--git-dir is required")
	}
	if err := validate.GitDir(current.GitDir); err != nil {
		if errors.Is(err, apperrors.ErrMissingGitDir) {
			return nil, err
		}
		return nil, output.NewSystemErrorWithCause(err.Error(), err)
	}

	opts, err := repositoryOptions(cmd)
	if err != nil {
		return nil, err
	}
	return git.New(current.GitDir, current.WorkTree, current.Verbose, current.environment(), opts...), nil
}

// newPrinter returns a printer for the command's output streams.
func newPrinter(cmd *cobra.Command) *output.Printer {
	out := cmd.OutOrStdout()
	return output.NewPrinter(out, current.Output, output.IsTTY(out)).WithStderr(cmd.ErrOrStderr())
}

// recordOperation writes one git operation to the ledger. Ledger failures are
// logged and never fail the command.
func recordOperation(ctx context.Context, ledger state.Ledger, repo *git.Repository, args []string, started time.Time, exitCode int, err error) {
	if ledger == nil {
		return
	}

	op := &state.Operation{
		GitDir:     repo.GitDir(),
		WorkTree:   repo.WorkTree(),
		Args:       args,
		Kind:       git.KindName(err),
		ExitCode:   exitCode,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		op.Message = err.Error()
	}

	if recordErr := ledger.RecordOperation(context.WithoutCancel(ctx), op); recordErr != nil {
		logger.Warn("failed to record operation", zap.Strings("args", args), zap.Error(recordErr))
	}
}

// operationExitCode picks the exit status to record: the observed status
// when git reported one, the status carried by err, 0 on success and -1
// when git never ran to completion.
func operationExitCode(err error, observed ...int) int {
	for _, code := range observed {
		if code != 0 {
			return code
		}
	}
	if err == nil {
		return 0
	}
	var exitErr *git.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return -1
}

// checkContext returns an error if the context is cancelled.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
