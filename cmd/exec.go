package cmd

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
)

var execCmd = &cobra.Command{
	Use:   "exec -- <git args>...",
	Short: "Run a git command against the repository",
	Long: `Run git with --git-dir (and --work-tree when set) followed by the given
arguments, and print its standard output.

Failures are classified: an empty change is reported as a warning and exits
0, a rebase conflict exits 3, an unknown reference exits 1 and any other
failure exits 2.`,
	Example: `  gitmigrate --git-dir repo/.git --work-tree repo exec -- commit -m "Migrate"
  gitmigrate --git-dir repo.git exec -- log -1 --format=%H`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

type execResult struct {
	Args     []string `json:"args" yaml:"args"`
	Kind     string   `json:"kind" yaml:"kind"`
	ExitCode int      `json:"exit_code" yaml:"exit_code"`
	Stdout   string   `json:"stdout" yaml:"stdout"`
	Stderr   string   `json:"stderr" yaml:"stderr"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := openRepository(cmd)
	if err != nil {
		return err
	}

	ledger, err := initStore()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	started := time.Now()
	outcome, err := repo.SimpleCommand(ctx, args...)
	recordOperation(ctx, ledger, repo, args, started, operationExitCode(err, outcome.ExitCode), err)

	emptyChange := errors.Is(err, apperrors.ErrEmptyChange)
	if err != nil && !emptyChange && outcome.ExitCode == 0 {
		// Nothing ran: missing git dir, launch failure or cancellation.
		return err
	}

	printer := newPrinter(cmd)
	if printer.Format() != output.FormatText {
		result := execResult{
			Args:     args,
			Kind:     git.KindName(err),
			ExitCode: outcome.ExitCode,
			Stdout:   outcome.Stdout,
			Stderr:   outcome.Stderr,
		}
		if err != nil {
			result.Message = err.Error()
		}
		if printErr := printer.Result(result, nil); printErr != nil {
			return printErr
		}
	} else {
		// Stderr is part of the error message.
		io.WriteString(cmd.OutOrStdout(), outcome.Stdout)
	}

	if emptyChange {
		printer.Warn("%s", err.Error())
		return nil
	}
	return err
}
