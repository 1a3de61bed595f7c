package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
)

var initBareCmd = &cobra.Command{
	Use:   "init-bare",
	Short: "Create and initialize a bare repository at --git-dir",
	Long: `Create the directory named by --git-dir, including missing parents, and
run 'git init --bare' inside it. Re-running on an existing repository is
harmless.`,
	Args: cobra.NoArgs,
	RunE: runInitBare,
}

func init() {
	rootCmd.AddCommand(initBareCmd)
}

type initBareResult struct {
	GitDir string `json:"git_dir" yaml:"git_dir"`
}

func runInitBare(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if current.GitDir == "" {
		return output.NewUserError("--git-dir is required")
	}

	opts, err := repositoryOptions(cmd)
	if err != nil {
		return err
	}
	repo := git.Bare(current.GitDir, current.Verbose, current.environment(), opts...)

	ledger, err := initStore()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	started := time.Now()
	err = repo.InitGitDir(ctx)
	recordOperation(ctx, ledger, repo, []string{"init", "--bare"}, started, operationExitCode(err), err)
	if err != nil {
		return err
	}

	result := initBareResult{GitDir: repo.GitDir()}
	return newPrinter(cmd).Result(result, func(p *output.Printer) {
		p.Success("Initialized bare repository in %s", result.GitDir)
	})
}
