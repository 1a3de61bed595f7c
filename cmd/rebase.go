package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jayteealao/gitmigrate/internal/output"
	"github.com/jayteealao/gitmigrate/internal/validate"
)

var rebaseCmd = &cobra.Command{
	Use:   "rebase <baseline>",
	Short: "Rebase --work-tree onto a baseline",
	Long: `Rebase the work tree onto the given baseline reference.

A conflict exits with status 3 and prints git's explanation. The rebase is
left in progress so it can be inspected or aborted with
'gitmigrate exec -- rebase --abort'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRebase,
}

func init() {
	rootCmd.AddCommand(rebaseCmd)
}

type rebaseResult struct {
	WorkTree string `json:"work_tree" yaml:"work_tree"`
	Baseline string `json:"baseline" yaml:"baseline"`
}

func runRebase(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	baseline := args[0]

	if err := validate.Ref(baseline); err != nil {
		return err
	}
	if current.WorkTree == "" {
		return output.NewUserError("rebase needs a work tree: pass --work-tree")
	}

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
	err = repo.Rebase(ctx, baseline)
	recordOperation(ctx, ledger, repo, []string{"rebase", baseline}, started, operationExitCode(err), err)
	if err != nil {
		return err
	}

	result := rebaseResult{WorkTree: repo.WorkTree(), Baseline: baseline}
	return newPrinter(cmd).Result(result, func(p *output.Printer) {
		p.Success("Rebased %s onto %s", result.WorkTree, result.Baseline)
	})
}
