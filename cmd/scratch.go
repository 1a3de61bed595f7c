package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
)

var scratchCmd = &cobra.Command{
	Use:   "scratch",
	Short: "Create a throwaway repository in a temporary directory",
	Long: `Create a new temporary directory and run 'git init' in it. The paths of
the git directory and work tree are printed; removing the directory is up
to the caller.`,
	Args: cobra.NoArgs,
	RunE: runScratch,
}

func init() {
	rootCmd.AddCommand(scratchCmd)
}

type scratchResult struct {
	GitDir   string `json:"git_dir" yaml:"git_dir"`
	WorkTree string `json:"work_tree" yaml:"work_tree"`
}

func runScratch(cmd *cobra.Command, _ []string) error {
	opts, err := repositoryOptions(cmd)
	if err != nil {
		return err
	}

	repo, err := git.InitScratch(cmd.Context(), current.Verbose, opts...)
	if err != nil {
		return err
	}

	result := scratchResult{GitDir: repo.GitDir(), WorkTree: repo.WorkTree()}
	return newPrinter(cmd).Result(result, func(p *output.Printer) {
		p.Success("Initialized scratch repository")
		p.KeyValue("Git dir", result.GitDir)
		p.KeyValue("Work tree", result.WorkTree)
	})
}
