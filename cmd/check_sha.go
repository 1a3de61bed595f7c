package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
)

var checkSHACmd = &cobra.Command{
	Use:   "check-sha <text>...",
	Short: "Report whether each argument looks like a SHA-1 hash",
	Long: `Classify each argument as a SHA-1 prefix (7 to 40 lowercase hex digits)
and as a complete SHA-1 (exactly 40). No git process is started.

With --strict the command fails unless every argument is a complete SHA-1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckSHA,
}

var checkSHAStrictFlag bool

func init() {
	rootCmd.AddCommand(checkSHACmd)

	checkSHACmd.Flags().BoolVar(&checkSHAStrictFlag, "strict", false, "fail unless every argument is a complete SHA-1")
}

type checkSHAEntry struct {
	Text     string `json:"text" yaml:"text"`
	SHA1     bool   `json:"sha1" yaml:"sha1"`
	Complete bool   `json:"complete" yaml:"complete"`
}

func runCheckSHA(cmd *cobra.Command, args []string) error {
	entries := make([]checkSHAEntry, 0, len(args))
	for _, text := range args {
		entries = append(entries, checkSHAEntry{
			Text:     text,
			SHA1:     git.IsSHA1Reference(text),
			Complete: git.IsCompleteSHA1Reference(text),
		})
	}

	if checkSHAStrictFlag {
		// Construction only validates; the handle never runs git.
		repo := git.Bare(current.GitDir, false, git.InheritEnvironment())
		for _, text := range args {
			if _, err := repo.CreateReferenceFromCompleteSHA1(text); err != nil {
				return err
			}
		}
	}

	return newPrinter(cmd).Result(entries, func(p *output.Printer) {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Text, yesNo(e.SHA1), yesNo(e.Complete)})
		}
		p.Table([]string{"TEXT", "SHA-1", "COMPLETE"}, rows)
	})
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
