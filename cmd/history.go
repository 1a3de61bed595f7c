package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
	"github.com/jayteealao/gitmigrate/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded resolutions and operations",
	Long: `Show the ledger for --git-dir: references resolved against it and the git
operations run on it, most recent first.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyLimitFlag int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", state.DefaultListLimit, "number of entries of each kind to show")
}

type historyResolution struct {
	ID        string `json:"id" yaml:"id"`
	Input     string `json:"input" yaml:"input"`
	SHA       string `json:"sha" yaml:"sha"`
	ShortSHA  string `json:"short_sha" yaml:"short_sha"`
	Timestamp *int64 `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Label     string `json:"label" yaml:"label"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

type historyOperation struct {
	ID         string   `json:"id" yaml:"id"`
	WorkTree   string   `json:"work_tree,omitempty" yaml:"work_tree,omitempty"`
	Args       []string `json:"args" yaml:"args"`
	Kind       string   `json:"kind" yaml:"kind"`
	ExitCode   int      `json:"exit_code" yaml:"exit_code"`
	Message    string   `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt  string   `json:"started_at" yaml:"started_at"`
	FinishedAt string   `json:"finished_at" yaml:"finished_at"`
}

type historyLock struct {
	Held bool `json:"held" yaml:"held"`
	PID  int  `json:"pid,omitempty" yaml:"pid,omitempty"`
}

type historyResult struct {
	GitDir      string              `json:"git_dir" yaml:"git_dir"`
	Lock        *historyLock        `json:"lock,omitempty" yaml:"lock,omitempty"`
	Resolutions []historyResolution `json:"resolutions" yaml:"resolutions"`
	Operations  []historyOperation  `json:"operations" yaml:"operations"`
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if current.GitDir == "" {
		return output.NewUserError("--git-dir is required")
	}
	if !current.Record {
		return output.NewUserError("history needs the ledger, which --no-record disables")
	}

	ledger, err := initStore()
	if err != nil {
		return err
	}
	defer ledger.Close()

	resolutions, err := ledger.ListResolutions(ctx, current.GitDir, historyLimitFlag)
	if err != nil {
		return output.NewSystemErrorWithCause(fmt.Sprintf("failed to list resolutions: %v", err), err)
	}
	operations, err := ledger.ListOperations(ctx, current.GitDir, historyLimitFlag)
	if err != nil {
		return output.NewSystemErrorWithCause(fmt.Sprintf("failed to list operations: %v", err), err)
	}

	result := historyResult{
		GitDir:      current.GitDir,
		Resolutions: make([]historyResolution, 0, len(resolutions)),
		Operations:  make([]historyOperation, 0, len(operations)),
	}
	if current.Lock {
		if result.Lock, err = lockStatus(); err != nil {
			return err
		}
	}
	for _, r := range resolutions {
		result.Resolutions = append(result.Resolutions, historyResolution{
			ID:        r.ID,
			Input:     r.Input,
			SHA:       r.SHA,
			ShortSHA:  git.ShortSHA(r.SHA),
			Timestamp: r.Timestamp,
			Label:     r.Label,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, op := range operations {
		result.Operations = append(result.Operations, historyOperation{
			ID:         op.ID,
			WorkTree:   op.WorkTree,
			Args:       op.Args,
			Kind:       op.Kind,
			ExitCode:   op.ExitCode,
			Message:    op.Message,
			StartedAt:  op.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt: op.FinishedAt.UTC().Format(time.RFC3339),
		})
	}

	return newPrinter(cmd).Result(result, func(p *output.Printer) {
		outputHistoryText(p, result, operations)
	})
}

// lockStatus reports whether another process holds the lock for the
// configured git dir and work tree.
func lockStatus() (*historyLock, error) {
	manager, err := initLockManager()
	if err != nil {
		return nil, err
	}
	held, pid, err := manager.IsLocked(git.LockKey(current.GitDir, current.WorkTree))
	if err != nil {
		return nil, output.NewSystemErrorWithCause(fmt.Sprintf("failed to check lock: %v", err), err)
	}
	return &historyLock{Held: held, PID: pid}, nil
}

func outputHistoryText(p *output.Printer, result historyResult, operations []*state.Operation) {
	p.Title(fmt.Sprintf("History for %s", result.GitDir))
	if result.Lock != nil && result.Lock.Held {
		if result.Lock.PID > 0 {
			p.Warn("Repository is locked by PID %d", result.Lock.PID)
		} else {
			p.Warn("Repository is locked")
		}
	}
	p.Line("")

	if len(result.Resolutions) == 0 {
		p.Line("No resolutions recorded.")
	} else {
		rows := make([][]string, 0, len(result.Resolutions))
		for _, r := range result.Resolutions {
			rows = append(rows, []string{r.ShortSHA, r.Input, r.CreatedAt})
		}
		p.Table([]string{"COMMIT", "INPUT", "RESOLVED"}, rows)
	}
	p.Line("")

	if len(operations) == 0 {
		p.Line("No operations recorded.")
		return
	}

	styles := p.Styles()
	rows := make([][]string, 0, len(operations))
	for _, op := range operations {
		status := styles.KindStyle(op.Kind).Render(output.KindIcon(op.Kind) + " " + op.Kind)
		rows = append(rows, []string{
			op.StartedAt.Local().Format("2006-01-02 15:04"),
			"git " + strings.Join(op.Args, " "),
			status,
			formatDuration(op.FinishedAt.Sub(op.StartedAt)),
		})
	}
	p.Table([]string{"STARTED", "COMMAND", "STATUS", "DURATION"}, rows)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
