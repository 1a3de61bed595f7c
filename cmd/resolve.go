package cmd

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
	"github.com/jayteealao/gitmigrate/internal/git"
	"github.com/jayteealao/gitmigrate/internal/output"
	"github.com/jayteealao/gitmigrate/internal/state"
	"github.com/jayteealao/gitmigrate/internal/validate"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <ref>...",
	Short: "Resolve references to canonical SHA-1 hashes",
	Long: `Resolve each reference (branch, tag, relative expression or hash prefix)
against --git-dir and print its complete SHA-1 and author timestamp.

Every resolution is recorded in the ledger. A hash resolved before is
reported with the time it was last seen.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var resolveNoTimestampFlag bool

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveNoTimestampFlag, "no-timestamp", false, "skip reading the author timestamp")
}

type resolveEntry struct {
	Input     string `json:"input" yaml:"input"`
	SHA       string `json:"sha" yaml:"sha"`
	Timestamp *int64 `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Label     string `json:"label" yaml:"label"`
	LastSeen  string `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	for _, ref := range args {
		if err := validate.Ref(ref); err != nil {
			return err
		}
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

	entries := make([]resolveEntry, 0, len(args))
	for _, ref := range args {
		if err := checkContext(ctx); err != nil {
			return err
		}

		entry, err := resolveOne(ctx, repo, ledger, ref)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	return newPrinter(cmd).Result(entries, func(p *output.Printer) {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			timestamp := "-"
			if e.Timestamp != nil {
				timestamp = time.Unix(*e.Timestamp, 0).UTC().Format(time.RFC3339)
			}
			seen := "new"
			if e.LastSeen != "" {
				seen = e.LastSeen
			}
			rows = append(rows, []string{e.Input, e.SHA, timestamp, seen})
		}
		p.Table([]string{"INPUT", "SHA", "AUTHORED", "LAST SEEN"}, rows)
	})
}

func resolveOne(ctx context.Context, repo *git.Repository, ledger state.Ledger, input string) (resolveEntry, error) {
	ref, err := repo.ResolveReference(ctx, input)
	if err != nil {
		return resolveEntry{}, err
	}

	entry := resolveEntry{Input: input, SHA: ref.AsString(), Label: ref.LabelName()}
	if !resolveNoTimestampFlag {
		ts, err := ref.ReadTimestamp(ctx)
		if err != nil {
			return resolveEntry{}, err
		}
		entry.Timestamp = &ts
	}

	if ledger == nil {
		return entry, nil
	}

	previous, err := ledger.FindResolutionBySHA(ctx, repo.GitDir(), entry.SHA)
	switch {
	case err == nil:
		entry.LastSeen = previous.CreatedAt.UTC().Format(time.RFC3339)
	case !errors.Is(err, apperrors.ErrResolutionNotFound):
		logger.Warn("failed to look up resolution", zap.String("sha", entry.SHA), zap.Error(err))
	}

	resolution := &state.Resolution{
		GitDir:    repo.GitDir(),
		WorkTree:  repo.WorkTree(),
		Input:     input,
		SHA:       entry.SHA,
		Timestamp: entry.Timestamp,
		Label:     entry.Label,
	}
	if err := ledger.RecordResolution(context.WithoutCancel(ctx), resolution); err != nil {
		logger.Warn("failed to record resolution",
			zap.String("input", input), zap.String("sha", entry.SHA), zap.Error(err))
	}

	logger.Info("resolved reference",
		zap.String("input", input),
		zap.String("sha", entry.SHA),
		zap.String("short_sha", git.ShortSHA(entry.SHA)),
		zap.String("timestamp", formatTimestamp(entry.Timestamp)))
	return entry, nil
}

func formatTimestamp(ts *int64) string {
	if ts == nil {
		return ""
	}
	return strconv.FormatInt(*ts, 10)
}
