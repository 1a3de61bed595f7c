package git

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jayteealao/gitmigrate/internal/errors"
)

func TestSHA1Predicates(t *testing.T) {
	tests := []struct {
		text     string
		sha1     bool
		complete bool
	}{
		{text: strings.Repeat("a", 40), sha1: true, complete: true},
		{text: "0123456789abcdef0123456789abcdef01234567", sha1: true, complete: true},
		{text: "abc1234", sha1: true},
		{text: "abc123"},
		{text: strings.Repeat("a", 41)},
		{text: strings.Repeat("A", 40)},
		{text: "abc123g"},
		{text: "main"},
		{text: ""},
		{text: " " + strings.Repeat("a", 39)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.sha1, IsSHA1Reference(tt.text))
			assert.Equal(t, tt.complete, IsCompleteSHA1Reference(tt.text))
		})
	}
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abc1234", ShortSHA("abc1234def"))
	assert.Equal(t, "abc", ShortSHA("abc"))
}

func TestCreateReferenceFromCompleteSHA1(t *testing.T) {
	runner := &recordingRunner{}
	repo := Bare(t.TempDir(), false, InheritEnvironment(), WithRunner(runner))

	t.Run("valid", func(t *testing.T) {
		sha := strings.Repeat("0f", 20)
		ref, err := repo.CreateReferenceFromCompleteSHA1(sha)
		require.NoError(t, err)
		assert.Equal(t, sha, ref.AsString())
		assert.Equal(t, sha, ref.String())
		assert.Same(t, repo, ref.Repository())
		assert.Equal(t, "GitOrigin-RevId", ref.LabelName())
	})

	t.Run("invalid", func(t *testing.T) {
		for _, text := range []string{"abc1234", strings.Repeat("F", 40), "HEAD"} {
			_, err := repo.CreateReferenceFromCompleteSHA1(text)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSHA1, text)
		}
	})

	assert.Empty(t, runner.calls(), "strict construction never spawns git")
}

func TestResolveReference(t *testing.T) {
	workTree := setupTestRepo(t)
	repo := New(filepath.Join(workTree, ".git"), workTree, false, InheritEnvironment())
	ctx := context.Background()

	full := strings.TrimSpace(runGit(t, workTree, "rev-parse", "HEAD"))

	t.Run("resolves to canonical hash", func(t *testing.T) {
		ref, err := repo.ResolveReference(ctx, "HEAD")
		require.NoError(t, err)
		assert.Equal(t, full, ref.AsString())
		assert.Same(t, repo, ref.Repository())
	})

	t.Run("timestamp", func(t *testing.T) {
		ref, err := repo.ResolveReference(ctx, ShortSHA(full))
		require.NoError(t, err)

		want, err := strconv.ParseInt(strings.TrimSpace(runGit(t, workTree, "show", "-s", "--format=%at", full)), 10, 64)
		require.NoError(t, err)

		got, err := ref.ReadTimestamp(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Positive(t, got)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := repo.ResolveReference(ctx, "refs/heads/does-not-exist")
		assert.ErrorIs(t, err, apperrors.ErrCannotFindReference)
	})
}

func TestReference_ReadTimestampParseFailure(t *testing.T) {
	runner := &recordingRunner{outcomes: []Outcome{{Stdout: "not-a-number\n"}}}
	repo := Bare(t.TempDir(), false, InheritEnvironment(), WithRunner(runner))

	ref, err := repo.CreateReferenceFromCompleteSHA1(strings.Repeat("1", 40))
	require.NoError(t, err)

	_, err = ref.ReadTimestamp(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRepository)

	var numErr *strconv.NumError
	assert.ErrorAs(t, err, &numErr)

	calls := runner.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"show", "-s", "--format=%at", strings.Repeat("1", 40)}, calls[0].Args[1:])
}

func TestReference_ReadTimestampTrims(t *testing.T) {
	runner := &recordingRunner{outcomes: []Outcome{{Stdout: "1700000000\n"}}}
	repo := Bare(t.TempDir(), false, InheritEnvironment(), WithRunner(runner))

	ref, err := repo.CreateReferenceFromCompleteSHA1(strings.Repeat("2", 40))
	require.NoError(t, err)

	ts, err := ref.ReadTimestamp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)
}
