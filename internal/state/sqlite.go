// Package state provides the SQLite-backed provenance ledger for gitmigrate.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jayteealao/gitmigrate/internal/errors"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/001_initial.sql
var initialMigration string

// DefaultListLimit is used when a list query is given a non-positive limit.
const DefaultListLimit = 20

// Store records reference resolutions and git operations in SQLite.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Resolution records a reference resolved against a repository.
type Resolution struct {
	ID        string
	GitDir    string
	WorkTree  string
	Input     string // text the caller asked for
	SHA       string // canonical hash
	Timestamp *int64 // author time, nil when not read
	Label     string // provenance label key
	CreatedAt time.Time
}

// Operation records one git command and its classified outcome.
type Operation struct {
	ID         string
	GitDir     string
	WorkTree   string
	Args       []string
	Kind       string // git.KindName of the result
	ExitCode   int
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// New creates a new Store with the given data directory.
// The database file will be created at <dataDir>/gitmigrate.db.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gitmigrate.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't handle concurrent writes well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{
		db:      db,
		dataDir: dataDir,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the data directory path.
func (s *Store) DataDir() string {
	return s.dataDir
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(initialMigration); err != nil {
			return fmt.Errorf("failed to run initial migration: %w", err)
		}
	}

	return nil
}

// --- Resolution Operations ---

// RecordResolution stores a resolved reference.
func (s *Store) RecordResolution(ctx context.Context, r *Resolution) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO resolutions (id, git_dir, work_tree, input, sha, author_timestamp, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.GitDir, nullString(r.WorkTree), r.Input, r.SHA,
		nullInt64Ptr(r.Timestamp), r.Label, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}

	return nil
}

// ListResolutions returns resolutions for a git dir, most recent first.
func (s *Store) ListResolutions(ctx context.Context, gitDir string, limit int) ([]*Resolution, error) {
	query := `
		SELECT id, git_dir, work_tree, input, sha, author_timestamp, label, created_at
		FROM resolutions WHERE git_dir = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, gitDir, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		resolutions = append(resolutions, r)
	}

	return resolutions, rows.Err()
}

// FindResolutionBySHA returns the latest resolution whose hash starts with
// prefix. A hit means the reference was already seen by an earlier run.
func (s *Store) FindResolutionBySHA(ctx context.Context, gitDir, prefix string) (*Resolution, error) {
	query := `
		SELECT id, git_dir, work_tree, input, sha, author_timestamp, label, created_at
		FROM resolutions
		WHERE git_dir = ? AND substr(sha, 1, length(?)) = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`

	r, err := scanResolution(s.db.QueryRowContext(ctx, query, gitDir, prefix, prefix))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrResolutionNotFound
		}
		return nil, fmt.Errorf("failed to find resolution by SHA: %w", err)
	}

	return r, nil
}

// --- Operation Operations ---

// RecordOperation stores a git command outcome.
func (s *Store) RecordOperation(ctx context.Context, op *Operation) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if op.StartedAt.IsZero() {
		op.StartedAt = now
	}
	if op.FinishedAt.IsZero() {
		op.FinishedAt = now
	}

	args, err := json.Marshal(op.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}

	query := `
		INSERT INTO operations (id, git_dir, work_tree, args, kind, exit_code, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		op.ID, op.GitDir, nullString(op.WorkTree), string(args), op.Kind,
		op.ExitCode, nullString(op.Message), op.StartedAt, op.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}

	return nil
}

// ListOperations returns operations for a git dir, most recent first.
func (s *Store) ListOperations(ctx context.Context, gitDir string, limit int) ([]*Operation, error) {
	query := `
		SELECT id, git_dir, work_tree, args, kind, exit_code, message, started_at, finished_at
		FROM operations WHERE git_dir = ?
		ORDER BY started_at DESC, rowid DESC LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, gitDir, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var operations []*Operation
	for rows.Next() {
		var op Operation
		var workTree, message sql.NullString
		var args string
		if err := rows.Scan(
			&op.ID, &op.GitDir, &workTree, &args, &op.Kind,
			&op.ExitCode, &message, &op.StartedAt, &op.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &op.Args); err != nil {
			return nil, fmt.Errorf("failed to parse operation args: %w", err)
		}
		op.WorkTree = workTree.String
		op.Message = message.String
		operations = append(operations, &op)
	}

	return operations, rows.Err()
}

// --- Helper Functions ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResolution(row rowScanner) (*Resolution, error) {
	var r Resolution
	var workTree sql.NullString
	var ts sql.NullInt64
	if err := row.Scan(
		&r.ID, &r.GitDir, &workTree, &r.Input, &r.SHA, &ts, &r.Label, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.WorkTree = workTree.String
	if ts.Valid {
		r.Timestamp = &ts.Int64
	}
	return &r, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
