package state

import "context"

// Ledger defines the interface for provenance storage operations.
type Ledger interface {
	Close() error
	DataDir() string

	// Resolution operations
	RecordResolution(ctx context.Context, r *Resolution) error
	ListResolutions(ctx context.Context, gitDir string, limit int) ([]*Resolution, error)
	FindResolutionBySHA(ctx context.Context, gitDir, prefix string) (*Resolution, error)

	// Operation operations
	RecordOperation(ctx context.Context, op *Operation) error
	ListOperations(ctx context.Context, gitDir string, limit int) ([]*Operation, error)
}

// Ensure Store implements Ledger
var _ Ledger = (*Store)(nil)
