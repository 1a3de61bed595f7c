package git

import "context"

// Revision is the view of a reference consumed by the migration workflow.
type Revision interface {
	AsString() string
	ReadTimestamp(ctx context.Context) (int64, error)
	LabelName() string
}

// Ensure Reference implements Revision
var _ Revision = (*Reference)(nil)

// Ensure ExecRunner implements Runner
var _ Runner = (*ExecRunner)(nil)
