package lock

import (
	"context"

	"github.com/jayteealao/gitmigrate/internal/git"
)

// LockOperations defines the interface for lock management.
type LockOperations interface {
	Acquire(ctx context.Context, key string) (*Lock, error)
	IsLocked(key string) (bool, int, error)
}

// Ensure Manager implements LockOperations
var _ LockOperations = (*Manager)(nil)

// Ensure Manager can serialize repository handles
var _ git.Locker = (*Manager)(nil)
