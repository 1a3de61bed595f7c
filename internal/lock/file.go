// Package lock provides file-based repository locking with PID-based stale detection.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jayteealao/gitmigrate/internal/errors"
)

// retryDelay is how often Acquire polls a held lock.
const retryDelay = 100 * time.Millisecond

// Lock is a held lock on one repository key.
type Lock struct {
	flock   *flock.Flock
	pidFile string
}

// Manager manages repository locks under <dataDir>/locks.
type Manager struct {
	lockDir string
}

// NewManager creates a new lock manager.
func NewManager(dataDir string) (*Manager, error) {
	lockDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(lockDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &Manager{lockDir: lockDir}, nil
}

// paths maps a key to its lock and PID files. Keys contain path separators,
// so the file name is derived from a hash of the key.
func (m *Manager) paths(key string) (lockPath, pidFile string) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:16])
	return filepath.Join(m.lockDir, name+".lock"), filepath.Join(m.lockDir, name+".pid")
}

// Acquire blocks until the lock for key is held or ctx is done.
// Stale PID files left by dead processes are removed first.
func (m *Manager) Acquire(ctx context.Context, key string) (*Lock, error) {
	lockPath, pidFile := m.paths(key)

	m.cleanStaleLock(pidFile)

	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil || !locked {
		if pid, pidErr := readPIDFile(pidFile); pidErr == nil {
			return nil, fmt.Errorf("%w: held by PID %d: %w", errors.ErrRepositoryLocked, pid, lockCause(err))
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrRepositoryLocked, lockCause(err))
	}

	if err := writePIDFile(pidFile); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return &Lock{
		flock:   fl,
		pidFile: pidFile,
	}, nil
}

func lockCause(err error) error {
	if err == nil {
		return stderrors.New("lock not acquired")
	}
	return err
}

// IsLocked reports whether key is locked and, when known, the holder's PID.
func (m *Manager) IsLocked(key string) (bool, int, error) {
	lockPath, pidFile := m.paths(key)

	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check lock: %w", err)
	}

	if locked {
		fl.Unlock()
		return false, 0, nil
	}

	pid, err := readPIDFile(pidFile)
	if err != nil {
		return true, 0, nil // Locked but unknown PID
	}

	return true, pid, nil
}

// Lock acquires the lock for key and returns its release function.
// It lets a Manager serve as a git.Locker.
func (m *Manager) Lock(ctx context.Context, key string) (func() error, error) {
	l, err := m.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	return l.Release, nil
}

// cleanStaleLock removes a PID file whose process no longer exists.
// The lock file itself stays: removing it could let two processes lock
// different inodes for the same key.
func (m *Manager) cleanStaleLock(pidFile string) {
	pid, err := readPIDFile(pidFile)
	if err != nil {
		return
	}
	if isProcessRunning(pid) {
		return
	}
	os.Remove(pidFile)
}

// Release releases the lock.
func (l *Lock) Release() error {
	os.Remove(l.pidFile)

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// writePIDFile writes the current process PID to the given file.
func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

// readPIDFile reads a PID from the given file.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return pid, nil
}

// isProcessRunning checks if a process with the given PID is running.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds; signal 0 probes for existence.
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if stderrors.Is(err, os.ErrProcessDone) || stderrors.Is(err, syscall.ESRCH) {
		return false
	}

	// EPERM and anything unexpected: assume it's running
	return true
}
