package lock

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayteealao/gitmigrate/internal/errors"
)

func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return manager
}

func TestManager_AcquireAndRelease(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	t.Run("acquire and release lock", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "/repo/.git|/repo")
		require.NoError(t, err)
		require.NotNil(t, lock)

		locked, _, err := manager.IsLocked("/repo/.git|/repo")
		require.NoError(t, err)
		assert.True(t, locked)

		require.NoError(t, lock.Release())

		locked, _, err = manager.IsLocked("/repo/.git|/repo")
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("distinct pairs are independent", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "/repo/.git|/wt-a")
		require.NoError(t, err)
		defer lock1.Release()

		lock2, err := manager.Acquire(ctx, "/repo/.git|/wt-b")
		require.NoError(t, err)
		defer lock2.Release()

		locked1, _, _ := manager.IsLocked("/repo/.git|/wt-a")
		locked2, _, _ := manager.IsLocked("/repo/.git|/wt-b")
		assert.True(t, locked1)
		assert.True(t, locked2)
	})
}

func TestManager_KeysAreHashed(t *testing.T) {
	manager := setupTestManager(t)

	lock, err := manager.Acquire(context.Background(), "/some/deep/path/.git|")
	require.NoError(t, err)
	defer lock.Release()

	entries, err := os.ReadDir(manager.lockDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.IsDir())
		assert.NotContains(t, entry.Name(), "/")
	}
	assert.NotEmpty(t, entries)
}

func TestManager_IsLocked(t *testing.T) {
	manager := setupTestManager(t)

	t.Run("not locked initially", func(t *testing.T) {
		locked, pid, err := manager.IsLocked("nonexistent")
		require.NoError(t, err)
		assert.False(t, locked)
		assert.Equal(t, 0, pid)
	})

	t.Run("locked returns current pid", func(t *testing.T) {
		lock, err := manager.Acquire(context.Background(), "pid-test")
		require.NoError(t, err)
		defer lock.Release()

		locked, pid, err := manager.IsLocked("pid-test")
		require.NoError(t, err)
		assert.True(t, locked)
		assert.Equal(t, os.Getpid(), pid)
	})
}

func TestManager_StaleLockDetection(t *testing.T) {
	manager := setupTestManager(t)
	key := "stale-test"

	lockPath, pidFile := manager.paths(key)
	require.NoError(t, os.WriteFile(lockPath, []byte{}, 0644))
	require.NoError(t, os.WriteFile(pidFile, []byte("999999999"), 0644))

	lock, err := manager.Acquire(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, lock)
	defer lock.Release()

	pid, err := readPIDFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestManager_ContextCancellation(t *testing.T) {
	manager := setupTestManager(t)
	key := "ctx-test"

	lock1, err := manager.Acquire(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, lock1)
	defer lock1.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	lock2, err := manager.Acquire(ctx, key)
	assert.ErrorIs(t, err, errors.ErrRepositoryLocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, lock2)
}

func TestManager_LockSerializes(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := manager.Lock(ctx, "/repo/.git|/repo")
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()

			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestReadWritePIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	t.Run("write and read pid", func(t *testing.T) {
		require.NoError(t, writePIDFile(pidFile))

		pid, err := readPIDFile(pidFile)
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)
	})

	t.Run("read non-existent file", func(t *testing.T) {
		_, err := readPIDFile(filepath.Join(t.TempDir(), "nonexistent.pid"))
		assert.Error(t, err)
	})
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, isProcessRunning(os.Getpid()))
	assert.False(t, isProcessRunning(0))
	assert.False(t, isProcessRunning(999999999))
}
