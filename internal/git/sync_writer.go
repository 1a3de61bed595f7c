package git

import (
	"io"
	"sync"
)

// syncWriter serializes writes to a shared diagnostic writer.
// exec.Cmd copies stdout and stderr from separate goroutines, so a writer
// shared by both streams needs its own lock.
//
// Write never fails: a broken diagnostic writer must not cut the copy into
// the capture buffers short. The first failure is kept for Err.
type syncWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

// Write writes p to the underlying writer while holding the lock.
func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.err == nil {
		if _, err := sw.w.Write(p); err != nil {
			sw.err = err
		}
	}
	return len(p), nil
}

// Err returns the first write error from the underlying writer.
func (sw *syncWriter) Err() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.err
}
