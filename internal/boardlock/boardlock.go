// Package boardlock serializes concurrent crawls of the same job board
// across processes using a filesystem advisory lock, resolving the
// "what happens if two crawls of the same board overlap" design question.
package boardlock

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Lock wraps a single board's on-disk lock file.
type Lock struct {
	fl *flock.Flock
}

// For derives the lock for a board URL. Locks for the same URL, even
// across process restarts, resolve to the same file path.
func For(dir, boardURL string) *Lock {
	sum := sha1.Sum([]byte(boardURL))
	name := hex.EncodeToString(sum[:]) + ".lock"
	return &Lock{fl: flock.New(filepath.Join(dir, name))}
}

// Acquire blocks until the lock is held or ctx is done, polling every
// 100ms since flock has no native blocking wait across all platforms.
func (l *Lock) Acquire(ctx context.Context) error {
	for {
		locked, err := l.fl.TryLock()
		if err != nil {
			return err
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
