package utils

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

// lockRetry is how often a waiting process polls a busy store lock.
const lockRetry = 200 * time.Millisecond

// StoreLock keeps two jobfill processes from rewriting the sitePrefs blob of
// one store at the same time. The lock lives next to the store as
// <store>.lock.
type StoreLock struct {
	fl   *flock.Flock
	path string
}

func NewStoreLock(storePath string) (*StoreLock, error) {
	abs, err := GetAbsDBPath(storePath)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	return &StoreLock{fl: flock.New(abs + ".lock"), path: abs + ".lock"}, nil
}

// Path is the lock file.
func (l *StoreLock) Path() string { return l.path }

// Held reports whether this process holds the lock.
func (l *StoreLock) Held() bool { return l.fl.Locked() }

// Acquire takes the lock. When another process holds it, Acquire logs once
// and polls until the lock frees up or ctx is done.
func (l *StoreLock) Acquire(ctx context.Context) error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if ok {
		return nil
	}

	Log.WithField("lock", l.path).Info("Store is busy in another jobfill process, waiting")
	ok, err = l.fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("wait for %s: %w", l.path, ctx.Err())
	}
	return nil
}

// Release drops the lock. Releasing a lock whose file is gone is not an
// error.
func (l *StoreLock) Release() error {
	if err := l.fl.Unlock(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the store path, defaulting to
// ~/.config/jobfill/jobfill.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jobfill", "jobfill.sqlite"), nil
}
