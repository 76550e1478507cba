package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

// StorageLock is an advisory lock on "<storage file>.lock". A CLI session
// holds it from opening the stores until it exits, so two timeline
// processes never interleave writes to the same items record.
type StorageLock struct {
	fl *flock.Flock
	// busy receives the notice printed when another session holds the lock.
	busy io.Writer
}

// NewStorageLock prepares the lock for an already resolved storage path and
// creates the storage directory if needed.
func NewStorageLock(storagePath string) (*StorageLock, error) {
	if err := os.MkdirAll(filepath.Dir(storagePath), 0o755); err != nil {
		return nil, err
	}
	return &StorageLock{
		fl:   flock.New(storagePath + ".lock"),
		busy: os.Stderr,
	}, nil
}

func (l *StorageLock) Path() string {
	return l.fl.Path()
}

// Lock blocks until the lock is held.
func (l *StorageLock) Lock() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.Path(), err)
	}
	if ok {
		return nil
	}

	fmt.Fprintln(l.busy, "Another timeline session is using the storage, waiting for it to finish...")
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", l.Path(), err)
	}
	return nil
}

func (l *StorageLock) Unlock() error {
	if err := l.fl.Unlock(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlocking %s: %w", l.Path(), err)
	}
	return nil
}

// ResolveStoragePath expands ~ and makes p absolute. An empty p means
// ~/.config/timeline/timeline.sqlite.
func ResolveStoragePath(p string) (string, error) {
	if p == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "timeline", "timeline.sqlite"), nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
