package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory lock on the data directory. Maintenance
// commands take it so two wipes or seeds never interleave.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the lock at path without waiting. It fails when another
// process holds it.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another shobdotori maintenance command is running (lock %s)", path)
	}
	return &Lock{flock: fl}, nil
}

// Release unlocks.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.flock.Unlock()
}
