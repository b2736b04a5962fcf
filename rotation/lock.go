package rotation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an advisory cross-process lock guarding the rotation state and
// usage counter. At most one run may hold it; a second invocation is
// rejected instead of interleaving writes.
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the lock file at path without blocking. It fails when
// another run already holds it.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another generation run is already in progress (lock %s)", path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Release drops the lock
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file location
func (l *Lock) Path() string { return l.path }
