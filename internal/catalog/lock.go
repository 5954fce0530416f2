package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockTimeout bounds how long a session waits for another process to finish
// its session on the same store.
const LockTimeout = 2 * time.Second

const lockRetryDelay = 10 * time.Millisecond

var errLockTimeout = errors.New("lock timeout")

// lockStore takes an advisory lock on <path>.lock for the duration of one
// session. Read sessions share the lock, write sessions hold it exclusively.
func lockStore(path string, exclusive bool) (*flock.Flock, error) {
	lockPath := path + ".lock"

	mkdirErr := os.MkdirAll(filepath.Dir(lockPath), dirPerms)
	if mkdirErr != nil {
		return nil, fmt.Errorf("creating lock directory: %w", mkdirErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	fl := flock.New(lockPath)

	var (
		locked bool
		err    error
	)

	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}

	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("locking %s: %w", lockPath, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s", errLockTimeout, lockPath)
	}

	return fl, nil
}

func unlockStore(fl *flock.Flock) {
	_ = fl.Unlock()
}
