// Package lockfile provides inter-process exclusive locks backed by files.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// ErrReleased is returned when releasing a lock that was already released.
var ErrReleased = errors.New("lock already released")

// LockFile is an exclusive lock held on a file until Release is called or
// the process exits.
type LockFile struct {
	path string

	mtx sync.Mutex
	f   *lockedfile.File
}

// Path returns the path of the lock file.
func (lf *LockFile) Path() string {
	return lf.path
}

// Release releases the lock.
func (lf *LockFile) Release() error {
	lf.mtx.Lock()
	defer lf.mtx.Unlock()
	if lf.f == nil {
		return ErrReleased
	}
	err := lf.f.Close()
	lf.f = nil
	return err
}

// Acquire blocks until the lock on path is obtained or ctx is done. The
// owner string is written to the lock file along with the pid to help
// debugging stale locks.
func Acquire(ctx context.Context, path, owner string) (*LockFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	type result struct {
		f   *lockedfile.File
		err error
	}
	c := make(chan result, 1)
	go func() {
		f, err := lockedfile.Create(path)
		c <- result{f: f, err: err}
	}()

	select {
	case res := <-c:
		if res.err != nil {
			return nil, res.err
		}
		// Errors writing the debug info are not fatal.
		fmt.Fprintf(res.f, "PID=%d\nOwner=%q\n", os.Getpid(), owner)
		return &LockFile{path: path, f: res.f}, nil

	case <-ctx.Done():
		// The lock may still be obtained later on. Release it as soon
		// as that happens.
		go func() {
			if res := <-c; res.err == nil {
				res.f.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
