package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// sessionLockTimeout is how long a new session waits for another one
// browsing the same directory before giving up.
const sessionLockTimeout = 2 * time.Second

// acquireSessionLock obtains the per-directory session lock for dir.
func acquireSessionLock(dir string, timeout time.Duration) (func(), error) {
	lockPath, err := sessionLockPath(dir)
	if err != nil {
		return func() {}, err
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire session lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another imgrepo session is browsing %s (lock: %s)", dir, lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// sessionLockPath maps an image directory to a per-user lock file. The
// directory is made absolute first so that different spellings of the same
// path share one lock.
func sessionLockPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", dir, err)
	}
	name := fmt.Sprintf("session-%016x.lock", xxhash.Sum64String(filepath.Clean(abs)))

	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		d := filepath.Join(cacheDir, "imgrepo")
		if err := os.MkdirAll(d, 0o755); err == nil {
			return filepath.Join(d, name), nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		d := filepath.Join(home, ".imgrepo")
		if err := os.MkdirAll(d, 0o755); err == nil {
			return filepath.Join(d, name), nil
		}
	}
	return "", fmt.Errorf("cannot determine writable lock directory")
}
