package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrLocked is returned when the project lock stays held past the lock timeout.
var ErrLocked = errors.New("project is locked by another kiln process")

// acquireLock takes the project lock by creating path exclusively and writing
// the current PID into it. A lock whose PID is no longer running is removed.
// A live lock is retried every interval until timeout elapses or ctx is done.
// The returned func releases the lock.
func acquireLock(ctx context.Context, path string, interval, timeout time.Duration) (func(), error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				os.Remove(path)
			}, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		pid, ok := lockOwner(path)
		if ok && !processAlive(pid) {
			// Left behind by a process that died.
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to remove stale lock %s: %w", path, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", path, ctx.Err())
		case <-deadline.C:
			return nil, fmt.Errorf("%w (pid %s); remove %s if no kiln is running", ErrLocked, ownerString(pid, ok), path)
		case <-time.After(interval):
		}
	}
}

// lockOwner reads the PID recorded in a lock file.
func lockOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func ownerString(pid int, ok bool) string {
	if !ok {
		return "unknown"
	}
	return strconv.Itoa(pid)
}
