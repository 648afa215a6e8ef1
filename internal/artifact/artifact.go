// Package artifact publishes the finished video atomically: the encoder
// writes to a hidden temp file next to the destination, which is renamed
// into place only on success.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked reports that another run is writing the same destination.
var ErrLocked = errors.New("destination is locked by another run")

// Finalizer owns one pending artifact between Begin and Commit or Abort.
type Finalizer struct {
	dest   string
	temp   string
	lock   *flock.Flock
	closed bool
}

// Begin locks dest for this run through dest.lock, which is left in place
// between runs, and allocates its temp path. Partial files
// left by an earlier crashed run for the same destination are removed.
func Begin(dest string) (*Finalizer, error) {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(dest + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dest, ErrLocked)
	}

	f := &Finalizer{dest: dest, lock: lock}
	if err := removeStale(dest); err != nil {
		f.release()
		return nil, err
	}
	stem, ext := splitName(dest)
	f.temp = filepath.Join(dir, fmt.Sprintf(".%s.%s.partial%s", stem, uuid.NewString(), ext))
	return f, nil
}

// Path is where the encoder must write.
func (f *Finalizer) Path() string { return f.temp }

// Dest is the final artifact location.
func (f *Finalizer) Dest() string { return f.dest }

// Commit moves the finished temp file onto the destination.
func (f *Finalizer) Commit() error {
	if f.closed {
		return errors.New("artifact already finalized")
	}
	info, err := os.Stat(f.temp)
	if err != nil {
		return fmt.Errorf("encoded output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("encoded output is empty")
	}
	if err := os.Rename(f.temp, f.dest); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	f.closed = true
	f.release()
	return nil
}

// Abort discards the temp output. It is safe to call more than once and
// does nothing after a successful Commit.
func (f *Finalizer) Abort() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := os.Remove(f.temp)
	f.release()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	return nil
}

// release drops the lock. The lock file stays: removing it would let a
// waiter holding the old inode and a newcomer on a fresh file both lock.
func (f *Finalizer) release() {
	_ = f.lock.Unlock()
}

func removeStale(dest string) error {
	stem, ext := splitName(dest)
	pattern := filepath.Join(filepath.Dir(dest), "."+globEscape(stem)+".*.partial"+globEscape(ext))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("find stale partials: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale partial: %w", err)
		}
	}
	return nil
}

func splitName(path string) (stem, ext string) {
	base := filepath.Base(path)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

var globEscaper = strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)

func globEscape(s string) string {
	return globEscaper.Replace(s)
}
