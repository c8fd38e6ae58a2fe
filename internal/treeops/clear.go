package treeops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

type clearOptions struct {
	exclude []string
	now     func() time.Time
}

type ClearOption func(*clearOptions)

// WithExclude skips entries whose slash-separated path relative to the
// cleared directory matches any doublestar pattern, e.g. "keep/**" or "*.lock".
// Excluded directories are not descended.
func WithExclude(patterns ...string) ClearOption {
	return func(o *clearOptions) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithClock replaces time.Now as the reference for ages
func WithClock(now func() time.Time) ClearOption {
	return func(o *clearOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// ClearExpired removes every entry beneath dir modified more than maxAge ago.
// Directories are judged after their contents were processed; one that is
// still non-empty is skipped. dir itself is never removed. Failures do not
// stop the walk: they are logged and returned joined, next to the count of
// entries removed. A missing dir or one that is not a directory yields (0, nil).
func (e *Engine) ClearExpired(dir string, maxAge time.Duration, opts ...ClearOption) (int, error) {
	start := time.Now()
	if maxAge < 0 {
		err := fmt.Errorf("%w: negative max age %v", ErrInvalidArgument, maxAge)
		e.finish(OpClearExpired, dir, "", start, 0, -1, err)
		return 0, err
	}

	o := newClearOptions(opts)
	cutoff := o.now().Add(-maxAge)

	e.mu.Lock()
	n, err := e.clear(dir, o, func(info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("Clear finished with failures", "path", dir, "max_age", maxAge, "removed", n, "error", err)
	}
	e.finish(OpClearExpired, dir, "", start, n, -1, err)
	return n, err
}

// ClearAll removes every entry beneath dir, keeping dir itself
func (e *Engine) ClearAll(dir string, opts ...ClearOption) (int, error) {
	start := time.Now()
	o := newClearOptions(opts)

	e.mu.Lock()
	n, err := e.clear(dir, o, func(os.FileInfo) bool { return true })
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("Clear finished with failures", "path", dir, "removed", n, "error", err)
	}
	e.finish(OpClearAll, dir, "", start, n, -1, err)
	return n, err
}

func newClearOptions(opts []ClearOption) clearOptions {
	o := clearOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (e *Engine) clear(dir string, o clearOptions, expired func(os.FileInfo) bool) (int, error) {
	if isBlank(dir) {
		return 0, nil
	}
	for _, p := range o.exclude {
		if !doublestar.ValidatePattern(p) {
			return 0, fmt.Errorf("%w: bad exclude pattern %q", ErrInvalidArgument, p)
		}
	}

	info, err := e.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, nil
	}
	if e.guard != nil {
		if err := e.guard.CheckContents(dir); err != nil {
			return 0, fmt.Errorf("clear %s: %w", dir, err)
		}
	}

	entries, err := e.fs.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read directory %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	stack := make([]frame, 0, len(entries))
	push := func(parent, parentRel string, entries []os.DirEntry) {
		for i := len(entries) - 1; i >= 0; i-- {
			name := entries[i].Name()
			rel := path.Join(parentRel, name)
			if excluded(o.exclude, rel) {
				continue
			}
			stack = append(stack, frame{path: filepath.Join(parent, name), rel: rel})
		}
	}
	push(dir, "", entries)

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]

		info, err := e.fs.Lstat(f.path)
		if err != nil {
			stack = stack[:top]
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat %s: %w", f.path, err))
			}
			continue
		}

		if info.IsDir() && !f.expanded {
			stack[top].expanded = true
			children, err := e.fs.ReadDir(f.path)
			if err != nil {
				stack = stack[:top]
				errs = append(errs, fmt.Errorf("read directory %s: %w", f.path, err))
				continue
			}
			push(f.path, f.rel, children)
			continue
		}

		stack = stack[:top]
		if !expired(info) {
			continue
		}
		if err := e.fs.Remove(f.path); err != nil {
			switch {
			case errors.Is(err, fs.ErrNotExist):
			case info.IsDir() && isNotEmpty(err):
				e.logger.Debug("Skipping non-empty directory", "path", f.path)
			default:
				e.logger.Warn("Failed to remove entry", "path", f.path, "error", err)
				errs = append(errs, fmt.Errorf("remove %s: %w", f.path, err))
			}
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		// Patterns were validated up front
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
