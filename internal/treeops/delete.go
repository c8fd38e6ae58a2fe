package treeops

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"
)

// Delete removes path and everything beneath it, children first.
// It stops at the first entry that cannot be removed, leaving that entry's
// ancestors in place. A blank or missing path is a no-op. Symbolic links are
// removed, never followed.
func (e *Engine) Delete(path string) error {
	start := time.Now()
	e.mu.Lock()
	n, err := e.delete(path, false)
	e.mu.Unlock()
	e.finish(OpDelete, path, "", start, n, -1, err)
	return err
}

// Purge removes path and everything beneath it, continuing past entries that
// cannot be removed. Only the removal of path itself decides the result;
// failures below it are logged.
func (e *Engine) Purge(path string) error {
	start := time.Now()
	n, err := e.delete(path, true)
	e.finish(OpPurge, path, "", start, n, -1, err)
	return err
}

func (e *Engine) delete(path string, bestEffort bool) (int, error) {
	if isBlank(path) {
		return 0, nil
	}
	if _, err := e.fs.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if e.guard != nil {
		if err := e.guard.Check(path); err != nil {
			return 0, fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return e.removeTree(path, bestEffort)
}

type frame struct {
	path     string
	rel      string
	expanded bool
}

// removeTree walks root post-order with an explicit stack
func (e *Engine) removeTree(root string, bestEffort bool) (int, error) {
	removed := 0
	stack := []frame{{path: root}}

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]

		if !f.expanded {
			info, err := e.fs.Lstat(f.path)
			if err != nil {
				stack = stack[:top]
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if !bestEffort || f.path == root {
					return removed, fmt.Errorf("stat %s: %w", f.path, err)
				}
				e.logger.Warn("Failed to stat entry", "path", f.path, "error", err)
				continue
			}

			if info.IsDir() {
				stack[top].expanded = true
				entries, err := e.fs.ReadDir(f.path)
				if err != nil {
					if !bestEffort {
						return removed, fmt.Errorf("read directory %s: %w", f.path, err)
					}
					// The removal below reports the directory
					e.logger.Warn("Failed to read directory", "path", f.path, "error", err)
					continue
				}
				// Reverse push keeps ReadDir's sorted order
				for i := len(entries) - 1; i >= 0; i-- {
					stack = append(stack, frame{path: filepath.Join(f.path, entries[i].Name())})
				}
				continue
			}
		}

		stack = stack[:top]
		if err := e.fs.Remove(f.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if !bestEffort || f.path == root {
				return removed, fmt.Errorf("remove %s: %w", f.path, err)
			}
			e.logger.Warn("Failed to remove entry", "path", f.path, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
