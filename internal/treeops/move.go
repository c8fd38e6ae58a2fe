package treeops

import (
	"errors"
	"fmt"
	"time"
)

// Move renames src to dst. When the rename fails, e.g. across devices, a
// regular file is copied and the source deleted afterwards; src is left
// untouched unless the copy completed.
func (e *Engine) Move(src, dst string) error {
	start := time.Now()
	n, err := e.move(src, dst)
	e.finish(OpMove, src, dst, start, 0, n, err)
	return err
}

func (e *Engine) move(src, dst string) (int64, error) {
	if isBlank(src) || isBlank(dst) {
		return -1, ErrEmptyPath
	}

	info, err := e.fs.Lstat(src)
	if err != nil {
		return -1, fmt.Errorf("%w: stat %s: %w", ErrIO, src, err)
	}
	if err := e.ensureParentForWrite(dst); err != nil {
		return -1, err
	}

	renameErr := e.fs.Rename(src, dst)
	if renameErr == nil {
		return -1, nil
	}
	if info.IsDir() {
		return -1, fmt.Errorf("move %s: %w", src, renameErr)
	}
	e.logger.Debug("Rename failed, copying instead", "src", src, "dst", dst, "error", renameErr)

	n, err := e.copyFile(src, dst, false)
	if err != nil {
		return -1, fmt.Errorf("move %s: %w", src, errors.Join(renameErr, err))
	}

	e.mu.Lock()
	_, err = e.delete(src, false)
	e.mu.Unlock()
	if err != nil {
		return n, fmt.Errorf("move %s: copied to %s but source remains: %w", src, dst, err)
	}
	return n, nil
}
