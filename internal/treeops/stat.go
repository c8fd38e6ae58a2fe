package treeops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// IsFile reports whether path names an existing regular file
func (e *Engine) IsFile(path string) bool {
	if isBlank(path) {
		return false
	}
	info, err := e.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path names an existing directory
func (e *Engine) IsDir(path string) bool {
	if isBlank(path) {
		return false
	}
	info, err := e.fs.Stat(path)
	return err == nil && info.IsDir()
}

// FileSize returns the size of a regular file, or -1
func (e *Engine) FileSize(path string) int64 {
	if isBlank(path) {
		return -1
	}
	info, err := e.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

// TreeStats summarizes the regular files beneath a directory
type TreeStats struct {
	Files int64
	Dirs  int64
	Bytes int64
}

// TreeSize totals the files under path. The walk runs concurrently on the
// real filesystem and does not follow symbolic links. Unreadable entries are
// skipped. A missing path yields zero stats.
func (e *Engine) TreeSize(path string) (TreeStats, error) {
	if isBlank(path) {
		return TreeStats{}, nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TreeStats{}, nil
		}
		return TreeStats{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			return TreeStats{Files: 1, Bytes: info.Size()}, nil
		}
		return TreeStats{}, nil
	}

	var files, dirs, bytes atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			e.logger.Debug("Skipping unreadable entry", "path", p, "error", err)
			return nil
		}
		if p == path {
			return nil
		}
		if d.IsDir() {
			dirs.Add(1)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files.Add(1)
		bytes.Add(fi.Size())
		return nil
	})
	if err != nil {
		return TreeStats{}, fmt.Errorf("walk %s: %w", path, err)
	}

	return TreeStats{Files: files.Load(), Dirs: dirs.Load(), Bytes: bytes.Load()}, nil
}
