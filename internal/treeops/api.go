package treeops

import (
	"io"
	"time"
)

// Package-level forms of the Engine methods, run on Default().

// EnsureParentDirs creates the missing parent directories of path
func EnsureParentDirs(path string) error { return Default().EnsureParentDirs(path) }

// CreateDirectory creates path and its missing parents
func CreateDirectory(path string) (string, error) { return Default().CreateDirectory(path) }

// CreateFile creates an empty file and its parents, keeping an existing one
func CreateFile(path string) (string, error) { return Default().CreateFile(path) }

// Delete removes path and everything beneath it, stopping at the first failure
func Delete(path string) error { return Default().Delete(path) }

// Purge removes as much of path as it can. Only failing to remove path
// itself is returned; failures below it are logged.
func Purge(path string) error { return Default().Purge(path) }

// ClearExpired removes entries under dir older than maxAge, keeping dir
func ClearExpired(dir string, maxAge time.Duration, opts ...ClearOption) (int, error) {
	return Default().ClearExpired(dir, maxAge, opts...)
}

// ClearAll removes every entry under dir, keeping dir
func ClearAll(dir string, opts ...ClearOption) (int, error) {
	return Default().ClearAll(dir, opts...)
}

// Copy streams src into dst, appending or truncating
func Copy(src io.Reader, dst string, appendMode bool) error {
	return Default().Copy(src, dst, appendMode)
}

// CopyFile replaces dstPath with a copy of srcPath
func CopyFile(srcPath, dstPath string) error { return Default().CopyFile(srcPath, dstPath) }

// AppendFile appends srcPath to dstPath
func AppendFile(srcPath, dstPath string) error { return Default().AppendFile(srcPath, dstPath) }

// CopyWithProgress copies up to totalLength bytes, reporting each read to onProgress
func CopyWithProgress(src io.Reader, dst string, totalLength int64, onProgress ProgressFunc, appendMode bool) error {
	return Default().CopyWithProgress(src, dst, totalLength, onProgress, appendMode)
}

// Store writes src to path, creating it first
func Store(src io.Reader, path string) error { return Default().Store(src, path) }

// Move renames src to dst, falling back to copy and delete for files
func Move(src, dst string) error { return Default().Move(src, dst) }

// IsFile reports whether path is a regular file
func IsFile(path string) bool { return Default().IsFile(path) }

// IsDir reports whether path is a directory
func IsDir(path string) bool { return Default().IsDir(path) }

// FileSize returns the size of a regular file, or -1
func FileSize(path string) int64 { return Default().FileSize(path) }

// TreeSize totals the files under path
func TreeSize(path string) (TreeStats, error) { return Default().TreeSize(path) }
