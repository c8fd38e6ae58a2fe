package fsops

import (
	"io"
	"os"
)

// FS abstracts the filesystem calls made by tree operations.
// Enables injecting failures in tests (permission errors, cross-device renames)
type FS interface {
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Open(path string) (io.ReadCloser, error)
	OpenFile(path string, flag int, perm os.FileMode) (io.WriteCloser, error)
}
