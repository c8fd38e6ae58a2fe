package fsops

import (
	"io"
	"os"
)

// OSFS implements FS using real os package calls
type OSFS struct{}

func (OSFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func (OSFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (OSFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OSFS) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OSFS) OpenFile(path string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}
