package treeops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"fileutils/internal/pathparse"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// EnsureParentDirs creates every missing directory above path.
// It returns ErrNoParent when path has no parent component.
func (e *Engine) EnsureParentDirs(path string) error {
	parent := pathparse.Parent(path)
	if isBlank(parent) {
		return ErrNoParent
	}

	info, err := e.fs.Stat(parent)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrNotDirectory, parent)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", parent, err)
	}

	if err := e.fs.MkdirAll(parent, dirPerm); err != nil {
		return fmt.Errorf("create parent directories of %s: %w", path, err)
	}
	return nil
}

// ensureParentForWrite tolerates bare file names, which live in the working directory
func (e *Engine) ensureParentForWrite(path string) error {
	if err := e.EnsureParentDirs(path); err != nil && !errors.Is(err, ErrNoParent) {
		return err
	}
	return nil
}

// CreateDirectory creates path and its missing parents.
// An existing directory is returned unchanged.
func (e *Engine) CreateDirectory(path string) (string, error) {
	start := time.Now()
	e.mu.Lock()
	created, err := e.createDirectory(path)
	e.mu.Unlock()
	e.finish(OpCreateDirectory, path, "", start, 0, -1, err)
	return created, err
}

func (e *Engine) createDirectory(path string) (string, error) {
	if isBlank(path) {
		return "", ErrEmptyPath
	}

	info, err := e.fs.Stat(path)
	if err == nil {
		if info.IsDir() {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if err := e.fs.MkdirAll(path, dirPerm); err != nil {
		return "", fmt.Errorf("create directory %s: %w", path, err)
	}
	return path, nil
}

// CreateFile creates an empty file and its missing parents.
// An existing regular file is returned untouched.
func (e *Engine) CreateFile(path string) (string, error) {
	start := time.Now()
	e.mu.Lock()
	created, err := e.createFile(path)
	e.mu.Unlock()
	e.finish(OpCreateFile, path, "", start, 0, -1, err)
	return created, err
}

func (e *Engine) createFile(path string) (string, error) {
	if isBlank(path) {
		return "", ErrEmptyPath
	}

	info, err := e.fs.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrIsDirectory, path)
		}
		return path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if err := e.ensureParentForWrite(path); err != nil {
		return "", err
	}

	f, err := e.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		// Lost a race with another creator
		if errors.Is(err, fs.ErrExist) {
			return path, nil
		}
		return "", fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", ErrIO, path, err)
	}
	return path, nil
}
