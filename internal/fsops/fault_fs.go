package fsops

import (
	"io"
	"os"
	"sync"
)

// FaultFS wraps another FS, records mutating calls and fails the ones it is told to.
// Used in tests to simulate undeletable entries and cross-device renames
type FaultFS struct {
	Base FS

	// RemoveErrs fails Remove for the listed paths without touching them.
	RemoveErrs map[string]error
	// LateRemoveErrs removes the listed paths, then reports the error anyway.
	LateRemoveErrs map[string]error
	// RenameErr fails every Rename when set.
	RenameErr error
	// OpenFileErrs fails OpenFile for the listed paths.
	OpenFileErrs map[string]error
	// WriteErr fails every write to a file opened through OpenFile.
	WriteErr error

	mu    sync.Mutex
	Calls []string
}

// NewFaultFS returns a FaultFS over the real filesystem.
func NewFaultFS() *FaultFS {
	return &FaultFS{
		Base:           OSFS{},
		RemoveErrs:     map[string]error{},
		LateRemoveErrs: map[string]error{},
		OpenFileErrs:   map[string]error{},
	}
}

func (f *FaultFS) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *FaultFS) Stat(path string) (os.FileInfo, error) {
	return f.Base.Stat(path)
}

func (f *FaultFS) Lstat(path string) (os.FileInfo, error) {
	return f.Base.Lstat(path)
}

func (f *FaultFS) ReadDir(path string) ([]os.DirEntry, error) {
	return f.Base.ReadDir(path)
}

func (f *FaultFS) MkdirAll(path string, perm os.FileMode) error {
	f.record("mkdir:" + path)
	return f.Base.MkdirAll(path, perm)
}

func (f *FaultFS) Remove(path string) error {
	f.record("rm:" + path)
	if err, ok := f.RemoveErrs[path]; ok {
		return &os.PathError{Op: "remove", Path: path, Err: err}
	}
	if err, ok := f.LateRemoveErrs[path]; ok {
		if rerr := f.Base.Remove(path); rerr != nil {
			return rerr
		}
		return &os.PathError{Op: "remove", Path: path, Err: err}
	}
	return f.Base.Remove(path)
}

func (f *FaultFS) Rename(oldPath, newPath string) error {
	f.record("mv:" + oldPath + "->" + newPath)
	if f.RenameErr != nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: f.RenameErr}
	}
	return f.Base.Rename(oldPath, newPath)
}

func (f *FaultFS) Open(path string) (io.ReadCloser, error) {
	return f.Base.Open(path)
}

func (f *FaultFS) OpenFile(path string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	f.record("open:" + path)
	if err, ok := f.OpenFileErrs[path]; ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	w, err := f.Base.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	if f.WriteErr != nil {
		return &failingWriter{WriteCloser: w, err: f.WriteErr}, nil
	}
	return w, nil
}

// CallsWithPrefix returns the recorded calls starting with prefix, e.g. "rm:".
func (f *FaultFS) CallsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

type failingWriter struct {
	io.WriteCloser
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}
