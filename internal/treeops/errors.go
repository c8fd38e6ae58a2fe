package treeops

import (
	"errors"
	"syscall"
)

var (
	ErrEmptyPath       = errors.New("empty path")
	ErrNoParent        = errors.New("path has no parent directory")
	ErrNotDirectory    = errors.New("not a directory")
	ErrIsDirectory     = errors.New("is a directory")
	ErrIO              = errors.New("i/o failure")
	ErrInvalidArgument = errors.New("invalid argument")
)

// isNotEmpty reports a removal refused because the directory still has entries
func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}
