package treeops

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ProgressFunc receives the size of each chunk read and the bytes still expected
type ProgressFunc func(chunk, remaining int64)

// Copy streams src into dst in fixed-size chunks, creating dst's parent
// directories. dst is appended to or truncated. src is closed when it is an
// io.Closer. Failures wrap ErrIO.
func (e *Engine) Copy(src io.Reader, dst string, appendMode bool) error {
	start := time.Now()
	n, err := e.copyStream(src, dst, appendMode, e.bufferSize)
	e.finish(OpCopy, "", dst, start, 0, n, err)
	return err
}

// CopyFile copies the regular file srcPath to dstPath, replacing its content
func (e *Engine) CopyFile(srcPath, dstPath string) error {
	start := time.Now()
	n, err := e.copyFile(srcPath, dstPath, false)
	e.finish(OpCopyFile, srcPath, dstPath, start, 0, n, err)
	return err
}

// AppendFile appends the regular file srcPath to dstPath, creating dstPath
// when missing. Appending a file to itself is refused.
func (e *Engine) AppendFile(srcPath, dstPath string) error {
	start := time.Now()
	n, err := e.copyFile(srcPath, dstPath, true)
	e.finish(OpAppendFile, srcPath, dstPath, start, 0, n, err)
	return err
}

func (e *Engine) copyFile(srcPath, dstPath string, appendMode bool) (int64, error) {
	if isBlank(srcPath) || isBlank(dstPath) {
		return 0, ErrEmptyPath
	}

	srcInfo, err := e.fs.Stat(srcPath)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrIO, srcPath, err)
	}
	if srcInfo.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrIsDirectory, srcPath)
	}
	if dstInfo, err := e.fs.Stat(dstPath); err == nil && os.SameFile(srcInfo, dstInfo) {
		return 0, fmt.Errorf("%w: %s and %s are the same file", ErrInvalidArgument, srcPath, dstPath)
	}

	src, err := e.fs.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrIO, srcPath, err)
	}
	return e.copyStream(src, dstPath, appendMode, e.bufferSize)
}

// sameFile reports whether src is an open file that dst also names.
// Truncating dst would empty the source; appending to it never reaches EOF.
func (e *Engine) sameFile(src io.Reader, dst string) error {
	f, ok := src.(interface{ Stat() (os.FileInfo, error) })
	if !ok {
		return nil
	}
	srcInfo, err := f.Stat()
	if err != nil {
		return nil
	}
	dstInfo, err := e.fs.Stat(dst)
	if err != nil {
		return nil
	}
	if os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("%w: source and %s are the same file", ErrInvalidArgument, dst)
	}
	return nil
}

// copyStream closes src and the destination on every path
func (e *Engine) copyStream(src io.Reader, dst string, appendMode bool, chunk int) (written int64, err error) {
	if src == nil {
		return 0, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if c, ok := src.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("%w: close source: %w", ErrIO, cerr)
			}
		}()
	}
	if isBlank(dst) {
		return 0, ErrEmptyPath
	}
	if err := e.sameFile(src, dst); err != nil {
		return 0, err
	}

	w, err := e.openDestination(dst, appendMode)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrIO, dst, cerr)
		}
	}()

	r := e.limiter.Reader(context.Background(), src)
	buf := make([]byte, chunk)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("%w: write %s: %w", ErrIO, dst, werr)
			}
			written += int64(n)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: read: %w", ErrIO, rerr)
		}
	}
}

func (e *Engine) openDestination(dst string, appendMode bool) (io.WriteCloser, error) {
	if err := e.ensureParentForWrite(dst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	w, err := e.fs.OpenFile(dst, flag, filePerm)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, dst, err)
	}
	return w, nil
}

// CopyWithProgress copies up to totalLength bytes from src to dst, calling
// onProgress after every read. Writes go through a buffer of
// min(totalLength, maxProgressBuffer) bytes, so the declared length never
// sizes an allocation beyond that. A source that ends early is not an
// error. Failures are logged and returned.
func (e *Engine) CopyWithProgress(src io.Reader, dst string, totalLength int64, onProgress ProgressFunc, appendMode bool) error {
	start := time.Now()
	n, err := e.copyWithProgress(src, dst, totalLength, onProgress, appendMode)
	if err != nil {
		e.logger.Error("Progress copy failed", "dst", dst, "total_length", totalLength, "error", err)
	}
	e.finish(OpCopyProgress, "", dst, start, 0, n, err)
	return err
}

func (e *Engine) copyWithProgress(src io.Reader, dst string, totalLength int64, onProgress ProgressFunc, appendMode bool) (written int64, err error) {
	if src == nil {
		return 0, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if c, ok := src.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("%w: close source: %w", ErrIO, cerr)
			}
		}()
	}
	if totalLength < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, totalLength)
	}
	if isBlank(dst) {
		return 0, ErrEmptyPath
	}
	if err := e.sameFile(src, dst); err != nil {
		return 0, err
	}

	w, err := e.openDestination(dst, appendMode)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrIO, dst, cerr)
		}
	}()

	bw := bufio.NewWriterSize(w, int(min(totalLength, maxProgressBuffer)))
	r := e.limiter.Reader(context.Background(), src)
	chunk := make([]byte, e.bufferSize)
	var consumed int64
	for consumed < totalLength {
		want := min(int64(len(chunk)), totalLength-consumed)
		n, rerr := r.Read(chunk[:want])
		if n > 0 {
			if _, werr := bw.Write(chunk[:n]); werr != nil {
				return consumed, fmt.Errorf("%w: write %s: %w", ErrIO, dst, werr)
			}
			consumed += int64(n)
			if onProgress != nil {
				onProgress(int64(n), totalLength-consumed)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return consumed - int64(bw.Buffered()), fmt.Errorf("%w: read: %w", ErrIO, rerr)
		}
	}

	if err := bw.Flush(); err != nil {
		return consumed - int64(bw.Buffered()), fmt.Errorf("%w: write %s: %w", ErrIO, dst, err)
	}
	return consumed, nil
}

// Store writes src to path through a store-sized buffer, creating the file
// and its parents first. Failures are logged and returned.
func (e *Engine) Store(src io.Reader, path string) error {
	start := time.Now()
	e.mu.Lock()
	n, err := e.store(src, path)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("Store failed", "path", path, "error", err)
	}
	e.finish(OpStore, "", path, start, 0, n, err)
	return err
}

func (e *Engine) store(src io.Reader, path string) (int64, error) {
	if src == nil {
		return 0, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if _, err := e.createFile(path); err != nil {
		if c, ok := src.(io.Closer); ok {
			c.Close()
		}
		return 0, err
	}
	return e.copyStream(src, path, false, e.storeBufferSize)
}
