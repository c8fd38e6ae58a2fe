package treeops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fileutils/internal/history"
	"fileutils/internal/logging"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{WithLogger(logging.Nop{}), WithGuard(nil)}
	return New(append(base, opts...)...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func setAge(t *testing.T, path string, age time.Duration) {
	t.Helper()
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("Failed to set mtime on %s: %v", path, err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be gone, stat error: %v", path, err)
	}
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// recordingLogger keeps every line for assertions
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(level, " ", msg, " ", args))
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) { l.add("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...interface{})  { l.add("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.add("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...interface{}) { l.add("ERROR", msg, args...) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if len(line) >= len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

// memoryRecorder collects history entries
type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memoryRecorder) Record(e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memoryRecorder) last() history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

// closeTracker is a reader that remembers being closed
type closeTracker struct {
	r      io.Reader
	closed bool
}

func (c *closeTracker) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}
