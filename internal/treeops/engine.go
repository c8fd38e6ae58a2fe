// Package treeops creates, deletes, clears, copies and moves files and
// directory trees.
//
// CreateDirectory, CreateFile, Delete, ClearExpired, ClearAll, Store and
// work passed to Do are serialized per Engine: at most one of them runs at a
// time, whatever paths they touch. The package-level functions share one
// default Engine and so are serialized process-wide. EnsureParentDirs, Purge,
// Copy, CopyFile, CopyWithProgress and Move take no lock and may race with
// concurrent callers touching the same paths.
package treeops

import (
	"strings"
	"sync"
	"time"

	"fileutils/internal/config"
	"fileutils/internal/fsops"
	"fileutils/internal/history"
	"fileutils/internal/limiter"
	"fileutils/internal/logging"
	"fileutils/internal/metrics"
	"fileutils/internal/safety"
)

const (
	defaultBufferSize      = 1024
	defaultStoreBufferSize = 4 * 1024
	maxProgressBuffer      = 4 * 1024 * 1024
)

// Operation names used for metrics labels and history rows
const (
	OpCreateDirectory = "create_directory"
	OpCreateFile      = "create_file"
	OpDelete          = "delete"
	OpPurge           = "purge"
	OpClearExpired    = "clear_expired"
	OpClearAll        = "clear_all"
	OpCopy            = "copy"
	OpCopyFile        = "copy_file"
	OpAppendFile      = "append_file"
	OpCopyProgress    = "copy_progress"
	OpStore           = "store"
	OpMove            = "move"
)

// Recorder persists finished operations
type Recorder interface {
	Record(e history.Entry) error
}

// Guard authorizes recursive removals. Check covers removing path itself,
// CheckContents only what lies beneath it.
type Guard interface {
	Check(path string) error
	CheckContents(path string) error
}

// Engine runs tree operations against a filesystem
type Engine struct {
	mu sync.Mutex

	fs              fsops.FS
	logger          logging.Leveled
	recorder        Recorder
	guard           Guard
	limiter         *limiter.ByteLimiter
	bufferSize      int
	storeBufferSize int
}

type Option func(*Engine)

// WithFS replaces the real filesystem, e.g. with a fsops.FaultFS in tests
func WithFS(fs fsops.FS) Option {
	return func(e *Engine) { e.fs = fs }
}

func WithLogger(l logging.Leveled) Option {
	return func(e *Engine) { e.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithGuard sets the guard consulted before Delete, Purge and clearing. nil disables it.
func WithGuard(g Guard) Option {
	return func(e *Engine) { e.guard = g }
}

func WithLimiter(l *limiter.ByteLimiter) Option {
	return func(e *Engine) { e.limiter = l }
}

func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bufferSize = n
		}
	}
}

func WithStoreBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.storeBufferSize = n
		}
	}
}

// New creates an engine over the real filesystem guarded by the default protected paths
func New(opts ...Option) *Engine {
	e := &Engine{
		fs:              fsops.OSFS{},
		logger:          logging.NewStd(nil, "info"),
		guard:           safety.NewGuard(nil, nil),
		bufferSize:      defaultBufferSize,
		storeBufferSize: defaultStoreBufferSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Nop{}
	}
	if e.fs == nil {
		e.fs = fsops.OSFS{}
	}
	return e
}

// NewFromConfig applies buffer sizes, protected paths and the copy rate from cfg.
// Later options override.
func NewFromConfig(cfg *config.Config, opts ...Option) *Engine {
	base := []Option{
		WithBufferSize(cfg.BufferSize),
		WithStoreBufferSize(cfg.StoreBufferSize),
		WithGuard(safety.NewGuard(nil, cfg.ProtectedPaths)),
		WithLimiter(limiter.NewByteLimiter(cfg.Copy.MaxBytesPerSecond)),
	}
	return New(append(base, opts...)...)
}

// Do runs fn under the engine lock
func (e *Engine) Do(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// Logger returns the engine's logger
func (e *Engine) Logger() logging.Leveled {
	return e.logger
}

// finish records metrics and history for a top-level operation.
// bytes < 0 marks an operation that copies nothing.
func (e *Engine) finish(op, path, target string, start time.Time, count int, bytes int64, err error) {
	elapsed := time.Since(start)
	metrics.RecordOperation(op, err, elapsed)
	metrics.RecordRemoved(op, count)
	if bytes >= 0 && err == nil {
		metrics.RecordCopied(bytes)
	}

	if e.recorder == nil {
		return
	}
	entry := history.Entry{
		Timestamp:  start,
		Operation:  op,
		Path:       path,
		Target:     target,
		Count:      count,
		DurationMs: elapsed.Milliseconds(),
		Outcome:    history.OutcomeOK,
	}
	if bytes > 0 {
		entry.Bytes = bytes
	}
	if err != nil {
		entry.Outcome = history.OutcomeError
		entry.ErrorMessage = err.Error()
	}
	if rerr := e.recorder.Record(entry); rerr != nil {
		e.logger.Warn("Failed to record operation history", "operation", op, "path", path, "error", rerr)
	}
}

func isBlank(path string) bool {
	return strings.TrimSpace(path) == ""
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the engine behind the package-level functions
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}
