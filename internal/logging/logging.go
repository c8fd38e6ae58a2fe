package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fileutils/internal/config"
)

const logFile = "fileutils.log"

// New creates a stdout-only logger
func New() *log.Logger {
	return NewWithConfig(nil)
}

// NewWithConfig creates a stdout logger that also writes to a rotated file
// when logging.directory is configured
func NewWithConfig(cfg *config.Config) *log.Logger {
	return NewTo(os.Stdout, cfg)
}

// NewTo is NewWithConfig writing to console instead of stdout
func NewTo(console io.Writer, cfg *config.Config) *log.Logger {
	stdout := log.New(console, "", log.LstdFlags|log.Lmicroseconds)
	if cfg == nil || cfg.Logging.Directory == "" {
		return stdout
	}

	logDir := cfg.Logging.Directory
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		stdout.Printf("failed to ensure log directory %s: %v", logDir, err)
		return stdout
	}

	filePath := filepath.Join(logDir, logFile)

	rotateDays := 30 // default
	if cfg.Logging.RotationDays > 0 {
		rotateDays = cfg.Logging.RotationDays
	}
	rotateLogsIfNeeded(filePath, rotateDays, time.Now())

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		stdout.Printf("failed to open log file %s: %v", filePath, err)
		return stdout
	}

	mw := io.MultiWriter(console, f)
	return log.New(mw, "", log.LstdFlags|log.Lmicroseconds)
}

// rotateLogsIfNeeded renames the log file once it is older than rotationDays
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := now.AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			log.Printf("failed to rotate log file: %v", err)
			return
		}

		cleanupOldLogs(logPath, rotationDays, now)
	}
}

// cleanupOldLogs removes rotated log files older than rotation days
func cleanupOldLogs(logPath string, rotationDays int, now time.Time) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := now.AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
