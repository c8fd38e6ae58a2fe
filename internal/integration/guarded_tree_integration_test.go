package integration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fileutils/internal/history"
	"fileutils/internal/logging"
	"fileutils/internal/metrics"
	"fileutils/internal/safety"
	"fileutils/internal/treeops"
)

func init() {
	metrics.Init()
}

type fixture struct {
	root, allowed, protected, outside string
	junk, backupDir, backupFile       string
	protectedFile, linkToProtected    string
	linkDir                           string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		root:      root,
		allowed:   filepath.Join(root, "allowed"),
		protected: filepath.Join(root, "allowed", "keep"),
		outside:   filepath.Join(root, "outside"),
	}
	f.junk = filepath.Join(f.allowed, "junk.log")
	f.backupDir = filepath.Join(f.allowed, "old_backups")
	f.backupFile = filepath.Join(f.backupDir, "old.tar.gz")
	f.protectedFile = filepath.Join(f.protected, "keep.txt")
	f.linkToProtected = filepath.Join(f.allowed, "link_to_outside.txt")
	f.linkDir = filepath.Join(f.allowed, "linked_dir")

	for _, d := range []string{f.backupDir, f.protected, f.outside} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	files := map[string]string{
		f.junk:                                    "deletable content",
		f.backupFile:                              "old backup",
		f.protectedFile:                           "MUST KEEP",
		filepath.Join(f.outside, "precious.txt"): "MUST KEEP",
	}
	for p, content := range files {
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
	}
	if err := os.Symlink(filepath.Join(f.outside, "precious.txt"), f.linkToProtected); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	if err := os.Symlink(f.outside, f.linkDir); err != nil {
		t.Fatalf("Failed to create directory symlink: %v", err)
	}
	return f
}

func newEngine(t *testing.T, f fixture) (*treeops.Engine, *history.DB) {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open history: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	guard := safety.NewGuard([]string{f.allowed}, []string{f.protected})
	e := treeops.New(
		treeops.WithLogger(logging.Nop{}),
		treeops.WithGuard(guard),
		treeops.WithRecorder(db),
	)
	return e, db
}

// TestGuardedTreeOperations drives the engine over a real tree with a guard
// limited to one directory and a protected subdirectory inside it.
func TestGuardedTreeOperations(t *testing.T) {
	f := newFixture(t)
	e, db := newEngine(t, f)

	t.Run("ProtectedPath_Blocked", func(t *testing.T) {
		if err := e.Delete(f.protected); !errors.Is(err, safety.ErrProtectedPath) {
			t.Errorf("Delete(protected) = %v, want ErrProtectedPath", err)
		}
		if err := e.Purge(f.protectedFile); !errors.Is(err, safety.ErrProtectedPath) {
			t.Errorf("Purge(protected file) = %v, want ErrProtectedPath", err)
		}
		if _, err := e.ClearAll(f.allowed); !errors.Is(err, safety.ErrProtectedPath) {
			t.Errorf("ClearAll(parent of protected) = %v, want ErrProtectedPath", err)
		}
		assertFile(t, f.protectedFile)
		assertFile(t, f.junk)
	})

	t.Run("OutsideAllowedRoot_Blocked", func(t *testing.T) {
		if err := e.Delete(f.outside); !errors.Is(err, safety.ErrOutsideAllowed) {
			t.Errorf("Delete(outside) = %v, want ErrOutsideAllowed", err)
		}
		assertFile(t, filepath.Join(f.outside, "precious.txt"))
	})

	t.Run("SymlinkEscape_Blocked", func(t *testing.T) {
		through := filepath.Join(f.linkDir, "precious.txt")
		if err := e.Delete(through); !errors.Is(err, safety.ErrSymlinkEscape) {
			t.Errorf("Delete(through link) = %v, want ErrSymlinkEscape", err)
		}
		assertFile(t, filepath.Join(f.outside, "precious.txt"))
	})

	t.Run("AllowedDeletes_RemoveLinksNotTargets", func(t *testing.T) {
		for _, p := range []string{f.junk, f.backupDir, f.linkToProtected, f.linkDir} {
			if err := e.Delete(p); err != nil {
				t.Errorf("Delete(%s) = %v", p, err)
			}
			if _, err := os.Lstat(p); !os.IsNotExist(err) {
				t.Errorf("%s still present", p)
			}
		}
		assertFile(t, filepath.Join(f.outside, "precious.txt"))
		assertFile(t, f.protectedFile)
	})

	t.Run("HistoryRecordsOutcomes", func(t *testing.T) {
		stats, err := db.GetStats(1)
		if err != nil {
			t.Fatalf("GetStats failed: %v", err)
		}
		// 3 protected + 1 outside + 1 escape refusals, 4 deletes
		if stats.TotalOperations != 9 || stats.TotalErrors != 5 {
			t.Errorf("stats = %+v, want 9 operations with 5 errors", stats)
		}
		failed, err := db.ByOutcome(history.OutcomeError, 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, entry := range failed {
			if entry.ErrorMessage == "" {
				t.Errorf("error entry without message: %+v", entry)
			}
		}
	})
}

// TestClearInsideAllowedRoot clears expired content under the allowed root
// while the guard is active.
func TestClearInsideAllowedRoot(t *testing.T) {
	f := newFixture(t)
	e, db := newEngine(t, f)

	past := time.Now().Add(-72 * time.Hour)
	for _, p := range []string{f.backupFile, f.backupDir} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	n, err := e.ClearExpired(f.backupDir, 24*time.Hour)
	if err != nil || n != 1 {
		t.Fatalf("ClearExpired = %d, %v; want 1, nil", n, err)
	}
	if _, err := os.Stat(f.backupFile); !os.IsNotExist(err) {
		t.Error("expired backup survived")
	}
	if _, err := os.Stat(f.backupDir); err != nil {
		t.Errorf("clear root removed: %v", err)
	}

	entries, err := db.ByOperation(treeops.OpClearExpired, 1)
	if err != nil || len(entries) != 1 || entries[0].Count != 1 {
		t.Errorf("history = %+v, %v", entries, err)
	}
}

func assertFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		t.Errorf("expected regular file %s: %v", path, err)
	}
}
