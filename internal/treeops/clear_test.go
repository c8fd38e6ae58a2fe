package treeops

import (
	"errors"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"fileutils/internal/fsops"
	"fileutils/internal/safety"
)

func TestClearExpiredRemovesOnlyOldEntries(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.log")
	newFile := filepath.Join(dir, "new.log")
	writeFile(t, oldFile, "old")
	writeFile(t, newFile, "new")
	setAge(t, oldFile, 48*time.Hour)

	n, err := e.ClearExpired(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("ClearExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearExpired removed %d entries, want 1", n)
	}
	assertMissing(t, oldFile)
	assertExists(t, newFile)
	assertExists(t, dir)
}

func TestClearExpiredDirectories(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()

	// Old and empty: removed
	emptyOld := filepath.Join(dir, "empty-old")
	if _, err := e.CreateDirectory(emptyOld); err != nil {
		t.Fatal(err)
	}
	setAge(t, emptyOld, 48*time.Hour)

	// Old but holding a fresh file: skipped silently
	busyOld := filepath.Join(dir, "busy-old")
	writeFile(t, filepath.Join(busyOld, "fresh.txt"), "x")
	setAge(t, busyOld, 48*time.Hour)

	// Old with only old content: the content goes, the directory was just
	// modified by that removal and stays
	stale := filepath.Join(dir, "stale")
	writeFile(t, filepath.Join(stale, "old.txt"), "x")
	setAge(t, filepath.Join(stale, "old.txt"), 48*time.Hour)
	setAge(t, stale, 48*time.Hour)

	n, err := e.ClearExpired(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("ClearExpired failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ClearExpired removed %d entries, want 2", n)
	}
	assertMissing(t, emptyOld)
	assertExists(t, filepath.Join(busyOld, "fresh.txt"))
	assertMissing(t, filepath.Join(stale, "old.txt"))
	assertExists(t, stale)
}

func TestClearExpiredNeverRemovesRoot(t *testing.T) {
	e := newTestEngine(t)
	dir := filepath.Join(t.TempDir(), "root")
	if _, err := e.CreateDirectory(dir); err != nil {
		t.Fatal(err)
	}
	setAge(t, dir, 48*time.Hour)

	n, err := e.ClearExpired(dir, time.Hour)
	if err != nil || n != 0 {
		t.Errorf("ClearExpired(empty old root) = %d, %v; want 0, nil", n, err)
	}
	assertExists(t, dir)
}

func TestClearExpiredNothingToDo(t *testing.T) {
	e := newTestEngine(t)
	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	writeFile(t, file, "x")
	setAge(t, file, 48*time.Hour)

	for _, p := range []string{filepath.Join(base, "missing"), file, ""} {
		n, err := e.ClearExpired(p, time.Hour)
		if err != nil || n != 0 {
			t.Errorf("ClearExpired(%q) = %d, %v; want 0, nil", p, n, err)
		}
	}
	assertExists(t, file)
}

func TestClearExpiredRejectsNegativeAge(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.ClearExpired(t.TempDir(), -time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ClearExpired(negative) = %v, want ErrInvalidArgument", err)
	}
}

func TestClearExpiredWithClock(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "x")

	// A clock a week ahead makes a fresh file a day past its limit
	future := func() time.Time { return time.Now().Add(7 * 24 * time.Hour) }
	n, err := e.ClearExpired(dir, 6*24*time.Hour, WithClock(future))
	if err != nil || n != 1 {
		t.Errorf("ClearExpired with future clock = %d, %v; want 1, nil", n, err)
	}
	assertMissing(t, file)
}

func TestClearExpiredExclude(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "drop.txt"),
		filepath.Join(dir, "app.lock"),
		filepath.Join(dir, "keep", "deep", "file.txt"),
		filepath.Join(dir, "sub", "other.lock"),
	}
	for _, p := range paths {
		writeFile(t, p, "x")
		setAge(t, p, 48*time.Hour)
	}

	n, err := e.ClearExpired(dir, time.Hour, WithExclude("keep", "**/*.lock"))
	if err != nil {
		t.Fatalf("ClearExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearExpired removed %d entries, want 1", n)
	}
	assertMissing(t, paths[0])
	assertExists(t, paths[1])
	assertExists(t, paths[2])
	assertExists(t, paths[3])
}

func TestClearExpiredBadPattern(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.ClearExpired(t.TempDir(), time.Hour, WithExclude("[")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ClearExpired(bad pattern) = %v, want ErrInvalidArgument", err)
	}
}

func TestClearExpiredJoinsFailures(t *testing.T) {
	fault := fsops.NewFaultFS()
	logger := &recordingLogger{}
	e := newTestEngine(t, WithFS(fault), WithLogger(logger))
	dir := t.TempDir()

	names := []string{"a.txt", "b.txt", "c.txt"}
	for _, name := range names {
		p := filepath.Join(dir, name)
		writeFile(t, p, "x")
		setAge(t, p, 48*time.Hour)
	}
	fault.RemoveErrs[filepath.Join(dir, "b.txt")] = syscall.EACCES

	n, err := e.ClearExpired(dir, time.Hour)
	if n != 2 {
		t.Errorf("ClearExpired removed %d entries, want 2", n)
	}
	if !errors.Is(err, syscall.EACCES) {
		t.Errorf("ClearExpired error = %v, want EACCES", err)
	}
	assertMissing(t, filepath.Join(dir, "a.txt"))
	assertMissing(t, filepath.Join(dir, "c.txt"))
	if logger.count("ERROR") != 1 {
		t.Errorf("expected one boundary error log, got lines %v", logger.lines)
	}
}

func TestClearAll(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "sub", "deeper", "c.txt"), "c")

	n, err := e.ClearAll(dir)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	// a.txt, b.txt, c.txt, deeper, sub
	if n != 5 {
		t.Errorf("ClearAll removed %d entries, want 5", n)
	}
	assertExists(t, dir)
	if stats, _ := e.TreeSize(dir); stats.Files != 0 || stats.Dirs != 0 {
		t.Errorf("directory not empty after ClearAll: %+v", stats)
	}
}

func TestClearAllKeepsExcludedAndTheirParents(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	keep := filepath.Join(dir, "sub", "keep.me")
	writeFile(t, keep, "x")
	writeFile(t, filepath.Join(dir, "sub", "drop.txt"), "x")

	n, err := e.ClearAll(dir, WithExclude("**/*.me"))
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearAll removed %d entries, want 1", n)
	}
	assertExists(t, keep)
}

func TestClearRefusedByGuard(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "x")

	e := newTestEngine(t, WithGuard(safety.NewGuard(nil, []string{dir})))
	if _, err := e.ClearAll(dir); !errors.Is(err, safety.ErrProtectedPath) {
		t.Errorf("ClearAll(protected) = %v, want ErrProtectedPath", err)
	}
	assertExists(t, file)
}

func TestClearEmptiesExactGuardedRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "old.txt")
	writeFile(t, file, "x")
	setAge(t, file, 48*time.Hour)

	e := newTestEngine(t, WithGuard(&safety.Guard{ExactPaths: []string{dir}}))
	if n, err := e.ClearExpired(dir, time.Hour); err != nil || n != 1 {
		t.Errorf("ClearExpired(exact root) = %d, %v; want 1, nil", n, err)
	}
	assertMissing(t, file)
	assertExists(t, dir)

	if err := e.Delete(dir); !errors.Is(err, safety.ErrProtectedPath) {
		t.Errorf("Delete(exact root) = %v, want ErrProtectedPath", err)
	}
	assertExists(t, dir)
}
