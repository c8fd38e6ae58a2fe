package treeops

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"fileutils/internal/fsops"
	"fileutils/internal/safety"
)

// buildTree creates root/{a.txt, b/inner.txt, c.txt} and returns root
func buildTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tree")
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "b", "inner.txt"), "b")
	writeFile(t, filepath.Join(root, "c.txt"), "c")
	return root
}

func TestDeleteMissingPathIsNoop(t *testing.T) {
	fault := fsops.NewFaultFS()
	e := newTestEngine(t, WithFS(fault))
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	for _, p := range []string{missing, "", "   "} {
		if err := e.Delete(p); err != nil {
			t.Errorf("Delete(%q) = %v, want nil", p, err)
		}
		if err := e.Purge(p); err != nil {
			t.Errorf("Purge(%q) = %v, want nil", p, err)
		}
	}
	if calls := fault.CallsWithPrefix("rm:"); len(calls) != 0 {
		t.Errorf("expected no removals, got %v", calls)
	}
}

func TestDeleteTree(t *testing.T) {
	e := newTestEngine(t)
	root := buildTree(t)

	if err := e.Delete(root); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	assertMissing(t, root)
}

func TestDeleteSingleFile(t *testing.T) {
	e := newTestEngine(t)
	file := filepath.Join(t.TempDir(), "single.txt")
	writeFile(t, file, "x")

	if err := e.Delete(file); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	assertMissing(t, file)
}

func TestDeleteRemovesChildrenFirst(t *testing.T) {
	fault := fsops.NewFaultFS()
	e := newTestEngine(t, WithFS(fault))
	root := buildTree(t)

	if err := e.Delete(root); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	want := []string{
		"rm:" + filepath.Join(root, "a.txt"),
		"rm:" + filepath.Join(root, "b", "inner.txt"),
		"rm:" + filepath.Join(root, "b"),
		"rm:" + filepath.Join(root, "c.txt"),
		"rm:" + root,
	}
	got := fault.CallsWithPrefix("rm:")
	if len(got) != len(want) {
		t.Fatalf("removals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("removal %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDeleteDoesNotFollowSymlinks(t *testing.T) {
	e := newTestEngine(t)
	base := t.TempDir()
	outside := filepath.Join(base, "outside")
	writeFile(t, filepath.Join(outside, "precious.txt"), "keep")

	root := filepath.Join(base, "tree")
	writeFile(t, filepath.Join(root, "file.txt"), "x")
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	if err := e.Delete(root); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	assertMissing(t, root)
	assertExists(t, filepath.Join(outside, "precious.txt"))
}

func TestDeleteFailFast(t *testing.T) {
	fault := fsops.NewFaultFS()
	e := newTestEngine(t, WithFS(fault))
	root := buildTree(t)
	stuck := filepath.Join(root, "b", "inner.txt")
	fault.RemoveErrs[stuck] = syscall.EACCES

	err := e.Delete(root)
	if !errors.Is(err, syscall.EACCES) {
		t.Fatalf("Delete error = %v, want EACCES", err)
	}

	// Entries before the failure are gone, the rest is untouched
	assertMissing(t, filepath.Join(root, "a.txt"))
	assertExists(t, stuck)
	assertExists(t, filepath.Join(root, "b"))
	assertExists(t, filepath.Join(root, "c.txt"))
	assertExists(t, root)
}

func TestPurgeContinuesPastFailures(t *testing.T) {
	fault := fsops.NewFaultFS()
	logger := &recordingLogger{}
	e := newTestEngine(t, WithFS(fault), WithLogger(logger))
	root := buildTree(t)
	stuck := filepath.Join(root, "b", "inner.txt")
	fault.RemoveErrs[stuck] = syscall.EACCES

	err := e.Purge(root)
	if err == nil {
		t.Fatal("Purge succeeded although the root could not be emptied")
	}
	if !isNotEmpty(err) {
		t.Errorf("Purge error = %v, want the root's not-empty failure", err)
	}

	// Siblings after the failure were still removed
	assertMissing(t, filepath.Join(root, "a.txt"))
	assertMissing(t, filepath.Join(root, "c.txt"))
	assertExists(t, stuck)
	assertExists(t, root)

	if logger.count("WARN") == 0 {
		t.Error("child failures were not logged")
	}
}

func TestPurgeResultFollowsRootRemoval(t *testing.T) {
	// The child's removal is reported as failed although it happened
	newFault := func(root string) *fsops.FaultFS {
		fault := fsops.NewFaultFS()
		fault.LateRemoveErrs[filepath.Join(root, "b", "inner.txt")] = syscall.EIO
		return fault
	}

	root := buildTree(t)
	e := newTestEngine(t, WithFS(newFault(root)))
	if err := e.Purge(root); err != nil {
		t.Errorf("Purge = %v, want nil once the root is removed", err)
	}
	assertMissing(t, root)

	root = buildTree(t)
	e = newTestEngine(t, WithFS(newFault(root)))
	if err := e.Delete(root); !errors.Is(err, syscall.EIO) {
		t.Errorf("Delete = %v, want EIO", err)
	}
	assertExists(t, root)
}

func TestDeleteRefusedByGuard(t *testing.T) {
	base := t.TempDir()
	protected := filepath.Join(base, "data", "keep")
	writeFile(t, filepath.Join(protected, "file.txt"), "x")

	e := newTestEngine(t, WithGuard(safety.NewGuard(nil, []string{protected})))

	for _, target := range []string{protected, filepath.Join(base, "data")} {
		if err := e.Delete(target); !errors.Is(err, safety.ErrProtectedPath) {
			t.Errorf("Delete(%s) = %v, want ErrProtectedPath", target, err)
		}
		if err := e.Purge(target); !errors.Is(err, safety.ErrProtectedPath) {
			t.Errorf("Purge(%s) = %v, want ErrProtectedPath", target, err)
		}
	}
	assertExists(t, filepath.Join(protected, "file.txt"))
}
