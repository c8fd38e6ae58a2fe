package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed roots")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
)

// Guard refuses recursive removals that would destroy a protected path.
// A path is refused when it is protected, lies under a protected path, or
// contains one. With AllowedRoots set, it must also stay inside them.
type Guard struct {
	AllowedRoots   []string
	ProtectedPaths []string
	// ExactPaths are refused themselves while their contents stay removable
	ExactPaths []string
}

// NewGuard creates a guard with optional allowed roots and extra protected paths
func NewGuard(allowed []string, extraProtected []string) *Guard {
	g := &Guard{
		AllowedRoots:   normalizeRoots(allowed),
		ProtectedPaths: defaultProtected(extraProtected),
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		g.ExactPaths = append(g.ExactPaths, filepath.Clean(home))
	}
	return g
}

// Check authorizes removing path and everything beneath it
func (g *Guard) Check(path string) error {
	return g.check(path, true)
}

// CheckContents authorizes removing what lies beneath path while path
// itself stays. ExactPaths pass; everything else is checked as in Check.
func (g *Guard) CheckContents(path string) error {
	return g.check(path, false)
}

func (g *Guard) check(path string, self bool) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if IsProtectedPath(p, g.ProtectedPaths) || ContainsProtectedPath(p, g.ProtectedPaths) {
		return ErrProtectedPath
	}
	if self {
		for _, exact := range g.ExactPaths {
			if p == exact {
				return ErrProtectedPath
			}
		}
	}

	if len(g.AllowedRoots) == 0 {
		return nil
	}
	if !IsWithinAllowedRoots(p, g.AllowedRoots) {
		return ErrOutsideAllowed
	}

	escaped, err := DetectSymlinkEscape(p, g.AllowedRoots)
	if err != nil {
		// Missing paths are a no-op for the caller
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}
	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// IsWithinAllowedRoots checks if path is within any allowed root
func IsWithinAllowedRoots(path string, allowedRoots []string) bool {
	p := filepath.Clean(path)
	for _, r := range allowedRoots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves symlinks in the parent and reports whether the
// target leaves the allowed roots. The final element is not resolved: removing
// a link removes the link only.
func DetectSymlinkEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	if _, err := os.Lstat(cleanAbs); err != nil {
		return false, err
	}
	resolvedParent, err := filepath.EvalSymlinks(filepath.Dir(cleanAbs))
	if err != nil {
		return false, err
	}
	resolved := filepath.Join(resolvedParent, filepath.Base(cleanAbs))
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(filepath.Clean(resolvedAbs), resolveRoots(allowedRoots)), nil
}

// IsProtectedPath checks if path is a protected path or lies beneath one.
// The filesystem root protects only itself.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if prot == string(os.PathSeparator) {
			continue
		}
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// ContainsProtectedPath checks if removing path recursively would remove a protected path
func ContainsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)
	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if prot == string(os.PathSeparator) {
			continue
		}
		if hasPathPrefix(prot, p) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path equals prefix or lies beneath it
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if path == prefix {
		return true
	}
	if prefix == string(os.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// resolveRoots adds the symlink-resolved form of each root, so that roots
// under a linked directory (macOS /tmp) still match resolved targets
func resolveRoots(roots []string) []string {
	out := append([]string(nil), roots...)
	for _, r := range roots {
		if resolved, err := filepath.EvalSymlinks(r); err == nil && resolved != r {
			out = append(out, filepath.Clean(resolved))
		}
	}
	return out
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/proc",
		"/sys",
		"/dev",
		"/var/lib/fileutils",
		"/etc/fileutils",
	}
	return append(base, extra...)
}
