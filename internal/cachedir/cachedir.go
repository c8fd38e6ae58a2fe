// Package cachedir locates and creates per-application cache directories
// under the user's platform cache root.
package cachedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fileutils/internal/treeops"
)

// ErrEmptyName is returned for a blank application name
var ErrEmptyName = errors.New("empty application name")

// Path returns the cache directory for app without creating it
func Path(app string) (string, error) {
	app = strings.TrimSpace(app)
	if app == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsRune(app, filepath.Separator) || app == "." || app == ".." {
		return "", fmt.Errorf("invalid application name %q", app)
	}
	root, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(root, app), nil
}

// Ensure returns the cache directory for app, creating it through e.
// A nil engine means treeops.Default().
func Ensure(e *treeops.Engine, app string) (string, error) {
	dir, err := Path(app)
	if err != nil {
		return "", err
	}
	if e == nil {
		e = treeops.Default()
	}
	return e.CreateDirectory(dir)
}
