package ambient

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// AllowList restricts which URLs and local paths may be read. An empty list
// denies everything of that kind.
type AllowList struct {
	// URLs are prefixes; a URL is allowed when it starts with one of them.
	URLs []string

	// Dirs are directories; a path is allowed when it resolves inside one.
	Dirs []string
}

// AllowURL reports whether rawURL matches one of the allowed prefixes.
func (a AllowList) AllowURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	// A trailing slash lets "http://cam.local" match "http://cam.local/".
	candidate := u.String() + "/"
	for _, prefix := range a.URLs {
		if prefix != "" && strings.HasPrefix(candidate, prefix) {
			return true
		}
	}
	return false
}

// ResolvePath makes p absolute, resolves symlinks and checks the result
// against the allowed directories. It returns the resolved path.
//
// The file itself does not need to exist; its directory does. Reading a
// missing file is reported by the caller, not as an access failure.
func (a AllowList) ResolvePath(p string) (string, error) {
	resolved, err := resolve(p)
	if err != nil {
		return "", err
	}

	for _, dir := range a.Dirs {
		if dir == "" {
			continue
		}
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if r, err := filepath.EvalSymlinks(root); err == nil {
			root = r
		}
		rel, err := filepath.Rel(root, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("path %q is not in an allowed directory", p)
}

// resolve returns the absolute, symlink-free form of p. When p does not
// exist only its parent directory is resolved.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r, nil
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}
