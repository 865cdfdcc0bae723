package ambient

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAllowList_AllowURL(t *testing.T) {
	a := AllowList{URLs: []string{"http://cam.local/", "https://img.test/snapshots/"}}

	tests := []struct {
		url  string
		want bool
	}{
		{"http://cam.local/snap.jpg", true},
		{"http://cam.local", true},
		{"https://img.test/snapshots/1.png", true},
		{"https://img.test/other/1.png", false},
		{"http://evil.test/?u=http://cam.local/", false},
		{"::not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := a.AllowURL(tt.url); got != tt.want {
				t.Errorf("AllowURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestAllowList_EmptyDeniesAll(t *testing.T) {
	var a AllowList
	if a.AllowURL("http://cam.local/snap.jpg") {
		t.Error("empty allow-list allowed a URL")
	}
	if _, err := a.ResolvePath(t.TempDir()); err == nil {
		t.Error("empty allow-list allowed a path")
	}
}

func TestAllowList_ResolvePath(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()

	inside := filepath.Join(allowed, "img.png")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	secret := filepath.Join(outside, "secret.png")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	a := AllowList{Dirs: []string{allowed}}

	if _, err := a.ResolvePath(inside); err != nil {
		t.Errorf("file inside allowed dir denied: %v", err)
	}
	if _, err := a.ResolvePath(filepath.Join(allowed, "missing.png")); err != nil {
		t.Errorf("missing file inside allowed dir denied: %v", err)
	}
	if _, err := a.ResolvePath(secret); err == nil {
		t.Error("file outside allowed dir was allowed")
	}
	if _, err := a.ResolvePath(filepath.Join(allowed, "..", filepath.Base(outside), "secret.png")); err == nil {
		t.Error("dot-dot escape was allowed")
	}
}

func TestAllowList_ResolvePathSymlink(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()

	secret := filepath.Join(outside, "secret.png")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	link := filepath.Join(allowed, "link.png")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	a := AllowList{Dirs: []string{allowed}}
	if _, err := a.ResolvePath(link); err == nil {
		t.Error("symlink escaping the allowed dir was allowed")
	}
}
