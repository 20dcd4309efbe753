package fsbrowser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestService_ListFilesAndDirectoriesSorted(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "b"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "A.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	out, err := NewService().List(root)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("unexpected items: %+v", out.Items)
	}
	if out.Items[0].Name != "A.txt" || out.Items[0].IsDir {
		t.Fatalf("unexpected first item: %+v", out.Items[0])
	}
	if out.Items[1].Name != "b" || !out.Items[1].IsDir {
		t.Fatalf("unexpected second item: %+v", out.Items[1])
	}
}

func TestService_ResolveAbsolutePath(t *testing.T) {
	root := t.TempDir()
	abs, err := NewService().Resolve(root)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if abs != filepath.Clean(root) {
		t.Fatalf("unexpected abs: %s", abs)
	}
}

func TestService_ResolveMissingIsNotFound(t *testing.T) {
	_, err := NewService().Resolve(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ResolveFileIsNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
	_, err := NewService().Resolve(path)
	if !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestService_ResolveTildeHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("home dir unavailable: %v", err)
	}
	abs, err := NewService().Resolve("~")
	if err != nil {
		t.Fatalf("resolve ~ failed: %v", err)
	}
	if abs != filepath.Clean(home) {
		t.Fatalf("unexpected abs: %s", abs)
	}
}

func TestExpandHome_LeavesOtherPathsAlone(t *testing.T) {
	for _, in := range []string{"src", "/abs/path", "~user/x", "a/~/b"} {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q) failed: %v", in, err)
		}
		if got != in {
			t.Fatalf("ExpandHome(%q) = %q", in, got)
		}
	}
	got, err := ExpandHome("~/x")
	if err != nil {
		t.Fatalf("ExpandHome failed: %v", err)
	}
	if !strings.HasSuffix(got, string(filepath.Separator)+"x") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
