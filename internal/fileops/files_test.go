package fileops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFiles_WriteCreatesParentsAndReadBack(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a", "b", "notes.txt")
	f := New()
	if err := f.WriteFile(path, "hello\nworld"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := f.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "hello\nworld" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestFiles_ReadMissingIsNotExist(t *testing.T) {
	_, err := New().ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFiles_ReadDirectoryIsRejected(t *testing.T) {
	_, err := New().ReadFile(t.TempDir())
	if !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}
}

func TestFiles_ReadRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	f := &Files{MaxReadBytes: 4}
	got, err := f.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "0123" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestFiles_WriteOverDirectoryFails(t *testing.T) {
	dir := t.TempDir()
	if err := New().WriteFile(dir, "x"); !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("expected ErrIsDirectory, got %v", err)
	}
}
