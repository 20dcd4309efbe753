package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrIsDirectory = errors.New("is a directory")

const defaultMaxReadBytes int64 = 4 << 20 // 4 MiB

// Files reads and writes whole text files. Paths must already be absolute;
// resolving against the session working directory is the caller's job.
type Files struct {
	MaxReadBytes int64
}

func New() *Files {
	return &Files{MaxReadBytes: defaultMaxReadBytes}
}

// ReadFile returns at most MaxReadBytes of the file. Missing files and
// permission problems come back as fs.ErrNotExist / fs.ErrPermission.
func (f *Files) ReadFile(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if st.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	limit := f.MaxReadBytes
	if limit <= 0 {
		limit = defaultMaxReadBytes
	}
	b, err := io.ReadAll(io.LimitReader(fh, limit))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteFile creates missing parent directories and replaces the file.
func (f *Files) WriteFile(path, content string) error {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
