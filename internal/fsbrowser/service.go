package fsbrowser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("directory not found")
	ErrNotDirectory = errors.New("not a directory")
)

type Item struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

type ListResult struct {
	Path  string `json:"path"`
	Items []Item `json:"items"`
}

type Service struct{}

func NewService() *Service { return &Service{} }

// Resolve returns the cleaned absolute form of an existing directory. A
// leading "~" expands to the user's home.
func (s *Service) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
		}
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}
	return filepath.Clean(abs), nil
}

// List returns files and directories sorted by name, case-insensitively.
func (s *Service) List(path string) (ListResult, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return ListResult{}, err
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return ListResult{}, err
	}
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if st, err := os.Stat(filepath.Join(resolved, name)); err == nil {
				isDir = st.IsDir()
			}
		}
		items = append(items, Item{
			Name:  name,
			Path:  filepath.Join(resolved, name),
			IsDir: isDir,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return ListResult{Path: resolved, Items: items}, nil
}

// ExpandHome rewrites "~" and "~/rest" against the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
