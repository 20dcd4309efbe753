package codesearch

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

var errLimitReached = errors.New("result limit reached")

var skippedDirs = map[string]struct{}{
	"node_modules": {},
	"__pycache__":  {},
}

type fileFilter func(rel string) bool

type lineMatcher func(rel, line string) bool

// scan walks root line by line and stops after limit matches. Hidden entries,
// .gitignore'd paths, binary files and files over maxBytes are skipped.
func (s *Searcher) scan(root string, accept fileFilter, match lineMatcher) ([]Match, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("search root is not a directory")
	}
	ignore := s.loadIgnore(root)
	limit := s.opts.MaxResults
	out := make([]Match, 0, limit)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			if _, skip := skippedDirs[name]; skip {
				return fs.SkipDir
			}
			if ignore != nil && ignore.Match(splitRel(rel), true) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") {
			return nil
		}
		if ignore != nil && ignore.Match(splitRel(rel), false) {
			return nil
		}
		slashRel := filepath.ToSlash(rel)
		if accept != nil && !accept(slashRel) {
			return nil
		}
		found, err := s.scanFile(path, slashRel, match, limit-len(out))
		out = append(out, found...)
		if err != nil {
			return err
		}
		if limit > 0 && len(out) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return out, err
	}
	return out, nil
}

func (s *Searcher) scanFile(path, rel string, match lineMatcher, remaining int) ([]Match, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > s.opts.MaxFileBytes {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	head := data
	if len(head) > 8000 {
		head = head[:8000]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}
	var out []Match
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), int(s.opts.MaxFileBytes)+1)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !match(rel, line) {
			continue
		}
		out = append(out, Match{File: rel, Line: lineNo, Text: strings.TrimSpace(line)})
		if remaining > 0 && len(out) >= remaining {
			break
		}
	}
	return out, nil
}

func (s *Searcher) loadIgnore(root string) gitignore.Matcher {
	if !s.opts.RespectGitignore {
		return nil
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil || len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

func splitRel(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}
