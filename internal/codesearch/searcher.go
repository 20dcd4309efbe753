package codesearch

import (
	"errors"
	"path"
	"regexp"
	"strings"
)

type Match struct {
	File string
	Line int
	Text string
}

type Options struct {
	MaxResults       int
	MaxFileBytes     int64
	Extensions       []string
	RespectGitignore bool
}

func DefaultOptions() Options {
	return Options{
		MaxResults:       20,
		MaxFileBytes:     1 << 20,
		Extensions:       []string{".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".c", ".h", ".cpp", ".rs", ".rb"},
		RespectGitignore: true,
	}
}

type Searcher struct {
	opts Options
	exts map[string]struct{}
}

func New(opts Options) *Searcher {
	defaults := DefaultOptions()
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaults.MaxResults
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaults.MaxFileBytes
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaults.Extensions
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return &Searcher{opts: opts, exts: exts}
}

func (s *Searcher) isSource(rel string) bool {
	_, ok := s.exts[strings.ToLower(path.Ext(rel))]
	return ok
}

// SearchPattern matches pattern case-insensitively as a regular expression,
// falling back to a literal match when it does not compile.
func (s *Searcher) SearchPattern(root, pattern string) ([]Match, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errors.New("search pattern is required")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	return s.scan(root, s.isSource, func(_, line string) bool {
		return re.MatchString(line)
	})
}

var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(async\s+)?def\s+\w+`),
	regexp.MustCompile(`^func\s+(\([^)]*\)\s*)?\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(async\s+)?function\*?\s+\w+`),
	regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(abstract\s+)?class\s+\w+`),
	regexp.MustCompile(`^type\s+\w+\s+(struct|interface)\b`),
}

// FindFunctions lists function, method, class and Go type definitions whose
// line contains name (case-insensitive). An empty name lists all of them.
func (s *Searcher) FindFunctions(root, name string) ([]Match, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return s.scan(root, s.isSource, func(_, line string) bool {
		if needle != "" && !strings.Contains(strings.ToLower(line), needle) {
			return false
		}
		for _, re := range definitionPatterns {
			if re.MatchString(line) {
				return true
			}
		}
		return false
	})
}

var todoPattern = regexp.MustCompile(`(?i)(#|//|/\*|<!--)\s*TODO`)

// FindTodos scans every non-hidden text file, not only source files.
func (s *Searcher) FindTodos(root string) ([]Match, error) {
	return s.scan(root, nil, func(_, line string) bool {
		return todoPattern.MatchString(line)
	})
}

// FindImports finds Python, JS/TS and Go import forms of module.
func (s *Searcher) FindImports(root, module string) ([]Match, error) {
	module = strings.TrimSpace(module)
	if module == "" {
		return nil, errors.New("module name is required")
	}
	q := regexp.QuoteMeta(module)
	general := []*regexp.Regexp{
		regexp.MustCompile(`(^|\s)(import|from)\s+['"]?` + q + `(['"./\s;]|$)`),
		regexp.MustCompile(`require\(\s*['"]` + q + `['"]\s*\)`),
	}
	goSpec := regexp.MustCompile(`^\s*(\w+\s+|_\s+|\.\s+)?"` + q + `"\s*$`)
	return s.scan(root, s.isSource, func(rel, line string) bool {
		for _, re := range general {
			if re.MatchString(line) {
				return true
			}
		}
		return strings.HasSuffix(rel, ".go") && goSpec.MatchString(line)
	})
}
