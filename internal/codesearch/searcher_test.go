package codesearch

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func files(matches []Match) map[string]int {
	out := map[string]int{}
	for _, m := range matches {
		out[m.File]++
	}
	return out
}

func TestSearchPattern_CaseInsensitiveAcrossSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":        "package main\n// Error handling lives here\n",
		"pkg/util.py":    "def f():\n    raise ERROR\n",
		"notes.txt":      "error in prose is not source\n",
		".hidden/x.go":   "// error\n",
		"node_modules/a.js": "// error\n",
	})
	got, err := New(DefaultOptions()).SearchPattern(root, "error")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	byFile := files(got)
	if len(byFile) != 2 || byFile["main.go"] != 1 || byFile["pkg/util.py"] != 1 {
		t.Fatalf("unexpected matches: %+v", got)
	}
	for _, m := range got {
		if m.File == "main.go" && (m.Line != 2 || m.Text != "// Error handling lives here") {
			t.Fatalf("unexpected match: %+v", m)
		}
	}
}

func TestSearchPattern_InvalidRegexFallsBackToLiteral(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "x := f(y\n"})
	got, err := New(DefaultOptions()).SearchPattern(root, "f(y")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %+v", got)
	}
}

func TestSearchPattern_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":    "build/\n*.gen.go\n",
		"keep.go":       "needle\n",
		"build/out.go":  "needle\n",
		"api.gen.go":    "needle\n",
	})
	got, err := New(DefaultOptions()).SearchPattern(root, "needle")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].File != "keep.go" {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestSearchPattern_StopsAtMaxResults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "hit\nhit\nhit\n", "b.go": "hit\nhit\n"})
	got, err := New(Options{MaxResults: 3}).SearchPattern(root, "hit")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
}

func TestSearchPattern_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"bin.go": "hit\x00\x01\n"})
	got, err := New(DefaultOptions()).SearchPattern(root, "hit")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("binary file should be skipped: %+v", got)
	}
}

func TestSearchPattern_EmptyPatternFails(t *testing.T) {
	if _, err := New(DefaultOptions()).SearchPattern(t.TempDir(), "  "); err == nil {
		t.Fatal("expected error")
	}
}

func TestFindFunctions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"db.py":   "import os\n\nclass Database:\n    def connect_database(self):\n        pass\n",
		"main.go": "package main\n\nfunc main() {}\n\nfunc (s *Server) openDatabase() error { return nil }\n",
		"app.ts":  "export async function loadDatabase() {}\nconst x = 1\n",
	})
	s := New(DefaultOptions())
	got, err := s.FindFunctions(root, "database")
	if err != nil {
		t.Fatalf("find functions failed: %v", err)
	}
	byFile := files(got)
	if byFile["db.py"] != 2 || byFile["main.go"] != 1 || byFile["app.ts"] != 1 {
		t.Fatalf("unexpected matches: %+v", got)
	}

	all, err := s.FindFunctions(root, "")
	if err != nil {
		t.Fatalf("find all functions failed: %v", err)
	}
	if files(all)["main.go"] != 2 {
		t.Fatalf("expected both go funcs without a filter: %+v", all)
	}
}

func TestFindTodos_AllCommentStyles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":       "# TODO: fix\nx = 1\n",
		"b.go":       "// todo later\n/* TODO block */\n",
		"index.html": "<!-- TODO markup -->\n",
		"README":     "TODO without comment marker\n",
	})
	got, err := New(DefaultOptions()).FindTodos(root)
	if err != nil {
		t.Fatalf("find todos failed: %v", err)
	}
	byFile := files(got)
	if byFile["a.py"] != 1 || byFile["b.go"] != 2 || byFile["index.html"] != 1 || byFile["README"] != 0 {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestFindImports(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"client.py": "import requests\nfrom requests.adapters import HTTPAdapter\nimport requests_mock\n",
		"app.js":    "const r = require('requests')\nimport x from \"requests\";\n",
		"main.go":   "package main\n\nimport (\n\t\"fmt\"\n\tr \"requests\"\n)\n",
	})
	got, err := New(DefaultOptions()).FindImports(root, "requests")
	if err != nil {
		t.Fatalf("find imports failed: %v", err)
	}
	byFile := files(got)
	if byFile["client.py"] != 2 || byFile["app.js"] != 2 || byFile["main.go"] != 1 {
		t.Fatalf("unexpected matches: %+v", got)
	}
}
