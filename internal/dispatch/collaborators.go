package dispatch

import (
	"context"
	"time"

	"github.com/prodigisoftwares/ollama-agent/internal/codesearch"
	"github.com/prodigisoftwares/ollama-agent/internal/fsbrowser"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
	"github.com/prodigisoftwares/ollama-agent/internal/shell"
)

type Files interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

type Navigator interface {
	List(path string) (fsbrowser.ListResult, error)
	Resolve(path string) (string, error)
}

type Shell interface {
	Run(ctx context.Context, dir, command string, timeout time.Duration) (shell.Output, error)
}

type Searcher interface {
	SearchPattern(root, pattern string) ([]codesearch.Match, error)
	FindFunctions(root, name string) ([]codesearch.Match, error)
	FindTodos(root string) ([]codesearch.Match, error)
	FindImports(root, module string) ([]codesearch.Match, error)
}

// ContentSource supplies the body of a WriteFile directive that did not carry
// its content inline.
type ContentSource interface {
	Content(ctx context.Context, st *session.State, path string) (string, error)
}

type ContentSourceFunc func(ctx context.Context, st *session.State, path string) (string, error)

func (f ContentSourceFunc) Content(ctx context.Context, st *session.State, path string) (string, error) {
	return f(ctx, st, path)
}
