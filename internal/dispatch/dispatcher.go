package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
	"github.com/prodigisoftwares/ollama-agent/internal/codesearch"
	"github.com/prodigisoftwares/ollama-agent/internal/fileops"
	"github.com/prodigisoftwares/ollama-agent/internal/fsbrowser"
	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
	"github.com/prodigisoftwares/ollama-agent/internal/shell"
)

const (
	DefaultCommandTimeout = 30 * time.Second
	DefaultMaxOutputChars = 8000
)

type Deps struct {
	Grammar   *grammar.Grammar
	Files     Files
	Navigator Navigator
	Shell     Shell
	Searcher  Searcher
	// ModelContent answers WriteFile directives that came from the model;
	// UserContent answers the ones typed as slash commands.
	ModelContent ContentSource
	UserContent  ContentSource
	// OnChangeDir observes every successful ChangeDirectory.
	OnChangeDir    func(path string)
	CommandTimeout time.Duration
	MaxOutputChars int
	Logger         *slog.Logger
}

// Dispatcher runs directives against the host. It is the single place where
// collaborator failures turn into Result values; Dispatch never returns an
// error.
type Dispatcher struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps) (*Dispatcher, error) {
	if deps.Files == nil || deps.Navigator == nil || deps.Shell == nil || deps.Searcher == nil {
		return nil, errors.New("dispatcher needs files, navigator, shell and searcher")
	}
	if deps.Grammar == nil {
		deps.Grammar = grammar.Default()
	}
	if deps.CommandTimeout <= 0 {
		deps.CommandTimeout = DefaultCommandTimeout
	}
	if deps.MaxOutputChars <= 0 {
		deps.MaxOutputChars = DefaultMaxOutputChars
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{deps: deps, logger: logger.With("module", "dispatch")}, nil
}

func (d *Dispatcher) CommandTimeout() time.Duration { return d.deps.CommandTimeout }

func (d *Dispatcher) Dispatch(ctx context.Context, dir action.Directive, st *session.State) action.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	res := d.dispatch(ctx, dir, st)
	res.Kind = dir.Kind
	if res.Success {
		res.Output = truncate(res.Output, d.deps.MaxOutputChars)
	}
	d.logger.Info("action dispatched",
		"kind", dir.Kind.String(),
		"origin", dir.Origin.String(),
		"success", res.Success,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, dir action.Directive, st *session.State) action.Result {
	if st == nil {
		return action.Failed(dir.Kind, "no active session")
	}
	if !dir.Kind.Valid() {
		return action.Failed(dir.Kind, fmt.Sprintf("unsupported action kind: %s", dir.Kind))
	}
	if d.deps.Grammar.ArgRuleFor(dir.Kind) == grammar.ArgRequired && strings.TrimSpace(dir.Argument) == "" {
		marker, _ := d.deps.Grammar.MarkerFor(dir.Kind)
		return action.Failed(dir.Kind, fmt.Sprintf("%s requires an argument", marker))
	}
	switch dir.Kind {
	case action.KindRunCommand:
		return d.runCommand(ctx, dir, st)
	case action.KindReadFile:
		return d.readFile(dir, st)
	case action.KindWriteFile:
		return d.writeFile(ctx, dir, st)
	case action.KindListDirectory:
		return d.listDirectory(dir, st)
	case action.KindChangeDirectory:
		return d.changeDirectory(dir, st)
	case action.KindSearchCode:
		return d.search(dir, st, func(root string) ([]codesearch.Match, error) {
			return d.deps.Searcher.SearchPattern(root, dir.Argument)
		}, "Search results for '"+dir.Argument+"':", "No results found for '"+dir.Argument+"'")
	case action.KindFindFunction:
		return d.search(dir, st, func(root string) ([]codesearch.Match, error) {
			return d.deps.Searcher.FindFunctions(root, dir.Argument)
		}, "Functions/classes found:", "No functions/classes found")
	case action.KindFindTodo:
		return d.search(dir, st, d.deps.Searcher.FindTodos, "TODO comments found:", "No TODO comments found")
	case action.KindFindImport:
		return d.search(dir, st, func(root string) ([]codesearch.Match, error) {
			return d.deps.Searcher.FindImports(root, dir.Argument)
		}, "Files importing '"+dir.Argument+"':", "No files found importing '"+dir.Argument+"'")
	default:
		return action.Failed(dir.Kind, fmt.Sprintf("unsupported action kind: %s", dir.Kind))
	}
}

func (d *Dispatcher) runCommand(ctx context.Context, dir action.Directive, st *session.State) action.Result {
	out, err := d.deps.Shell.Run(ctx, st.WorkingDir, dir.Argument, d.deps.CommandTimeout)
	if err != nil {
		if errors.Is(err, shell.ErrTimedOut) {
			return action.Failed(dir.Kind, fmt.Sprintf("command timed out after %s", d.deps.CommandTimeout))
		}
		return action.Failed(dir.Kind, "command failed: "+err.Error())
	}
	text := formatCommandOutput(out)
	if out.ExitCode != 0 {
		res := action.Failed(dir.Kind, fmt.Sprintf("command exited with status %d", out.ExitCode))
		res.Output = truncate(text, d.deps.MaxOutputChars)
		return res
	}
	return action.Succeeded(dir.Kind, text)
}

func formatCommandOutput(out shell.Output) string {
	var b strings.Builder
	if out.Stdout != "" {
		b.WriteString("STDOUT:\n")
		b.WriteString(strings.TrimRight(out.Stdout, "\n"))
		b.WriteString("\n")
	}
	if out.Stderr != "" {
		b.WriteString("STDERR:\n")
		b.WriteString(strings.TrimRight(out.Stderr, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Return code: %d", out.ExitCode)
	return b.String()
}

func (d *Dispatcher) readFile(dir action.Directive, st *session.State) action.Result {
	path, err := ResolvePath(st.WorkingDir, dir.Argument)
	if err != nil {
		return action.Failed(dir.Kind, err.Error())
	}
	content, err := d.deps.Files.ReadFile(path)
	if err != nil {
		return action.Failed(dir.Kind, fileError(err, dir.Argument))
	}
	return action.Succeeded(dir.Kind, content)
}

func (d *Dispatcher) writeFile(ctx context.Context, dir action.Directive, st *session.State) action.Result {
	path, err := ResolvePath(st.WorkingDir, dir.Argument)
	if err != nil {
		return action.Failed(dir.Kind, err.Error())
	}
	content := dir.Content
	if !dir.HasContent {
		source := d.deps.ModelContent
		if dir.Origin == action.OriginUser {
			source = d.deps.UserContent
		}
		if source == nil {
			return action.Failed(dir.Kind, "no content supplied for "+dir.Argument)
		}
		content, err = source.Content(ctx, st, dir.Argument)
		if err != nil {
			return action.Failed(dir.Kind, fmt.Sprintf("no content for %s: %v", dir.Argument, err))
		}
	}
	if err := d.deps.Files.WriteFile(path, content); err != nil {
		return action.Failed(dir.Kind, fileError(err, dir.Argument))
	}
	return action.Succeeded(dir.Kind, fmt.Sprintf("Wrote %d bytes to %s", len(content), path))
}

func (d *Dispatcher) listDirectory(dir action.Directive, st *session.State) action.Result {
	path, err := ResolvePath(st.WorkingDir, dir.Argument)
	if err != nil {
		return action.Failed(dir.Kind, err.Error())
	}
	listing, err := d.deps.Navigator.List(path)
	if err != nil {
		return action.Failed(dir.Kind, directoryError(err, dir.Argument))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %s:", listing.Path)
	if len(listing.Items) == 0 {
		b.WriteString("\n(empty)")
	}
	for _, item := range listing.Items {
		if item.IsDir {
			fmt.Fprintf(&b, "\n📁 %s/", item.Name)
		} else {
			fmt.Fprintf(&b, "\n📄 %s", item.Name)
		}
	}
	return action.Succeeded(dir.Kind, b.String())
}

// changeDirectory only touches st.WorkingDir after the target resolved to an
// existing directory.
func (d *Dispatcher) changeDirectory(dir action.Directive, st *session.State) action.Result {
	path, err := ResolvePath(st.WorkingDir, dir.Argument)
	if err != nil {
		return action.Failed(dir.Kind, err.Error())
	}
	resolved, err := d.deps.Navigator.Resolve(path)
	if err != nil {
		return action.Failed(dir.Kind, directoryError(err, dir.Argument))
	}
	st.WorkingDir = resolved
	if d.deps.OnChangeDir != nil {
		d.deps.OnChangeDir(resolved)
	}
	return action.Succeeded(dir.Kind, "Changed directory to "+resolved)
}

func (d *Dispatcher) search(dir action.Directive, st *session.State, find func(root string) ([]codesearch.Match, error), header, empty string) action.Result {
	matches, err := find(st.WorkingDir)
	if err != nil {
		return action.Failed(dir.Kind, "search failed: "+err.Error())
	}
	if len(matches) == 0 {
		return action.Succeeded(dir.Kind, empty)
	}
	lines := make([]string, 0, len(matches)+1)
	lines = append(lines, header)
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%s:%d: %s", m.File, m.Line, m.Text))
	}
	return action.Succeeded(dir.Kind, strings.Join(lines, "\n"))
}

// ResolvePath expands "~" and anchors relative paths at workingDir.
func ResolvePath(workingDir, arg string) (string, error) {
	p, err := fsbrowser.ExpandHome(strings.TrimSpace(arg))
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(workingDir, p)
	}
	return filepath.Clean(p), nil
}

func fileError(err error, arg string) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "file not found: " + arg
	case errors.Is(err, fs.ErrPermission):
		return "permission denied: " + arg
	case errors.Is(err, fileops.ErrIsDirectory):
		return "not a file: " + arg
	default:
		return err.Error()
	}
}

func directoryError(err error, arg string) string {
	switch {
	case errors.Is(err, fsbrowser.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return "directory not found: " + arg
	case errors.Is(err, fsbrowser.ErrNotDirectory):
		return "not a directory: " + arg
	case errors.Is(err, fs.ErrPermission):
		return "permission denied: " + arg
	default:
		return err.Error()
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... [truncated %d chars]", len(s)-cut)
}
