package slash

import (
	"strings"
	"testing"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
)

func TestRoute_NotSlash(t *testing.T) {
	r := Default()
	if _, ok := r.Route("list the files please"); ok {
		t.Fatal("plain text should not be routed")
	}
}

func TestRoute_DirectiveCommands(t *testing.T) {
	r := Default()
	cases := []struct {
		input string
		kind  action.Kind
		arg   string
	}{
		{input: "/run ls -la", kind: action.KindRunCommand, arg: "ls -la"},
		{input: "/read notes.txt", kind: action.KindReadFile, arg: "notes.txt"},
		{input: `/cd "my dir"`, kind: action.KindChangeDirectory, arg: "my dir"},
		{input: "/ls", kind: action.KindListDirectory, arg: "."},
		{input: "/LS src", kind: action.KindListDirectory, arg: "src"},
		{input: "/search func main", kind: action.KindSearchCode, arg: "func main"},
		{input: "/find-func", kind: action.KindFindFunction, arg: ""},
		{input: "/find-todo", kind: action.KindFindTodo, arg: ""},
		{input: "/find-import requests", kind: action.KindFindImport, arg: "requests"},
	}
	for _, tc := range cases {
		route, ok := r.Route(tc.input)
		if !ok {
			t.Fatalf("%q: not routed", tc.input)
		}
		if route.Directive == nil {
			t.Fatalf("%q: expected directive, got %#v", tc.input, route)
		}
		if route.Directive.Kind != tc.kind || route.Directive.Argument != tc.arg {
			t.Fatalf("%q: got kind=%s arg=%q", tc.input, route.Directive.Kind, route.Directive.Argument)
		}
		if route.Directive.Origin != action.OriginUser {
			t.Fatalf("%q: expected user origin", tc.input)
		}
	}
}

func TestRoute_MissingArgumentGivesUsage(t *testing.T) {
	r := Default()
	route, ok := r.Route("/cd")
	if !ok {
		t.Fatal("expected route")
	}
	if route.Directive != nil {
		t.Fatal("no directive expected without an argument")
	}
	if route.Problem != "usage: /cd <dir>" {
		t.Fatalf("unexpected problem: %q", route.Problem)
	}
}

func TestRoute_TabSeparatesArgument(t *testing.T) {
	r := Default()
	route, ok := r.Route("/run\tls -la")
	if !ok || route.Unknown {
		t.Fatalf("expected /run route, got %#v", route)
	}
	if route.Directive == nil || route.Directive.Kind != action.KindRunCommand || route.Directive.Argument != "ls -la" {
		t.Fatalf("unexpected directive: %#v", route.Directive)
	}
}

func TestRoute_Unknown(t *testing.T) {
	r := Default()
	route, ok := r.Route("/frobnicate now")
	if !ok || !route.Unknown {
		t.Fatalf("expected unknown route, got %#v", route)
	}
	if !strings.Contains(route.Problem, "/frobnicate") || !strings.Contains(route.Problem, "/help") {
		t.Fatalf("unexpected problem: %q", route.Problem)
	}
}

func TestRoute_Builtins(t *testing.T) {
	r := Default()
	cases := map[string]Builtin{
		"/help":         BuiltinHelp,
		"/exit":         BuiltinExit,
		"/quit":         BuiltinExit,
		"/clear":        BuiltinClear,
		"/cls":          BuiltinClearScreen,
		"/models":       BuiltinModels,
		"/model llama3": BuiltinModel,
		"/history":      BuiltinHistory,
		"/dirs":         BuiltinDirs,
	}
	for input, want := range cases {
		route, ok := r.Route(input)
		if !ok || route.Builtin != want || route.Directive != nil {
			t.Fatalf("%q: got %#v", input, route)
		}
	}
	route, _ := r.Route("/model llama3")
	if route.Arg != "llama3" {
		t.Fatalf("unexpected model arg: %q", route.Arg)
	}
}

func TestRoute_WriteInlineContent(t *testing.T) {
	r := Default()
	route, _ := r.Route("/write out.txt\nline one\nline two")
	if route.Directive == nil {
		t.Fatalf("expected directive, got %#v", route)
	}
	d := route.Directive
	if d.Argument != "out.txt" || !d.HasContent || d.Content != "line one\nline two" {
		t.Fatalf("unexpected directive: %#v", d)
	}

	route, _ = r.Route("/write out.txt")
	if route.Directive.HasContent {
		t.Fatal("single-line /write carries no content")
	}
}

func TestNewRouter_RejectsCommandWithoutMarker(t *testing.T) {
	g, err := grammar.New([]grammar.Rule{{Marker: "COMMAND:", Kind: action.KindRunCommand}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRouter(g, nil); err == nil {
		t.Fatal("expected error for commands the grammar cannot express")
	}
	if _, err := NewRouter(g, []Command{{Name: "run", Kind: action.KindRunCommand}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRouter_RejectsDuplicates(t *testing.T) {
	_, err := NewRouter(nil, []Command{
		{Name: "help", Builtin: BuiltinHelp},
		{Name: "x", Aliases: []string{"HELP"}, Builtin: BuiltinExit},
	})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestHelp_ListsEveryCommand(t *testing.T) {
	r := Default()
	help := r.Help()
	for _, c := range r.Commands() {
		if !strings.Contains(help, "/"+c.Name) {
			t.Fatalf("help misses /%s:\n%s", c.Name, help)
		}
	}
	if strings.Index(help, "/read") > strings.Index(help, "/help") {
		t.Fatal("directive commands should be listed first")
	}
}
