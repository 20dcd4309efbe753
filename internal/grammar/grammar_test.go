package grammar

import (
	"testing"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

func TestNew_RejectsBadRules(t *testing.T) {
	cases := map[string][]Rule{
		"empty":         {},
		"no colon":      {{Marker: "COMMAND", Kind: action.KindRunCommand}},
		"space":         {{Marker: "RUN IT:", Kind: action.KindRunCommand}},
		"invalid kind":  {{Marker: "NOPE:", Kind: action.KindUnknown}},
		"duplicate":     {{Marker: "CD:", Kind: action.KindChangeDirectory}, {Marker: "cd:", Kind: action.KindChangeDirectory}},
	}
	for name, rules := range cases {
		if _, err := New(rules); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGrammar_MatchIsCaseInsensitiveAndAllowsLeadingWhitespace(t *testing.T) {
	g := Default()
	rule, arg, ok := g.Match("   command:   ls -al  ")
	if !ok {
		t.Fatal("expected match")
	}
	if rule.Kind != action.KindRunCommand || arg != "ls -al" {
		t.Fatalf("unexpected match kind=%v arg=%q", rule.Kind, arg)
	}
}

func TestGrammar_MatchPrefersLongerMarker(t *testing.T) {
	g := Default()
	rule, arg, ok := g.Match("WRITE_CONTENT: out.txt")
	if !ok || !rule.Block || rule.Kind != action.KindWriteFile || arg != "out.txt" {
		t.Fatalf("unexpected match: ok=%v rule=%+v arg=%q", ok, rule, arg)
	}
	rule, _, ok = g.Match("SEARCH_FUNC: handler")
	if !ok || rule.Kind != action.KindFindFunction {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestGrammar_ListDefaultsToCurrentDirectory(t *testing.T) {
	g := Default()
	_, arg, ok := g.Match("LIST:")
	if !ok || arg != "." {
		t.Fatalf("expected '.', got ok=%v arg=%q", ok, arg)
	}
}

func TestGrammar_FormatUsesFirstDeclaredMarker(t *testing.T) {
	g := Default()
	got := g.Format(action.Directive{Kind: action.KindListDirectory, Argument: "src"})
	if got != "LIST: src" {
		t.Fatalf("unexpected format: %q", got)
	}
	got = g.Format(action.Directive{Kind: action.KindFindTodo})
	if got != "FIND_TODO:" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestGrammar_CustomTableIsIsolated(t *testing.T) {
	g, err := New([]Rule{{Marker: "RUN:", Kind: action.KindRunCommand}})
	if err != nil {
		t.Fatalf("new grammar: %v", err)
	}
	if _, _, ok := g.Match("COMMAND: ls"); ok {
		t.Fatal("custom grammar must not know default markers")
	}
	if _, arg, ok := g.Match("run: ls"); !ok || arg != "ls" {
		t.Fatalf("expected custom marker match, got ok=%v arg=%q", ok, arg)
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`"notes.txt"`:  "notes.txt",
		`'a b'`:        "a b",
		"`ls`":         "ls",
		`"mismatch'`:   `"mismatch'`,
		`"`:            `"`,
		`plain`:        "plain",
	}
	for in, want := range cases {
		if got := Unquote(in); got != want {
			t.Fatalf("Unquote(%q) = %q, want %q", in, got, want)
		}
	}
}
