package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

// ArgRule says how the text after a marker becomes a directive argument.
type ArgRule int

const (
	// ArgRequired is the rest of the line, trimmed; it must not be empty.
	ArgRequired ArgRule = iota
	// ArgOptional may be empty.
	ArgOptional
	// ArgDefaultDot means an empty argument is the current directory.
	ArgDefaultDot
)

// Rule is one row of the marker table.
type Rule struct {
	Marker string
	Kind   action.Kind
	Arg    ArgRule
	// Block rules read inline content from a CONTENT: ... END_CONTENT section
	// that follows the marker line.
	Block bool
	Usage string
}

// Grammar is an immutable marker table. Build one with New and hand it to the
// extractor and router that should share it.
type Grammar struct {
	declared []Rule
	byLength []Rule
}

// DefaultRules is the marker vocabulary the system prompt teaches the model.
func DefaultRules() []Rule {
	return []Rule{
		{Marker: "COMMAND:", Kind: action.KindRunCommand, Arg: ArgRequired, Usage: "<shell_command> - execute a shell command"},
		{Marker: "READ:", Kind: action.KindReadFile, Arg: ArgRequired, Usage: "<file_path> - read a file"},
		{Marker: "WRITE:", Kind: action.KindWriteFile, Arg: ArgRequired, Usage: "<file_path> - write a file (you will be asked for the content)"},
		{Marker: "WRITE_CONTENT:", Kind: action.KindWriteFile, Arg: ArgRequired, Block: true, Usage: "<file_path>, then a line CONTENT:, the content, and a final line END_CONTENT - write content directly"},
		{Marker: "LIST:", Kind: action.KindListDirectory, Arg: ArgDefaultDot, Usage: "[directory] - list files"},
		{Marker: "LS:", Kind: action.KindListDirectory, Arg: ArgDefaultDot, Usage: "[directory] - same as LIST:"},
		{Marker: "CD:", Kind: action.KindChangeDirectory, Arg: ArgRequired, Usage: "<directory> - change the working directory"},
		{Marker: "SEARCH:", Kind: action.KindSearchCode, Arg: ArgRequired, Usage: "<pattern> - search code for a pattern"},
		{Marker: "SEARCH_FUNC:", Kind: action.KindFindFunction, Arg: ArgOptional, Usage: "[name] - find function/class definitions"},
		{Marker: "FIND_TODO:", Kind: action.KindFindTodo, Arg: ArgOptional, Usage: "- find TODO comments"},
		{Marker: "FIND_IMPORT:", Kind: action.KindFindImport, Arg: ArgRequired, Usage: "<module> - find files importing a module"},
	}
}

// Default returns a grammar over DefaultRules.
func Default() *Grammar {
	g, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return g
}

func New(rules []Rule) (*Grammar, error) {
	if len(rules) == 0 {
		return nil, errors.New("grammar needs at least one rule")
	}
	seen := map[string]struct{}{}
	declared := make([]Rule, 0, len(rules))
	for _, r := range rules {
		marker := strings.TrimSpace(r.Marker)
		if marker == "" || !strings.HasSuffix(marker, ":") {
			return nil, fmt.Errorf("marker %q must end with ':'", r.Marker)
		}
		if strings.IndexFunc(marker, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("marker %q must not contain whitespace", r.Marker)
		}
		if !r.Kind.Valid() {
			return nil, fmt.Errorf("marker %q has no valid kind", r.Marker)
		}
		key := strings.ToUpper(marker)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("marker %q declared twice", r.Marker)
		}
		seen[key] = struct{}{}
		r.Marker = marker
		declared = append(declared, r)
	}
	byLength := make([]Rule, len(declared))
	copy(byLength, declared)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].Marker) > len(byLength[j].Marker)
	})
	return &Grammar{declared: declared, byLength: byLength}, nil
}

// Rules returns the table in declaration order.
func (g *Grammar) Rules() []Rule {
	out := make([]Rule, len(g.declared))
	copy(out, g.declared)
	return out
}

// Match tests a single line. Only leading whitespace may precede the marker,
// and the comparison ignores case.
func (g *Grammar) Match(line string) (Rule, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, r := range g.byLength {
		if len(trimmed) < len(r.Marker) {
			continue
		}
		if strings.EqualFold(trimmed[:len(r.Marker)], r.Marker) {
			return r, NormalizeArg(trimmed[len(r.Marker):], r.Arg), true
		}
	}
	return Rule{}, "", false
}

// MarkerFor returns the first single-line marker declared for kind.
func (g *Grammar) MarkerFor(kind action.Kind) (string, bool) {
	for _, r := range g.declared {
		if r.Kind == kind && !r.Block {
			return r.Marker, true
		}
	}
	return "", false
}

// ArgRuleFor returns the argument rule of the first marker declared for kind.
func (g *Grammar) ArgRuleFor(kind action.Kind) ArgRule {
	for _, r := range g.declared {
		if r.Kind == kind && !r.Block {
			return r.Arg
		}
	}
	return ArgRequired
}

// Format renders d back into marker form, e.g. "COMMAND: ls".
func (g *Grammar) Format(d action.Directive) string {
	marker, ok := g.MarkerFor(d.Kind)
	if !ok {
		marker = strings.ToUpper(d.Kind.String()) + ":"
	}
	if d.Argument == "" {
		return marker
	}
	return marker + " " + d.Argument
}

// NormalizeArg trims, strips one pair of matching quotes, and applies rule
// defaults.
func NormalizeArg(raw string, rule ArgRule) string {
	arg := Unquote(strings.TrimSpace(raw))
	if arg == "" && rule == ArgDefaultDot {
		return "."
	}
	return arg
}

func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last {
		return s
	}
	switch first {
	case '"', '\'', '`':
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
