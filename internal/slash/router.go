package slash

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
)

// Builtin names a session command that never becomes a directive.
type Builtin int

const (
	BuiltinNone Builtin = iota
	BuiltinHelp
	BuiltinExit
	BuiltinClear
	BuiltinClearScreen
	BuiltinModels
	BuiltinModel
	BuiltinHistory
	BuiltinDirs
)

// Command is one row of the router table. Exactly one of Kind and Builtin is
// set.
type Command struct {
	Name    string
	Aliases []string
	Kind    action.Kind
	Builtin Builtin
	ArgHint string
	Help    string
}

func DefaultCommands() []Command {
	return []Command{
		{Name: "read", Kind: action.KindReadFile, ArgHint: "<path>", Help: "read a file"},
		{Name: "write", Kind: action.KindWriteFile, ArgHint: "<path>", Help: "write a file (content follows, end with a line containing only '.')"},
		{Name: "run", Kind: action.KindRunCommand, ArgHint: "<command>", Help: "run a shell command"},
		{Name: "ls", Kind: action.KindListDirectory, ArgHint: "[dir]", Help: "list a directory"},
		{Name: "cd", Kind: action.KindChangeDirectory, ArgHint: "<dir>", Help: "change the working directory"},
		{Name: "search", Kind: action.KindSearchCode, ArgHint: "<pattern>", Help: "search code"},
		{Name: "find-func", Kind: action.KindFindFunction, ArgHint: "[name]", Help: "find function and class definitions"},
		{Name: "find-todo", Kind: action.KindFindTodo, Help: "find TODO comments"},
		{Name: "find-import", Kind: action.KindFindImport, ArgHint: "<module>", Help: "find files importing a module"},
		{Name: "models", Builtin: BuiltinModels, Help: "list available models"},
		{Name: "model", Builtin: BuiltinModel, ArgHint: "[name]", Help: "show or switch the active model"},
		{Name: "clear", Builtin: BuiltinClear, Help: "forget the conversation"},
		{Name: "cls", Builtin: BuiltinClearScreen, Help: "clear the screen and the conversation"},
		{Name: "history", Builtin: BuiltinHistory, Help: "show recent inputs"},
		{Name: "dirs", Builtin: BuiltinDirs, Help: "show recently visited directories"},
		{Name: "help", Builtin: BuiltinHelp, Help: "show this help"},
		{Name: "exit", Aliases: []string{"quit"}, Builtin: BuiltinExit, Help: "leave the session"},
	}
}

// Route is the router's decision for one slash input.
type Route struct {
	Name      string
	Directive *action.Directive
	Builtin   Builtin
	Arg       string
	// Problem is set for unknown commands and missing arguments; such routes
	// are rendered to the user and go nowhere else.
	Problem string
	Unknown bool
}

type Router struct {
	grammar  *grammar.Grammar
	commands []Command
	byName   map[string]int
}

func NewRouter(g *grammar.Grammar, commands []Command) (*Router, error) {
	if g == nil {
		g = grammar.Default()
	}
	if len(commands) == 0 {
		commands = DefaultCommands()
	}
	r := &Router{grammar: g, byName: map[string]int{}}
	for _, c := range commands {
		if (c.Kind == action.KindUnknown) == (c.Builtin == BuiltinNone) {
			return nil, fmt.Errorf("command /%s needs exactly one of kind or builtin", c.Name)
		}
		if c.Kind != action.KindUnknown {
			if _, ok := g.MarkerFor(c.Kind); !ok {
				return nil, fmt.Errorf("command /%s: grammar has no marker for %s", c.Name, c.Kind)
			}
		}
		idx := len(r.commands)
		r.commands = append(r.commands, c)
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key := strings.ToLower(name)
			if _, dup := r.byName[key]; dup {
				return nil, fmt.Errorf("duplicate command /%s", name)
			}
			r.byName[key] = idx
		}
	}
	return r, nil
}

func Default() *Router {
	r, err := NewRouter(nil, nil)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Router) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// IsSlash reports whether text is meant for the router.
func IsSlash(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// Route maps slash input to a directive or builtin. The second return is
// false when text is not slash input at all. Anything after the first line
// of a /write becomes its inline content.
func (r *Router) Route(text string) (Route, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return Route{}, false
	}
	firstLine, rest, multiline := strings.Cut(trimmed, "\n")
	firstLine = strings.TrimSpace(strings.TrimSuffix(firstLine, "\r"))
	name, arg := firstLine[1:], ""
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		name, arg = name[:i], name[i:]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	idx, ok := r.byName[name]
	if !ok {
		return Route{
			Name:    name,
			Unknown: true,
			Problem: fmt.Sprintf("unknown command: /%s (type /help for a list)", name),
		}, true
	}
	cmd := r.commands[idx]
	route := Route{Name: cmd.Name, Builtin: cmd.Builtin, Arg: arg}
	if cmd.Builtin != BuiltinNone {
		return route, true
	}

	rule := r.grammar.ArgRuleFor(cmd.Kind)
	arg = grammar.NormalizeArg(arg, rule)
	if arg == "" && rule == grammar.ArgRequired {
		route.Problem = "usage: " + Usage(cmd)
		return route, true
	}
	d := action.Directive{
		Kind:     cmd.Kind,
		Argument: arg,
		Raw:      firstLine,
		Origin:   action.OriginUser,
	}
	if cmd.Kind == action.KindWriteFile && multiline {
		d.Content = rest
		d.HasContent = true
	}
	route.Arg = arg
	route.Directive = &d
	return route, true
}

func Usage(c Command) string {
	if c.ArgHint == "" {
		return "/" + c.Name
	}
	return "/" + c.Name + " " + c.ArgHint
}

// Help renders the command table, directive commands first.
func (r *Router) Help() string {
	cmds := r.Commands()
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].Builtin == BuiltinNone && cmds[j].Builtin != BuiltinNone
	})
	width := 0
	for _, c := range cmds {
		if n := len(Usage(c)); n > width {
			width = n
		}
	}
	var b strings.Builder
	b.WriteString("Commands:")
	for _, c := range cmds {
		line := fmt.Sprintf("\n  %-*s  %s", width, Usage(c), c.Help)
		if len(c.Aliases) > 0 {
			line += " (also /" + strings.Join(c.Aliases, ", /") + ")"
		}
		b.WriteString(line)
	}
	return b.String()
}
