package action

import "strings"

// Kind is the closed set of actions a directive can request.
type Kind int

const (
	KindUnknown Kind = iota
	KindRunCommand
	KindReadFile
	KindWriteFile
	KindListDirectory
	KindChangeDirectory
	KindSearchCode
	KindFindFunction
	KindFindTodo
	KindFindImport
)

var kindNames = map[Kind]string{
	KindRunCommand:      "run_command",
	KindReadFile:        "read_file",
	KindWriteFile:       "write_file",
	KindListDirectory:   "list_directory",
	KindChangeDirectory: "change_directory",
	KindSearchCode:      "search_code",
	KindFindFunction:    "find_function",
	KindFindTodo:        "find_todo",
	KindFindImport:      "find_import",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindRunCommand,
		KindReadFile,
		KindWriteFile,
		KindListDirectory,
		KindChangeDirectory,
		KindSearchCode,
		KindFindFunction,
		KindFindTodo,
		KindFindImport,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, v := range kindNames {
		if v == name {
			return k
		}
	}
	return KindUnknown
}

// Origin records who asked for a directive.
type Origin int

const (
	OriginModel Origin = iota
	OriginUser
)

func (o Origin) String() string {
	if o == OriginUser {
		return "user"
	}
	return "model"
}

// Directive is an action request decoded from model text or a slash command.
// It is treated as immutable once built.
type Directive struct {
	Kind     Kind
	Argument string
	// Raw is the exact line that triggered the match.
	Raw    string
	Origin Origin
	// Content carries inline file content for WriteFile when HasContent is set.
	Content    string
	HasContent bool
}

// Result is the outcome envelope of one dispatched directive.
type Result struct {
	Kind    Kind
	Success bool
	Output  string
	Error   string
}

func Succeeded(kind Kind, output string) Result {
	return Result{Kind: kind, Success: true, Output: output}
}

func Failed(kind Kind, msg string) Result {
	if strings.TrimSpace(msg) == "" {
		msg = "UNKNOWN_ERROR"
	}
	return Result{Kind: kind, Success: false, Error: msg}
}

// Text renders the result as plain text for display and for the model.
func (r Result) Text() string {
	if r.Success {
		return r.Output
	}
	if strings.TrimSpace(r.Output) == "" {
		return "error: " + r.Error
	}
	return "error: " + r.Error + "\n" + r.Output
}
