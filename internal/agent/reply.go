package agent

import (
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

type ReplyKind int

const (
	ReplyNone ReplyKind = iota
	ReplyChat
	ReplyAction
	ReplyInfo
	// ReplyError is reserved for model endpoint failures. Action failures
	// are ReplyAction with an unsuccessful Result.
	ReplyError
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyChat:
		return "chat"
	case ReplyAction:
		return "action"
	case ReplyInfo:
		return "info"
	case ReplyError:
		return "error"
	default:
		return "none"
	}
}

// Reply is what one turn produced for display.
type Reply struct {
	Kind      ReplyKind
	Assistant string
	Directive *action.Directive
	// DirectiveText is the directive in marker form, e.g. "COMMAND: ls".
	DirectiveText string
	Result        *action.Result
	Info          string
	Err           error
	Exit          bool
	ClearScreen   bool
}

// Text flattens the reply for plain-text consumers.
func (r Reply) Text() string {
	parts := make([]string, 0, 3)
	switch r.Kind {
	case ReplyChat:
		parts = append(parts, r.Assistant)
	case ReplyAction:
		if strings.TrimSpace(r.Assistant) != "" {
			parts = append(parts, r.Assistant)
		} else if r.DirectiveText != "" {
			parts = append(parts, r.DirectiveText)
		}
		if r.Result != nil {
			parts = append(parts, r.Result.Text())
		}
	case ReplyInfo:
		parts = append(parts, r.Info)
	case ReplyError:
		if r.Err != nil {
			parts = append(parts, "error: "+r.Err.Error())
		}
	}
	return strings.Join(parts, "\n")
}
