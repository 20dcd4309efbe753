package agent

import (
	"fmt"
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
	"github.com/prodigisoftwares/ollama-agent/internal/llm"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

// SystemPrompt teaches the model every marker in g. It is rebuilt each turn
// so the working directory is current.
func SystemPrompt(g *grammar.Grammar, workingDir string) string {
	if g == nil {
		g = grammar.Default()
	}
	var b strings.Builder
	b.WriteString("You are a coding assistant running locally through Ollama. You help with programming, files and system tasks.\n\n")
	fmt.Fprintf(&b, "Current working directory: %s\n\n", workingDir)
	b.WriteString("To act, put exactly one of these markers at the start of its own line:\n")
	for _, r := range g.Rules() {
		fmt.Fprintf(&b, "- %s %s\n", r.Marker, r.Usage)
	}
	b.WriteString("\nOnly the first marker line in a reply is executed. Its result comes back in a message that starts with ")
	b.WriteString(session.ObservationTag)
	b.WriteString(".\nWhen the user asks for an action, perform it with a marker instead of telling them what to type. Be direct.")
	return b.String()
}

// BuildMessages lays out the system prompt, the windowed history and the new
// input. Observed results go to the model as user messages.
func BuildMessages(g *grammar.Grammar, st *session.State, input string, opts session.WindowOptions) []llm.Message {
	window, _ := session.Window(st.History, opts)
	out := make([]llm.Message, 0, len(window)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(g, st.WorkingDir)})
	for _, turn := range window {
		out = append(out, llm.Message{Role: messageRole(turn), Content: turn.Text})
	}
	out = append(out, llm.Message{Role: llm.RoleUser, Content: input})
	return out
}

func messageRole(turn session.Turn) llm.Role {
	switch turn.Role {
	case session.RoleAssistant:
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}
