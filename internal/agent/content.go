package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
	"github.com/prodigisoftwares/ollama-agent/internal/llm"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

// ContentWriter asks the model for the body of a file named by a WRITE:
// directive.
type ContentWriter struct {
	model   Model
	grammar *grammar.Grammar
	window  session.WindowOptions
}

func NewContentWriter(model Model, g *grammar.Grammar, window session.WindowOptions) *ContentWriter {
	return &ContentWriter{model: model, grammar: g, window: window}
}

type exchangeKey struct{}

type exchange struct {
	user      string
	assistant string
}

// withExchange carries the turn being handled, not yet merged into history,
// to content requests made while its directive runs.
func withExchange(ctx context.Context, user, assistant string) context.Context {
	return context.WithValue(ctx, exchangeKey{}, exchange{user: user, assistant: assistant})
}

// Content asks for the body of path. The request includes the exchange that
// produced the WRITE: directive, so the model knows what the file is for.
func (w *ContentWriter) Content(ctx context.Context, st *session.State, path string) (string, error) {
	prompt := fmt.Sprintf("Generate the content for the file %s. Only output the file content, nothing else.", path)
	msgs := BuildMessages(w.grammar, st, prompt, w.window)
	if ex, ok := ctx.Value(exchangeKey{}).(exchange); ok {
		last := msgs[len(msgs)-1]
		msgs = append(msgs[:len(msgs)-1],
			llm.Message{Role: llm.RoleUser, Content: ex.user},
			llm.Message{Role: llm.RoleAssistant, Content: ex.assistant},
			last,
		)
	}
	reply, err := w.model.Send(ctx, st.Model, msgs)
	if err != nil {
		return "", err
	}
	return StripCodeFence(reply), nil
}

// StripCodeFence removes one surrounding ``` fence, language tag included.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	_, body, ok := strings.Cut(trimmed, "\n")
	if !ok {
		return ""
	}
	body = strings.TrimRight(body, " \t\r\n")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimRight(body, "\r\n") + "\n"
}
