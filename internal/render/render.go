package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
	"github.com/prodigisoftwares/ollama-agent/internal/agent"
)

const Prompt = "› "

type Options struct {
	// Plain disables colors even on a terminal.
	Plain bool
}

// Renderer writes turn replies to one output. Styles are bound to that
// output, so redirected output carries no escape codes.
type Renderer struct {
	out       io.Writer
	assistant lipgloss.Style
	header    lipgloss.Style
	output    lipgloss.Style
	failure   lipgloss.Style
	info      lipgloss.Style
	muted     lipgloss.Style
}

func New(out io.Writer, opts Options) *Renderer {
	r := lipgloss.NewRenderer(out)
	if opts.Plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:       out,
		assistant: r.NewStyle(),
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		output:    r.NewStyle().Foreground(lipgloss.Color("7")),
		failure:   r.NewStyle().Foreground(lipgloss.Color("1")),
		info:      r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:     r.NewStyle().Faint(true),
	}
}

func (r *Renderer) Banner(model, workingDir string) {
	fmt.Fprintln(r.out, r.header.Render("ollama-agent")+" "+r.muted.Render("model "+model))
	fmt.Fprintln(r.out, r.muted.Render("working directory: "+workingDir))
	fmt.Fprintln(r.out, r.muted.Render("type /help for commands, /exit to quit"))
}

func (r *Renderer) Prompt() {
	fmt.Fprint(r.out, Prompt)
}

func (r *Renderer) ClearScreen() {
	fmt.Fprint(r.out, "\033[H\033[2J")
}

// Reply writes one turn. Model text is shown as written, directive line
// included; the action header and its result follow.
func (r *Renderer) Reply(reply agent.Reply) {
	switch reply.Kind {
	case agent.ReplyChat:
		r.line(r.assistant, reply.Assistant)
	case agent.ReplyAction:
		if strings.TrimSpace(reply.Assistant) != "" {
			r.line(r.assistant, reply.Assistant)
		}
		if reply.DirectiveText != "" {
			r.line(r.header, "▶ "+reply.DirectiveText)
		}
		if reply.Result != nil {
			r.result(reply.Result)
		}
	case agent.ReplyInfo:
		r.line(r.info, reply.Info)
	case agent.ReplyError:
		if reply.Err != nil {
			r.line(r.failure, "error: "+reply.Err.Error())
		}
	}
}

func (r *Renderer) Error(err error) {
	if err != nil {
		r.line(r.failure, "error: "+err.Error())
	}
}

func (r *Renderer) Info(text string) {
	r.line(r.info, text)
}

func (r *Renderer) result(res *action.Result) {
	if res.Success {
		r.line(r.output, res.Output)
		return
	}
	r.line(r.failure, "✗ "+res.Error)
	if strings.TrimSpace(res.Output) != "" {
		r.line(r.output, res.Output)
	}
}

// line styles each line on its own; lipgloss would otherwise pad a block to
// its widest line.
func (r *Renderer) line(style lipgloss.Style, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, l := range strings.Split(text, "\n") {
		fmt.Fprintln(r.out, style.Render(l))
	}
}
