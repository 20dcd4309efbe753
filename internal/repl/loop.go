package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/agent"
	"github.com/prodigisoftwares/ollama-agent/internal/render"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

var ErrEndpointUnavailable = errors.New("model endpoint unavailable")

type Turner interface {
	Turn(ctx context.Context, st *session.State, input string) agent.Reply
}

type PromptRecorder interface {
	Append(ctx context.Context, sessionID, text string) error
}

type Options struct {
	// Interactive enables the banner, the prompt and clear-screen output.
	Interactive bool
	// MaxEndpointFailures ends the loop after that many consecutive model
	// failures. Zero keeps going forever.
	MaxEndpointFailures int
}

type Loop struct {
	engine   Turner
	input    *Input
	renderer *render.Renderer
	prompts  PromptRecorder
	opts     Options
	logger   *slog.Logger
}

func NewLoop(engine Turner, input *Input, renderer *render.Renderer, prompts PromptRecorder, opts Options, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		engine:   engine,
		input:    input,
		renderer: renderer,
		prompts:  prompts,
		opts:     opts,
		logger:   logger.With("module", "repl"),
	}
}

// Run reads and answers lines until /exit, end of input or ctx is done.
// One line is fully handled before the next is read.
func (l *Loop) Run(ctx context.Context, st *session.State) error {
	if l.opts.Interactive {
		l.renderer.Banner(st.Model, st.WorkingDir)
	}
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		if l.opts.Interactive {
			l.renderer.Prompt()
		}
		line, err := l.input.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		l.record(ctx, st, text)

		reply := l.engine.Turn(ctx, st, text)
		if reply.ClearScreen && l.opts.Interactive {
			l.renderer.ClearScreen()
		}
		l.renderer.Reply(reply)
		if reply.Exit {
			return nil
		}

		switch reply.Kind {
		case agent.ReplyError:
			failures++
			if l.opts.MaxEndpointFailures > 0 && failures >= l.opts.MaxEndpointFailures {
				return fmt.Errorf("%w after %d consecutive failures", ErrEndpointUnavailable, failures)
			}
		case agent.ReplyNone:
		default:
			failures = 0
		}
	}
}

func (l *Loop) record(ctx context.Context, st *session.State, text string) {
	if l.prompts == nil {
		return
	}
	if err := l.prompts.Append(ctx, st.ID, text); err != nil {
		l.logger.Warn("record input failed", "err", err)
	}
}
