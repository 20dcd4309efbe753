package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
	"github.com/prodigisoftwares/ollama-agent/internal/llm"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
	"github.com/prodigisoftwares/ollama-agent/internal/slash"
)

type Model interface {
	Send(ctx context.Context, model string, messages []llm.Message) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, d action.Directive, st *session.State) action.Result
}

// Recall serves /history and /dirs. Either list may be empty.
type Recall interface {
	RecentInputs(ctx context.Context, limit int) ([]string, error)
	RecentDirs(ctx context.Context, limit int) ([]string, error)
}

const recallLimit = 20

type Deps struct {
	Grammar    *grammar.Grammar
	Router     *slash.Router
	Dispatcher Dispatcher
	Model      Model
	Recall     Recall
	Window     session.WindowOptions
	Logger     *slog.Logger
}

// Engine is the per-turn entry point shared by the terminal loop, the ask
// command and the websocket bridge.
type Engine struct {
	grammar    *grammar.Grammar
	extractor  *grammar.Extractor
	router     *slash.Router
	dispatcher Dispatcher
	model      Model
	recall     Recall
	window     session.WindowOptions
	logger     *slog.Logger
}

func New(deps Deps) (*Engine, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("engine needs a dispatcher")
	}
	if deps.Model == nil {
		return nil, errors.New("engine needs a model client")
	}
	g := deps.Grammar
	if g == nil {
		g = grammar.Default()
	}
	router := deps.Router
	if router == nil {
		var err error
		router, err = slash.NewRouter(g, nil)
		if err != nil {
			return nil, err
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		grammar:    g,
		extractor:  grammar.NewExtractor(g),
		router:     router,
		dispatcher: deps.Dispatcher,
		model:      deps.Model,
		recall:     deps.Recall,
		window:     deps.Window,
		logger:     logger.With("module", "agent"),
	}, nil
}

// Turn handles one line of user input. Slash input never reaches the model.
// A model failure leaves st untouched.
func (e *Engine) Turn(ctx context.Context, st *session.State, input string) Reply {
	text := strings.TrimSpace(input)
	if text == "" {
		return Reply{Kind: ReplyNone}
	}
	if route, ok := e.router.Route(text); ok {
		return e.slashTurn(ctx, st, text, route)
	}
	return e.modelTurn(ctx, st, text)
}

func (e *Engine) modelTurn(ctx context.Context, st *session.State, text string) Reply {
	reply, err := e.model.Send(ctx, st.Model, BuildMessages(e.grammar, st, text, e.window))
	if err != nil {
		e.logger.Warn("model request failed", "model", st.Model, "err", err)
		return Reply{Kind: ReplyError, Err: err}
	}
	d, ok := e.extractor.Extract(reply)
	if !ok {
		session.Merge(st, text, reply, nil)
		return Reply{Kind: ReplyChat, Assistant: reply}
	}
	result := e.dispatcher.Dispatch(withExchange(ctx, text, reply), d, st)
	session.Merge(st, text, reply, &result)
	return Reply{
		Kind:          ReplyAction,
		Assistant:     reply,
		Directive:     &d,
		DirectiveText: e.grammar.Format(d),
		Result:        &result,
	}
}

func (e *Engine) slashTurn(ctx context.Context, st *session.State, text string, route slash.Route) Reply {
	if route.Problem != "" {
		return Reply{Kind: ReplyInfo, Info: route.Problem}
	}
	if route.Directive != nil {
		d := *route.Directive
		result := e.dispatcher.Dispatch(ctx, d, st)
		directiveText := e.grammar.Format(d)
		session.MergeUserAction(st, text, directiveText, result)
		return Reply{
			Kind:          ReplyAction,
			Directive:     &d,
			DirectiveText: directiveText,
			Result:        &result,
		}
	}

	switch route.Builtin {
	case slash.BuiltinHelp:
		return Reply{Kind: ReplyInfo, Info: e.router.Help()}
	case slash.BuiltinExit:
		return Reply{Kind: ReplyInfo, Info: "Goodbye!", Exit: true}
	case slash.BuiltinClear:
		st.Reset()
		return Reply{Kind: ReplyInfo, Info: "Conversation cleared."}
	case slash.BuiltinClearScreen:
		st.Reset()
		return Reply{Kind: ReplyInfo, Info: "Conversation cleared.", ClearScreen: true}
	case slash.BuiltinModels:
		return e.listModels(ctx, st)
	case slash.BuiltinModel:
		return e.switchModel(ctx, st, route.Arg)
	case slash.BuiltinHistory:
		return e.recallList(ctx, "Recent inputs:", "No input history yet.", func(ctx context.Context) ([]string, error) {
			return e.recall.RecentInputs(ctx, recallLimit)
		})
	case slash.BuiltinDirs:
		return e.recallList(ctx, "Recent directories:", "No directory history yet.", func(ctx context.Context) ([]string, error) {
			return e.recall.RecentDirs(ctx, recallLimit)
		})
	default:
		return Reply{Kind: ReplyInfo, Info: fmt.Sprintf("unknown command: /%s", route.Name)}
	}
}

func (e *Engine) listModels(ctx context.Context, st *session.State) Reply {
	models, err := e.model.ListModels(ctx)
	if err != nil {
		e.logger.Warn("list models failed", "err", err)
		return Reply{Kind: ReplyError, Err: err}
	}
	if len(models) == 0 {
		return Reply{Kind: ReplyInfo, Info: "No models available."}
	}
	lines := []string{"Available models:"}
	for _, m := range models {
		marker := "  "
		if m == st.Model {
			marker = "* "
		}
		lines = append(lines, marker+m)
	}
	return Reply{Kind: ReplyInfo, Info: strings.Join(lines, "\n")}
}

// switchModel validates name against the endpoint. History is kept.
func (e *Engine) switchModel(ctx context.Context, st *session.State, name string) Reply {
	name = strings.TrimSpace(name)
	if name == "" {
		return Reply{Kind: ReplyInfo, Info: "Current model: " + st.Model}
	}
	models, err := e.model.ListModels(ctx)
	if err != nil {
		e.logger.Warn("list models failed", "err", err)
		return Reply{Kind: ReplyError, Err: err}
	}
	if err := llm.FindModel(models, name); err != nil {
		return Reply{Kind: ReplyInfo, Info: fmt.Sprintf("Model %q is not available. Use /models to list models.", name)}
	}
	st.Model = name
	e.logger.Info("model switched", "model", name)
	return Reply{Kind: ReplyInfo, Info: "Switched to model: " + name}
}

func (e *Engine) recallList(ctx context.Context, header, empty string, load func(context.Context) ([]string, error)) Reply {
	if e.recall == nil {
		return Reply{Kind: ReplyInfo, Info: "History is not available."}
	}
	items, err := load(ctx)
	if err != nil {
		e.logger.Warn("history lookup failed", "err", err)
		return Reply{Kind: ReplyInfo, Info: "History is not available: " + err.Error()}
	}
	if len(items) == 0 {
		return Reply{Kind: ReplyInfo, Info: empty}
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, header)
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%3d  %s", i+1, item))
	}
	return Reply{Kind: ReplyInfo, Info: strings.Join(lines, "\n")}
}
