package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/prodigisoftwares/ollama-agent/internal/agent"
	"github.com/prodigisoftwares/ollama-agent/internal/codesearch"
	"github.com/prodigisoftwares/ollama-agent/internal/config"
	"github.com/prodigisoftwares/ollama-agent/internal/db"
	"github.com/prodigisoftwares/ollama-agent/internal/dispatch"
	"github.com/prodigisoftwares/ollama-agent/internal/fileops"
	"github.com/prodigisoftwares/ollama-agent/internal/fsbrowser"
	"github.com/prodigisoftwares/ollama-agent/internal/global"
	"github.com/prodigisoftwares/ollama-agent/internal/grammar"
	"github.com/prodigisoftwares/ollama-agent/internal/historydb"
	"github.com/prodigisoftwares/ollama-agent/internal/llm"
	"github.com/prodigisoftwares/ollama-agent/internal/logging"
	"github.com/prodigisoftwares/ollama-agent/internal/render"
	"github.com/prodigisoftwares/ollama-agent/internal/repl"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
	"github.com/prodigisoftwares/ollama-agent/internal/shell"
	"github.com/prodigisoftwares/ollama-agent/internal/slash"
)

type runtimeIO struct {
	In    io.Reader
	Out   io.Writer
	Plain bool
	// UserContent overrides the terminal as the source of /write bodies.
	UserContent dispatch.ContentSource
}

// runtime holds one session and everything it talks to.
type runtime struct {
	logger   *slog.Logger
	logFile  *os.File
	gdb      *gorm.DB
	dirs     *historydb.DirStore
	prompts  *historydb.PromptStore
	client   *llm.Client
	input    *repl.Input
	renderer *render.Renderer
	engine   *agent.Engine
	state    *session.State
}

func newRuntime(cfg config.Config, rio runtimeIO) (*runtime, error) {
	rt := &runtime{}
	if err := rt.openLogger(cfg); err != nil {
		return nil, err
	}
	rt.openHistory(cfg)

	wd, err := os.Getwd()
	if err != nil {
		rt.Close()
		return nil, err
	}
	st, err := session.New(wd, cfg.Model)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.state = st

	out := rio.Out
	if out == nil {
		out = io.Discard
	}
	in := rio.In
	if in == nil {
		in = strings.NewReader("")
	}
	rt.renderer = render.New(out, render.Options{Plain: rio.Plain})
	rt.input = repl.NewInput(in, out)
	rt.client = newModelClient(cfg)

	g := grammar.Default()
	window := session.WindowOptions{MaxMessages: cfg.HistoryMaxMessages, MaxChars: cfg.HistoryMaxChars}
	var userContent dispatch.ContentSource = rt.input
	if rio.UserContent != nil {
		userContent = rio.UserContent
	}
	d, err := dispatch.New(dispatch.Deps{
		Grammar:        g,
		Files:          fileops.New(),
		Navigator:      fsbrowser.NewService(),
		Shell:          shell.NewRunner(),
		Searcher:       codesearch.New(codesearch.Options{MaxResults: cfg.SearchMaxResults, RespectGitignore: true}),
		ModelContent:   agent.NewContentWriter(rt.client, g, window),
		UserContent:    userContent,
		OnChangeDir:    rt.rememberDir,
		CommandTimeout: cfg.CommandTimeout,
		MaxOutputChars: cfg.MaxOutputChars,
		Logger:         rt.logger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	router, err := slash.NewRouter(g, nil)
	if err != nil {
		rt.Close()
		return nil, err
	}
	deps := agent.Deps{
		Grammar:    g,
		Router:     router,
		Dispatcher: d,
		Model:      rt.client,
		Window:     window,
		Logger:     rt.logger,
	}
	if rt.dirs != nil && rt.prompts != nil {
		deps.Recall = historydb.Recall{Dirs: rt.dirs, Prompts: rt.prompts}
	}
	rt.engine, err = agent.New(deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.rememberDir(st.WorkingDir)
	return rt, nil
}

func newModelClient(cfg config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
	}, nil)
}

func (rt *runtime) openLogger(cfg config.Config) error {
	var w io.Writer = os.Stderr
	if path := strings.TrimSpace(cfg.LogFile); path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return err
		}
		rt.logFile = f
		w = f
	}
	rt.logger = logging.NewLogger(logging.Options{Level: cfg.LogLevel, Writer: w, Component: "ollama-agent"})
	slog.SetDefault(rt.logger)
	return nil
}

// openHistory leaves both stores nil when the database cannot be used; the
// session still runs, only /history and /dirs go dark.
func (rt *runtime) openHistory(cfg config.Config) {
	gdb, err := db.Open(global.DBPath(cfg.DataDir))
	if err != nil {
		rt.logger.Warn("history database unavailable", "err", err)
		return
	}
	dirs, err := historydb.NewDirStore(gdb)
	if err != nil {
		rt.logger.Warn("history database unavailable", "err", err)
		_ = db.Close(gdb)
		return
	}
	prompts, err := historydb.NewPromptStore(gdb)
	if err != nil {
		rt.logger.Warn("history database unavailable", "err", err)
		_ = db.Close(gdb)
		return
	}
	rt.gdb, rt.dirs, rt.prompts = gdb, dirs, prompts
}

func (rt *runtime) rememberDir(path string) {
	if rt.dirs == nil {
		return
	}
	if err := rt.dirs.Visit(context.Background(), path); err != nil {
		rt.logger.Warn("record directory failed", "path", path, "err", err)
	}
}

func (rt *runtime) promptRecorder() repl.PromptRecorder {
	if rt.prompts == nil {
		return nil
	}
	return rt.prompts
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.gdb != nil {
		errs = append(errs, db.Close(rt.gdb))
		rt.gdb, rt.dirs, rt.prompts = nil, nil, nil
	}
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
		rt.logFile = nil
	}
	return errors.Join(errs...)
}
