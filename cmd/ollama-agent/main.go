package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/prodigisoftwares/ollama-agent/internal/agent"
	"github.com/prodigisoftwares/ollama-agent/internal/bridge"
	"github.com/prodigisoftwares/ollama-agent/internal/command"
	"github.com/prodigisoftwares/ollama-agent/internal/config"
	"github.com/prodigisoftwares/ollama-agent/internal/db"
	"github.com/prodigisoftwares/ollama-agent/internal/dispatch"
	"github.com/prodigisoftwares/ollama-agent/internal/global"
	"github.com/prodigisoftwares/ollama-agent/internal/lifecycle"
	"github.com/prodigisoftwares/ollama-agent/internal/llm"
	"github.com/prodigisoftwares/ollama-agent/internal/logging"
	"github.com/prodigisoftwares/ollama-agent/internal/repl"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

var version = "dev"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig: loadConfig,
		RunChat: func(ctx context.Context, cfg config.Config) error {
			return runChat(ctx, cfg, os.Stdin, os.Stdout)
		},
		RunAsk: func(ctx context.Context, cfg config.Config, prompt string) error {
			return runAsk(ctx, cfg, prompt, os.Stdin, os.Stdout)
		},
		RunModels: func(ctx context.Context, cfg config.Config) error {
			return runModels(ctx, cfg, os.Stdout)
		},
		RunServe:     runServe,
		RunMigrateUp: runMigrateUp,
	})
	app.Version = version

	if err := app.RunContext(rootCtx, os.Args); err != nil {
		logging.NewLogger(logging.Options{Level: "error", Writer: os.Stderr, Component: "ollama-agent"}).Error("ollama-agent failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	dir, err := global.DefaultConfigDir()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(dir)
}

func runChat(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	rt, err := newRuntime(cfg, runtimeIO{In: in, Out: out, Plain: cfg.Plain || !isTerminal(out)})
	if err != nil {
		return err
	}
	defer rt.Close()

	switch err := rt.client.CheckModel(ctx, rt.state.Model); {
	case errors.Is(err, llm.ErrUnknownModel):
		rt.renderer.Info(fmt.Sprintf("Model %q is not available. Use /models to list models and /model <name> to pick one.", rt.state.Model))
	case err != nil:
		return fmt.Errorf("%w at %s: %v", repl.ErrEndpointUnavailable, cfg.BaseURL, err)
	}

	loop := repl.NewLoop(rt.engine, rt.input, rt.renderer, rt.promptRecorder(), repl.Options{
		Interactive:         isTerminal(in),
		MaxEndpointFailures: cfg.MaxEndpointFailures,
	}, rt.logger)
	return loop.Run(ctx, rt.state)
}

// runAsk answers a single input and prints the reply.
func runAsk(ctx context.Context, cfg config.Config, prompt string, in io.Reader, out io.Writer) error {
	rt, err := newRuntime(cfg, runtimeIO{In: in, Out: out, Plain: cfg.Plain || !isTerminal(out)})
	if err != nil {
		return err
	}
	defer rt.Close()

	if recorder := rt.promptRecorder(); recorder != nil {
		if err := recorder.Append(ctx, rt.state.ID, prompt); err != nil {
			rt.logger.Warn("record input failed", "err", err)
		}
	}
	reply := rt.engine.Turn(ctx, rt.state, prompt)
	rt.renderer.Reply(reply)
	if reply.Kind == agent.ReplyError {
		return reply.Err
	}
	return nil
}

func runModels(ctx context.Context, cfg config.Config, out io.Writer) error {
	client := newModelClient(cfg)
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", repl.ErrEndpointUnavailable, cfg.BaseURL, err)
	}
	for _, m := range models {
		mark := "  "
		if m == cfg.Model {
			mark = "* "
		}
		if _, err := fmt.Fprintln(out, mark+m); err != nil {
			return err
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	rt, err := newRuntime(cfg, runtimeIO{
		Out:   io.Discard,
		Plain: true,
		UserContent: dispatch.ContentSourceFunc(func(context.Context, *session.State, string) (string, error) {
			return "", errors.New("content must follow the /write line")
		}),
	})
	if err != nil {
		return err
	}

	srv := bridge.NewServer(rt.engine, rt.state, rt.logger)
	m := lifecycle.NewManager(rt.logger)
	m.AddRun("bridge", func(runCtx context.Context) error {
		return srv.Serve(runCtx, cfg.ListenAddr)
	})
	m.AddShutdown("runtime", func(context.Context) error {
		return rt.Close()
	})
	rt.logger.Info("serving session", "addr", cfg.ListenAddr, "model", rt.state.Model, "dir", rt.state.WorkingDir)
	return m.StartAndWait(ctx)
}

func runMigrateUp(_ context.Context, cfg config.Config) error {
	slog.SetDefault(logging.NewLogger(logging.Options{Level: "info", Writer: os.Stderr, Component: "ollama-agent"}))
	gdb, err := db.Open(global.DBPath(cfg.DataDir))
	if err != nil {
		return err
	}
	return db.Close(gdb)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
