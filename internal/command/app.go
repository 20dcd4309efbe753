package command

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/prodigisoftwares/ollama-agent/internal/config"
)

type Deps struct {
	LoadConfig   func() (config.Config, error)
	RunChat      func(context.Context, config.Config) error
	RunAsk       func(context.Context, config.Config, string) error
	RunModels    func(context.Context, config.Config) error
	RunServe     func(context.Context, config.Config) error
	RunMigrateUp func(context.Context, config.Config) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:                 "ollama-agent",
		Usage:                "chat with a local model that can run commands and edit files",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model to chat with"},
			&cli.StringFlag{Name: "base-url", Usage: "OpenAI-compatible endpoint, e.g. http://localhost:11434/v1"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.DurationFlag{Name: "command-timeout", Usage: "wall-clock limit for shell commands"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx, deps)
			if err != nil {
				return err
			}
			return runChat(ctx.Context, deps, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "chat",
				Usage: "start an interactive session (default)",
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx, deps)
					if err != nil {
						return err
					}
					return runChat(ctx.Context, deps, cfg)
				},
			},
			{
				Name:      "ask",
				Usage:     "answer one prompt and exit",
				ArgsUsage: "<prompt...>",
				Action: func(ctx *cli.Context) error {
					prompt := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
					if prompt == "" {
						return errors.New("ask needs a prompt")
					}
					cfg, err := loadConfig(ctx, deps)
					if err != nil {
						return err
					}
					if deps.RunAsk == nil {
						return errors.New("ask runner is not configured")
					}
					return deps.RunAsk(ctx.Context, cfg, prompt)
				},
			},
			{
				Name:  "models",
				Usage: "list models served by the endpoint",
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx, deps)
					if err != nil {
						return err
					}
					if deps.RunModels == nil {
						return errors.New("models runner is not configured")
					}
					return deps.RunModels(ctx.Context, cfg)
				},
			},
			{
				Name:  "serve",
				Usage: "expose the session over a websocket",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "listen address"},
				},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx, deps)
					if err != nil {
						return err
					}
					if v := strings.TrimSpace(ctx.String("listen")); v != "" {
						cfg.ListenAddr = v
					}
					if deps.RunServe == nil {
						return errors.New("serve runner is not configured")
					}
					return deps.RunServe(ctx.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "run database migration",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "create or update the history database",
						Action: func(ctx *cli.Context) error {
							cfg, err := loadConfig(ctx, deps)
							if err != nil {
								return err
							}
							if deps.RunMigrateUp == nil {
								return errors.New("migrate up runner is not configured")
							}
							return deps.RunMigrateUp(ctx.Context, cfg)
						},
					},
				},
			},
		},
	}
}

// loadConfig applies command-line flags over the loaded configuration.
func loadConfig(ctx *cli.Context, deps Deps) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if deps.LoadConfig != nil {
		cfg, err = deps.LoadConfig()
	} else {
		cfg = config.Defaults()
	}
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(ctx.String("model")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(ctx.String("base-url")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(ctx.String("log-level")); v != "" {
		cfg.LogLevel = v
	}
	if d := ctx.Duration("command-timeout"); d > 0 {
		cfg.CommandTimeout = d
	}
	if ctx.Bool("no-color") {
		cfg.Plain = true
	}
	return cfg, nil
}

func runChat(ctx context.Context, deps Deps, cfg config.Config) error {
	if deps.RunChat == nil {
		return errors.New("chat runner is not configured")
	}
	return deps.RunChat(ctx, cfg)
}
