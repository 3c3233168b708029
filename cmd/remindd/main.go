package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/memorizer/remindd/internal/agendaui"
	"github.com/memorizer/remindd/internal/app"
	"github.com/memorizer/remindd/internal/bridge"
	pkgconfig "github.com/memorizer/remindd/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*app.Config, error) {
	cfg := app.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	app.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg), app.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg), app.WithVersion(version), app.WithMCP()); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func itemID(cmd *cli.Command) (int64, error) {
	raw := cmd.Args().Get(0)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}

func next(ctx context.Context, cmd *cli.Command) error {
	id, err := itemID(cmd)
	if err != nil {
		return err
	}
	count := 5
	if raw := cmd.Args().Get(1); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count <= 0 {
			return fmt.Errorf("invalid count %q", raw)
		}
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return app.Next(ctx, cfg, id, count, time.Now(), os.Stdout)
}

func alert(ctx context.Context, cmd *cli.Command) error {
	id, err := itemID(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := bridge.NewClient(cfg.App.HTTP.BaseURL(), cfg.Auth.Token)
	_, err = app.ShowAlert(ctx, cfg, id, nil, client)
	return err
}

func agenda(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := bridge.NewClient(cfg.App.HTTP.BaseURL(), cfg.Auth.Token)
	return agendaui.Run(ctx, agendaui.NewRemote(client))
}

func main() {
	cmd := &cli.Command{
		Name:    "remindd",
		Usage:   "Reminder alarm daemon for the Memorizer notes database",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("REMINDD_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the alarm daemon and its HTTP bridge",
				Action: serve,
			},
			{
				Name:      "next",
				Usage:     "Print the upcoming occurrences of an item",
				ArgsUsage: "<item-id> [count]",
				Action:    next,
			},
			{
				Name:      "alert",
				Usage:     "Show an item's full-screen alert in this terminal",
				ArgsUsage: "<item-id>",
				Action:    alert,
			},
			{
				Name:   "agenda",
				Usage:  "Browse and cancel the daemon's pending alarms",
				Action: agenda,
			},
			{
				Name:   "mcp",
				Usage:  "Run the daemon and serve MCP tools on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
