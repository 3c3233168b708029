// Package app wires storage, the alarm engine, presenters and the HTTP
// bridge into the remindd daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/alertui"
	"github.com/memorizer/remindd/internal/bridge"
	"github.com/memorizer/remindd/internal/i18n"
	"github.com/memorizer/remindd/internal/mcpserver"
	"github.com/memorizer/remindd/internal/notify"
	"github.com/memorizer/remindd/internal/scheduler"
	"github.com/memorizer/remindd/internal/settings"
	"github.com/memorizer/remindd/internal/sound"
	"github.com/memorizer/remindd/internal/sse"
	"github.com/memorizer/remindd/internal/storage"
	"github.com/memorizer/remindd/internal/watch"
)

// Run starts the daemon and blocks until ctx is cancelled or a signal
// arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	if app.mcp {
		cfg.Presentation.TerminalAlerts = false
	}

	// Logs go to stderr; stdout carries terminal alerts or the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("db_path", cfg.Storage.Path),
		slog.Bool("exact_capable", cfg.Scheduler.ExactCapable),
		slog.Bool("desktop", cfg.Presentation.Desktop),
		slog.Bool("terminal_alerts", cfg.Presentation.TerminalAlerts),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	c.engine.Start()
	defer c.engine.Stop()

	broker := sse.NewBroker()
	defer broker.Close()

	alarms := alarm.NewService(c.engine, alarm.WithLogger(logger), alarm.WithPublisher(broker))
	restorer := alarm.NewRestorer(c.repo, c.settings, alarms,
		alarm.WithSettleDelay(cfg.Restore.SettleDelay),
		alarm.WithRestoreLogger(logger),
		alarm.WithRestorePublisher(broker))

	presenter, fallback, terminal := presenters(cfg, app, broker, alarms, c.player, logger)
	handler := alarm.NewHandler(alarm.HandlerDeps{
		Items:      c.repo,
		Settings:   c.settings,
		Service:    alarms,
		Presenter:  presenter,
		Fallback:   fallback,
		Player:     c.player,
		Translator: c.tr,
		Logger:     logger,
	})

	handlers := bridge.NewHandlers(bridge.Deps{
		Alarms:       alarms,
		Fire:         handler,
		Restorer:     restorer,
		Settings:     c.settings,
		Catalog:      c.catalog,
		Player:       c.player,
		ExactCapable: c.engine.ExactCapable(),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/", bridge.NewRouter(bridge.RouterDeps{
		Handlers:    handlers,
		Alarms:      alarms,
		Items:       c.repo,
		Events:      broker,
		Ready:       func(ctx context.Context) error { return c.repo.DB().PingContext(ctx) },
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Logger:      logger,
	}))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return alarm.Run(gCtx, c.engine.C(), handler, restorer, logger)
	})

	g.Go(func() error {
		if _, err := restorer.Restore(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("restore failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if cfg.Restore.Watch {
		g.Go(func() error {
			err := watch.Database(gCtx, cfg.Storage.Path, cfg.Restore.Debounce, logger, func(ctx context.Context) {
				if _, err := restorer.Resync(ctx); err != nil {
					logger.Error("watcher: resync failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("watcher: disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if app.mcp {
		srv := mcpserver.New(alarms, restorer, c.repo, app.version)
		g.Go(func() error {
			err := srv.ServeStdio()
			stop()
			return err
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		_ = c.player.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	if terminal != nil {
		terminal.Wait()
	}
	logger.Info("Server stopped successfully")
	return nil
}

type components struct {
	repo     *storage.SQLiteRepository
	settings *settings.Service
	catalog  *sound.Catalog
	player   *sound.Player
	tr       *i18n.Translator
	engine   *scheduler.Engine
}

func build(cfg *Config, logger *slog.Logger) (*components, error) {
	repo, err := storage.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if cfg.Storage.CreateSchema {
		if err := storage.MigrateUp(repo.DB()); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	tr, err := i18n.New()
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("init translations: %w", err)
	}

	catalog := sound.NewCatalog(cfg.Sound.NotificationDirs, cfg.Sound.AlarmDirs)
	var launch sound.Launcher
	if cfg.Sound.Player != "" {
		launch = sound.ExecLauncher(cfg.Sound.Player, cfg.Sound.PlayerArgs...)
	}
	fallback := cfg.Sound.Fallback
	if fallback == "" {
		fallback = catalog.DefaultID()
	}

	return &components{
		repo:     repo,
		settings: settings.NewService(repo, catalog.DefaultID, cfg.Presentation.Language, logger),
		catalog:  catalog,
		player:   sound.NewPlayer(launch, fallback, logger),
		tr:       tr,
		engine: scheduler.NewEngine(cfg.Scheduler.Buffer,
			scheduler.WithLogger(logger),
			scheduler.WithExactCapability(cfg.Scheduler.ExactCapable),
			scheduler.WithCoalesceWindow(cfg.Scheduler.CoalesceWindow)),
	}, nil
}

func (c *components) close() {
	if err := c.repo.Close(); err != nil {
		slog.Warn("storage close failed", slog.String("error", err.Error()))
	}
}

// presenters assembles the main and fallback presenters. Events always
// mirror onto the SSE stream without masking a failure of the real ones.
func presenters(cfg *Config, app *application, broker *sse.Broker, alarms *alarm.Service, player *sound.Player, logger *slog.Logger) (notify.Presenter, notify.Presenter, *notify.Terminal) {
	events := notify.NewEvents(broker)
	var main, fallback []notify.Presenter

	if cfg.Presentation.Desktop {
		desktop := notify.NewDesktop(cfg.Presentation.AppName)
		main = append(main, desktop)
		fallback = append(fallback, desktop)
	}

	var terminal *notify.Terminal
	if cfg.Presentation.TerminalAlerts {
		terminal = notify.NewTerminal(app.out,
			notify.WithTerminalLogger(logger),
			notify.WithOutcomeHandler(func(ctx context.Context, a notify.Alert, o alertui.Outcome) {
				_ = player.Stop()
				if o.SnoozeMinutes == 0 {
					return
				}
				if _, err := alarms.Snooze(alarm.SnoozeRequest{
					ItemID:  a.ItemID,
					Minutes: o.SnoozeMinutes,
					Title:   a.Title,
					Content: a.Content,
					Sound:   a.Sound,
					Daily:   a.Daily,
				}); err != nil {
					logger.Error("snooze failed", slog.Int64("item_id", a.ItemID), slog.String("error", err.Error()))
				}
			}))
		main = append(main, terminal)
		fallback = append(fallback, terminal)
	}
	return notify.NewMulti(logger, main...).Mirror(events), notify.NewMulti(logger, fallback...).Mirror(events), terminal
}
