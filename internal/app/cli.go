package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/alertui"
	"github.com/memorizer/remindd/internal/bridge"
	"github.com/memorizer/remindd/internal/notify"
	"github.com/memorizer/remindd/internal/views"
)

// Snoozer forwards a snooze chosen in a foreground alert to the daemon.
type Snoozer interface {
	Call(ctx context.Context, method string, args any, out any) error
}

// Next prints the upcoming occurrences of one stored item.
func Next(ctx context.Context, cfg *Config, id int64, count int, now time.Time, w io.Writer) error {
	c, err := build(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer c.close()

	p, err := alarm.PreviewItem(ctx, c.repo, id, now, count)
	if err != nil {
		return fmt.Errorf("preview item %d: %w", id, err)
	}
	data := views.PreviewData{Title: p.Title, Kind: p.Kind, RRule: p.RRule}
	for _, at := range p.Occurrences {
		data.Occurrences = append(data.Occurrences, at.Format("Mon 2006-01-02 15:04"))
	}
	_, err = fmt.Fprintln(w, views.RenderPreview(data))
	return err
}

// ShowAlert opens the full-screen alert of item id in the foreground. A
// snooze choice is sent to the daemon through snoozer.
func ShowAlert(ctx context.Context, cfg *Config, id int64, run notify.AlertRunner, snoozer Snoozer) (alertui.Outcome, error) {
	logger := cliLogger(cfg)
	c, err := build(cfg, logger)
	if err != nil {
		return alertui.Outcome{}, err
	}
	defer c.close()

	item, err := c.repo.GetItem(ctx, id)
	if err != nil {
		return alertui.Outcome{}, fmt.Errorf("load item %d: %w", id, err)
	}
	h := alarm.NewHandler(alarm.HandlerDeps{
		Settings:   c.settings,
		Translator: c.tr,
		Logger:     logger,
	})
	a := h.ItemAlert(ctx, item)

	if run == nil {
		run = notify.RunAlert
	}
	if err := c.player.Play(ctx, a.Sound); err != nil {
		logger.Warn("sound playback failed", slog.String("error", err.Error()))
	}
	outcome, err := run(ctx, notify.AlertModel(a))
	_ = c.player.Stop()
	if err != nil {
		return outcome, err
	}
	if outcome.SnoozeMinutes == 0 || snoozer == nil {
		return outcome, nil
	}
	err = snoozer.Call(ctx, bridge.MethodSnooze, bridge.SnoozeArgs{
		ID:      a.ItemID,
		Minutes: outcome.SnoozeMinutes,
		Title:   a.Title,
		Content: a.Content,
		Sound:   a.Sound,
		Daily:   a.Daily,
	}, nil)
	if err != nil {
		return outcome, fmt.Errorf("snooze item %d: %w", id, err)
	}
	return outcome, nil
}

func cliLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}
