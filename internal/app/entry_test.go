package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/notify"
	"github.com/memorizer/remindd/internal/scheduler"
	"github.com/memorizer/remindd/internal/sse"
)

func TestBuildCreatesSchema(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "fresh.db")
	cfg.Storage.CreateSchema = true
	cfg.Sound.Player = ""

	c, err := build(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.close()
	if _, err := c.repo.DB().Exec(`SELECT count(*) FROM items`); err != nil {
		t.Fatalf("items table missing: %v", err)
	}
	if on, err := c.settings.RemindersEnabled(context.Background()); err != nil || !on {
		t.Fatalf("reminders should default to enabled: %v %v", on, err)
	}
}

func TestPresentersRespectConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := sse.NewBroker()
	defer broker.Close()
	alarms := alarm.NewService(scheduler.NewEngine(4), alarm.WithLogger(logger))

	cfg := NewDefaultConfig()
	cfg.Presentation.Desktop = false
	cfg.Presentation.TerminalAlerts = true
	var out bytes.Buffer
	a := &application{config: cfg, out: &out}

	main, _, terminal := presenters(cfg, a, broker, alarms, nil, logger)
	if terminal == nil {
		t.Fatal("terminal presenter expected")
	}
	if err := main.Notify(context.Background(), notify.Notification{ItemID: 3, Title: "Water the plants", Channel: notify.ChannelReminders}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(out.String(), "Water the plants") {
		t.Fatalf("card not printed: %q", out.String())
	}
	if broker.Published() != 1 {
		t.Fatalf("expected one event, got %d", broker.Published())
	}

	cfg.Presentation.TerminalAlerts = false
	_, _, terminal = presenters(cfg, a, broker, alarms, nil, logger)
	if terminal != nil {
		t.Fatal("terminal presenter must be off")
	}
}

func TestPresentersReportTerminalFailureDespiteEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := sse.NewBroker()
	defer broker.Close()
	alarms := alarm.NewService(scheduler.NewEngine(4), alarm.WithLogger(logger))

	cfg := NewDefaultConfig()
	cfg.Presentation.Desktop = false
	cfg.Presentation.TerminalAlerts = true
	a := &application{config: cfg, out: io.Discard}

	main, _, _ := presenters(cfg, a, broker, alarms, nil, logger)
	// A cancelled context makes the terminal refuse the full-screen alert.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := main.FullScreen(ctx, notify.Alert{Notification: notify.Notification{ItemID: 3, Title: "Dentist"}}); err == nil {
		t.Fatal("a failed terminal alert must surface even though events were published")
	}
	if broker.Published() != 1 {
		t.Fatalf("expected the event mirror to publish once, got %d", broker.Published())
	}
}
