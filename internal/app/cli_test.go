package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/memorizer/remindd/internal/alertui"
	"github.com/memorizer/remindd/internal/bridge"
	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/storage"
)

func seededConfig(t *testing.T, items ...model.Item) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	repo, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := storage.MigrateUp(repo.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, it := range items {
		if _, err := repo.CreateItem(context.Background(), it); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}
	_ = repo.Close()

	cfg := NewDefaultConfig()
	cfg.Storage.Path = path
	cfg.Sound.Player = ""
	cfg.Sound.NotificationDirs = nil
	cfg.Sound.AlarmDirs = nil
	return cfg
}

func TestNextPrintsOccurrences(t *testing.T) {
	cfg := seededConfig(t, model.Item{
		ID:      3,
		Title:   "Rent",
		Active:  true,
		Remind:  true,
		Monthly: true,
		Date:    model.Date{Year: 2026, Month: time.January, Day: 31},
		Time:    model.TimeOfDay{Hour: 9},
	})
	var out bytes.Buffer
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.Local)
	if err := Next(context.Background(), cfg, 3, 2, now, &out); err != nil {
		t.Fatalf("next: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "2026-02-28 09:00") || !strings.Contains(text, "2026-03-31 09:00") {
		t.Fatalf("unexpected preview:\n%s", text)
	}
	if !strings.Contains(text, "FREQ=MONTHLY") {
		t.Fatalf("expected rrule line:\n%s", text)
	}

	if err := Next(context.Background(), cfg, 99, 2, now, &out); err == nil {
		t.Fatal("expected missing item error")
	}
}

type recordingSnoozer struct {
	method string
	args   bridge.SnoozeArgs
}

func (r *recordingSnoozer) Call(_ context.Context, method string, args any, _ any) error {
	r.method = method
	r.args = args.(bridge.SnoozeArgs)
	return nil
}

func TestShowAlertForwardsSnooze(t *testing.T) {
	cfg := seededConfig(t, model.Item{
		ID:         8,
		Title:      "Stretch",
		Content:    "Ten minutes",
		Active:     true,
		Daily:      true,
		FullScreen: true,
		DailyTimes: []model.TimeOfDay{{Hour: 6, Minute: 33}},
		DailyDays:  model.AllDays,
	})
	var seen alertui.Model
	run := func(_ context.Context, m alertui.Model) (alertui.Outcome, error) {
		seen = m
		return alertui.Outcome{SnoozeMinutes: 30}, nil
	}
	snoozer := &recordingSnoozer{}

	outcome, err := ShowAlert(context.Background(), cfg, 8, run, snoozer)
	if err != nil {
		t.Fatalf("show alert: %v", err)
	}
	if outcome.SnoozeMinutes != 30 {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	if !strings.Contains(seen.View(), "Stretch") {
		t.Fatalf("alert does not show the title:\n%s", seen.View())
	}
	if snoozer.method != bridge.MethodSnooze || snoozer.args.ID != 8 || snoozer.args.Minutes != 30 || !snoozer.args.Daily {
		t.Fatalf("unexpected snooze call: %s %#v", snoozer.method, snoozer.args)
	}
}

func TestShowAlertDismissDoesNotSnooze(t *testing.T) {
	cfg := seededConfig(t, model.Item{ID: 2, Title: "Call mom", Active: true, Remind: true,
		Date: model.Date{Year: 2026, Month: time.March, Day: 1}, Time: model.TimeOfDay{Hour: 10}})
	run := func(context.Context, alertui.Model) (alertui.Outcome, error) {
		return alertui.Outcome{Dismissed: true}, nil
	}
	snoozer := &recordingSnoozer{}
	if _, err := ShowAlert(context.Background(), cfg, 2, run, snoozer); err != nil {
		t.Fatalf("show alert: %v", err)
	}
	if snoozer.method != "" {
		t.Fatalf("dismiss must not snooze, got %s", snoozer.method)
	}
}
