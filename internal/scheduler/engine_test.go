package scheduler

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8, WithLogger(quietLogger()))
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 2}, TriggerAt: now.Add(80 * time.Millisecond), Delivery: Exact}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 1}, TriggerAt: now.Add(20 * time.Millisecond), Delivery: Exact}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitAlarm(t, engine.C(), time.Second)
	second := waitAlarm(t, engine.C(), time.Second)
	if first.Key.Code != 1 || second.Key.Code != 2 {
		t.Fatalf("unexpected order: first=%s second=%s", first.Key, second.Key)
	}
}

func TestEngineRescheduleSameKeyKeepsOneAlarm(t *testing.T) {
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(1, WithClock(func() time.Time { return base }), WithLogger(quietLogger()))
	key := Key{Kind: "daily", Code: 120930}

	if err := engine.Schedule(Alarm{Key: key, TriggerAt: base.Add(time.Hour), Delivery: Exact}); err != nil {
		t.Fatalf("first schedule: %v", err)
	}
	if err := engine.Schedule(Alarm{Key: key, TriggerAt: base.Add(2 * time.Hour), Delivery: Exact}); err != nil {
		t.Fatalf("second schedule: %v", err)
	}

	pending := engine.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending alarm, got %d", len(pending))
	}
	if !pending[0].TriggerAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("replacement did not take effect: %s", pending[0].TriggerAt)
	}
}

func TestEngineCancel(t *testing.T) {
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(1, WithClock(func() time.Time { return base }), WithLogger(quietLogger()))
	for code := int64(1); code <= 3; code++ {
		if err := engine.Schedule(Alarm{Key: Key{Kind: "period", Code: code}, TriggerAt: base.Add(time.Duration(code) * time.Hour)}); err != nil {
			t.Fatalf("schedule: %v", err)
		}
	}
	if err := engine.Schedule(Alarm{Key: Key{Kind: "snooze", Code: 1}, TriggerAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("schedule snooze: %v", err)
	}

	if !engine.Cancel(Key{Kind: "period", Code: 2}) {
		t.Fatal("expected cancel to find the alarm")
	}
	if engine.Cancel(Key{Kind: "period", Code: 2}) {
		t.Fatal("second cancel should be a no-op")
	}
	if n := engine.CancelKind("period"); n != 2 {
		t.Fatalf("expected two period alarms cancelled, got %d", n)
	}
	if _, ok := engine.Get(Key{Kind: "snooze", Code: 1}); !ok {
		t.Fatal("snooze alarm should survive a period cancel")
	}
	if n := engine.CancelAll(); n != 1 || len(engine.Pending()) != 0 {
		t.Fatalf("cancel all left %d alarms (cancelled %d)", len(engine.Pending()), n)
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(1, WithClock(func() time.Time { return base }), WithLogger(quietLogger()))
	if err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 1}}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 1}, TriggerAt: base})
	if !errors.Is(err, ErrTriggerInPast) {
		t.Fatalf("expected ErrTriggerInPast, got %v", err)
	}
	if len(engine.Pending()) != 0 {
		t.Fatal("past alarm must not be armed")
	}
	if err := engine.Schedule(Alarm{TriggerAt: base.Add(time.Hour)}); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestExactDegradesWithoutCapability(t *testing.T) {
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(1,
		WithClock(func() time.Time { return base }),
		WithLogger(quietLogger()),
		WithExactCapability(false))
	key := Key{Kind: "specific", Code: 4}
	if err := engine.Schedule(Alarm{Key: key, TriggerAt: base.Add(time.Hour), Delivery: Exact}); err != nil {
		t.Fatalf("schedule must not fail without capability: %v", err)
	}
	got, ok := engine.Get(key)
	if !ok || got.Delivery != BestEffort {
		t.Fatalf("expected best-effort delivery, got %#v", got)
	}
}

func TestBestEffortCoalescesWithEarlierWakeup(t *testing.T) {
	engine := NewEngine(8, WithLogger(quietLogger()), WithCoalesceWindow(time.Hour))
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Alarm{Key: Key{Kind: "maintenance"}, TriggerAt: now.Add(20 * time.Millisecond), Delivery: BestEffort}); err != nil {
		t.Fatalf("schedule best effort: %v", err)
	}
	if err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 9}, TriggerAt: now.Add(60 * time.Millisecond), Delivery: Exact}); err != nil {
		t.Fatalf("schedule exact: %v", err)
	}

	first := waitAlarm(t, engine.C(), time.Second)
	second := waitAlarm(t, engine.C(), time.Second)
	if first.Key.Kind != "maintenance" || second.Key.Code != 9 {
		t.Fatalf("unexpected coalesced order: %s then %s", first.Key, second.Key)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1, WithLogger(quietLogger()))
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: int64(i)}, TriggerAt: at, Delivery: Exact}); err != nil {
			t.Fatalf("schedule alarm: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped alarms > 0, got %d", engine.Dropped())
	}
}

func TestScheduleAfterStop(t *testing.T) {
	engine := NewEngine(1, WithLogger(quietLogger()))
	engine.Start()
	engine.Stop()
	err := engine.Schedule(Alarm{Key: Key{Kind: "specific", Code: 1}, TriggerAt: time.Now().Add(time.Hour)})
	if !errors.Is(err, ErrEngineStopped) {
		t.Fatalf("expected ErrEngineStopped, got %v", err)
	}
}

func waitAlarm(t *testing.T, ch <-chan Alarm, timeout time.Duration) Alarm {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for alarm")
		return Alarm{}
	}
}
