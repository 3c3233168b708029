package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/memorizer/remindd/internal/alertui"
	"github.com/memorizer/remindd/internal/sse"
)

type call struct {
	name string
	args []string
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name: name, args: append([]string(nil), args...)})
	return r.err
}

type failingPresenter struct{ err error }

func (p failingPresenter) Notify(context.Context, Notification) error { return p.err }
func (p failingPresenter) FullScreen(context.Context, Alert) error    { return p.err }

type countingPresenter struct {
	notified int
	alerts   int
}

func (p *countingPresenter) Notify(context.Context, Notification) error {
	p.notified++
	return nil
}

func (p *countingPresenter) FullScreen(context.Context, Alert) error {
	p.alerts++
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDesktopLinuxArgs(t *testing.T) {
	runner := &recordingRunner{}
	d := newDesktopFor("remindd", "linux", runner.run)

	err := d.Notify(context.Background(), Notification{Title: "Water", Content: "Drink", Sound: "/tmp/bell.oga"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	err = d.FullScreen(context.Background(), Alert{Notification: Notification{Title: "Pills", Content: "Now"}, Header: "Reminder"})
	if err != nil {
		t.Fatalf("fullscreen: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(runner.calls))
	}
	first := strings.Join(runner.calls[0].args, " ")
	if runner.calls[0].name != "notify-send" || !strings.Contains(first, "-u normal") || !strings.Contains(first, "sound-file:/tmp/bell.oga") {
		t.Fatalf("unexpected notify call: %s %s", runner.calls[0].name, first)
	}
	second := runner.calls[1].args
	if second[3] != "critical" || second[len(second)-2] != "Reminder: Pills" {
		t.Fatalf("unexpected fullscreen call: %v", second)
	}
}

func TestDesktopDarwinEscapesQuotes(t *testing.T) {
	runner := &recordingRunner{}
	d := newDesktopFor("remindd", "darwin", runner.run)
	if err := d.Notify(context.Background(), Notification{Title: `Say "hi"`, Content: `a\b`}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	script := runner.calls[0].args[1]
	if !strings.Contains(script, `Say \"hi\"`) || !strings.Contains(script, `a\\b`) {
		t.Fatalf("script not escaped: %s", script)
	}
}

func TestDesktopUnsupportedPlatform(t *testing.T) {
	d := newDesktopFor("remindd", "plan9", (&recordingRunner{}).run)
	if err := d.Notify(context.Background(), Notification{Title: "x"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestMultiFailsOnlyWhenAllFail(t *testing.T) {
	ok := &countingPresenter{}
	m := NewMulti(quietLogger(), failingPresenter{err: errors.New("boom")}, ok)
	if err := m.Notify(context.Background(), Notification{Title: "x"}); err != nil {
		t.Fatalf("partial failure must not fail: %v", err)
	}
	if ok.notified != 1 {
		t.Fatalf("expected healthy presenter to run, got %d", ok.notified)
	}

	bad := NewMulti(quietLogger(), failingPresenter{err: errors.New("a")}, failingPresenter{err: errors.New("b")})
	err := bad.FullScreen(context.Background(), Alert{})
	if err == nil || !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if err := NewMulti(nil).Notify(context.Background(), Notification{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for empty multi, got %v", err)
	}
}

func TestMultiMirrorDoesNotMaskFailure(t *testing.T) {
	mirror := &countingPresenter{}
	m := NewMulti(quietLogger(), failingPresenter{err: ErrAlertBusy}).Mirror(mirror)
	if err := m.FullScreen(context.Background(), Alert{}); !errors.Is(err, ErrAlertBusy) {
		t.Fatalf("expected ErrAlertBusy through the mirror, got %v", err)
	}
	if mirror.alerts != 1 {
		t.Fatalf("mirror should still observe the alert, got %d", mirror.alerts)
	}

	only := NewMulti(quietLogger()).Mirror(mirror)
	if err := only.Notify(context.Background(), Notification{}); err != nil {
		t.Fatalf("mirror-only multi should succeed: %v", err)
	}
	if mirror.notified != 1 {
		t.Fatalf("expected one mirrored notification, got %d", mirror.notified)
	}
}

func TestTerminalNotifyPrintsCard(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	if err := term.Notify(context.Background(), Notification{Title: "Stretch", Content: "Ten minutes", Channel: ChannelDaily}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Stretch") || !strings.Contains(out, "Ten minutes") {
		t.Fatalf("card missing text: %q", out)
	}
}

func TestTerminalSingleAlertAtATime(t *testing.T) {
	release := make(chan struct{})
	outcomes := make(chan alertui.Outcome, 1)
	term := NewTerminal(io.Discard,
		WithTerminalLogger(quietLogger()),
		WithAlertRunner(func(ctx context.Context, m alertui.Model) (alertui.Outcome, error) {
			<-release
			return alertui.Outcome{SnoozeMinutes: 30}, nil
		}),
		WithOutcomeHandler(func(ctx context.Context, a Alert, o alertui.Outcome) {
			outcomes <- o
		}),
	)

	alert := Alert{
		Notification:  Notification{ItemID: 7, Title: "Pills"},
		SnoozeOptions: []SnoozeOption{{Minutes: 30, Label: "30 min"}},
	}
	if err := term.FullScreen(context.Background(), alert); err != nil {
		t.Fatalf("first alert: %v", err)
	}
	if err := term.FullScreen(context.Background(), alert); !errors.Is(err, ErrAlertBusy) {
		t.Fatalf("expected ErrAlertBusy, got %v", err)
	}
	close(release)

	select {
	case o := <-outcomes:
		if o.SnoozeMinutes != 30 {
			t.Fatalf("unexpected outcome: %#v", o)
		}
	case <-time.After(time.Second):
		t.Fatal("outcome handler not called")
	}
	term.Wait()
	if err := term.FullScreen(context.Background(), alert); err != nil {
		t.Fatalf("alert after close: %v", err)
	}
	term.Wait()
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(eventType string, _ any) string {
	p.types = append(p.types, eventType)
	return "id"
}

func TestEventsPublishesBothKinds(t *testing.T) {
	pub := &recordingPublisher{}
	ev := NewEvents(pub)
	_ = ev.Notify(context.Background(), Notification{})
	_ = ev.FullScreen(context.Background(), Alert{})
	if len(pub.types) != 2 || pub.types[0] != sse.EventNotificationShown || pub.types[1] != sse.EventAlertFullScreen {
		t.Fatalf("unexpected events: %v", pub.types)
	}
}
