package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/memorizer/remindd/internal/alertui"
	"github.com/memorizer/remindd/internal/views"
)

// AlertRunner shows a full-screen alert and blocks until the user closes it.
type AlertRunner func(ctx context.Context, m alertui.Model) (alertui.Outcome, error)

// OutcomeHandler receives the user's choice once an alert closes.
type OutcomeHandler func(ctx context.Context, a Alert, o alertui.Outcome)

func RunAlert(ctx context.Context, m alertui.Model) (alertui.Outcome, error) {
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return alertui.Outcome{}, err
	}
	if fm, ok := final.(alertui.Model); ok {
		return fm.Outcome(), nil
	}
	return alertui.Outcome{Dismissed: true}, nil
}

type TerminalOption func(*Terminal)

func WithAlertRunner(run AlertRunner) TerminalOption {
	return func(t *Terminal) {
		if run != nil {
			t.runAlert = run
		}
	}
}

func WithOutcomeHandler(h OutcomeHandler) TerminalOption {
	return func(t *Terminal) {
		t.onOutcome = h
	}
}

func WithTerminalLogger(logger *slog.Logger) TerminalOption {
	return func(t *Terminal) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Terminal prints notification cards and runs one bubbletea alert at a time.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	busy      atomic.Bool
	wg        sync.WaitGroup
	runAlert  AlertRunner
	onOutcome OutcomeHandler
	logger    *slog.Logger
}

func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{out: out, runAlert: RunAlert, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Notify(_ context.Context, n Notification) error {
	card := views.RenderCard(views.CardData{
		Header: n.Channel,
		Title:  n.Title,
		Body:   n.Content,
		Footer: n.Payload,
		Color:  n.Color,
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, card)
	return err
}

// FullScreen opens the alert in the background and returns at once. A second
// alert while one is open fails with ErrAlertBusy.
func (t *Terminal) FullScreen(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.busy.CompareAndSwap(false, true) {
		return ErrAlertBusy
	}
	model := AlertModel(a)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.busy.Store(false)
		outcome, err := t.runAlert(ctx, model)
		if err != nil {
			t.logger.Warn("notify: alert closed with error", slog.Int64("item_id", a.ItemID), slog.String("error", err.Error()))
			return
		}
		if t.onOutcome != nil {
			t.onOutcome(ctx, a, outcome)
		}
	}()
	return nil
}

// Wait blocks until open alerts are closed.
func (t *Terminal) Wait() {
	t.wg.Wait()
}

// AlertModel turns a into the bubbletea model shown full screen.
func AlertModel(a Alert) alertui.Model {
	options := make([]int, 0, len(a.SnoozeOptions))
	labels := make(map[int]string, len(a.SnoozeOptions))
	for _, o := range a.SnoozeOptions {
		options = append(options, o.Minutes)
		labels[o.Minutes] = o.Label
	}
	return alertui.New(alertui.Config{
		Header:  a.Header,
		Title:   a.Title,
		Body:    a.Content,
		Color:   a.Color,
		Options: options,
		Labels: alertui.Labels{
			Unlock: a.Labels.Unlock,
			Prompt: a.Labels.Prompt,
			OK:     a.Labels.OK,
			Snooze: a.Labels.Snooze,
			Back:   a.Labels.Back,
		},
		OptionLabel: func(minutes int) string {
			if l, ok := labels[minutes]; ok && l != "" {
				return l
			}
			return fmt.Sprintf("%d min", minutes)
		},
	})
}
