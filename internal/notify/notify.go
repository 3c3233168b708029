package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnsupported = errors.New("notify: presentation not supported on this platform")
	ErrAlertBusy   = errors.New("notify: another full-screen alert is open")
)

const (
	ChannelReminders = "reminders"
	ChannelDaily     = "daily"
	ChannelSnooze    = "snooze"
	ChannelImmediate = "immediate"
)

// Notification is the data contract for any visible alert.
type Notification struct {
	ItemID  int64  `json:"item_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
	Channel string `json:"channel"`
	Sound   string `json:"sound,omitempty"`
	Payload string `json:"payload,omitempty"`
}

type SnoozeOption struct {
	Minutes int    `json:"minutes"`
	Label   string `json:"label"`
}

type AlertLabels struct {
	Unlock string `json:"unlock"`
	Prompt string `json:"prompt"`
	OK     string `json:"ok"`
	Snooze string `json:"snooze"`
	Back   string `json:"back"`
}

type Alert struct {
	Notification
	Header        string         `json:"header"`
	Daily         bool           `json:"daily"`
	Labels        AlertLabels    `json:"labels"`
	SnoozeOptions []SnoozeOption `json:"snooze_options"`
}

type Presenter interface {
	Notify(ctx context.Context, n Notification) error
	FullScreen(ctx context.Context, a Alert) error
}

// TapPayload is the action string attached to a notification for an item.
func TapPayload(itemID int64) string {
	return fmt.Sprintf("item:%d", itemID)
}

// Multi presents through every presenter. It fails only when all of them
// fail; partial failures are logged. Mirrors receive every alert too but do
// not count as a successful presentation unless Multi has no presenters.
type Multi struct {
	presenters []Presenter
	mirrors    []Presenter
	logger     *slog.Logger
}

func NewMulti(logger *slog.Logger, presenters ...Presenter) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{presenters: presenters, logger: logger}
}

// Mirror adds presenters that only observe, such as the event stream.
func (m *Multi) Mirror(mirrors ...Presenter) *Multi {
	m.mirrors = append(m.mirrors, mirrors...)
	return m
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	return m.each("notify", func(p Presenter) error { return p.Notify(ctx, n) })
}

func (m *Multi) FullScreen(ctx context.Context, a Alert) error {
	return m.each("fullscreen", func(p Presenter) error { return p.FullScreen(ctx, a) })
}

func (m *Multi) each(op string, fn func(Presenter) error) error {
	if len(m.presenters) == 0 {
		if len(m.mirrors) == 0 {
			return ErrUnsupported
		}
		return m.fanOut(op, m.mirrors, fn)
	}
	for _, p := range m.mirrors {
		if err := fn(p); err != nil {
			m.logger.Warn("notify: mirror failed", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
	return m.fanOut(op, m.presenters, fn)
}

func (m *Multi) fanOut(op string, presenters []Presenter, fn func(Presenter) error) error {
	var errs []error
	for _, p := range presenters {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(presenters) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		m.logger.Warn("notify: presenter failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return nil
}
