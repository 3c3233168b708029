package alarm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/memorizer/remindd/internal/i18n"
	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/notify"
	"github.com/memorizer/remindd/internal/scheduler"
	"github.com/memorizer/remindd/internal/storage"
)

const (
	ReasonShown             = "shown"
	ReasonSnooze            = "snooze"
	ReasonRemindersDisabled = "reminders_disabled"
	ReasonDailyDisabled     = "daily_disabled"
	ReasonNotFound          = "not_found"
	ReasonKindDisabled      = "kind_disabled"
	ReasonStorageError      = "storage_error"
	ReasonInactive          = "inactive"
	ReasonWeekdayMasked     = "weekday_masked"
	ReasonTimeRemoved       = "time_removed"
	ReasonBadPayload        = "bad_payload"
)

type ItemStore interface {
	GetItem(ctx context.Context, id int64) (model.Item, error)
	UpdateItemDate(ctx context.Context, id int64, date model.Date) error
}

type Settings interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	DailyRemindersEnabled(ctx context.Context) (bool, error)
	DefaultSound(ctx context.Context) (string, error)
	DefaultDailySound(ctx context.Context) (string, error)
	Language(ctx context.Context) string
}

type SoundPlayer interface {
	Play(ctx context.Context, path string) error
}

// Outcome records what the handler did with one alarm.
type Outcome struct {
	Displayed bool
	Mode      model.DisplayMode
	Rearmed   bool
	NextAt    time.Time
	Reason    string
}

type HandlerDeps struct {
	Items      ItemStore
	Settings   Settings
	Service    *Service
	Presenter  notify.Presenter
	Fallback   notify.Presenter
	Player     SoundPlayer
	Translator *i18n.Translator
	Logger     *slog.Logger
}

// Handler turns a delivered alarm into a visible alert and re-arms
// recurring reminders.
type Handler struct {
	items     ItemStore
	settings  Settings
	service   *Service
	presenter notify.Presenter
	fallback  notify.Presenter
	player    SoundPlayer
	tr        *i18n.Translator
	logger    *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		items:     deps.Items,
		settings:  deps.Settings,
		service:   deps.Service,
		presenter: deps.Presenter,
		fallback:  deps.Fallback,
		player:    deps.Player,
		tr:        deps.Translator,
		logger:    deps.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.fallback == nil {
		h.fallback = h.presenter
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, a scheduler.Alarm) Outcome {
	p, ok := a.Payload.(Payload)
	if !ok {
		h.logger.Error("alarm: unexpected payload", slog.String("key", a.Key.String()))
		return Outcome{Reason: ReasonBadPayload}
	}
	log := h.logger.With(slog.String("key", a.Key.String()), slog.Int64("item_id", p.ItemID))

	if a.Key.Kind == KindSnooze || p.Snooze != nil {
		return h.showSnooze(ctx, p)
	}

	if !h.enabled(ctx, toggleGlobal) {
		return h.rearm(log, p, Outcome{Reason: ReasonRemindersDisabled})
	}
	if p.Kind == model.KindDaily && !h.enabled(ctx, toggleDaily) {
		return h.rearm(log, p, Outcome{Reason: ReasonDailyDisabled})
	}

	item, err := h.items.GetItem(ctx, p.ItemID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("alarm: item gone, not re-arming")
		return Outcome{Reason: ReasonNotFound}
	}
	if err != nil {
		log.Error("alarm: item lookup failed", slog.String("error", err.Error()))
		return h.rearm(log, p, Outcome{Reason: ReasonStorageError})
	}
	if !item.EnabledFor(p.Kind) {
		log.Info("alarm: reminder switched off, not re-arming", slog.String("kind", string(p.Kind)))
		return Outcome{Reason: ReasonKindDisabled}
	}
	if !item.Active {
		return h.rearm(log, p, Outcome{Reason: ReasonInactive})
	}

	if p.Kind == model.KindDaily {
		if !item.HasDailyTime(p.Time) {
			log.Info("alarm: daily time removed, dropping", slog.String("time", p.Time.String()))
			return Outcome{Reason: ReasonTimeRemoved}
		}
		p.Days = item.DailyDays
		if !item.DailyDays.Has(a.TriggerAt.Weekday()) {
			return h.rearm(log, p, Outcome{Reason: ReasonWeekdayMasked})
		}
	}

	out := h.show(ctx, item, p)
	switch p.Kind {
	case model.KindDaily:
		return h.rearm(log, p, out)
	case model.KindYearly, model.KindMonthly:
		return h.advance(ctx, log, item, p, out)
	}
	return out
}

// ShowNow presents a notification immediately, outside any alarm.
func (h *Handler) ShowNow(ctx context.Context, n notify.Notification) error {
	if n.Channel == "" {
		n.Channel = notify.ChannelImmediate
	}
	if err := h.presenter.Notify(ctx, n); err != nil {
		h.logger.Warn("alarm: notification failed, using fallback", slog.String("error", err.Error()))
		return h.fallback.Notify(ctx, n)
	}
	return nil
}

type toggle int

const (
	toggleGlobal toggle = iota
	toggleDaily
)

func (h *Handler) enabled(ctx context.Context, which toggle) bool {
	var (
		on  bool
		err error
	)
	if which == toggleDaily {
		on, err = h.settings.DailyRemindersEnabled(ctx)
	} else {
		on, err = h.settings.RemindersEnabled(ctx)
	}
	if err != nil {
		h.logger.Warn("alarm: reading reminder toggle failed, assuming enabled", slog.String("error", err.Error()))
		return true
	}
	return on
}

func (h *Handler) showSnooze(ctx context.Context, p Payload) Outcome {
	s := p.Snooze
	if s == nil {
		s = &SnoozeData{}
	}
	n := notify.Notification{
		ItemID:  p.ItemID,
		Title:   s.Title,
		Content: s.Content,
		Channel: notify.ChannelSnooze,
		Sound:   s.Sound,
		Payload: notify.TapPayload(p.ItemID),
	}
	h.present(ctx, h.alert(ctx, n, "snoozed_reminder", s.Daily), model.DisplayFullScreen)
	return Outcome{Displayed: true, Mode: model.DisplayFullScreen, Reason: ReasonSnooze}
}

func (h *Handler) show(ctx context.Context, item model.Item, p Payload) Outcome {
	mode := item.Display()
	h.present(ctx, h.itemAlert(ctx, item, p.Kind == model.KindDaily), mode)
	return Outcome{Displayed: true, Mode: mode, Reason: ReasonShown}
}

// ItemAlert builds the alert item would raise, without presenting it.
func (h *Handler) ItemAlert(ctx context.Context, item model.Item) notify.Alert {
	return h.itemAlert(ctx, item, item.Kind() == model.KindDaily)
}

func (h *Handler) itemAlert(ctx context.Context, item model.Item, daily bool) notify.Alert {
	title, content := item.Text()
	n := notify.Notification{
		ItemID:  item.ID,
		Title:   title,
		Content: content,
		Channel: notify.ChannelReminders,
		Sound:   h.soundFor(ctx, item, daily),
		Payload: notify.TapPayload(item.ID),
	}
	header := "reminder"
	if daily {
		n.Channel = notify.ChannelDaily
		header = "daily_reminder"
	}
	return h.alert(ctx, n, header, daily)
}

func (h *Handler) soundFor(ctx context.Context, item model.Item, daily bool) string {
	var (
		sound string
		err   error
	)
	if daily {
		if item.DailySound != "" {
			return item.DailySound
		}
		sound, err = h.settings.DefaultDailySound(ctx)
	} else {
		if item.Sound != "" {
			return item.Sound
		}
		sound, err = h.settings.DefaultSound(ctx)
	}
	if err != nil {
		h.logger.Warn("alarm: default sound unavailable", slog.String("error", err.Error()))
		return ""
	}
	return sound
}

func (h *Handler) alert(ctx context.Context, n notify.Notification, headerKey string, daily bool) notify.Alert {
	a := notify.Alert{Notification: n, Daily: daily}
	lang := h.settings.Language(ctx)
	for _, minutes := range SnoozeOptions(daily) {
		label := ""
		if h.tr != nil {
			label = h.tr.SnoozeLabel(lang, minutes)
		}
		a.SnoozeOptions = append(a.SnoozeOptions, notify.SnoozeOption{Minutes: minutes, Label: label})
	}
	if h.tr != nil {
		a.Header = h.tr.T(lang, headerKey)
		a.Labels = notify.AlertLabels{
			Unlock: h.tr.T(lang, "unlock"),
			Prompt: h.tr.T(lang, "postpone_for"),
			OK:     h.tr.T(lang, "ok"),
			Snooze: h.tr.T(lang, "snooze"),
			Back:   h.tr.T(lang, "back"),
		}
	}
	return a
}

func (h *Handler) present(ctx context.Context, a notify.Alert, mode model.DisplayMode) {
	var err error
	if mode == model.DisplayFullScreen {
		if err = h.presenter.FullScreen(ctx, a); err == nil {
			h.playAlertSound(ctx, a.Sound)
			return
		}
	} else if err = h.presenter.Notify(ctx, a.Notification); err == nil {
		return
	}
	h.logger.Warn("alarm: presentation failed, falling back to notification",
		slog.Int64("item_id", a.ItemID),
		slog.String("mode", string(mode)),
		slog.String("error", err.Error()))
	if ferr := h.fallback.Notify(ctx, a.Notification); ferr != nil {
		h.logger.Error("alarm: fallback notification failed",
			slog.Int64("item_id", a.ItemID),
			slog.String("error", ferr.Error()))
	}
}

func (h *Handler) playAlertSound(ctx context.Context, sound string) {
	if h.player == nil {
		return
	}
	if err := h.player.Play(ctx, sound); err != nil {
		h.logger.Warn("alarm: alert sound failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) rearm(log *slog.Logger, p Payload, out Outcome) Outcome {
	next, ok, err := h.service.Rearm(p)
	if err != nil {
		log.Error("alarm: re-arm failed", slog.String("error", err.Error()))
		return out
	}
	out.Rearmed, out.NextAt = ok, next
	return out
}

// advance re-arms a yearly or monthly reminder and persists the new anchor.
// The stored day of month is kept so each cycle clamps on its own.
func (h *Handler) advance(ctx context.Context, log *slog.Logger, item model.Item, p Payload, out Outcome) Outcome {
	p.Time = item.Time
	p.Anchor = item.Date
	out = h.rearm(log, p, out)
	if !out.Rearmed {
		return out
	}
	anchor := model.AdvanceAnchor(item.Date, out.NextAt)
	if err := h.items.UpdateItemDate(ctx, item.ID, anchor); err != nil {
		log.Error("alarm: persisting next date failed", slog.String("error", err.Error()))
	}
	return out
}
