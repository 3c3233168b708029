package bridge

import (
	"context"
	"errors"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/notify"
	"github.com/memorizer/remindd/internal/scheduler"
	"github.com/memorizer/remindd/internal/settings"
	"github.com/memorizer/remindd/internal/sound"
)

type Deps struct {
	Alarms       *alarm.Service
	Fire         *alarm.Handler
	Restorer     *alarm.Restorer
	Settings     *settings.Service
	Catalog      *sound.Catalog
	Player       *sound.Player
	ExactCapable bool
}

type itemArgs struct {
	ID int64 `json:"id"`
}

type notificationArgs struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Sound   string `json:"sound"`
}

type specificArgs struct {
	ID      int64 `json:"id"`
	Date    int   `json:"date"`
	Time    *int  `json:"time"`
	Yearly  bool  `json:"yearly"`
	Monthly bool  `json:"monthly"`
}

type dailyArgs struct {
	ID   int64 `json:"id"`
	Time *int  `json:"time"`
	Days *int  `json:"days"`
}

type periodArgs struct {
	ID   int64 `json:"id"`
	From int   `json:"from"`
	To   int   `json:"to"`
	Time *int  `json:"time"`
	Days *int  `json:"days"`
}

// SnoozeArgs are the arguments of snoozeReminder.
type SnoozeArgs struct {
	ID      int64  `json:"id"`
	Minutes int    `json:"minutes"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Sound   string `json:"sound"`
	Daily   bool   `json:"daily"`
}

type soundArgs struct {
	Sound string `json:"sound"`
}

// NewHandlers wires every method whose dependency is present.
func NewHandlers(d Deps) Handlers {
	h := Handlers{}
	if d.Alarms != nil {
		h[MethodInitialize] = func(ctx context.Context, _ Call) (any, error) {
			return map[string]any{"exact_capable": d.ExactCapable, "snooze_options": alarm.SnoozeOptions(false)}, nil
		}
		h[MethodScheduleSpecific] = d.scheduleSpecific
		h[MethodCancelSpecific] = withItem(func(id int64) any { return map[string]bool{"cancelled": d.Alarms.CancelSpecific(id)} })
		h[MethodCancelAll] = func(context.Context, Call) (any, error) {
			return map[string]int{"cancelled": d.Alarms.CancelAll()}, nil
		}
		h[MethodScheduleDaily] = d.scheduleDaily
		h[MethodCancelDaily] = d.cancelDaily
		h[MethodCancelAllDaily] = withItem(func(id int64) any { return map[string]int{"cancelled": d.Alarms.CancelAllDaily(id)} })
		h[MethodSchedulePeriod] = d.schedulePeriod
		h[MethodCancelPeriod] = withItem(func(id int64) any { return map[string]int{"cancelled": d.Alarms.CancelPeriod(id)} })
		h[MethodSnooze] = d.snooze
		h[MethodCancelSnooze] = withItem(func(id int64) any { return map[string]bool{"cancelled": d.Alarms.CancelSnooze(id)} })
		h[MethodListPending] = func(context.Context, Call) (any, error) {
			return d.Alarms.Pending(), nil
		}
	}
	if d.Fire != nil {
		h[MethodShowNotification] = d.showNotification
	}
	if d.Restorer != nil {
		h[MethodResync] = func(ctx context.Context, _ Call) (any, error) {
			return d.Restorer.Resync(ctx)
		}
	}
	if d.Catalog != nil {
		h[MethodGetSystemSounds] = func(context.Context, Call) (any, error) {
			return d.Catalog.List()
		}
	}
	if d.Settings != nil {
		h[MethodGetDefaultSound] = getter(d.Settings.DefaultSound)
		h[MethodSetDefaultSound] = setter(d.Settings.SetDefaultSound)
		h[MethodGetDefaultDailySound] = getter(d.Settings.DefaultDailySound)
		h[MethodSetDefaultDailySound] = setter(d.Settings.SetDefaultDailySound)
	}
	if d.Player != nil {
		h[MethodPlaySound] = func(ctx context.Context, c Call) (any, error) {
			var args soundArgs
			if err := c.Bind(&args); err != nil {
				return nil, err
			}
			if err := d.Player.Play(context.WithoutCancel(ctx), args.Sound); err != nil {
				return nil, err
			}
			return map[string]bool{"playing": true}, nil
		}
		h[MethodStopSound] = func(context.Context, Call) (any, error) {
			return map[string]bool{"stopped": true}, d.Player.Stop()
		}
	}
	return h
}

func (d Deps) scheduleSpecific(_ context.Context, c Call) (any, error) {
	var args specificArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	date, err := model.ParseYYYYMMDD(args.Date)
	if err != nil {
		return nil, classify(err)
	}
	tod, err := timeArg(args.Time)
	if err != nil {
		return nil, err
	}
	rule := model.Rule{Kind: model.KindNone, Time: tod, Anchor: date}
	switch {
	case args.Yearly && args.Monthly:
		return nil, invalidArg("yearly and monthly are exclusive")
	case args.Yearly:
		rule.Kind = model.KindYearly
	case args.Monthly:
		rule.Kind = model.KindMonthly
	}
	at, err := d.Alarms.ScheduleSpecific(args.ID, rule)
	if err != nil {
		return nil, classify(err)
	}
	return map[string]any{"trigger_at": at}, nil
}

func (d Deps) scheduleDaily(_ context.Context, c Call) (any, error) {
	var args dailyArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	tod, err := timeArg(args.Time)
	if err != nil {
		return nil, err
	}
	at, err := d.Alarms.ScheduleDaily(args.ID, tod, daysArg(args.Days))
	if err != nil {
		return nil, classify(err)
	}
	return map[string]any{"trigger_at": at}, nil
}

func (d Deps) cancelDaily(_ context.Context, c Call) (any, error) {
	var args dailyArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	if args.Time == nil {
		return nil, invalidArg("time is required")
	}
	tod, err := timeArg(args.Time)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"cancelled": d.Alarms.CancelDaily(args.ID, tod)}, nil
}

func (d Deps) schedulePeriod(_ context.Context, c Call) (any, error) {
	var args periodArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	from, err := model.ParseYYYYMMDD(args.From)
	if err != nil {
		return nil, classify(err)
	}
	to, err := model.ParseYYYYMMDD(args.To)
	if err != nil {
		return nil, classify(err)
	}
	tod, err := timeArg(args.Time)
	if err != nil {
		return nil, err
	}
	n, err := d.Alarms.SchedulePeriod(args.ID, from, to, daysArg(args.Days), tod)
	if err != nil {
		return nil, classify(err)
	}
	return map[string]int{"scheduled": n}, nil
}

func (d Deps) snooze(_ context.Context, c Call) (any, error) {
	var args SnoozeArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	at, err := d.Alarms.Snooze(alarm.SnoozeRequest{
		ItemID:  args.ID,
		Minutes: args.Minutes,
		Title:   args.Title,
		Content: args.Content,
		Sound:   args.Sound,
		Daily:   args.Daily,
	})
	if err != nil {
		return nil, classify(err)
	}
	return map[string]any{"trigger_at": at}, nil
}

func (d Deps) showNotification(ctx context.Context, c Call) (any, error) {
	var args notificationArgs
	if err := c.Bind(&args); err != nil {
		return nil, err
	}
	if args.Title == "" && args.Content == "" {
		return nil, invalidArg("title or content is required")
	}
	err := d.Fire.ShowNow(ctx, notify.Notification{
		ItemID:  args.ID,
		Title:   args.Title,
		Content: args.Content,
		Sound:   args.Sound,
		Payload: notify.TapPayload(args.ID),
	})
	if err != nil {
		return nil, err
	}
	return map[string]bool{"shown": true}, nil
}

func withItem(fn func(id int64) any) Handler {
	return func(_ context.Context, c Call) (any, error) {
		var args itemArgs
		if err := c.Bind(&args); err != nil {
			return nil, err
		}
		if args.ID <= 0 {
			return nil, invalidArg("id must be positive")
		}
		return fn(args.ID), nil
	}
}

func getter(get func(context.Context) (string, error)) Handler {
	return func(ctx context.Context, _ Call) (any, error) {
		v, err := get(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"sound": v}, nil
	}
}

func setter(set func(context.Context, string) error) Handler {
	return func(ctx context.Context, c Call) (any, error) {
		var args soundArgs
		if err := c.Bind(&args); err != nil {
			return nil, err
		}
		if err := set(ctx, args.Sound); err != nil {
			return nil, err
		}
		return map[string]string{"sound": args.Sound}, nil
	}
}

func timeArg(v *int) (model.TimeOfDay, error) {
	if v == nil {
		return model.DefaultTimeOfDay, nil
	}
	tod, err := model.ParseHHMM(*v)
	if err != nil {
		return model.TimeOfDay{}, classify(err)
	}
	return tod, nil
}

func daysArg(v *int) model.DayMask {
	if v == nil {
		return model.AllDays
	}
	return model.DayMask(*v) & model.AllDays
}

var argumentErrors = []error{
	model.ErrInvalidTimeOfDay,
	model.ErrInvalidDate,
	model.ErrInvalidPeriod,
	model.ErrEmptyDayMask,
	model.ErrNoOccurrence,
	model.ErrInvalidRecurrenceKind,
	alarm.ErrInvalidSnooze,
	alarm.ErrInvalidItemID,
	alarm.ErrNotSpecific,
	scheduler.ErrTriggerInPast,
}

func classify(err error) error {
	for _, target := range argumentErrors {
		if errors.Is(err, target) {
			return &CallError{Code: ErrCodeInvalidArgument, Message: err.Error()}
		}
	}
	return err
}
