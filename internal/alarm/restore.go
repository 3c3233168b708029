package alarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/sse"
	"github.com/memorizer/remindd/internal/storage"
)

const DefaultSettleDelay = 5 * time.Second

type ItemLister interface {
	ListItems(ctx context.Context, filter storage.ItemListFilter) ([]model.Item, error)
}

type Toggles interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	DailyRemindersEnabled(ctx context.Context) (bool, error)
}

// Summary counts what a resync armed.
type Summary struct {
	Specific    int       `json:"specific"`
	Daily       int       `json:"daily"`
	Period      int       `json:"period"`
	Skipped     int       `json:"skipped"`
	Disabled    bool      `json:"disabled"`
	Maintenance time.Time `json:"maintenance"`
}

type RestorerOption func(*Restorer)

func WithSettleDelay(d time.Duration) RestorerOption {
	return func(r *Restorer) {
		if d >= 0 {
			r.settle = d
		}
	}
}

func WithRestoreLogger(logger *slog.Logger) RestorerOption {
	return func(r *Restorer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithRestorePublisher(pub Publisher) RestorerOption {
	return func(r *Restorer) {
		r.pub = pub
	}
}

// Restorer rebuilds every storage-derived alarm. It never displays anything.
type Restorer struct {
	mu      sync.Mutex
	items   ItemLister
	toggles Toggles
	service *Service
	settle  time.Duration
	logger  *slog.Logger
	pub     Publisher
}

func NewRestorer(items ItemLister, toggles Toggles, service *Service, opts ...RestorerOption) *Restorer {
	r := &Restorer{
		items:   items,
		toggles: toggles,
		service: service,
		settle:  DefaultSettleDelay,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore waits for the system to settle after boot, then resyncs.
func (r *Restorer) Restore(ctx context.Context) (Summary, error) {
	if r.settle > 0 {
		timer := time.NewTimer(r.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		case <-timer.C:
		}
	}
	return r.Resync(ctx)
}

func (r *Restorer) Resync(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sum Summary
	items, err := r.items.ListItems(ctx, storage.ItemListFilter{
		Scheduled: true,
		OnInvalid: func(bad *storage.InvalidItemError) {
			r.logger.Warn("restore: skipping unreadable item", slog.Int64("item_id", bad.ID), slog.String("error", bad.Err.Error()))
			sum.Skipped++
		},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("list items: %w", err)
	}
	r.service.CancelStored()

	at, err := r.service.ScheduleMaintenance()
	if err != nil {
		r.logger.Warn("restore: maintenance alarm not armed", slog.String("error", err.Error()))
	} else {
		sum.Maintenance = at
	}

	if on, err := r.toggles.RemindersEnabled(ctx); err == nil && !on {
		sum.Disabled = true
		r.finish(sum)
		return sum, nil
	} else if err != nil {
		r.logger.Warn("restore: reading reminder toggle failed, assuming enabled", slog.String("error", err.Error()))
	}
	dailyOn, err := r.toggles.DailyRemindersEnabled(ctx)
	if err != nil {
		r.logger.Warn("restore: reading daily toggle failed, assuming enabled", slog.String("error", err.Error()))
		dailyOn = true
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			r.logger.Warn("restore: skipping invalid item", slog.Int64("item_id", item.ID), slog.String("error", err.Error()))
			sum.Skipped++
			continue
		}
		r.restoreItem(item, dailyOn, &sum)
	}
	r.finish(sum)
	return sum, nil
}

func (r *Restorer) restoreItem(item model.Item, dailyOn bool, sum *Summary) {
	log := r.logger.With(slog.Int64("item_id", item.ID))
	switch kind := item.Kind(); kind {
	case model.KindDaily:
		if !dailyOn {
			return
		}
		for _, tod := range item.DailyTimes {
			if _, err := r.service.ScheduleDaily(item.ID, tod, item.DailyDays); err != nil {
				log.Warn("restore: daily reminder not armed", slog.String("time", tod.String()), slog.String("error", err.Error()))
				sum.Skipped++
				continue
			}
			sum.Daily++
		}
	case model.KindPeriod:
		if !item.Active {
			return
		}
		n, err := r.service.SchedulePeriod(item.ID, item.Date, item.PeriodTo, item.PeriodDays, item.Time)
		if err != nil {
			log.Warn("restore: period reminder not armed", slog.String("error", err.Error()))
			sum.Skipped++
		}
		sum.Period += n
	case model.KindYearly, model.KindMonthly, model.KindNone:
		if kind != model.KindNone && !item.Active {
			return
		}
		_, err := r.service.ScheduleSpecific(item.ID, item.Rule())
		if errors.Is(err, model.ErrNoOccurrence) {
			sum.Skipped++
			return
		}
		if err != nil {
			log.Warn("restore: reminder not armed", slog.String("error", err.Error()))
			sum.Skipped++
			return
		}
		sum.Specific++
	}
}

func (r *Restorer) finish(sum Summary) {
	r.logger.Info("restore: alarms resynced",
		slog.Int("specific", sum.Specific),
		slog.Int("daily", sum.Daily),
		slog.Int("period", sum.Period),
		slog.Int("skipped", sum.Skipped),
		slog.Bool("disabled", sum.Disabled))
	if r.pub != nil {
		r.pub.Publish(sse.EventResync, sum)
	}
}
