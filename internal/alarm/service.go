package alarm

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/scheduler"
	"github.com/memorizer/remindd/internal/sse"
)

var (
	ErrInvalidSnooze = errors.New("alarm: snooze duration not offered")
	ErrInvalidItemID = errors.New("alarm: item id must be positive")
	ErrNotSpecific   = errors.New("alarm: rule is not a specific reminder")
)

var snoozeOptions = []int{10, 20, 30, 60, 180, 1440}

// SnoozeOptions lists the offered snooze durations in minutes. Daily
// reminders do not offer the one day option.
func SnoozeOptions(daily bool) []int {
	if daily {
		return slices.DeleteFunc(slices.Clone(snoozeOptions), func(m int) bool { return m == 1440 })
	}
	return slices.Clone(snoozeOptions)
}

// Scheduler is the keyed timer store the service arms.
type Scheduler interface {
	Schedule(a scheduler.Alarm) error
	Cancel(key scheduler.Key) bool
	CancelKind(kind string) int
	Pending() []scheduler.Alarm
}

type Publisher interface {
	Publish(eventType string, data any) string
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPublisher(pub Publisher) ServiceOption {
	return func(s *Service) {
		s.pub = pub
	}
}

// Service computes trigger times and keys and arms them on the scheduler.
type Service struct {
	engine Scheduler
	now    func() time.Time
	logger *slog.Logger
	pub    Publisher
}

func NewService(engine Scheduler, opts ...ServiceOption) *Service {
	s := &Service{engine: engine, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// ScheduleSpecific arms a one-time, yearly or monthly reminder at the next
// occurrence of rule.
func (s *Service) ScheduleSpecific(itemID int64, rule model.Rule) (time.Time, error) {
	if itemID <= 0 {
		return time.Time{}, ErrInvalidItemID
	}
	switch rule.Kind {
	case model.KindNone, model.KindYearly, model.KindMonthly:
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotSpecific, rule.Kind)
	}
	next, err := rule.Next(s.now())
	if err != nil {
		return time.Time{}, err
	}
	err = s.arm(scheduler.Alarm{
		Key:       SpecificKey(itemID),
		TriggerAt: next,
		Delivery:  scheduler.Exact,
		Payload:   Payload{ItemID: itemID, Kind: rule.Kind, Time: rule.Time, Anchor: rule.Anchor},
	})
	return next, err
}

// ScheduleDaily arms the next daily occurrence of tod. Alarms of different
// items are spread over the first minute by (itemID % 20) * 3 seconds.
func (s *Service) ScheduleDaily(itemID int64, tod model.TimeOfDay, days model.DayMask) (time.Time, error) {
	if itemID <= 0 {
		return time.Time{}, ErrInvalidItemID
	}
	if err := tod.Validate(); err != nil {
		return time.Time{}, err
	}
	next, err := model.NextDaily(tod, days, s.now())
	if err != nil {
		return time.Time{}, err
	}
	next = next.Add(time.Duration(itemID%20*3) * time.Second)
	err = s.arm(scheduler.Alarm{
		Key:       DailyKey(itemID, tod),
		TriggerAt: next,
		Delivery:  scheduler.Exact,
		Payload:   Payload{ItemID: itemID, Kind: model.KindDaily, Time: tod, Days: days},
	})
	return next, err
}

// SchedulePeriod arms one alarm per remaining date of the period and returns
// how many were armed. Dates sharing a month/day key keep the first one.
func (s *Service) SchedulePeriod(itemID int64, start, end model.Date, days model.DayMask, tod model.TimeOfDay) (int, error) {
	if itemID <= 0 {
		return 0, ErrInvalidItemID
	}
	if err := tod.Validate(); err != nil {
		return 0, err
	}
	now := s.now()
	dates, err := model.PeriodDates(start, end, days, now)
	if err != nil {
		return 0, err
	}
	armed := 0
	seen := make(map[scheduler.Key]bool, len(dates))
	for _, d := range dates {
		at := d.At(tod, now.Location())
		key := PeriodKey(itemID, d.Month, d.Day)
		if !at.After(now) || seen[key] {
			continue
		}
		seen[key] = true
		if err := s.arm(scheduler.Alarm{
			Key:       key,
			TriggerAt: at,
			Delivery:  scheduler.Exact,
			Payload:   Payload{ItemID: itemID, Kind: model.KindPeriod, Time: tod, Days: days, Anchor: d},
		}); err != nil {
			return armed, err
		}
		armed++
	}
	return armed, nil
}

type SnoozeRequest struct {
	ItemID  int64
	Minutes int
	Title   string
	Content string
	Sound   string
	Daily   bool
}

// Snooze re-shows an alert later. The trigger is the current minute plus
// the chosen duration.
func (s *Service) Snooze(req SnoozeRequest) (time.Time, error) {
	if req.ItemID <= 0 {
		return time.Time{}, ErrInvalidItemID
	}
	if !slices.Contains(SnoozeOptions(req.Daily), req.Minutes) {
		return time.Time{}, fmt.Errorf("%w: %d minutes", ErrInvalidSnooze, req.Minutes)
	}
	at := s.now().Truncate(time.Minute).Add(time.Duration(req.Minutes) * time.Minute)
	err := s.arm(scheduler.Alarm{
		Key:       SnoozeKey(req.ItemID),
		TriggerAt: at,
		Delivery:  scheduler.Exact,
		Payload: Payload{
			ItemID: req.ItemID,
			Snooze: &SnoozeData{Title: req.Title, Content: req.Content, Sound: req.Sound, Daily: req.Daily},
		},
	})
	return at, err
}

// ScheduleMaintenance arms the nightly resync at the next local midnight.
func (s *Service) ScheduleMaintenance() (time.Time, error) {
	now := s.now()
	y, m, d := now.Date()
	at := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	err := s.arm(scheduler.Alarm{Key: MaintenanceKey(), TriggerAt: at, Delivery: scheduler.BestEffort})
	return at, err
}

func (s *Service) CancelSpecific(itemID int64) bool {
	return s.cancel(SpecificKey(itemID))
}

func (s *Service) CancelDaily(itemID int64, tod model.TimeOfDay) bool {
	return s.cancel(DailyKey(itemID, tod))
}

// CancelAllDaily cancels every daily slot an item could occupy.
func (s *Service) CancelAllDaily(itemID int64) int {
	n := 0
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			if s.cancel(DailyKey(itemID, model.TimeOfDay{Hour: h, Minute: m})) {
				n++
			}
		}
	}
	return n
}

func (s *Service) CancelPeriod(itemID int64) int {
	n := 0
	for month := time.January; month <= time.December; month++ {
		for day := 1; day <= 31; day++ {
			if s.cancel(PeriodKey(itemID, month, day)) {
				n++
			}
		}
	}
	return n
}

func (s *Service) CancelSnooze(itemID int64) bool {
	return s.cancel(SnoozeKey(itemID))
}

// CancelStored drops every alarm derived from stored items. Snoozes and the
// maintenance alarm survive.
func (s *Service) CancelStored() int {
	return s.cancelKinds(KindSpecific, KindDaily, KindPeriod)
}

// CancelAll drops every reminder alarm including snoozes.
func (s *Service) CancelAll() int {
	return s.cancelKinds(KindSpecific, KindDaily, KindPeriod, KindSnooze)
}

func (s *Service) Pending() []View {
	pending := s.engine.Pending()
	out := make([]View, 0, len(pending))
	for _, a := range pending {
		out = append(out, ViewOf(a))
	}
	return out
}

// Rearm arms the next occurrence of a recurring payload. Non-recurring
// payloads report ok=false.
func (s *Service) Rearm(p Payload) (next time.Time, ok bool, err error) {
	switch p.Kind {
	case model.KindDaily:
		next, err = s.ScheduleDaily(p.ItemID, p.Time, p.Days)
	case model.KindYearly, model.KindMonthly:
		next, err = s.ScheduleSpecific(p.ItemID, model.Rule{Kind: p.Kind, Time: p.Time, Anchor: p.Anchor})
	default:
		return time.Time{}, false, nil
	}
	return next, err == nil, err
}

func (s *Service) cancelKinds(kinds ...string) int {
	n := 0
	for _, kind := range kinds {
		n += s.engine.CancelKind(kind)
	}
	if n > 0 {
		s.logger.Info("alarm: cancelled alarms", slog.Int("count", n))
	}
	return n
}

func (s *Service) arm(a scheduler.Alarm) error {
	if err := s.engine.Schedule(a); err != nil {
		return err
	}
	s.logger.Debug("alarm: armed",
		slog.String("key", a.Key.String()),
		slog.Time("trigger_at", a.TriggerAt),
		slog.String("delivery", a.Delivery.String()))
	if s.pub != nil {
		s.pub.Publish(sse.EventAlarmScheduled, ViewOf(a))
	}
	return nil
}

func (s *Service) cancel(key scheduler.Key) bool {
	if !s.engine.Cancel(key) {
		return false
	}
	if s.pub != nil {
		s.pub.Publish(sse.EventAlarmCancelled, map[string]string{"key": key.String()})
	}
	return true
}
