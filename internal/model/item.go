package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRecurrenceKind = errors.New("model: invalid recurrence kind")
	ErrInvalidDisplayMode    = errors.New("model: invalid display mode")
	ErrInvalidTimeOfDay      = errors.New("model: invalid time of day")
	ErrInvalidDate           = errors.New("model: invalid date")
	ErrConflictingKinds      = errors.New("model: more than one recurrence kind enabled")
)

type RecurrenceKind string

const (
	KindNone    RecurrenceKind = "none"
	KindDaily   RecurrenceKind = "daily"
	KindYearly  RecurrenceKind = "yearly"
	KindMonthly RecurrenceKind = "monthly"
	KindPeriod  RecurrenceKind = "period"
)

func (k RecurrenceKind) IsValid() bool {
	switch k {
	case KindNone, KindDaily, KindYearly, KindMonthly, KindPeriod:
		return true
	default:
		return false
	}
}

// Recurring reports whether a fired alarm of this kind arms its own successor.
// Periods are precomputed and do not.
func (k RecurrenceKind) Recurring() bool {
	return k == KindDaily || k == KindYearly || k == KindMonthly
}

type DisplayMode string

const (
	DisplayNotification DisplayMode = "notification"
	DisplayFullScreen   DisplayMode = "fullscreen"
)

func (d DisplayMode) IsValid() bool {
	return d == DisplayNotification || d == DisplayFullScreen
}

type TimeOfDay struct {
	Hour   int
	Minute int
}

var DefaultTimeOfDay = TimeOfDay{Hour: 9, Minute: 30}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, t.Hour, t.Minute)
	}
	return nil
}

func (t TimeOfDay) HHMM() int {
	return t.Hour*100 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func ParseHHMM(v int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: v / 100, Minute: v % 100}
	if v < 0 {
		return TimeOfDay{}, fmt.Errorf("%w: %d", ErrInvalidTimeOfDay, v)
	}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

// ParseClock accepts "H:MM" or "HH:MM".
func ParseClock(s string) (TimeOfDay, error) {
	raw := strings.TrimSpace(s)
	var t TimeOfDay
	if _, err := fmt.Sscanf(raw, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

// DayMask holds one bit per weekday, bit 0 = Monday through bit 6 = Sunday.
type DayMask uint8

const AllDays DayMask = 0x7f

func weekdayBit(wd time.Weekday) uint {
	return uint((int(wd) + 6) % 7)
}

func MaskOf(days ...time.Weekday) DayMask {
	var m DayMask
	for _, d := range days {
		m |= 1 << weekdayBit(d)
	}
	return m
}

func (m DayMask) Has(wd time.Weekday) bool {
	return m&(1<<weekdayBit(wd)) != 0
}

func (m DayMask) Empty() bool {
	return m&AllDays == 0
}

func (m DayMask) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for _, wd := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if m.Has(wd) {
			out = append(out, wd)
		}
	}
	return out
}

// Date is a calendar date kept as stored. Day may exceed the month length
// for persisted monthly anchors; use In to resolve it. A Date with only Day
// set is a day-of-month value used by monthly period ranges.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseYYYYMMDD(v int) (Date, error) {
	if v >= 1 && v <= 31 {
		return Date{Day: v}, nil
	}
	d := Date{Year: v / 10000, Month: time.Month(v / 100 % 100), Day: v % 100}
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Day > 31 {
		return Date{}, fmt.Errorf("%w: %d", ErrInvalidDate, v)
	}
	return d, nil
}

func (d Date) YYYYMMDD() int {
	if d.DayOfMonthOnly() {
		return d.Day
	}
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) DayOfMonthOnly() bool {
	return d.Year == 0 && d.Month == 0 && d.Day >= 1 && d.Day <= 31
}

// At resolves the date at the given time of day, clamping Day to the month.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, clampDay(d.Year, d.Month, d.Day), tod.Hour, tod.Minute, 0, 0, loc)
}

func (d Date) String() string {
	if d.DayOfMonthOnly() {
		return fmt.Sprintf("day %d", d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Item mirrors one row of the items table. The flag fields keep the
// storage layout; Kind derives the single recurrence they describe.
type Item struct {
	ID         int64
	Title      string
	Content    string
	Sound      string
	DailySound string
	Hidden     bool
	FullScreen bool
	Active     bool

	Remind  bool
	Yearly  bool
	Monthly bool
	Date    Date
	Time    TimeOfDay

	Period     bool
	PeriodTo   Date
	PeriodDays DayMask

	Daily      bool
	DailyTimes []TimeOfDay
	DailyDays  DayMask
}

func (it Item) Kind() RecurrenceKind {
	switch {
	case it.Daily:
		return KindDaily
	case it.Period:
		return KindPeriod
	case it.Remind && it.Yearly:
		return KindYearly
	case it.Remind && it.Monthly:
		return KindMonthly
	default:
		return KindNone
	}
}

// Scheduled reports whether any recurrence flag is switched on.
func (it Item) Scheduled() bool {
	return it.Remind || it.Period || it.Daily
}

// EnabledFor reports whether the item's flag for kind is still on.
func (it Item) EnabledFor(kind RecurrenceKind) bool {
	switch kind {
	case KindDaily:
		return it.Daily
	case KindPeriod:
		return it.Period
	case KindYearly:
		return it.Remind && it.Yearly
	case KindMonthly:
		return it.Remind && it.Monthly
	case KindNone:
		return it.Remind
	default:
		return false
	}
}

func (it Item) Display() DisplayMode {
	if it.FullScreen {
		return DisplayFullScreen
	}
	return DisplayNotification
}

func (it Item) HasDailyTime(t TimeOfDay) bool {
	for _, dt := range it.DailyTimes {
		if dt == t {
			return true
		}
	}
	return false
}

// Text returns title and content ready for display.
func (it Item) Text() (string, string) {
	if !it.Hidden {
		return it.Title, it.Content
	}
	return Deobfuscate(it.Title), Deobfuscate(it.Content)
}

func (it Item) Validate() error {
	if it.ID <= 0 {
		return errors.New("model: item id is required")
	}
	enabled := 0
	for _, on := range []bool{it.Remind, it.Period, it.Daily} {
		if on {
			enabled++
		}
	}
	if enabled > 1 || (it.Yearly && it.Monthly) {
		return fmt.Errorf("%w: item %d", ErrConflictingKinds, it.ID)
	}
	if err := it.Time.Validate(); err != nil {
		return err
	}
	for _, t := range it.DailyTimes {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	if it.Remind && it.Date.IsZero() {
		return fmt.Errorf("%w: item %d has no date", ErrInvalidDate, it.ID)
	}
	if it.Period && (it.Date.IsZero() || it.PeriodTo.IsZero()) {
		return fmt.Errorf("%w: item %d has an incomplete period", ErrInvalidDate, it.ID)
	}
	return nil
}
