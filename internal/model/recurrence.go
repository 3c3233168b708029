package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNoOccurrence  = errors.New("model: no valid occurrence")
	ErrEmptyDayMask  = errors.New("model: day mask has no days set")
	ErrInvalidPeriod = errors.New("model: invalid period range")
)

const maxPeriodDays = 400

// Rule is the recurrence part of an item, detached from storage.
type Rule struct {
	Kind   RecurrenceKind
	Time   TimeOfDay
	Days   DayMask
	Anchor Date
	End    Date
}

func (it Item) Rule() Rule {
	r := Rule{Kind: it.Kind(), Time: it.Time, Anchor: it.Date}
	switch r.Kind {
	case KindDaily:
		r.Days = it.DailyDays
		if len(it.DailyTimes) > 0 {
			r.Time = it.DailyTimes[0]
		}
	case KindPeriod:
		r.Days = it.PeriodDays
		r.End = it.PeriodTo
	}
	return r
}

func (r Rule) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceKind, r.Kind)
	}
	if err := r.Time.Validate(); err != nil {
		return err
	}
	switch r.Kind {
	case KindDaily:
		if r.Days.Empty() {
			return ErrEmptyDayMask
		}
	case KindPeriod:
		if r.Days.Empty() {
			return ErrEmptyDayMask
		}
		if r.Anchor.IsZero() || r.End.IsZero() {
			return ErrInvalidPeriod
		}
	default:
		if r.Anchor.IsZero() {
			return fmt.Errorf("%w: anchor date is required", ErrInvalidDate)
		}
	}
	return nil
}

// Next returns the first occurrence strictly after now.
func (r Rule) Next(now time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	switch r.Kind {
	case KindNone:
		return NextOneTime(r.Anchor, r.Time, now)
	case KindDaily:
		return NextDaily(r.Time, r.Days, now)
	case KindYearly:
		return NextYearly(r.Anchor, r.Time, now), nil
	case KindMonthly:
		return NextMonthly(r.Anchor, r.Time, now), nil
	case KindPeriod:
		dates, err := PeriodDates(r.Anchor, r.End, r.Days, now)
		if err != nil {
			return time.Time{}, err
		}
		for _, d := range dates {
			if at := d.At(r.Time, now.Location()); at.After(now) {
				return at, nil
			}
		}
		return time.Time{}, ErrNoOccurrence
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRecurrenceKind, r.Kind)
	}
}

func (r Rule) Preview(from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, count)
	cursor := from
	for i := 0; i < count; i++ {
		next, err := r.Next(cursor)
		if errors.Is(err, ErrNoOccurrence) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

func NextOneTime(anchor Date, tod TimeOfDay, now time.Time) (time.Time, error) {
	if anchor.IsZero() || anchor.DayOfMonthOnly() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, anchor)
	}
	at := anchor.At(tod, now.Location())
	if !at.After(now) {
		return time.Time{}, ErrNoOccurrence
	}
	return at, nil
}

func NextDaily(tod TimeOfDay, mask DayMask, now time.Time) (time.Time, error) {
	if mask.Empty() {
		return time.Time{}, ErrEmptyDayMask
	}
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, now.Location())
	if candidate.After(now) && mask.Has(candidate.Weekday()) {
		return candidate, nil
	}
	for i := 1; i <= 7; i++ {
		probe := time.Date(y, m, d+i, tod.Hour, tod.Minute, 0, 0, now.Location())
		if mask.Has(probe.Weekday()) {
			return probe, nil
		}
	}
	return time.Time{}, ErrEmptyDayMask
}

func NextYearly(anchor Date, tod TimeOfDay, now time.Time) time.Time {
	year := now.Year()
	candidate := Date{Year: year, Month: anchor.Month, Day: anchor.Day}.At(tod, now.Location())
	if !candidate.After(now) {
		candidate = Date{Year: year + 1, Month: anchor.Month, Day: anchor.Day}.At(tod, now.Location())
	}
	return candidate
}

func NextMonthly(anchor Date, tod TimeOfDay, now time.Time) time.Time {
	y, m, _ := now.Date()
	candidate := Date{Year: y, Month: m, Day: anchor.Day}.At(tod, now.Location())
	if !candidate.After(now) {
		ny, nm := addMonths(y, m, 1)
		candidate = Date{Year: ny, Month: nm, Day: anchor.Day}.At(tod, now.Location())
	}
	return candidate
}

// AdvanceAnchor returns the anchor to persist after an occurrence at next.
// The original day of month is kept so each cycle clamps independently.
func AdvanceAnchor(anchor Date, next time.Time) Date {
	return Date{Year: next.Year(), Month: next.Month(), Day: anchor.Day}
}

// PeriodDates lists the dates of a period rule whose weekday is in mask.
// Explicit ranges are enumerated inclusively. Day-of-month ranges repeat
// monthly; the current and the following cycle are returned.
func PeriodDates(start, end Date, mask DayMask, now time.Time) ([]Date, error) {
	if mask.Empty() {
		return nil, ErrEmptyDayMask
	}
	var dates []Date
	switch {
	case start.DayOfMonthOnly() && end.DayOfMonthOnly():
		y, m, _ := now.Date()
		for offset := 0; offset < 2; offset++ {
			cy, cm := addMonths(y, m, offset)
			dates = append(dates, monthlyCycle(cy, cm, start.Day, end.Day)...)
		}
	case !start.DayOfMonthOnly() && !end.DayOfMonthOnly() && !start.IsZero() && !end.IsZero():
		from := start.At(TimeOfDay{}, time.UTC)
		to := end.At(TimeOfDay{}, time.UTC)
		if to.Before(from) {
			return nil, fmt.Errorf("%w: %s after %s", ErrInvalidPeriod, start, end)
		}
		for i := 0; i < maxPeriodDays; i++ {
			day := from.AddDate(0, 0, i)
			if day.After(to) {
				break
			}
			dates = append(dates, DateOf(day))
		}
	default:
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidPeriod, start, end)
	}

	out := make([]Date, 0, len(dates))
	seen := make(map[Date]bool, len(dates))
	for _, d := range dates {
		wd := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
		if seen[d] || !mask.Has(wd) {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].YYYYMMDD() < out[j].YYYYMMDD()
	})
	return out, nil
}

func monthlyCycle(y int, m time.Month, startDay, endDay int) []Date {
	last := DaysIn(y, m)
	from := min(startDay, last)
	if to := min(endDay, last); from <= to {
		out := make([]Date, 0, to-from+1)
		for d := from; d <= to; d++ {
			out = append(out, Date{Year: y, Month: m, Day: d})
		}
		return out
	}
	ny, nm := addMonths(y, m, 1)
	to := min(endDay, DaysIn(ny, nm))
	out := make([]Date, 0, last-from+1+to)
	for d := from; d <= last; d++ {
		out = append(out, Date{Year: y, Month: m, Day: d})
	}
	for d := 1; d <= to; d++ {
		out = append(out, Date{Year: ny, Month: nm, Day: d})
	}
	return out
}

func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(y int, m time.Month, d int) int {
	if d < 1 {
		return 1
	}
	return min(d, DaysIn(y, m))
}

func addMonths(y int, m time.Month, n int) (int, time.Month) {
	t := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
