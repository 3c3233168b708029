package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var ErrNoRRule = errors.New("model: rule has no rrule form")

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// RRule builds the RFC 5545 equivalent of r starting at dtstart. Day-of-month
// clamping is expressed as a BYSETPOS=-1 pick over the tail of the month.
func (r Rule) RRule(dtstart time.Time) (*rrule.RRule, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	opt := rrule.ROption{
		Dtstart:  dtstart,
		Byhour:   []int{r.Time.Hour},
		Byminute: []int{r.Time.Minute},
		Bysecond: []int{0},
	}
	switch r.Kind {
	case KindDaily:
		opt.Freq = rrule.DAILY
		opt.Byweekday = weekdaysOf(r.Days)
	case KindMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = clampedMonthDays(r.Anchor.Day)
	case KindYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(r.Anchor.Month)}
		opt.Bymonthday, opt.Bysetpos = clampedMonthDays(r.Anchor.Day)
	case KindPeriod:
		if r.Anchor.DayOfMonthOnly() {
			return nil, fmt.Errorf("%w: monthly period", ErrNoRRule)
		}
		opt.Freq = rrule.DAILY
		opt.Byweekday = weekdaysOf(r.Days)
		opt.Dtstart = r.Anchor.At(r.Time, dtstart.Location())
		opt.Until = r.End.At(r.Time, dtstart.Location())
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoRRule, r.Kind)
	}
	return rrule.NewRRule(opt)
}

// RRuleString is the RRULE line for r, or "" when r has no rrule form.
func (r Rule) RRuleString(dtstart time.Time) string {
	rule, err := r.RRule(dtstart)
	if err != nil {
		return ""
	}
	return rule.String()
}

func weekdaysOf(m DayMask) []rrule.Weekday {
	days := m.Weekdays()
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, rruleWeekdays[d])
	}
	return out
}

func clampedMonthDays(day int) ([]int, []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	days := make([]int, 0, day-27)
	for d := 28; d <= day; d++ {
		days = append(days, d)
	}
	return days, []int{-1}
}
