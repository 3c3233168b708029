package model

import (
	"errors"
	"testing"
	"time"
)

func TestNextDailySkipsDaysOutsideMask(t *testing.T) {
	mask := MaskOf(time.Monday, time.Wednesday, time.Friday)
	now := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC) // Tuesday

	next, err := NextDaily(TimeOfDay{Hour: 9}, mask, now)
	if err != nil {
		t.Fatalf("next daily failed: %v", err)
	}
	if next.Weekday() != time.Wednesday || next.Format("2006-01-02 15:04") != "2026-02-11 09:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextDailyUsesTodayWhenStillAhead(t *testing.T) {
	now := time.Date(2026, 2, 11, 8, 59, 0, 0, time.UTC) // Wednesday
	next, err := NextDaily(TimeOfDay{Hour: 9}, MaskOf(time.Wednesday), now)
	if err != nil {
		t.Fatalf("next daily failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-11 09:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextDailySameWeekdayPassedWaitsAWeek(t *testing.T) {
	now := time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC) // Wednesday, exactly at the time
	next, err := NextDaily(TimeOfDay{Hour: 9}, MaskOf(time.Wednesday), now)
	if err != nil {
		t.Fatalf("next daily failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-18 09:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestNextDailyEmptyMask(t *testing.T) {
	_, err := NextDaily(TimeOfDay{Hour: 9}, 0, time.Now())
	if !errors.Is(err, ErrEmptyDayMask) {
		t.Fatalf("expected ErrEmptyDayMask, got %v", err)
	}
	if _, err := (Rule{Kind: KindDaily, Time: TimeOfDay{Hour: 9}}).Next(time.Now()); !errors.Is(err, ErrEmptyDayMask) {
		t.Fatalf("expected rule validation to reject empty mask, got %v", err)
	}
}

func TestNextDailyEveryMaskStaysWithinAWeek(t *testing.T) {
	starts := []time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC),
	}
	tod := TimeOfDay{Hour: 12, Minute: 30}
	for mask := DayMask(1); mask <= AllDays; mask++ {
		for _, now := range starts {
			next, err := NextDaily(tod, mask, now)
			if err != nil {
				t.Fatalf("mask %07b from %s: %v", mask, now, err)
			}
			if !next.After(now) || next.Sub(now) > 7*24*time.Hour {
				t.Fatalf("mask %07b from %s: next %s outside one week", mask, now, next)
			}
			if !mask.Has(next.Weekday()) {
				t.Fatalf("mask %07b from %s: %s is not an enabled weekday", mask, now, next.Weekday())
			}
		}
	}
}

func TestNextYearlyAdvancesExactlyOneYear(t *testing.T) {
	anchor := Date{Year: 2020, Month: time.March, Day: 5}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	next := NextYearly(anchor, TimeOfDay{Hour: 8}, now)
	if next.Format("2006-01-02 15:04") != "2027-03-05 08:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := NextYearly(anchor, TimeOfDay{Hour: 8}, early); got.Year() != 2026 {
		t.Fatalf("expected this year's occurrence, got %s", got)
	}
}

func TestNextYearlyLeapDayClamps(t *testing.T) {
	anchor := Date{Year: 2024, Month: time.February, Day: 29}
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	next := NextYearly(anchor, TimeOfDay{Hour: 7}, now)
	if next.Format("2006-01-02") != "2026-02-28" {
		t.Fatalf("unexpected leap day clamp: %s", next.Format(time.RFC3339))
	}
}

func TestNextMonthlyClampsEachCycleIndependently(t *testing.T) {
	anchor := Date{Year: 2026, Month: time.January, Day: 31}
	tod := TimeOfDay{Hour: 9, Minute: 30}

	now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	april := NextMonthly(anchor, tod, now)
	if april.Format("2006-01-02 15:04") != "2026-04-30 09:30" {
		t.Fatalf("unexpected april occurrence: %s", april.Format(time.RFC3339))
	}

	persisted := AdvanceAnchor(anchor, april)
	if persisted.Day != 31 || persisted.Month != time.April {
		t.Fatalf("anchor day must survive the clamp: %#v", persisted)
	}

	may := NextMonthly(persisted, tod, april)
	if may.Format("2006-01-02 15:04") != "2026-05-31 09:30" {
		t.Fatalf("unexpected may occurrence: %s", may.Format(time.RFC3339))
	}
}

func TestNextOneTimePassed(t *testing.T) {
	anchor := Date{Year: 2026, Month: time.February, Day: 9}
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)
	if _, err := NextOneTime(anchor, TimeOfDay{Hour: 9}, now); !errors.Is(err, ErrNoOccurrence) {
		t.Fatalf("expected ErrNoOccurrence, got %v", err)
	}
	next, err := NextOneTime(anchor, TimeOfDay{Hour: 11}, now)
	if err != nil {
		t.Fatalf("one time failed: %v", err)
	}
	if next.Hour() != 11 {
		t.Fatalf("unexpected one time occurrence: %s", next)
	}
}

func TestPeriodDatesMonthlyWrap(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) // January has 31 days
	dates, err := PeriodDates(Date{Day: 28}, Date{Day: 3}, AllDays, now)
	if err != nil {
		t.Fatalf("period dates failed: %v", err)
	}
	want := []Date{
		{2026, time.January, 28}, {2026, time.January, 29}, {2026, time.January, 30}, {2026, time.January, 31},
		{2026, time.February, 1}, {2026, time.February, 2}, {2026, time.February, 3},
	}
	if len(dates) < len(want) {
		t.Fatalf("expected at least %d dates, got %v", len(want), dates)
	}
	for i, d := range want {
		if dates[i] != d {
			t.Fatalf("date %d = %s, want %s", i, dates[i], d)
		}
	}
	// The following cycle starts again from February 28.
	if dates[len(want)] != (Date{2026, time.February, 28}) {
		t.Fatalf("unexpected start of second cycle: %s", dates[len(want)])
	}
}

func TestPeriodDatesClampsBeforeDetectingWrap(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) // April has 30 days
	dates, err := PeriodDates(Date{Day: 31}, Date{Day: 30}, AllDays, now)
	if err != nil {
		t.Fatalf("period dates failed: %v", err)
	}
	// April clamps both ends to the 30th; May wraps from the 31st.
	if len(dates) < 2 || dates[0].YYYYMMDD() != 20260430 || dates[1].YYYYMMDD() != 20260531 {
		t.Fatalf("unexpected dates: %v", dates)
	}
}

func TestPeriodDatesExplicitRangeFiltersMask(t *testing.T) {
	start := Date{Year: 2026, Month: time.March, Day: 2} // Monday
	end := Date{Year: 2026, Month: time.March, Day: 15}
	dates, err := PeriodDates(start, end, MaskOf(time.Saturday, time.Sunday), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("period dates failed: %v", err)
	}
	want := []int{20260307, 20260308, 20260314, 20260315}
	if len(dates) != len(want) {
		t.Fatalf("unexpected weekend dates: %v", dates)
	}
	for i, d := range dates {
		if d.YYYYMMDD() != want[i] {
			t.Fatalf("date %d = %d, want %d", i, d.YYYYMMDD(), want[i])
		}
	}
}

func TestPeriodDatesRejectsInvertedRange(t *testing.T) {
	start := Date{Year: 2026, Month: time.March, Day: 10}
	end := Date{Year: 2026, Month: time.March, Day: 1}
	if _, err := PeriodDates(start, end, AllDays, time.Now()); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := PeriodDates(Date{Day: 1}, Date{Day: 5}, 0, time.Now()); !errors.Is(err, ErrEmptyDayMask) {
		t.Fatalf("expected ErrEmptyDayMask, got %v", err)
	}
}

func TestRulePreview(t *testing.T) {
	rule := Rule{Kind: KindMonthly, Time: TimeOfDay{Hour: 6}, Anchor: Date{Year: 2026, Month: time.January, Day: 30}}
	from := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	out, err := rule.Preview(from, 3)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	want := []string{"2026-02-28", "2026-03-30", "2026-04-30"}
	if len(out) != len(want) {
		t.Fatalf("unexpected preview count: %d", len(out))
	}
	for i := range want {
		if out[i].Format("2006-01-02") != want[i] {
			t.Fatalf("preview[%d] = %s, want %s", i, out[i].Format("2006-01-02"), want[i])
		}
	}
}

func TestRulePreviewStopsWhenOneTimeIsSpent(t *testing.T) {
	rule := Rule{Kind: KindNone, Time: TimeOfDay{Hour: 6}, Anchor: Date{Year: 2026, Month: time.May, Day: 1}}
	out, err := rule.Preview(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 5)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single occurrence, got %v", out)
	}
}
