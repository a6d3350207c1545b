package domain

import (
	"math"
	"time"
)

const (
	FrequencyMonthly = "monthly"
	FrequencyWeekly  = "weekly"
	FrequencyCustom  = "custom"
)

// NextDueDate computes the due date that follows current for the given
// repayment frequency. It is a pure function and never fails: monthly advances
// one calendar month (clamped to the last day of shorter months), weekly adds
// seven days, and custom returns current unchanged because custom-frequency
// loans do not auto-advance.
func NextDueDate(frequency string, current time.Time) time.Time {
	switch frequency {
	case FrequencyMonthly:
		return addCalendarMonth(current)
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	default:
		return current
	}
}

// addCalendarMonth keeps the day-of-month where possible. time.AddDate would
// normalize Jan 31 into Mar 2/3, which is not calendar-arithmetic semantics.
func addCalendarMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	if last := daysInMonth(year, month+1); day > last {
		day = last
	}
	return time.Date(year, month+1, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return CalendarDay(t, t.Location())
}

// CalendarDay rebuilds t's calendar date at midnight in loc. It reads the
// year/month/day fields as-is rather than converting the instant: DATE column
// values arrive as midnight UTC, and shifting that instant into a zone west of
// UTC would land on the previous day.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysUntil returns the whole calendar days from now until due, compared as
// calendar dates in now's location. Negative means overdue. Rounding absorbs
// DST days that are not exactly 24 hours long.
func DaysUntil(now, due time.Time) int {
	today := StartOfDay(now)
	dueDay := CalendarDay(due, now.Location())
	return int(math.Round(dueDay.Sub(today).Hours() / 24))
}
