// Package recurrence evaluates recurrence rules against anchor dates.
// All calendar arithmetic happens in UTC so that day boundaries do not
// drift with the process's local timezone.
package recurrence

import "time"

// Type enumerates the supported recurrence patterns.
type Type string

const (
	TypeNone           Type = "none"
	TypeDaily          Type = "daily"
	TypeWeekly         Type = "weekly"
	TypeMonthly        Type = "monthly"
	TypeMonthlyWeekday Type = "monthly_weekday"
	TypeMonthlyLastDay Type = "monthly_last_day"
)

// Rule describes one recurrence pattern as stored on a task template.
type Rule struct {
	Type     Type
	Interval int // multiplier of the base period, 1 if unset

	// Weekday is 0-6 with Sunday=0. Required for weekly (when pinning a
	// weekday) and monthly_weekday rules.
	Weekday *int

	// MonthDay is the day-of-month target (1-31) for monthly rules,
	// clamped to shorter months.
	MonthDay *int

	// WeekOfMonth is the ordinal for monthly_weekday ("1st Tuesday" = 1).
	WeekOfMonth *int

	// EndDate stops generation: no occurrences at or after it. It is
	// enforced by callers, not by NextOccurrence.
	EndDate *time.Time

	// CompletionBased anchors the next occurrence at the completion
	// timestamp instead of the due date.
	CompletionBased bool
}

// Active reports whether the rule produces occurrences at all.
func (r Rule) Active() bool {
	switch r.Type {
	case TypeDaily, TypeWeekly, TypeMonthly, TypeMonthlyWeekday, TypeMonthlyLastDay:
		return true
	}
	return false
}

func (r Rule) interval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// NextOccurrence computes the occurrence following from. It is pure: no
// I/O, no clock access. The second return is false when the rule type is
// none/unknown, a required field is missing, or from is the zero time;
// callers treat that as "stop generating", not as an error.
func NextOccurrence(r Rule, from time.Time) (time.Time, bool) {
	if from.IsZero() {
		return time.Time{}, false
	}
	from = from.UTC()

	switch r.Type {
	case TypeDaily:
		return from.AddDate(0, 0, r.interval()), true
	case TypeWeekly:
		return nextWeekly(r, from), true
	case TypeMonthly:
		return nextMonthly(r, from), true
	case TypeMonthlyWeekday:
		if r.Weekday == nil || r.WeekOfMonth == nil {
			return time.Time{}, false
		}
		return nextMonthlyWeekday(r, from), true
	case TypeMonthlyLastDay:
		return nextMonthlyLastDay(r, from), true
	default:
		return time.Time{}, false
	}
}

func nextWeekly(r Rule, from time.Time) time.Time {
	if r.Weekday == nil {
		return from.AddDate(0, 0, 7*r.interval())
	}
	// Move to the next matching weekday strictly after from. When from
	// already sits on the target weekday the occurrence jumps a full
	// interval of weeks, never zero days.
	delta := (*r.Weekday - int(from.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7 * r.interval()
	}
	return from.AddDate(0, 0, delta)
}

func nextMonthly(r Rule, from time.Time) time.Time {
	targetDay := from.Day()
	if r.MonthDay != nil && *r.MonthDay >= 1 {
		targetDay = *r.MonthDay
	}
	// AddDate normalizes Jan 31 + 1 month to Mar 2/3, so resolve the
	// target month from the first of the month instead.
	year, month, _ := time.Date(from.Year(), from.Month()+time.Month(r.interval()), 1, 0, 0, 0, 0, time.UTC).Date()
	if last := daysInMonth(year, month); targetDay > last {
		targetDay = last
	}
	hh, mm, ss := from.Clock()
	return time.Date(year, month, targetDay, hh, mm, ss, from.Nanosecond(), time.UTC)
}

func nextMonthlyWeekday(r Rule, from time.Time) time.Time {
	year, month, _ := time.Date(from.Year(), from.Month()+time.Month(r.interval()), 1, 0, 0, 0, 0, time.UTC).Date()

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstMatch := 1 + (*r.Weekday-int(first.Weekday())+7)%7
	day := firstMatch + 7*(*r.WeekOfMonth-1)
	if day > daysInMonth(year, month) {
		// Ordinal overflowed the month (e.g. "5th Friday"); fall back to
		// the last matching weekday in it.
		day -= 7
	}
	hh, mm, ss := from.Clock()
	// Negative ordinals are not interpreted as "last": time.Date
	// normalizes an out-of-range day backward into the prior month.
	return time.Date(year, month, day, hh, mm, ss, from.Nanosecond(), time.UTC)
}

func nextMonthlyLastDay(r Rule, from time.Time) time.Time {
	year, month, _ := time.Date(from.Year(), from.Month()+time.Month(r.interval()), 1, 0, 0, 0, 0, time.UTC).Date()
	hh, mm, ss := from.Clock()
	return time.Date(year, month, daysInMonth(year, month), hh, mm, ss, from.Nanosecond(), time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// DayStart truncates t to the start of its UTC calendar day.
func DayStart(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayEnd returns the first instant of the UTC day after t's.
func DayEnd(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}
