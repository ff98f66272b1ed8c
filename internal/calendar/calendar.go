// Package calendar holds the pure date math behind calendar views. Nothing
// here touches storage or timestamps; all values are date-only.
package calendar

import (
	"worktracker/internal/model"
)

type Mode string

const (
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

func ValidMode(m string) bool {
	return Mode(m) == ModeWeek || Mode(m) == ModeMonth
}

// Range is an inclusive span of calendar dates.
type Range struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d model.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Dates expands the range into its individual days, in order.
func (r Range) Dates() []model.Date {
	n := r.Start.DaysBetween(r.End) + 1
	if n <= 0 {
		return nil
	}
	dates := make([]model.Date, 0, n)
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// Cell is one slot of a month grid. Leading blanks before the first of the
// month carry no date.
type Cell struct {
	Day  int         `json:"day"`
	Date *model.Date `json:"date,omitempty"`
}

// WeekRange returns the Sunday-to-Saturday week containing ref.
func WeekRange(ref model.Date) Range {
	start := ref.AddDays(-ref.Weekday())
	return Range{Start: start, End: start.AddDays(6)}
}

// MonthRange returns the first-to-last day span of ref's month.
func MonthRange(ref model.Date) Range {
	first := model.NewDate(ref.Year, ref.Month, 1)
	last := first.AddMonths(1).AddDays(-1)
	return Range{Start: first, End: last}
}

// RangeFor resolves a reference date and view mode into the query range.
func RangeFor(ref model.Date, mode Mode) Range {
	if mode == ModeWeek {
		return WeekRange(ref)
	}
	return MonthRange(ref)
}

// MonthGrid lays out ref's month as leading blanks followed by the days of
// the month. The blank count equals the weekday index of the first (Sunday
// is 0), so the grid always starts on a Sunday column.
func MonthGrid(ref model.Date) []Cell {
	r := MonthRange(ref)
	blanks := r.Start.Weekday()
	days := r.Start.DaysBetween(r.End) + 1

	grid := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		grid = append(grid, Cell{})
	}
	for day := 1; day <= days; day++ {
		d := model.NewDate(ref.Year, ref.Month, day)
		grid = append(grid, Cell{Day: day, Date: &d})
	}
	return grid
}

// Navigate moves the reference date forward or backward by one view page:
// seven days in week mode, one month in month mode. The day-of-month is
// preserved where valid and clamped to the target month's last day where not
// (Jan 31 back one month is Dec 31, forward one month is Feb 28/29).
func Navigate(ref model.Date, mode Mode, delta int) model.Date {
	if mode == ModeWeek {
		return ref.AddDays(7 * delta)
	}
	first := model.NewDate(ref.Year, ref.Month, 1).AddMonths(delta)
	last := first.AddMonths(1).AddDays(-1)
	day := ref.Day
	if day > last.Day {
		day = last.Day
	}
	return model.NewDate(first.Year, first.Month, day)
}
