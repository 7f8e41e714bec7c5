// Package calendar builds Monday-first month grids and places appointments on them.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/appointments-planner/internal/persistence"
)

// ErrInvalidMonth is returned when a month number is outside 1..12.
var ErrInvalidMonth = errors.New("calendar: month must be between 1 and 12")

// Direction selects how AdjustMonth moves from the current month.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionPrev  Direction = "prev"
	DirectionNext  Direction = "next"
	DirectionToday Direction = "today"
)

// Day is one cell of the month grid.
type Day struct {
	Date         time.Time
	InMonth      bool
	IsToday      bool
	IsWeekend    bool
	Holiday      string
	Appointments []persistence.Appointment
}

// Number returns the day of month.
func (d Day) Number() int {
	return d.Date.Day()
}

// Weekday returns the German weekday name.
func (d Day) Weekday() string {
	return WeekdayName(d.Date.Weekday())
}

// ISODate returns the date as yyyy-mm-dd.
func (d Day) ISODate() string {
	return d.Date.Format(ISODateLayout)
}

// Week holds exactly seven days, Monday first.
type Week struct {
	Days []Day
}

// Month is the grid for one calendar month, padded with neighbouring days to whole weeks.
type Month struct {
	Year  int
	Month time.Month
	Weeks []Week

	index map[time.Time]*Day
}

// Name returns the German month name.
func (m *Month) Name() string {
	return MonthName(m.Month)
}

// First returns the first day shown in the grid.
func (m *Month) First() time.Time {
	return m.Weeks[0].Days[0].Date
}

// Last returns the last day shown in the grid.
func (m *Month) Last() time.Time {
	week := m.Weeks[len(m.Weeks)-1]
	return week.Days[len(week.Days)-1].Date
}

// Day returns the cell for date, or nil when the date is not in the grid.
func (m *Month) Day(date time.Time) *Day {
	return m.index[DateOf(date)]
}

// Days returns the number of cells in the grid.
func (m *Month) Days() int {
	return len(m.index)
}

// ValidateMonth reports ErrInvalidMonth for numbers outside 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return nil
}

// DateOf strips the clock from t and returns midnight UTC of the same calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildMonth lays out year/month as whole Monday-to-Sunday weeks. today marks
// the cell flagged IsToday; only its calendar date is considered.
func BuildMonth(year, month int, today time.Time) (*Month, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	firstOfMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
	start := firstOfMonth.AddDate(0, 0, -mondayIndex(firstOfMonth.Weekday()))
	end := lastOfMonth.AddDate(0, 0, 6-mondayIndex(lastOfMonth.Weekday()))
	today = DateOf(today)

	grid := &Month{Year: year, Month: time.Month(month)}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 7) {
		week := Week{Days: make([]Day, 7)}
		for i := range week.Days {
			date := day.AddDate(0, 0, i)
			week.Days[i] = Day{
				Date:      date,
				InMonth:   date.Month() == time.Month(month),
				IsToday:   date.Equal(today),
				IsWeekend: date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
			}
		}
		grid.Weeks = append(grid.Weeks, week)
	}

	grid.index = make(map[time.Time]*Day, len(grid.Weeks)*7)
	for w := range grid.Weeks {
		for d := range grid.Weeks[w].Days {
			cell := &grid.Weeks[w].Days[d]
			grid.index[cell.Date] = cell
		}
	}
	return grid, nil
}

// AdjustMonth moves year/month one step in direction. DirectionToday jumps to
// the month containing today; any other direction leaves the month unchanged.
func AdjustMonth(year, month int, direction Direction, today time.Time) (int, int, error) {
	if err := ValidateMonth(month); err != nil {
		return year, month, err
	}

	switch direction {
	case DirectionPrev:
		if month == 1 {
			return year - 1, 12, nil
		}
		return year, month - 1, nil
	case DirectionNext:
		if month == 12 {
			return year + 1, 1, nil
		}
		return year, month + 1, nil
	case DirectionToday:
		return today.Year(), int(today.Month()), nil
	default:
		return year, month, nil
	}
}
