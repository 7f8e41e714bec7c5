package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the display format used for dates throughout the UI.
const DateLayout = "02.01.2006"

// ISODateLayout is the wire format for dates in URLs and JSON.
const ISODateLayout = "2006-01-02"

var monthNames = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Monday first.
var weekdayNames = [...]string{
	"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag",
}

// MonthName returns the German name of month, or an empty string when it is out of range.
func MonthName(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthNames[month-1]
}

// WeekdayName returns the German name of the weekday.
func WeekdayName(day time.Weekday) string {
	return weekdayNames[mondayIndex(day)]
}

// WeekdayNames returns the column headers of a Monday-first week.
func WeekdayNames() []string {
	out := make([]string, len(weekdayNames))
	copy(out, weekdayNames[:])
	return out
}

// FormatDate renders t as dd.mm.yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(offset time.Duration) string {
	minutes := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatDuration renders a duration as H:MM.
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func mondayIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}
