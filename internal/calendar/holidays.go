package calendar

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
)

// Holiday is an additional yearly public holiday on a fixed date.
type Holiday struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Month int    `mapstructure:"month" yaml:"month"`
	Day   int    `mapstructure:"day" yaml:"day"`
}

// Holidays answers whether a date is a public holiday or a non-working day.
type Holidays struct {
	bc *cal.BusinessCalendar
}

// NewHolidays returns a calendar of German nationwide public holidays plus extra.
// Weekends are not workdays.
func NewHolidays(extra ...Holiday) *Holidays {
	bc := cal.NewBusinessCalendar()
	bc.SetWorkday(time.Saturday, false)
	bc.SetWorkday(time.Sunday, false)

	for _, h := range de.Holidays {
		if o, ok := holidayOverrides[h]; ok {
			h = h.Clone(o)
		}
		bc.AddHoliday(h)
	}
	for _, h := range extra {
		if h.Month < 1 || h.Month > 12 || h.Day < 1 || h.Day > 31 || h.Name == "" {
			continue
		}
		bc.AddHoliday(&cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: time.Month(h.Month),
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		})
	}
	return &Holidays{bc: bc}
}

// Name returns the holiday name for date, if any.
func (h *Holidays) Name(date time.Time) (string, bool) {
	if h == nil || h.bc == nil {
		return "", false
	}
	actual, _, holiday := h.bc.IsHoliday(date)
	if !actual || holiday == nil {
		return "", false
	}
	return holiday.Name, true
}

// IsWorkday reports whether date is neither a weekend day nor a holiday.
func (h *Holidays) IsWorkday(date time.Time) bool {
	if h == nil || h.bc == nil {
		return true
	}
	return h.bc.IsWorkday(date)
}

// MarkHolidays fills Day.Holiday for every cell that falls on a holiday.
func (m *Month) MarkHolidays(h *Holidays) {
	if h == nil {
		return
	}
	for _, cell := range m.index {
		if name, ok := h.Name(cell.Date); ok {
			cell.Holiday = name
		}
	}
}

// holidayOverrides keeps the short labels shown in the calendar grid.
var holidayOverrides = map[*cal.Holiday]*cal.Holiday{
	de.Neujahr:                   {Name: "Neujahr"},
	de.Weihnachtstag:             {Name: "1. Weihnachtstag"},
	de.ZweiterWeihnachtsfeiertag: {Name: "2. Weihnachtstag"},
	de.DeutschenEinheit:          {StartYear: 1990},
}
