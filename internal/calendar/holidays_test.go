package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolidaysFollowEaster(t *testing.T) {
	h := NewHolidays()

	cases := []struct {
		date time.Time
		want string
	}{
		{date(2025, time.April, 18), "Karfreitag"},
		{date(2025, time.April, 21), "Ostermontag"},
		{date(2025, time.May, 29), "Christi Himmelfahrt"},
		{date(2025, time.June, 9), "Pfingstmontag"},
		{date(2019, time.April, 19), "Karfreitag"},
		{date(2019, time.April, 22), "Ostermontag"},
	}
	for _, tc := range cases {
		name, ok := h.Name(tc.date)
		assert.True(t, ok, tc.date.Format(ISODateLayout))
		assert.Equal(t, tc.want, name)
	}

	// regional holidays are not part of the nationwide set
	_, ok := h.Name(date(2024, time.May, 30))
	assert.False(t, ok, "Fronleichnam")
	_, ok = h.Name(date(2024, time.October, 31))
	assert.False(t, ok, "Reformationstag")
}

func TestHolidaysName(t *testing.T) {
	h := NewHolidays()

	cases := map[time.Time]string{
		date(2024, time.January, 1):   "Neujahr",
		date(2024, time.March, 29):    "Karfreitag",
		date(2024, time.April, 1):     "Ostermontag",
		date(2024, time.May, 9):       "Christi Himmelfahrt",
		date(2024, time.May, 20):      "Pfingstmontag",
		date(2024, time.October, 3):   "Tag der Deutschen Einheit",
		date(2024, time.December, 25): "1. Weihnachtstag",
		date(2024, time.December, 26): "2. Weihnachtstag",
	}
	for d, want := range cases {
		name, ok := h.Name(d)
		assert.True(t, ok, d.Format(ISODateLayout))
		assert.Equal(t, want, name)
	}

	_, ok := h.Name(date(2024, time.March, 28))
	assert.False(t, ok)
	_, ok = h.Name(date(1985, time.October, 3))
	assert.False(t, ok)
}

func TestHolidaysExtraAndWorkdays(t *testing.T) {
	h := NewHolidays(
		Holiday{Name: "Reformationstag", Month: 10, Day: 31},
		Holiday{Name: "ungültig", Month: 13, Day: 1},
	)
	name, ok := h.Name(date(2024, time.October, 31))
	assert.True(t, ok)
	assert.Equal(t, "Reformationstag", name)

	assert.False(t, h.IsWorkday(date(2024, time.March, 30)), "saturday")
	assert.False(t, h.IsWorkday(date(2024, time.March, 29)), "good friday")
	assert.True(t, h.IsWorkday(date(2024, time.March, 28)))

	var none *Holidays
	assert.True(t, none.IsWorkday(date(2024, time.March, 30)))
}

func TestMarkHolidays(t *testing.T) {
	grid, err := BuildMonth(2024, 3, date(2024, time.March, 1))
	require.NoError(t, err)
	grid.MarkHolidays(NewHolidays())

	assert.Equal(t, "Karfreitag", grid.Day(date(2024, time.March, 29)).Holiday)
	assert.Empty(t, grid.Day(date(2024, time.March, 28)).Holiday)

	december, err := BuildMonth(2024, 12, date(2024, time.December, 1))
	require.NoError(t, err)
	december.MarkHolidays(NewHolidays())
	// padding day of the following year
	assert.Equal(t, "Neujahr", december.Day(date(2025, time.January, 1)).Holiday)
}

func TestLocationColor(t *testing.T) {
	first := LocationColor("Zentrale")
	assert.Equal(t, first, LocationColor("Zentrale"))
	assert.Contains(t, locationPalette[:], first)
	assert.Contains(t, locationPalette[:], LocationColor(""))
	assert.Contains(t, locationPalette[:], LocationColor("Ein sehr langer Standortname mit Umlauten äöü"))
}
