package calendar

import (
	"sort"

	"github.com/example/appointments-planner/internal/persistence"
)

// Bucket attaches each appointment to the cell of its date. Appointments outside
// the grid are ignored. Every touched day ends up ordered by start time and then
// by duration, shorter first.
func (m *Month) Bucket(appointments []persistence.Appointment) {
	touched := make(map[*Day]struct{})
	for _, appt := range appointments {
		cell := m.Day(appt.Date)
		if cell == nil {
			continue
		}
		cell.Appointments = append(cell.Appointments, appt)
		touched[cell] = struct{}{}
	}
	for cell := range touched {
		SortAppointments(cell.Appointments)
	}
}

// SortAppointments orders appointments of a single day by (start time, duration).
// Equal keys keep their input order.
func SortAppointments(appointments []persistence.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Delta < b.Delta
	})
}

// SortChronologically orders appointments across days by date, then start time and duration.
func SortChronologically(appointments []persistence.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Delta < b.Delta
	})
}
