// Package ics exports appointments as iCalendar feeds.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/appointments-planner/internal/persistence"
)

const productID = "-//appointments-planner//Terminplanung//DE"

// Exporter renders appointment lists into VCALENDAR documents.
type Exporter struct {
	location *time.Location
	now      func() time.Time
}

// NewExporter returns an exporter that interprets appointment dates and start
// times in loc. A nil loc means UTC.
func NewExporter(loc *time.Location, now func() time.Time) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Exporter{location: loc, now: now}
}

// Start returns the wall clock start of appt in the exporter's location.
func (e *Exporter) Start(appt persistence.Appointment) time.Time {
	y, m, d := appt.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.location).Add(appt.StartTime)
}

// Write serializes appointments as one calendar named name.
func (e *Exporter) Write(w io.Writer, name string, appointments []persistence.Appointment) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, appt := range appointments {
		start := e.Start(appt)
		event := cal.AddEvent(appt.ID + "@appointments-planner")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(appt.Delta))
		event.SetSummary(Summary(appt))
		event.SetLocation(Where(appt.Location))
		if desc := description(appt); desc != "" {
			event.SetDescription(desc)
		}
		for _, p := range appt.Persons {
			if p.Email != "" {
				event.AddAttendee("mailto:"+p.Email, ical.WithCN(p.FullName()))
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("ics: serialize %q: %w", name, err)
	}
	return nil
}

// Summary is the event title: the location name followed by the assigned persons.
func Summary(appt persistence.Appointment) string {
	names := make([]string, 0, len(appt.Persons))
	for _, p := range appt.Persons {
		names = append(names, p.FullName())
	}
	if len(names) == 0 {
		return appt.Location.Name
	}
	return appt.Location.Name + ": " + strings.Join(names, ", ")
}

// Where formats a location as "Name, Street, PostalCode City".
func Where(loc persistence.Location) string {
	parts := []string{loc.Name}
	if loc.Address.Street != "" {
		parts = append(parts, loc.Address.Street)
	}
	if city := strings.TrimSpace(loc.Address.PostalCode + " " + loc.Address.City); city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

func description(appt persistence.Appointment) string {
	var lines []string
	if len(appt.Guests) > 0 {
		lines = append(lines, "Gäste: "+strings.Join(appt.Guests, ", "))
	}
	if appt.Notes != "" {
		lines = append(lines, appt.Notes)
	}
	return strings.Join(lines, "\n")
}
