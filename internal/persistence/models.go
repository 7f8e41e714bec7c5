package persistence

import (
	"strings"
	"time"
)

// Address is the postal address of a location of work.
type Address struct {
	ID         string
	Street     string
	PostalCode string
	City       string
}

// String renders the address on one line.
func (a Address) String() string {
	return strings.TrimSpace(a.Street + ", " + strings.TrimSpace(a.PostalCode+" "+a.City))
}

// Location is a place where appointments happen.
type Location struct {
	ID      string
	Name    string
	Address Address
}

// Person is someone who can be assigned to appointments.
type Person struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PlanPeriod bounds the dates of the appointments and plans that belong to it.
type PlanPeriod struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// Contains reports whether date lies within the period, both ends inclusive.
func (p PlanPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Appointment is a scheduled slot at a location. Date is a calendar date at
// midnight UTC, StartTime the offset from midnight and Delta the duration.
type Appointment struct {
	ID         string
	PlanPeriod PlanPeriod
	Date       time.Time
	StartTime  time.Duration
	Delta      time.Duration
	Location   Location
	Persons    []Person
	Guests     []string
	Notes      string
}

// Start returns the instant the appointment begins.
func (a Appointment) Start() time.Time {
	return a.Date.Add(a.StartTime)
}

// End returns the instant the appointment ends.
func (a Appointment) End() time.Time {
	return a.Start().Add(a.Delta)
}

// PersonIDs lists the identifiers of the assigned persons.
func (a Appointment) PersonIDs() []string {
	ids := make([]string, 0, len(a.Persons))
	for _, p := range a.Persons {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasPerson reports whether the person with id is assigned.
func (a Appointment) HasPerson(id string) bool {
	for _, p := range a.Persons {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Plan groups appointments of one plan period.
type Plan struct {
	ID           string
	Name         string
	Notes        string
	PlanPeriod   PlanPeriod
	Appointments []Appointment
}

// User is a login account, optionally linked to a person.
type User struct {
	Username     string
	PasswordHash string
	PersonID     string
	Role         string
	Disabled     bool
}
