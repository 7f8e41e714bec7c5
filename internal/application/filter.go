package application

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/example/appointments-planner/internal/persistence"
)

// SearchLimit caps every free-text result list. There is no pagination.
const SearchLimit = 20

// ResolveAppointmentFilter turns raw query values into a store filter. A
// malformed identifier leaves its predicate unset instead of failing; an
// unparseable date is a validation error.
func ResolveAppointmentFilter(raw RawAppointmentFilter) (AppointmentQuery, error) {
	query := AppointmentQuery{
		Filter: persistence.AppointmentFilter{
			PersonID:     normalizeID(raw.PersonID),
			LocationID:   normalizeID(raw.LocationID),
			PlanPeriodID: normalizeID(raw.PlanPeriodID),
		},
		Term: strings.TrimSpace(raw.Query),
	}

	vErr := &ValidationError{}
	if value := strings.TrimSpace(raw.StartDate); value != "" {
		from, err := parseISODate(value)
		if err != nil {
			vErr.add("start_date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
		} else {
			query.Filter.From = &from
		}
	}
	if value := strings.TrimSpace(raw.EndDate); value != "" {
		to, err := parseISODate(value)
		if err != nil {
			vErr.add("end_date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
		} else {
			query.Filter.To = &to
		}
	}
	if vErr.HasErrors() {
		return AppointmentQuery{}, vErr
	}
	return query, nil
}

// normalizeID returns the canonical form of a UUID, or "" when value is not one.
func normalizeID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return ""
	}
	return id.String()
}

// GuestList renders guests the way free-text search sees them. The ", "
// separator is the human-readable display form on purpose; guests are stored
// as a list, and a term spanning two names matches only across the separator.
func GuestList(guests []string) string {
	return strings.Join(guests, ", ")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// MatchAppointment reports whether term occurs, ignoring case, in the notes,
// any assigned person's first or last name, the location name or the guest list.
func MatchAppointment(appt persistence.Appointment, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	if containsFold(appt.Notes, needle) || containsFold(appt.Location.Name, needle) || containsFold(GuestList(appt.Guests), needle) {
		return true
	}
	for _, p := range appt.Persons {
		if containsFold(p.FirstName, needle) || containsFold(p.LastName, needle) {
			return true
		}
	}
	return false
}

// MatchPerson matches first name, last name or e-mail address.
func MatchPerson(person persistence.Person, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	return containsFold(person.FirstName, needle) || containsFold(person.LastName, needle) || containsFold(person.Email, needle)
}

// MatchLocation matches the name, street or city.
func MatchLocation(location persistence.Location, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	return containsFold(location.Name, needle) || containsFold(location.Address.Street, needle) || containsFold(location.Address.City, needle)
}

// MatchPlan matches the name, the notes or the plan period name.
func MatchPlan(plan persistence.Plan, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	return containsFold(plan.Name, needle) || containsFold(plan.Notes, needle) || containsFold(plan.PlanPeriod.Name, needle)
}

// filterLimited keeps the first limit items for which match holds. A limit of
// zero or less keeps every match.
func filterLimited[T any](items []T, limit int, match func(T) bool) []T {
	out := make([]T, 0, min(len(items), max(limit, 0)))
	for _, item := range items {
		if !match(item) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FilterAppointments applies the free-text term to an already ordered list and
// caps the result at SearchLimit. An empty term returns the list unchanged.
func FilterAppointments(appointments []persistence.Appointment, term string) []persistence.Appointment {
	if strings.TrimSpace(term) == "" {
		return appointments
	}
	return filterLimited(appointments, SearchLimit, func(a persistence.Appointment) bool {
		return MatchAppointment(a, term)
	})
}

// SortPersons orders persons by last name, then first name, using German collation.
func SortPersons(persons []persistence.Person) {
	c := collate.New(language.German, collate.IgnoreCase)
	sort.SliceStable(persons, func(i, j int) bool {
		if cmp := c.CompareString(persons[i].LastName, persons[j].LastName); cmp != 0 {
			return cmp < 0
		}
		return c.CompareString(persons[i].FirstName, persons[j].FirstName) < 0
	})
}

// SortLocations orders locations by name using German collation.
func SortLocations(locations []persistence.Location) {
	c := collate.New(language.German, collate.IgnoreCase)
	sort.SliceStable(locations, func(i, j int) bool {
		return c.CompareString(locations[i].Name, locations[j].Name) < 0
	})
}
