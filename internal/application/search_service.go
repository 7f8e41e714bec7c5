package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SearchService runs one free-text term across appointments, persons,
// locations and plans.
type SearchService struct {
	appointments *AppointmentService
	persons      *PersonService
	locations    *LocationService
	plans        *PlanService
	logger       *slog.Logger
}

// NewSearchService composes the per-kind services.
func NewSearchService(appointments *AppointmentService, persons *PersonService, locations *LocationService, plans *PlanService) *SearchService {
	return NewSearchServiceWithLogger(appointments, persons, locations, plans, nil)
}

// NewSearchServiceWithLogger composes the per-kind services with a specified logger.
func NewSearchServiceWithLogger(appointments *AppointmentService, persons *PersonService, locations *LocationService, plans *PlanService, logger *slog.Logger) *SearchService {
	return &SearchService{
		appointments: appointments,
		persons:      persons,
		locations:    locations,
		plans:        plans,
		logger:       defaultLogger(logger),
	}
}

// Search returns up to SearchLimit matches per kind selected by q.Type. An
// empty term returns empty results.
func (s *SearchService) Search(ctx context.Context, principal Principal, q SearchQuery) (results SearchResults, err error) {
	if s == nil {
		err = fmt.Errorf("SearchService is nil")
		return
	}
	term := strings.TrimSpace(q.Term)
	kind := ParseSearchType(string(q.Type))
	results = SearchResults{Term: term, Type: kind}

	logger := serviceLogger(ctx, s.logger, "SearchService", "Search",
		"principal", principal.Username,
		"type", string(kind),
	)
	defer func() {
		logOutcome(ctx, logger, err, "search failed", "search completed", "matches", results.Total())
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}
	if term == "" {
		return
	}

	if kind.includes(SearchAppointments) && s.appointments != nil {
		if results.Appointments, err = s.appointments.Search(ctx, principal, term); err != nil {
			return
		}
	}
	if kind.includes(SearchPersons) && s.persons != nil {
		if results.Persons, err = s.persons.Search(ctx, principal, term); err != nil {
			return
		}
	}
	if kind.includes(SearchLocations) && s.locations != nil {
		if results.Locations, err = s.locations.Search(ctx, principal, term); err != nil {
			return
		}
	}
	if kind.includes(SearchPlans) && s.plans != nil {
		if results.Plans, err = s.plans.Search(ctx, principal, term); err != nil {
			return
		}
	}
	return
}
