package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/appointments-planner/internal/persistence"
)

var postalCodePattern = regexp.MustCompile(`^[0-9]{4,5}$`)

// LocationService manages locations of work and their addresses.
type LocationService struct {
	locations    persistence.LocationRepository
	appointments AppointmentLister
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewLocationService constructs a location service with the provided dependencies.
func NewLocationService(locations persistence.LocationRepository, appointments AppointmentLister, idGenerator func() string, now func() time.Time) *LocationService {
	return NewLocationServiceWithLogger(locations, appointments, idGenerator, now, nil)
}

// NewLocationServiceWithLogger constructs a location service with a specified logger.
func NewLocationServiceWithLogger(locations persistence.LocationRepository, appointments AppointmentLister, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LocationService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &LocationService{
		locations:    locations,
		appointments: appointments,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *LocationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LocationService", operation, attrs...)
}

// List returns all locations sorted by name.
func (s *LocationService) List(ctx context.Context, principal Principal) (locations []persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	locations, err = s.locations.ListLocations(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to list locations", "error", err, "error_kind", ErrorKind(err))
		return
	}
	SortLocations(locations)
	return
}

// Get loads one location.
func (s *LocationService) Get(ctx context.Context, principal Principal, id string) (location persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	location, err = s.locations.GetLocation(ctx, id)
	err = mapRepoError(err)
	return
}

// Detail loads a location with upcoming appointments and those of the last 30 days.
func (s *LocationService) Detail(ctx context.Context, principal Principal, id string) (detail LocationDetail, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Detail", "principal", principal.Username, "location_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to load location detail", "location detail loaded",
			"upcoming", len(detail.Upcoming), "recent", len(detail.Recent))
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}
	detail.Location, err = s.locations.GetLocation(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	detail.Upcoming, detail.Recent, err = appointmentsAround(ctx, s.appointments,
		persistence.AppointmentFilter{LocationID: id}, s.now())
	return
}

// Create validates input and stores a new location with its address.
func (s *LocationService) Create(ctx context.Context, principal Principal, input LocationInput) (location persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Create", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create location", "location created", "location_id", location.ID)
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	location, err = normalizeLocation(input)
	if err != nil {
		return
	}
	location.ID = s.idGenerator()
	location.Address.ID = s.idGenerator()
	if err = mapRepoError(s.locations.CreateLocation(ctx, location)); err != nil {
		location = persistence.Location{}
	}
	return
}

// Update rewrites the name and the address of an existing location.
func (s *LocationService) Update(ctx context.Context, principal Principal, id string, input LocationInput) (location persistence.Location, err error) {
	if s == nil {
		err = fmt.Errorf("LocationService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Update", "principal", principal.Username, "location_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update location", "location updated")
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	var existing persistence.Location
	existing, err = s.locations.GetLocation(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	location, err = normalizeLocation(input)
	if err != nil {
		return
	}
	location.ID = existing.ID
	location.Address.ID = existing.Address.ID
	err = mapRepoError(s.locations.UpdateLocation(ctx, location))
	return
}

// Delete removes a location. It fails with ErrConflict while appointments use it.
func (s *LocationService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("LocationService is nil")
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Username, "location_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete location", "location deleted")
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	err = mapRepoError(s.locations.DeleteLocation(ctx, id))
	return
}

// Search returns at most SearchLimit locations matching term by name, street or city.
func (s *LocationService) Search(ctx context.Context, principal Principal, term string) ([]persistence.Location, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	locations, err := s.List(ctx, principal)
	if err != nil {
		return nil, err
	}
	return filterLimited(locations, SearchLimit, func(l persistence.Location) bool {
		return MatchLocation(l, term)
	}), nil
}

func normalizeLocation(input LocationInput) (persistence.Location, error) {
	location := persistence.Location{
		Name: strings.TrimSpace(input.Name),
		Address: persistence.Address{
			Street:     strings.TrimSpace(input.Address.Street),
			PostalCode: strings.TrimSpace(input.Address.PostalCode),
			City:       strings.TrimSpace(input.Address.City),
		},
	}

	vErr := &ValidationError{}
	requireName(vErr, "name", location.Name, "Name")
	requireName(vErr, "street", location.Address.Street, "Straße")
	requireName(vErr, "city", location.Address.City, "Ort")
	if !postalCodePattern.MatchString(location.Address.PostalCode) {
		vErr.add("postal_code", "Die Postleitzahl muss aus 4 oder 5 Ziffern bestehen.")
	}
	if vErr.HasErrors() {
		return persistence.Location{}, vErr
	}
	return location, nil
}
