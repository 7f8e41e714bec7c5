package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/appointments-planner/internal/persistence"
)

const maxNameLength = 100

// PersonService manages the persons that appointments are assigned to.
type PersonService struct {
	persons      persistence.PersonRepository
	appointments AppointmentLister
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewPersonService constructs a person service with the provided dependencies.
func NewPersonService(persons persistence.PersonRepository, appointments AppointmentLister, idGenerator func() string, now func() time.Time) *PersonService {
	return NewPersonServiceWithLogger(persons, appointments, idGenerator, now, nil)
}

// NewPersonServiceWithLogger constructs a person service with a specified logger.
func NewPersonServiceWithLogger(persons persistence.PersonRepository, appointments AppointmentLister, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PersonService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &PersonService{
		persons:      persons,
		appointments: appointments,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *PersonService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PersonService", operation, attrs...)
}

// List returns all persons sorted by last and first name.
func (s *PersonService) List(ctx context.Context, principal Principal) (persons []persistence.Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	persons, err = s.persons.ListPersons(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to list persons", "error", err, "error_kind", ErrorKind(err))
		return
	}
	SortPersons(persons)
	return
}

// Get loads one person.
func (s *PersonService) Get(ctx context.Context, principal Principal, id string) (person persistence.Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	person, err = s.persons.GetPerson(ctx, id)
	err = mapRepoError(err)
	return
}

// Detail loads a person with upcoming appointments and those of the last 30 days.
func (s *PersonService) Detail(ctx context.Context, principal Principal, id string) (detail PersonDetail, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Detail", "principal", principal.Username, "person_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to load person detail", "person detail loaded",
			"upcoming", len(detail.Upcoming), "recent", len(detail.Recent))
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}
	detail.Person, err = s.persons.GetPerson(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	detail.Upcoming, detail.Recent, err = appointmentsAround(ctx, s.appointments,
		persistence.AppointmentFilter{PersonID: id}, s.now())
	return
}

// Create validates input and stores a new person.
func (s *PersonService) Create(ctx context.Context, principal Principal, input PersonInput) (person persistence.Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Create", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create person", "person created", "person_id", person.ID)
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	person, err = normalizePerson(input)
	if err != nil {
		return
	}
	person.ID = s.idGenerator()
	if err = mapRepoError(s.persons.CreatePerson(ctx, person)); err != nil {
		person = persistence.Person{}
		return
	}
	return
}

// Update replaces every field of an existing person.
func (s *PersonService) Update(ctx context.Context, principal Principal, id string, input PersonInput) (person persistence.Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Update", "principal", principal.Username, "person_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update person", "person updated")
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	if _, err = s.persons.GetPerson(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	person, err = normalizePerson(input)
	if err != nil {
		return
	}
	person.ID = id
	err = mapRepoError(s.persons.UpdatePerson(ctx, person))
	return
}

// Delete removes a person. It fails with ErrConflict while appointments reference the person.
func (s *PersonService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("PersonService is nil")
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Username, "person_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete person", "person deleted")
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	err = mapRepoError(s.persons.DeletePerson(ctx, id))
	return
}

// Search returns at most SearchLimit persons matching term by name or e-mail.
func (s *PersonService) Search(ctx context.Context, principal Principal, term string) ([]persistence.Person, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	persons, err := s.List(ctx, principal)
	if err != nil {
		return nil, err
	}
	return filterLimited(persons, SearchLimit, func(p persistence.Person) bool {
		return MatchPerson(p, term)
	}), nil
}

func normalizePerson(input PersonInput) (persistence.Person, error) {
	person := persistence.Person{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
	}

	vErr := &ValidationError{}
	requireName(vErr, "first_name", person.FirstName, "Vorname")
	requireName(vErr, "last_name", person.LastName, "Nachname")
	if person.Email != "" {
		if addr, err := mail.ParseAddress(person.Email); err != nil || addr.Address != person.Email {
			vErr.add("email", "Ungültige E-Mail-Adresse.")
		}
	}
	if vErr.HasErrors() {
		return persistence.Person{}, vErr
	}
	return person, nil
}

func requireName(vErr *ValidationError, field, value, label string) {
	switch {
	case value == "":
		vErr.add(field, label+" ist erforderlich.")
	case len([]rune(value)) > maxNameLength:
		vErr.add(field, fmt.Sprintf("%s darf höchstens %d Zeichen lang sein.", label, maxNameLength))
	}
}
