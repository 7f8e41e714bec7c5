package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/auth"
)

func TestRouterHealthAndFallbacks(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	token := s.account(t, "erika", auth.RoleEmployee)

	rec := s.api(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.api(t, http.MethodGet, "/api/unknown", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[errorResponse](t, rec).ErrorCode)

	rec = s.page("/gibt-es-nicht", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Fehler 404")
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("token endpoint issues bearer tokens", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.account(t, "erika", auth.RoleEmployee)

		rec := s.form("/auth/token", url.Values{"username": {"erika"}, "password": {testPassword}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody[tokenResponse](t, rec)
		assert.Equal(t, "bearer", body.TokenType)
		assert.Equal(t, "2024-03-14T10:30:00Z", body.ExpiresAt)

		me := s.api(t, http.MethodGet, "/auth/me", body.AccessToken, nil)
		require.Equal(t, http.StatusOK, me.Code)
		principal := decodeBody[principalResponse](t, me)
		assert.Equal(t, "erika", principal.Username)
		assert.Equal(t, "employee", principal.Role)
		assert.Equal(t, "Mitarbeiter", principal.RoleLabel)
	})

	t.Run("bad credentials are 401 with a bearer challenge", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.account(t, "erika", auth.RoleEmployee)

		rec := s.form("/auth/token", url.Values{"username": {"erika"}, "password": {"falsch-falsch"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", body.ErrorCode)
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	})

	t.Run("disabled accounts lose their live tokens", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		token := s.account(t, "erika", auth.RoleEmployee)
		_, err := s.users.SetDisabled(context.Background(), root, "erika", true)
		require.NoError(t, err)

		rec := s.api(t, http.MethodGet, "/auth/me", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_REQUIRED", decodeBody[errorResponse](t, rec).ErrorCode)

		rec = s.form("/auth/token", url.Values{"username": {"erika"}, "password": {testPassword}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("web login sets the cookie", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.account(t, "erika", auth.RoleEmployee)

		rec := s.form("/auth/web-token", url.Values{"username": {"erika"}, "password": {testPassword}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "loginSuccess", rec.Header().Get("HX-Trigger"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.Contains(t, rec.Body.String(), "Angemeldet als erika")

		page := s.page("/plans", cookies[0].Value)
		assert.Equal(t, http.StatusOK, page.Code)
	})

	t.Run("web login failure renders an inline message", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)

		rec := s.form("/auth/web-token", url.Values{"username": {"niemand"}, "password": {"irgendwas"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
		assert.Contains(t, rec.Body.String(), "Ungültiger Benutzername oder Passwort")
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)

		rec := s.page("/auth/logout", "")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)

		req := httptestRequest(http.MethodPost, "/auth/logout")
		req.Header.Set("HX-Request", "true")
		rec = s.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
	})

	t.Run("register requires an administrator", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		adminToken := s.account(t, "anna", auth.RoleAdmin)
		employeeToken := s.account(t, "erika", auth.RoleEmployee)
		payload := registerRequest{Username: "dieter", Password: testPassword, Role: "dispatcher"}

		rec := s.api(t, http.MethodPost, "/auth/register", employeeToken, payload)
		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "AUTH_FORBIDDEN", body.ErrorCode)
		assert.Contains(t, body.Message, "Administrator")

		rec = s.api(t, http.MethodPost, "/auth/register", adminToken, payload)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		user := decodeBody[userDTO](t, rec)
		assert.Equal(t, "dieter", user.Username)
		assert.Equal(t, "Disponent", user.RoleLabel)

		rec = s.api(t, http.MethodPost, "/auth/register", adminToken, payload)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAPIAuthorization(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	guestToken := s.account(t, "gast", auth.RoleGuest)
	employeeToken := s.account(t, "erika", auth.RoleEmployee)

	rec := s.api(t, http.MethodGet, "/api/appointments", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.api(t, http.MethodGet, "/api/appointments", "kein.gueltiges.token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/appointments", guestToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))

	rec = s.api(t, http.MethodDelete, "/api/appointments/"+w.appointment.ID, employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.api(t, http.MethodDelete, "/api/persons/"+w.person.ID, employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAppointmentAPI(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	dispatcherToken := s.account(t, "dieter", auth.RoleDispatcher)

	create := appointmentRequest{
		PlanPeriodID: w.period.ID,
		LocationID:   w.location.ID,
		Date:         "2024-03-14",
		StartTime:    "08:00",
		Delta:        "0:45",
		PersonIDs:    []string{w.person.ID},
		Notes:        "Übergabe",
	}
	rec := s.api(t, http.MethodPost, "/api/appointments", dispatcherToken, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[appointmentDTO](t, rec)
	assert.Equal(t, "08:00", created.StartTime)
	assert.Equal(t, "0:45", created.Delta)
	assert.Equal(t, "Haus Sonnenschein", created.Location.Name)
	require.Len(t, created.Persons, 1)
	assert.Equal(t, "Anna Albers", created.Persons[0].FullName)

	t.Run("by date is in display order", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/appointments/by-date/2024-03-14", dispatcherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeBody[[]appointmentDTO](t, rec)
		require.Len(t, list, 2)
		assert.Equal(t, created.ID, list[0].ID)
		assert.Equal(t, w.appointment.ID, list[1].ID)
	})

	t.Run("by month validates the month", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/appointments/by-month/2024/3", dispatcherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]appointmentDTO](t, rec), 2)

		rec = s.api(t, http.MethodGet, "/api/appointments/by-month/2024/13", dispatcherToken, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorResponse](t, rec).Errors, "month")

		rec = s.api(t, http.MethodGet, "/api/appointments/by-month/2024/mai", dispatcherToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list honours filters and the guest list", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/appointments?q=KOWALSKI", dispatcherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeBody[[]appointmentDTO](t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, w.appointment.ID, list[0].ID)

		rec = s.api(t, http.MethodGet, "/api/appointments?person_id=kaputt&start_date=2024-03-15", dispatcherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]appointmentDTO](t, rec))
	})

	t.Run("validation errors carry field messages", func(t *testing.T) {
		bad := create
		bad.Delta = "0:00"
		bad.Date = "2024-04-02"
		rec := s.api(t, http.MethodPost, "/api/appointments", dispatcherToken, bad)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body.ErrorCode)
		assert.Contains(t, body.Errors, "delta")
		assert.Contains(t, body.Errors, "date")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := s.api(t, http.MethodPost, "/api/appointments", dispatcherToken, map[string]any{"farbe": "rot"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeBody[errorResponse](t, rec).ErrorCode)
	})

	t.Run("update and delete", func(t *testing.T) {
		update := create
		update.StartTime = "10:15"
		rec := s.api(t, http.MethodPut, "/api/appointments/"+created.ID, dispatcherToken, update)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "10:15", decodeBody[appointmentDTO](t, rec).StartTime)

		rec = s.api(t, http.MethodDelete, "/api/appointments/"+created.ID, dispatcherToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())

		rec = s.api(t, http.MethodGet, "/api/appointments/"+created.ID, dispatcherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDirectoryAndPlanAPI(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	adminToken := s.account(t, "anna", auth.RoleAdmin)

	rec := s.api(t, http.MethodPost, "/api/persons", adminToken, personRequest{FirstName: "Bernd", LastName: "Brandt", Email: "Bernd@Example.org"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bernd := decodeBody[personDTO](t, rec)
	assert.Equal(t, "bernd@example.org", bernd.Email)

	rec = s.api(t, http.MethodGet, "/api/persons", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	persons := decodeBody[[]personDTO](t, rec)
	require.Len(t, persons, 2)
	assert.Equal(t, "Albers", persons[0].LastName)

	rec = s.api(t, http.MethodDelete, "/api/persons/"+w.person.ID, adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeBody[errorResponse](t, rec).ErrorCode)

	rec = s.api(t, http.MethodPost, "/api/locations", adminToken, locationRequest{
		Name:    "Am Deich",
		Address: addressDTO{Street: "Deichstraße 2", PostalCode: "abc", City: "Husum"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Errors, "postal_code")

	rec = s.api(t, http.MethodGet, "/api/locations/"+w.location.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	location := decodeBody[locationDTO](t, rec)
	assert.Equal(t, "Hamburg", location.Address.City)
	assert.NotEmpty(t, location.Color)

	rec = s.api(t, http.MethodPost, "/api/plans", adminToken, planRequest{
		Name:           "Frühschicht",
		PlanPeriodID:   w.period.ID,
		AppointmentIDs: []string{w.appointment.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := decodeBody[planDTO](t, rec)
	require.Len(t, plan.Appointments, 1)

	rec = s.api(t, http.MethodGet, "/api/plans?plan_period_id="+w.period.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]planDTO](t, rec), 1)

	rec = s.api(t, http.MethodGet, "/api/plan-periods", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	periods := decodeBody[[]planPeriodDTO](t, rec)
	require.Len(t, periods, 1)
	assert.Equal(t, "2024-03-01", periods[0].StartDate)

	rec = s.api(t, http.MethodDelete, "/api/plan-periods/"+w.period.ID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCalendarSearchAndExportAPI(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	token := s.account(t, "erika", auth.RoleEmployee)

	t.Run("month grid", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/calendar/2024/3?person_id="+w.person.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		month := decodeBody[monthDTO](t, rec)
		assert.Equal(t, "März", month.MonthName)
		assert.Equal(t, "2024-03-14", month.Today)
		require.Len(t, month.Weeks, 5)
		assert.Equal(t, "2024-02-26", month.Weeks[0][0].Date)
		assert.Equal(t, "2024-03-31", month.Weeks[4][6].Date)
		require.NotNil(t, month.ActiveFilters.Person)
		assert.Equal(t, "Anna Albers", month.ActiveFilters.Person.Name)

		thursday := month.Weeks[2][3]
		assert.Equal(t, "2024-03-14", thursday.Date)
		assert.True(t, thursday.IsToday)
		require.Len(t, thursday.Appointments, 1)
		assert.Equal(t, w.appointment.ID, thursday.Appointments[0].ID)

		friday := month.Weeks[4][4]
		assert.Equal(t, "Karfreitag", friday.Holiday)

		rec = s.api(t, http.MethodGet, "/api/calendar/2024/13", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("month grid rejects an explicit zero", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/calendar/2024/0", token, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body.ErrorCode)
		assert.Contains(t, body.Errors, "month")

		rec = s.api(t, http.MethodGet, "/api/calendar/0/0", token, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body = decodeBody[errorResponse](t, rec)
		assert.Contains(t, body.Errors, "year")
		assert.Contains(t, body.Errors, "month")

		rec = s.api(t, http.MethodGet, "/api/appointments/by-month/2024/0", token, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorResponse](t, rec).Errors, "month")
	})

	t.Run("search", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/search?q=alb", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		results := decodeBody[searchDTO](t, rec)
		assert.Equal(t, "all", results.Type)
		require.Len(t, results.Persons, 1)
		assert.Len(t, results.Appointments, 1)
		assert.Equal(t, 2, results.Total)

		rec = s.api(t, http.MethodGet, "/api/search?q=alb&type=persons", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		results = decodeBody[searchDTO](t, rec)
		assert.Equal(t, 1, results.Total)
		assert.Empty(t, results.Appointments)
	})

	t.Run("iCalendar feeds", func(t *testing.T) {
		rec := s.api(t, http.MethodGet, "/api/persons/"+w.person.ID+"/calendar.ics", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "person-"+w.person.ID+".ics")
		body := rec.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, w.appointment.ID+"@appointments-planner")

		rec = s.api(t, http.MethodGet, "/api/locations/"+w.location.ID+"/calendar.ics", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Haus Sonnenschein")

		rec = s.api(t, http.MethodGet, "/api/locations/"+uuid.NewString()+"/calendar.ics", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserAdministrationAPI(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.account(t, "anna", auth.RoleAdmin)
	s.account(t, "erika", auth.RoleEmployee)

	rec := s.api(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody[[]userDTO](t, rec)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)

	rec = s.api(t, http.MethodPut, "/api/users/erika/disabled", adminToken, disabledRequest{Disabled: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[userDTO](t, rec).Disabled)

	rec = s.api(t, http.MethodPut, "/api/users/niemand/disabled", adminToken, disabledRequest{Disabled: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebPages(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	token := s.account(t, "erika", auth.RoleEmployee)
	guestToken := s.account(t, "gast", auth.RoleGuest)

	t.Run("index prompts anonymous visitors to log in", func(t *testing.T) {
		rec := s.page("/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Mitarbeiter")
		assert.Contains(t, rec.Body.String(), "/hx/login-form?required_role=employee")
		assert.NotContains(t, rec.Body.String(), `class="calendar"`)
	})

	t.Run("index renders the month for employees", func(t *testing.T) {
		rec := s.page("/?year=2024&month=3&direction=next", token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "April 2024")
		assert.Contains(t, body, "Anna")
		assert.Contains(t, body, "erika (Mitarbeiter)")
	})

	t.Run("index rejects an explicit zero month", func(t *testing.T) {
		rec := s.page("/?year=2024&month=0", token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = s.page("/?month=0", token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = s.page("/?year=2024&month=", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("protected pages without cookie show the login prompt", func(t *testing.T) {
		rec := s.page("/plans", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "Mitarbeiter")
		assert.Contains(t, rec.Body.String(), "required_role=employee")
	})

	t.Run("guests are forbidden", func(t *testing.T) {
		rec := s.page("/persons", guestToken)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Fehler 403")
	})

	pages := []struct {
		target string
		want   string
	}{
		{"/plans", "März 2024"},
		{"/locations", "Haus Sonnenschein"},
		{"/locations/" + w.location.ID, "Lindenweg 4"},
		{"/persons", "Albers"},
		{"/persons/" + w.person.ID, "Frühdienst"},
		{"/search?q=kowalski", "1 Treffer"},
		{"/search", "Suchbegriff"},
	}
	for _, tc := range pages {
		t.Run(tc.target, func(t *testing.T) {
			rec := s.page(tc.target, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}

	t.Run("missing records render a 404 page", func(t *testing.T) {
		rec := s.page("/plans/"+uuid.NewString(), token)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "nicht gefunden")
	})
}

func TestFragments(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	w := s.seedWorld(t)
	token := s.account(t, "erika", auth.RoleEmployee)
	guestToken := s.account(t, "gast", auth.RoleGuest)

	t.Run("anonymous requests get a login trigger", func(t *testing.T) {
		rec := s.page("/hx/calendar-partial", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var trigger struct {
			ShowMessage struct {
				Level  string `json:"level"`
				Status int    `json:"status"`
			} `json:"showMessage"`
			ShowLogin struct {
				RequiredRole string `json:"requiredRole"`
			} `json:"showLogin"`
		}
		require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
		assert.Equal(t, "error", trigger.ShowMessage.Level)
		assert.Equal(t, http.StatusUnauthorized, trigger.ShowMessage.Status)
		assert.Equal(t, "employee", trigger.ShowLogin.RequiredRole)
		assert.Contains(t, rec.Body.String(), `role="alert"`)
	})

	t.Run("forbidden trigger stays ASCII", func(t *testing.T) {
		rec := s.page("/hx/day-view/2024-03-14", guestToken)
		require.Equal(t, http.StatusOK, rec.Code)
		header := rec.Header().Get("HX-Trigger")
		assert.Contains(t, header, `\u00fc`)
		assert.NotContains(t, header, "ü")
		var trigger struct {
			ShowMessage struct {
				Message string `json:"message"`
			} `json:"showMessage"`
		}
		require.NoError(t, json.Unmarshal([]byte(header), &trigger))
		assert.Contains(t, trigger.ShowMessage.Message, "Für diese Aktion")
	})

	t.Run("calendar partial navigates", func(t *testing.T) {
		rec := s.page("/hx/calendar-partial?year=2024&month=1&direction=prev", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Dezember 2023")
		assert.NotContains(t, rec.Body.String(), "<html")
	})

	t.Run("day view", func(t *testing.T) {
		rec := s.page("/hx/day-view/2024-03-14", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Donnerstag, 14.03.2024")
		assert.Contains(t, rec.Body.String(), "Haus Sonnenschein")

		rec = s.page("/hx/day-view/14.03.2024", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("HX-Trigger"), `"status":422`)
	})

	t.Run("appointment detail", func(t *testing.T) {
		rec := s.page("/hx/appointments/"+w.appointment.ID+"/detail", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Frau Kowalski")
		assert.Contains(t, rec.Body.String(), "Anna Albers")
	})

	t.Run("public fragments", func(t *testing.T) {
		rec := s.page("/hx/close-modal", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, strings.TrimSpace(rec.Body.String()))

		rec = s.page("/hx/login-form?required_role=dispatcher", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Disponent")
		assert.Contains(t, rec.Body.String(), `hx-post="/auth/web-token"`)
	})
}
