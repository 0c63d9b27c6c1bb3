package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/auth"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository/sqlite"
	"github.com/sakif/guestlist/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// api routes requests to real handlers over a real store. The caller is
// taken from the X-User header instead of a JWT.
type api struct {
	router http.Handler
	store  *sqlite.DB
	owner  string
	other  string
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	owner := &model.User{GitHubID: 1, Login: "u1", DisplayName: "U1"}
	other := &model.User{GitHubID: 2, Login: "u2", DisplayName: "U2"}
	require.NoError(t, store.Upsert(context.Background(), owner))
	require.NoError(t, store.Upsert(context.Background(), other))

	logger := testLogger()
	events := NewEventHandler(
		service.NewEventService(store, store, logger),
		service.NewStatsService(store, store, time.UTC, logger),
		logger,
	)
	ticketTypes := NewTicketTypeHandler(service.NewTicketTypeService(store, store, logger), logger)
	guests := NewGuestHandler(service.NewGuestService(store, store, nil, logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUserID(req.Context(), req.Header.Get("X-User"))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/events", events.HandleList)
	r.Post("/events", events.HandleCreate)
	r.Get("/events/{eventId}", events.HandleGet)
	r.Put("/events/{eventId}", events.HandleUpdate)
	r.Get("/events/{eventId}/stats", events.HandleStats)
	r.Post("/events/{eventId}/ticket-types", ticketTypes.HandleCreate)
	r.Get("/events/{eventId}/ticket-types", ticketTypes.HandleList)
	r.Delete("/ticket-types/{id}", ticketTypes.HandleDelete)
	r.Get("/events/{eventId}/guests", guests.HandleList)
	r.Post("/events/{eventId}/guests", guests.HandleCreate)
	r.Put("/guests/{id}", guests.HandleUpdate)
	r.Post("/guests/{id}/check-in", guests.HandleCheckIn)

	return &api{router: r, store: store, owner: owner.ID, other: other.ID}
}

func (a *api) send(t *testing.T, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// seed creates an event with one ticket type and returns their ids.
func (a *api) seed(t *testing.T, limit int) (eventID, ticketTypeID int64) {
	t.Helper()

	date := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	rec := a.send(t, a.owner, http.MethodPost, "/events",
		fmt.Sprintf(`{"name":"Baile","date":%q,"duration":5}`, date))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))

	rec = a.send(t, a.owner, http.MethodPost, "/events/"+strconv.FormatInt(event.ID, 10)+"/ticket-types",
		fmt.Sprintf(`{"name":"Pista","price":40,"limit":%d}`, limit))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tt model.TicketType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tt))

	return event.ID, tt.ID
}

func (a *api) addGuest(t *testing.T, eventID, ticketTypeID int64, name string) *httptest.ResponseRecorder {
	t.Helper()
	return a.send(t, a.owner, http.MethodPost, "/events/"+strconv.FormatInt(eventID, 10)+"/guests",
		fmt.Sprintf(`{"name":%q,"ticketTypeId":%d}`, name, ticketTypeID))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("name", "name is required"), http.StatusBadRequest, "validation_error"},
		{"already entered", apperror.AlreadyEntered("7"), http.StatusConflict, "already_entered"},
		{"not found", apperror.NotFound("guest", "7"), http.StatusNotFound, "not_found"},
		{"forbidden", apperror.Forbidden("not yours"), http.StatusForbidden, "forbidden"},
		{"conflict", apperror.Conflict("sold out"), http.StatusConflict, "conflict"},
		{"wrapped not found", fmt.Errorf("loading: %w", apperror.NotFound("event", "1")), http.StatusNotFound, "not_found"},
		{"store failure", apperror.StoreFailure("listing", errors.New("disk I/O error")), http.StatusInternalServerError, "internal_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errType := statusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, errType)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)

	writeError(rec, req, testLogger(), errors.New("sqlite: no such table: events at /var/lib/guestlist.db"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := errorBody(t, rec)
	assert.Equal(t, "internal_error", resp.Error)
	assert.NotContains(t, resp.Message, "sqlite")
}

func TestWriteErrorCarriesField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", nil)

	writeError(rec, req, testLogger(), apperror.ValidationFailed("duration", "duration must be at most 72"))

	assert.JSONEq(t,
		`{"error":"validation_error","message":"duration must be at most 72","field":"duration"}`,
		rec.Body.String())
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	a := newAPI(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"empty body", "", ""},
		{"malformed", `{"name":`, ""},
		{"unknown field", `{"name":"Baile","venue":"x"}`, ""},
		{"wrong type", `{"name":"Baile","duration":"six"}`, "duration"},
		{"two objects", `{"name":"Baile"}{"name":"Baile"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.send(t, a.owner, http.MethodPost, "/events", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := errorBody(t, rec)
			assert.Equal(t, "validation_error", resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
		})
	}
}

func TestInvalidIDParam(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/events/abc", "/events/0", "/events/-3"} {
		rec := a.send(t, a.owner, http.MethodGet, path, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "eventId", errorBody(t, rec).Field, path)
	}
}

func TestCreateEventValidation(t *testing.T) {
	a := newAPI(t)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"short name", fmt.Sprintf(`{"name":"ab","date":%q,"duration":3}`, future), "name"},
		{"zero duration", fmt.Sprintf(`{"name":"Baile","date":%q,"duration":0}`, future), "duration"},
		{"long duration", fmt.Sprintf(`{"name":"Baile","date":%q,"duration":73}`, future), "duration"},
		{"past date", fmt.Sprintf(`{"name":"Baile","date":%q,"duration":3}`, past), "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.send(t, a.owner, http.MethodPost, "/events", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantField, errorBody(t, rec).Field)
		})
	}
}

func TestEventOwnership(t *testing.T) {
	a := newAPI(t)
	eventID, _ := a.seed(t, 10)
	path := "/events/" + strconv.FormatInt(eventID, 10)

	rec := a.send(t, a.other, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorBody(t, rec).Error)

	rec = a.send(t, a.owner, http.MethodGet, "/events/999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.send(t, a.other, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCheckInTwice(t *testing.T) {
	a := newAPI(t)
	eventID, ticketTypeID := a.seed(t, 10)

	rec := a.addGuest(t, eventID, ticketTypeID, "Ana")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var guest model.Guest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &guest))
	path := "/guests/" + strconv.FormatInt(guest.ID, 10) + "/check-in"

	rec = a.send(t, a.other, http.MethodPost, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.send(t, a.owner, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var first model.Guest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.True(t, first.Entered)
	firstTime, ok := first.EntryTime.Get()
	require.True(t, ok)

	rec = a.send(t, a.owner, http.MethodPost, path, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_entered", errorBody(t, rec).Error)

	stored, err := a.store.GetGuest(context.Background(), guest.ID)
	require.NoError(t, err)
	storedTime, _ := stored.EntryTime.Get()
	assert.True(t, firstTime.Equal(storedTime))
}

func TestCreateGuestCapacity(t *testing.T) {
	a := newAPI(t)
	eventID, ticketTypeID := a.seed(t, 1)

	require.Equal(t, http.StatusCreated, a.addGuest(t, eventID, ticketTypeID, "Ana").Code)

	rec := a.addGuest(t, eventID, ticketTypeID, "Bia")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorBody(t, rec).Error)

	rec = a.addGuest(t, eventID, 424242, "Caio")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ticketTypeId", errorBody(t, rec).Field)
}

func TestDeleteTicketTypeWithGuests(t *testing.T) {
	a := newAPI(t)
	eventID, ticketTypeID := a.seed(t, 10)
	require.Equal(t, http.StatusCreated, a.addGuest(t, eventID, ticketTypeID, "Ana").Code)

	rec := a.send(t, a.owner, http.MethodDelete, "/ticket-types/"+strconv.FormatInt(ticketTypeID, 10), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestParseGuestFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      model.GuestFilter
		wantField string
	}{
		{name: "no filters", query: "", want: model.GuestFilter{}},
		{name: "entered true", query: "entered=true", want: model.GuestFilter{Entered: model.Some(true)}},
		{name: "entered false", query: "entered=false", want: model.GuestFilter{Entered: model.Some(false)}},
		{name: "ticket type", query: "ticketTypeId=4", want: model.GuestFilter{TicketTypeID: model.Some[int64](4)}},
		{name: "search trimmed", query: "q=" + url.QueryEscape("  ana "), want: model.GuestFilter{Query: "ana"}},
		{name: "bad entered", query: "entered=maybe", wantField: "entered"},
		{name: "bad ticket type", query: "ticketTypeId=x", wantField: "ticketTypeId"},
		{name: "zero ticket type", query: "ticketTypeId=0", wantField: "ticketTypeId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events/1/guests?"+tt.query, nil)
			got, err := parseGuestFilter(req)
			if tt.wantField != "" {
				require.ErrorIs(t, err, apperror.ErrValidation)
				var appErr *apperror.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantField, appErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListGuestsFiltered(t *testing.T) {
	a := newAPI(t)
	eventID, ticketTypeID := a.seed(t, 10)

	var ana model.Guest
	rec := a.addGuest(t, eventID, ticketTypeID, "Ana Souza")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ana))
	a.addGuest(t, eventID, ticketTypeID, "Bruno Lima")
	a.send(t, a.owner, http.MethodPost, "/guests/"+strconv.FormatInt(ana.ID, 10)+"/check-in", "")

	base := "/events/" + strconv.FormatInt(eventID, 10) + "/guests"

	names := func(path string) []string {
		rec := a.send(t, a.owner, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var guests []model.Guest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &guests))
		out := make([]string, 0, len(guests))
		for _, g := range guests {
			out = append(out, g.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Ana Souza", "Bruno Lima"}, names(base))
	assert.Equal(t, []string{"Ana Souza"}, names(base+"?entered=true"))
	assert.Equal(t, []string{"Bruno Lima"}, names(base+"?entered=false"))
	assert.Equal(t, []string{"Bruno Lima"}, names(base+"?q=LIMA"))
}

func TestStatsResponse(t *testing.T) {
	a := newAPI(t)
	eventID, ticketTypeID := a.seed(t, 10)

	var ana model.Guest
	rec := a.addGuest(t, eventID, ticketTypeID, "Ana")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ana))
	a.addGuest(t, eventID, ticketTypeID, "Bia")
	rec = a.send(t, a.owner, http.MethodPost, "/guests/"+strconv.FormatInt(ana.ID, 10)+"/check-in", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ana))
	enteredAt, ok := ana.EntryTime.Get()
	require.True(t, ok)

	path := "/events/" + strconv.FormatInt(eventID, 10) + "/stats"

	rec = a.send(t, a.other, http.MethodGet, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.send(t, a.owner, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["totalGuests"])
	assert.EqualValues(t, 1, body["enteredGuests"])
	assert.Equal(t, map[string]any{"Pista": float64(2)}, body["ticketTypeCounts"])

	timeline, ok := body["entryTimeline"].([]any)
	require.True(t, ok)
	require.Len(t, timeline, 1)
	point := timeline[0].(map[string]any)
	assert.EqualValues(t, enteredAt.UTC().Hour(), point["hour"])
	assert.EqualValues(t, 1, point["count"])
}
