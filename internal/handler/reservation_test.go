package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planetarium-booking/internal/booking"
)

// fakeStore backs the ledger in handler tests so no database is needed.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uint64]booking.SessionInfo
	tickets  map[uint64]map[booking.Coordinate]bool
	nextID   uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uint64]booking.SessionInfo),
		tickets:  make(map[uint64]map[booking.Coordinate]bool),
	}
}

func (f *fakeStore) addSession(id uint64, g booking.Geometry) {
	f.sessions[id] = booking.SessionInfo{ID: id, Geometry: g}
	f.tickets[id] = make(map[booking.Coordinate]bool)
}

func (f *fakeStore) Session(_ context.Context, sessionID uint64) (booking.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.sessions[sessionID]
	if !ok {
		return booking.SessionInfo{}, booking.ErrSessionNotFound
	}
	return info, nil
}

func (f *fakeStore) TakenCoordinates(_ context.Context, sessionID uint64) ([]booking.Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]booking.Coordinate, 0, len(f.tickets[sessionID]))
	for c := range f.tickets[sessionID] {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) TicketCount(_ context.Context, sessionID uint64) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint32(len(f.tickets[sessionID])), nil
}

func (f *fakeStore) CreateReservation(_ context.Context, userID, sessionID uint64, seats []booking.Coordinate) (*booking.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var conflicts []booking.Coordinate
	for _, c := range seats {
		if f.tickets[sessionID][c] {
			conflicts = append(conflicts, c)
		}
	}
	if len(conflicts) > 0 {
		return nil, &booking.SeatTakenError{Seats: conflicts}
	}
	for _, c := range seats {
		f.tickets[sessionID][c] = true
	}
	f.nextID++
	return &booking.Reservation{
		ID:        f.nextID,
		UserID:    userID,
		SessionID: sessionID,
		Seats:     seats,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func newReservationContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// what JWTAuth would have stored from the token's sub claim
	c.Set("user_id", float64(7))
	c.Set("role", "USER")
	return c, rec
}

func TestCreateReservationHandler(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, booking.Geometry{Rows: 5, SeatsInRow: 10})
	h := &ReservationHandler{Ledger: booking.NewLedger(store)}
	e := echo.New()

	body := `{"show_session_id":1,"seats":[{"row":2,"seat":5},{"row":1,"seat":1}]}`
	c, rec := newReservationContext(e, http.MethodPost, "/v1/reservations", body)
	require.NoError(t, h.CreateReservation(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID            uint64 `json:"id"`
		ShowSessionID uint64 `json:"show_session_id"`
		Seats         []struct {
			Row  uint32 `json:"row"`
			Seat uint32 `json:"seat"`
		} `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.ID)
	assert.Equal(t, uint64(1), resp.ShowSessionID)
	require.Len(t, resp.Seats, 2)
	// returned in row/seat order, not request order
	assert.Equal(t, uint32(1), resp.Seats[0].Row)
	assert.Equal(t, uint32(1), resp.Seats[0].Seat)
	assert.Equal(t, uint32(2), resp.Seats[1].Row)
	assert.Equal(t, uint32(5), resp.Seats[1].Seat)
}

func TestCreateReservationHandlerConflict(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, booking.Geometry{Rows: 5, SeatsInRow: 10})
	h := &ReservationHandler{Ledger: booking.NewLedger(store)}
	e := echo.New()

	c, rec := newReservationContext(e, http.MethodPost, "/v1/reservations",
		`{"show_session_id":1,"seats":[{"row":1,"seat":1}]}`)
	require.NoError(t, h.CreateReservation(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newReservationContext(e, http.MethodPost, "/v1/reservations",
		`{"show_session_id":1,"seats":[{"row":1,"seat":1},{"row":1,"seat":2}]}`)
	require.NoError(t, h.CreateReservation(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error string `json:"error"`
		Seats []struct {
			Row  uint32 `json:"row"`
			Seat uint32 `json:"seat"`
		} `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Seats, 1)
	assert.Equal(t, uint32(1), resp.Seats[0].Row)
	assert.Equal(t, uint32(1), resp.Seats[0].Seat)

	// the free seat from the failed request stayed free
	count, err := store.TicketCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
}

func TestCreateReservationHandlerValidation(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, booking.Geometry{Rows: 5, SeatsInRow: 10})
	h := &ReservationHandler{Ledger: booking.NewLedger(store)}
	e := echo.New()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing session id", body: `{"seats":[{"row":1,"seat":1}]}`, want: http.StatusBadRequest},
		{name: "empty seats", body: `{"show_session_id":1,"seats":[]}`, want: http.StatusBadRequest},
		{name: "row out of range", body: `{"show_session_id":1,"seats":[{"row":6,"seat":1}]}`, want: http.StatusBadRequest},
		{name: "duplicate seat", body: `{"show_session_id":1,"seats":[{"row":1,"seat":1},{"row":1,"seat":1}]}`, want: http.StatusBadRequest},
		{name: "unknown session", body: `{"show_session_id":99,"seats":[{"row":1,"seat":1}]}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newReservationContext(e, http.MethodPost, "/v1/reservations", tt.body)
			require.NoError(t, h.CreateReservation(c))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAvailabilityHandler(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, booking.Geometry{Rows: 5, SeatsInRow: 10})
	h := &ReservationHandler{Ledger: booking.NewLedger(store)}
	e := echo.New()

	c, rec := newReservationContext(e, http.MethodPost, "/v1/reservations",
		`{"show_session_id":1,"seats":[{"row":1,"seat":1},{"row":1,"seat":2}]}`)
	require.NoError(t, h.CreateReservation(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/1/availability", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Availability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID        uint64 `json:"session_id"`
		TicketsAvailable uint32 `json:"tickets_available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.SessionID)
	assert.Equal(t, uint32(48), resp.TicketsAvailable)
}

func TestAvailabilityHandlerUnknownSession(t *testing.T) {
	h := &ReservationHandler{Ledger: booking.NewLedger(newFakeStore())}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/99/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Availability(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
