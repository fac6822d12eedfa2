package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store used to exercise the ledger without a
// database.  A single mutex serializes commits, which satisfies the
// atomicity contract the MySQL store enforces with its unique key.
type memStore struct {
	mu       sync.Mutex
	sessions map[uint64]SessionInfo
	tickets  map[uint64]map[Coordinate]bool
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uint64]SessionInfo),
		tickets:  make(map[uint64]map[Coordinate]bool),
	}
}

func (m *memStore) addSession(id uint64, g Geometry) {
	m.sessions[id] = SessionInfo{ID: id, Geometry: g}
	m.tickets[id] = make(map[Coordinate]bool)
}

func (m *memStore) Session(_ context.Context, sessionID uint64) (SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.sessions[sessionID]
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	return info, nil
}

func (m *memStore) TakenCoordinates(_ context.Context, sessionID uint64) ([]Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]Coordinate, 0, len(m.tickets[sessionID]))
	g := m.sessions[sessionID].Geometry
	for row := uint32(1); row <= g.Rows; row++ {
		for seat := uint32(1); seat <= g.SeatsInRow; seat++ {
			c := Coordinate{Row: row, Seat: seat}
			if m.tickets[sessionID][c] {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *memStore) TicketCount(_ context.Context, sessionID uint64) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return 0, ErrSessionNotFound
	}
	return uint32(len(m.tickets[sessionID])), nil
}

func (m *memStore) CreateReservation(_ context.Context, userID, sessionID uint64, seats []Coordinate) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	var conflicts []Coordinate
	for _, c := range seats {
		if m.tickets[sessionID][c] {
			conflicts = append(conflicts, c)
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatTakenError{Seats: conflicts}
	}
	for _, c := range seats {
		m.tickets[sessionID][c] = true
	}
	m.nextID++
	return &Reservation{
		ID:        m.nextID,
		UserID:    userID,
		SessionID: sessionID,
		Seats:     seats,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func TestCreateReservationSuccess(t *testing.T) {
	store := newMemStore()
	store.addSession(1, Geometry{Rows: 5, SeatsInRow: 10})
	l := NewLedger(store)
	ctx := context.Background()

	res, err := l.CreateReservation(ctx, 7, 1, []Coordinate{
		{Row: 2, Seat: 5},
		{Row: 1, Seat: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, uint64(7), res.UserID)
	assert.Equal(t, uint64(1), res.SessionID)
	// seats come back ordered by row then seat regardless of request order
	assert.Equal(t, []Coordinate{{Row: 1, Seat: 1}, {Row: 2, Seat: 5}}, res.Seats)

	free, err := l.Availability(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(48), free)
}

func TestCreateReservationConflict(t *testing.T) {
	store := newMemStore()
	store.addSession(1, Geometry{Rows: 5, SeatsInRow: 10})
	l := NewLedger(store)
	ctx := context.Background()

	_, err := l.CreateReservation(ctx, 1, 1, []Coordinate{{Row: 1, Seat: 1}})
	require.NoError(t, err)

	// overlapping request fails as a whole, naming only the conflicting seat
	_, err = l.CreateReservation(ctx, 2, 1, []Coordinate{
		{Row: 1, Seat: 1},
		{Row: 1, Seat: 2},
	})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, []Coordinate{{Row: 1, Seat: 1}}, taken.Seats)

	// nothing was booked for the loser: the free seat stayed free
	count, err := store.TicketCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	coords, err := l.TakenCoordinates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Coordinate{{Row: 1, Seat: 1}}, coords)
}

func TestCreateReservationValidation(t *testing.T) {
	store := newMemStore()
	store.addSession(1, Geometry{Rows: 5, SeatsInRow: 10})
	l := NewLedger(store)
	ctx := context.Background()

	tests := []struct {
		name  string
		seats []Coordinate
	}{
		{name: "empty seat list", seats: nil},
		{name: "row past last", seats: []Coordinate{{Row: 6, Seat: 1}}},
		{name: "seat past last", seats: []Coordinate{{Row: 1, Seat: 11}}},
		{name: "row zero", seats: []Coordinate{{Row: 0, Seat: 1}}},
		{name: "duplicate in request", seats: []Coordinate{{Row: 1, Seat: 1}, {Row: 1, Seat: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateReservation(ctx, 1, 1, tt.seats)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}

	// none of the rejected requests persisted anything
	count, err := store.TicketCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), count)
}

func TestCreateReservationUnknownSession(t *testing.T) {
	l := NewLedger(newMemStore())
	ctx := context.Background()

	_, err := l.CreateReservation(ctx, 1, 99, []Coordinate{{Row: 1, Seat: 1}})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = l.Availability(ctx, 99)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = l.TakenCoordinates(ctx, 99)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentReservationsSameSeat(t *testing.T) {
	store := newMemStore()
	store.addSession(1, Geometry{Rows: 5, SeatsInRow: 10})
	l := NewLedger(store)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	results := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := l.CreateReservation(ctx, uint64(i+1), 1, []Coordinate{{Row: 3, Seat: 3}})
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var taken *SeatTakenError
		require.ErrorAs(t, err, &taken)
	}
	assert.Equal(t, 1, winners, "exactly one request may win the seat")

	count, err := store.TicketCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
}

func TestConcurrentReservationsDisjointSeats(t *testing.T) {
	store := newMemStore()
	store.addSession(1, Geometry{Rows: 5, SeatsInRow: 10})
	l := NewLedger(store)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.CreateReservation(ctx, uint64(i+1), 1, []Coordinate{
				{Row: uint32(i%5) + 1, Seat: uint32(i/5) + 1},
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range results {
		assert.NoError(t, err, "request %d touched a seat nobody else wanted", i)
	}
	free, err := l.Availability(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), free)
}

func TestNewLedgerNilStore(t *testing.T) {
	assert.Panics(t, func() { NewLedger(nil) })
}
