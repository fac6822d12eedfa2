package booking

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// SessionInfo carries what the ledger needs to validate a reservation
// request: proof that the session exists and the geometry of the dome
// hosting it.
type SessionInfo struct {
	ID       uint64
	Geometry Geometry
}

// Reservation is one checkout transaction: a set of tickets created
// together for a single session, owned by one user.  It is never
// modified after creation.
type Reservation struct {
	ID        uint64
	UserID    uint64
	SessionID uint64
	Seats     []Coordinate
	CreatedAt time.Time
}

// Store is the persistence contract behind the ledger.
//
// CreateReservation must be atomic: either the reservation and every
// ticket are committed together or nothing is.  Two concurrent calls
// overlapping on a coordinate for the same session must not both
// succeed; the loser reports the duplicates via *SeatTakenError.  How
// that is enforced is up to the implementation — the MySQL store relies
// on a unique key over (session, row, seat) checked at commit, the
// in-memory store used in tests serializes on a mutex — but the
// observable contract is the same: no duplicate commit, the loser gets
// a conflict, and calls touching disjoint sessions do not block each
// other.
type Store interface {
	// Session returns the session's geometry or ErrSessionNotFound.
	Session(ctx context.Context, sessionID uint64) (SessionInfo, error)
	// TakenCoordinates returns every ticketed coordinate for the
	// session, ordered by row then seat.
	TakenCoordinates(ctx context.Context, sessionID uint64) ([]Coordinate, error)
	// TicketCount returns how many tickets exist for the session.
	TicketCount(ctx context.Context, sessionID uint64) (uint32, error)
	// CreateReservation atomically creates a reservation and one ticket
	// per coordinate.
	CreateReservation(ctx context.Context, userID, sessionID uint64, seats []Coordinate) (*Reservation, error)
}

// Ledger is the single authority for creating reservations.  It
// validates a request against the session's dome geometry and delegates
// the atomic commit to its store.  No retry is performed on conflict:
// seat choice is user-meaningful, so silent reassignment would be wrong.
type Ledger struct {
	store Store
}

// NewLedger returns a Ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	if store == nil {
		panic("nil store passed to NewLedger")
	}
	return &Ledger{store: store}
}

// CreateReservation books the requested coordinates for the session on
// behalf of userID.  The request fails as a whole if any coordinate is
// invalid for the dome or already taken; a half-booked reservation is
// never observable.  Seats are recorded in (row, seat) order regardless
// of request order.
func (l *Ledger) CreateReservation(ctx context.Context, userID, sessionID uint64, seats []Coordinate) (*Reservation, error) {
	if len(seats) == 0 {
		return nil, &ValidationError{Reason: "at least one seat is required"}
	}
	info, err := l.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	seen := make(map[Coordinate]struct{}, len(seats))
	ordered := make([]Coordinate, 0, len(seats))
	for _, c := range seats {
		if !info.Geometry.ValidCoordinate(c) {
			return nil, &ValidationError{Reason: fmt.Sprintf(
				"%s is outside the dome (rows 1..%d, seats 1..%d)",
				c.String(), info.Geometry.Rows, info.Geometry.SeatsInRow)}
		}
		if _, dup := seen[c]; dup {
			return nil, &ValidationError{Reason: fmt.Sprintf("%s requested more than once", c.String())}
		}
		seen[c] = struct{}{}
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Row != ordered[j].Row {
			return ordered[i].Row < ordered[j].Row
		}
		return ordered[i].Seat < ordered[j].Seat
	})
	return l.store.CreateReservation(ctx, userID, sessionID, ordered)
}

// Availability returns how many seats remain free for the session:
// dome capacity minus the number of tickets.
func (l *Ledger) Availability(ctx context.Context, sessionID uint64) (uint32, error) {
	info, err := l.store.Session(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	taken, err := l.store.TicketCount(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return info.Geometry.Available(taken), nil
}

// TakenCoordinates returns the ticketed coordinates for the session,
// ordered by row then seat.  Clients use it to render the seating plan
// before choosing seats.
func (l *Ledger) TakenCoordinates(ctx context.Context, sessionID uint64) ([]Coordinate, error) {
	if _, err := l.store.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return l.store.TakenCoordinates(ctx, sessionID)
}
