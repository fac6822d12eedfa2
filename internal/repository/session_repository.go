package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/model"
)

// DomeTooSmallError is returned by Update when the target dome's seat
// grid cannot hold a ticket already sold for the session. Seat is the
// first stranded coordinate in row/seat order.
type DomeTooSmallError struct {
	Seat booking.Coordinate
}

func (e *DomeTooSmallError) Error() string {
	return "dome too small: ticket exists at " + e.Seat.String()
}

// SessionRepo manages persistence for show sessions.  Unlike the other
// catalog entities, sessions support the full create/read/update/delete
// cycle.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// SessionFilter narrows List results.  Date keeps sessions whose
// show_time falls on that calendar day (UTC); AstronomyShowID keeps
// sessions of one show.  Zero values disable the corresponding filter.
type SessionFilter struct {
	Date            string // "2006-01-02", empty for all days
	AstronomyShowID uint64 // 0 for all shows
}

// SessionDetail is the read shape for sessions: the session joined with
// its show and dome, annotated with how many seats remain free.  It is
// returned by GetByID and List for display to clients.
type SessionDetail struct {
	ID               uint64    `json:"id"`
	ShowTime         time.Time `json:"show_time"`
	AstronomyShowID  uint64    `json:"astronomy_show_id"`
	ShowTitle        string    `json:"show_title"`
	DomeID           uint64    `json:"planetarium_dome_id"`
	DomeName         string    `json:"dome_name"`
	DomeRows         uint32    `json:"rows"`
	SeatsInRow       uint32    `json:"seats_in_row"`
	Capacity         uint32    `json:"capacity"`
	TicketsAvailable uint32    `json:"tickets_available"`
}

const sessionDetailSelect = `
	SELECT s.id, s.show_time,
	       a.id, a.title,
	       d.id, d.name, d.seat_rows, d.seats_in_row,
	       d.seat_rows * d.seats_in_row - COUNT(t.id)
	FROM show_sessions s
	JOIN astronomy_shows a ON a.id = s.astronomy_show_id
	JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
	LEFT JOIN tickets t ON t.show_session_id = s.id`

// Create inserts a session and populates the generated ID and
// timestamps.  The caller must have verified that the referenced show
// and dome exist.
func (r *SessionRepo) Create(ctx context.Context, s *model.ShowSession) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO show_sessions (astronomy_show_id, planetarium_dome_id, show_time) VALUES (?, ?, ?)",
		s.AstronomyShowID, s.PlanetariumDomeID, s.ShowTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, astronomy_show_id, planetarium_dome_id, show_time, created_at, updated_at
	             FROM show_sessions WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.AstronomyShowID, &s.PlanetariumDomeID, &s.ShowTime, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns the detail row for one session, or ErrNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*SessionDetail, error) {
	q := sessionDetailSelect + ` WHERE s.id = ? GROUP BY s.id, s.show_time, a.id, a.title, d.id, d.name, d.seat_rows, d.seats_in_row`
	var d SessionDetail
	var free int64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.ShowTime,
		&d.AstronomyShowID, &d.ShowTitle,
		&d.DomeID, &d.DomeName, &d.DomeRows, &d.SeatsInRow,
		&free,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Capacity = d.DomeRows * d.SeatsInRow
	d.TicketsAvailable = uint32(free)
	return &d, nil
}

// List returns session detail rows matching the filter, newest show
// time first.
func (r *SessionRepo) List(ctx context.Context, f SessionFilter) ([]SessionDetail, error) {
	where := []string{}
	args := []interface{}{}
	if f.Date != "" {
		where = append(where, "DATE(s.show_time) = ?")
		args = append(args, f.Date)
	}
	if f.AstronomyShowID != 0 {
		where = append(where, "s.astronomy_show_id = ?")
		args = append(args, f.AstronomyShowID)
	}
	q := sessionDetailSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += ` GROUP BY s.id, s.show_time, a.id, a.title, d.id, d.name, d.seat_rows, d.seats_in_row
	       ORDER BY s.show_time DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SessionDetail, 0)
	for rows.Next() {
		var d SessionDetail
		var free int64
		if err := rows.Scan(
			&d.ID, &d.ShowTime,
			&d.AstronomyShowID, &d.ShowTitle,
			&d.DomeID, &d.DomeName, &d.DomeRows, &d.SeatsInRow,
			&free,
		); err != nil {
			return nil, err
		}
		d.Capacity = d.DomeRows * d.SeatsInRow
		d.TicketsAvailable = uint32(free)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update replaces the show, dome and time of a session.  It returns
// ErrNotFound when the session or the new dome does not exist.
// Coordinates sold under the old dome stay valid only if the new dome
// is at least as large, so the sold tickets are checked against the new
// grid inside the same transaction as the update, with the session row
// and the tickets locked: a reservation cannot slip in between the
// check and the dome change.  A stranded ticket aborts the update with
// DomeTooSmallError.
func (r *SessionRepo) Update(ctx context.Context, id, showID, domeID uint64, showTime time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM show_sessions WHERE id = ? FOR UPDATE", id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	var g booking.Geometry
	err = tx.QueryRowContext(ctx,
		"SELECT seat_rows, seats_in_row FROM planetarium_domes WHERE id = ?", domeID).
		Scan(&g.Rows, &g.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	taken, err := sessionTickets(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if seat, stranded := firstStranded(g, taken); stranded {
		return &DomeTooSmallError{Seat: seat}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE show_sessions SET astronomy_show_id = ?, planetarium_dome_id = ?, show_time = ? WHERE id = ?",
		showID, domeID, showTime.UTC(), id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sessionTickets returns every ticketed coordinate for the session in
// row/seat order.  With forUpdate the rows stay locked until the
// surrounding transaction ends.
func sessionTickets(ctx context.Context, tx *sql.Tx, sessionID uint64, forUpdate bool) ([]booking.Coordinate, error) {
	q := "SELECT seat_row, seat_num FROM tickets WHERE show_session_id = ? ORDER BY seat_row, seat_num"
	if forUpdate {
		q += " FOR UPDATE"
	}
	rows, err := tx.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taken []booking.Coordinate
	for rows.Next() {
		var c booking.Coordinate
		if err := rows.Scan(&c.Row, &c.Seat); err != nil {
			return nil, err
		}
		taken = append(taken, c)
	}
	return taken, rows.Err()
}

// firstStranded returns the first coordinate that does not fit the
// geometry, scanning in the given order.
func firstStranded(g booking.Geometry, taken []booking.Coordinate) (booking.Coordinate, bool) {
	for _, c := range taken {
		if !g.ValidCoordinate(c) {
			return c, true
		}
	}
	return booking.Coordinate{}, false
}

// Delete removes a session.  Tickets for the session are removed by the
// cascading foreign key.  It returns ErrNotFound when no row matched.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM show_sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
