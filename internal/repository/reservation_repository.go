package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/planetarium-booking/internal/booking"
)

// ReservationRepo persists reservations and their tickets.  It is the
// MySQL implementation of the ledger's store contract: the uniqueness
// of a (session, row, seat) triple is guaranteed by the
// uq_tickets_session_row_seat key, so two transactions racing on the
// same coordinate cannot both commit whatever the interleaving.  The
// repository additionally locks the requested coordinates inside the
// transaction so the losing request can report exactly which seats
// conflicted.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// Session returns the session's dome geometry, or
// booking.ErrSessionNotFound when the session does not exist.
func (r *ReservationRepo) Session(ctx context.Context, sessionID uint64) (booking.SessionInfo, error) {
	const q = `SELECT s.id, d.seat_rows, d.seats_in_row
	           FROM show_sessions s
	           JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
	           WHERE s.id = ?`
	var info booking.SessionInfo
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&info.ID, &info.Geometry.Rows, &info.Geometry.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.SessionInfo{}, booking.ErrSessionNotFound
		}
		return booking.SessionInfo{}, err
	}
	return info, nil
}

// TakenCoordinates returns every ticketed coordinate for the session,
// ordered by row then seat.
func (r *ReservationRepo) TakenCoordinates(ctx context.Context, sessionID uint64) ([]booking.Coordinate, error) {
	const q = `SELECT seat_row, seat_num FROM tickets
	           WHERE show_session_id = ?
	           ORDER BY seat_row, seat_num`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]booking.Coordinate, 0)
	for rows.Next() {
		var c booking.Coordinate
		if err := rows.Scan(&c.Row, &c.Seat); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TicketCount returns how many tickets exist for the session.
func (r *ReservationRepo) TicketCount(ctx context.Context, sessionID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE show_session_id = ?", sessionID).Scan(&n)
	return n, err
}

// CreateReservation creates a reservation and one ticket per coordinate
// in a single transaction.  The flow is: lock any existing tickets for
// the requested coordinates with SELECT ... FOR UPDATE (a non-empty
// result means a conflict, reported with the exact coordinates), insert
// the reservation row, bulk-insert the tickets, commit.  If a
// concurrent transaction wins the race between the check and the
// insert, the race surfaces either as a duplicate-entry error from the
// unique key or as an InnoDB deadlock or lock-wait timeout on the
// locked range; all three are mapped back to the same seat conflict.
// Either all tickets are created or none are.
func (r *ReservationRepo) CreateReservation(ctx context.Context, userID, sessionID uint64, seats []booking.Coordinate) (*booking.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	conflicts, err := r.takenAmong(ctx, tx, sessionID, seats, true)
	if err != nil {
		if conflict := r.loserConflict(ctx, tx, sessionID, seats, err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &booking.SeatTakenError{Seats: conflicts}
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO reservations (user_id) VALUES (?)", userID)
	if err != nil {
		return nil, err
	}
	resID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	q := `INSERT INTO tickets (show_session_id, reservation_id, seat_row, seat_num) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, c := range seats {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?)"
		args = append(args, sessionID, uint64(resID), c.Row, c.Seat)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		if conflict := r.loserConflict(ctx, tx, sessionID, seats, err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	var createdAt time.Time
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM reservations WHERE id = ?", resID).Scan(&createdAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &booking.Reservation{
		ID:        uint64(resID),
		UserID:    userID,
		SessionID: sessionID,
		Seats:     seats,
		CreatedAt: createdAt,
	}, nil
}

// loserConflict is invoked when a statement inside the reservation
// transaction failed. When the failure signals a lost race on the
// requested coordinates it rolls the transaction back, re-reads the
// coordinates without locks so the winner's committed tickets are
// visible, and returns the conflict to surface. A nil result means the
// failure was unrelated and the original error stands.
func (r *ReservationRepo) loserConflict(ctx context.Context, tx *sql.Tx, sessionID uint64, seats []booking.Coordinate, raceErr error) *booking.SeatTakenError {
	if !isDuplicateKey(raceErr) && !isLockConflict(raceErr) {
		return nil
	}
	_ = tx.Rollback()
	taken, err := r.takenAmong(ctx, r.db, sessionID, seats, false)
	if err != nil {
		taken = nil
	}
	return raceConflict(raceErr, taken, seats)
}

// raceConflict maps an in-transaction failure to the SeatTakenError a
// losing request should report, given the coordinates re-read after
// rollback. A duplicate-entry error means the unique key rejected a
// coordinate a concurrent transaction committed first, so the conflict
// is certain even when the re-read could not name the winners. A
// deadlock or lock-wait timeout is a conflict only when the re-read
// shows the seats actually taken; otherwise the error was not a seat
// race and must be returned as-is.
func raceConflict(raceErr error, taken, requested []booking.Coordinate) *booking.SeatTakenError {
	switch {
	case isDuplicateKey(raceErr):
		if len(taken) == 0 {
			taken = requested
		}
		return &booking.SeatTakenError{Seats: taken}
	case isLockConflict(raceErr):
		if len(taken) > 0 {
			return &booking.SeatTakenError{Seats: taken}
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// takenAmong returns which of the requested coordinates already have a
// ticket for the session.  With forUpdate the matching rows are locked
// until the surrounding transaction ends.
func (r *ReservationRepo) takenAmong(ctx context.Context, q querier, sessionID uint64, seats []booking.Coordinate, forUpdate bool) ([]booking.Coordinate, error) {
	pairs := make([]string, 0, len(seats))
	args := []interface{}{sessionID}
	for _, c := range seats {
		pairs = append(pairs, "(?, ?)")
		args = append(args, c.Row, c.Seat)
	}
	query := `SELECT seat_row, seat_num FROM tickets
	          WHERE show_session_id = ? AND (seat_row, seat_num) IN (` + strings.Join(pairs, ",") + `)
	          ORDER BY seat_row, seat_num`
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := q.QueryContext(ctx, query, args...)
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

// ReservationDetail is the read shape for a user's reservation: the
// reservation with its tickets expanded, each ticket nesting the full
// session, show and dome detail.
type ReservationDetail struct {
	ID        uint64         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Tickets   []TicketDetail `json:"tickets"`
}

// TicketDetail is one seat inside a reservation together with the
// session it was booked for.
type TicketDetail struct {
	Row     uint32         `json:"row"`
	Seat    uint32         `json:"seat"`
	Session SessionSummary `json:"show_session"`
}

// SessionSummary nests the show and dome a ticket points at.
type SessionSummary struct {
	ID       uint64      `json:"id"`
	ShowTime time.Time   `json:"show_time"`
	Show     ShowSummary `json:"astronomy_show"`
	Dome     DomeSummary `json:"planetarium_dome"`
}

// ShowSummary carries the show title and its theme names.
type ShowSummary struct {
	ID     uint64   `json:"id"`
	Title  string   `json:"title"`
	Themes []string `json:"themes"`
}

// DomeSummary carries the dome geometry and derived capacity.
type DomeSummary struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Rows       uint32 `json:"rows"`
	SeatsInRow uint32 `json:"seats_in_row"`
	Capacity   uint32 `json:"capacity"`
}

// ListByUser returns one page of the user's reservations, newest first,
// with tickets and their session/show/dome detail expanded.  It also
// returns the total reservation count for pagination.  When the page is
// past the end, an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]ReservationDetail, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	const q = `SELECT id, created_at FROM reservations
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0, pageSize)
	index := make(map[uint64]int)
	for rows.Next() {
		var d ReservationDetail
		if err := rows.Scan(&d.ID, &d.CreatedAt); err != nil {
			return nil, 0, err
		}
		d.Tickets = []TicketDetail{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(details) == 0 {
		return details, total, nil
	}

	// Fetch tickets for the whole page in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	ticketQ := `SELECT t.reservation_id, t.seat_row, t.seat_num,
	                   s.id, s.show_time,
	                   a.id, a.title,
	                   d.id, d.name, d.seat_rows, d.seats_in_row
	            FROM tickets t
	            JOIN show_sessions s ON s.id = t.show_session_id
	            JOIN astronomy_shows a ON a.id = s.astronomy_show_id
	            JOIN planetarium_domes d ON d.id = s.planetarium_dome_id
	            WHERE t.reservation_id IN (` + strings.Join(placeholders, ",") + `)
	            ORDER BY t.reservation_id, t.seat_row, t.seat_num`
	trows, err := r.db.QueryContext(ctx, ticketQ, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer trows.Close()
	showIDs := make(map[uint64]bool)
	for trows.Next() {
		var resID uint64
		var t TicketDetail
		if err := trows.Scan(
			&resID, &t.Row, &t.Seat,
			&t.Session.ID, &t.Session.ShowTime,
			&t.Session.Show.ID, &t.Session.Show.Title,
			&t.Session.Dome.ID, &t.Session.Dome.Name, &t.Session.Dome.Rows, &t.Session.Dome.SeatsInRow,
		); err != nil {
			return nil, 0, err
		}
		t.Session.Dome.Capacity = t.Session.Dome.Rows * t.Session.Dome.SeatsInRow
		t.Session.Show.Themes = []string{}
		showIDs[t.Session.Show.ID] = true
		idx, ok := index[resID]
		if !ok {
			continue
		}
		details[idx].Tickets = append(details[idx].Tickets, t)
	}
	if err := trows.Err(); err != nil {
		return nil, 0, err
	}

	themes, err := r.themeNamesByShow(ctx, showIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range details {
		for j := range details[i].Tickets {
			showID := details[i].Tickets[j].Session.Show.ID
			if names, ok := themes[showID]; ok {
				details[i].Tickets[j].Session.Show.Themes = names
			}
		}
	}
	return details, total, nil
}

// themeNamesByShow maps each show ID to its sorted theme names.
func (r *ReservationRepo) themeNamesByShow(ctx context.Context, showIDs map[uint64]bool) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(showIDs))
	if len(showIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, 0, len(showIDs))
	args := make([]interface{}, 0, len(showIDs))
	for id := range showIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT st.astronomy_show_id, t.name
	      FROM astronomy_show_themes st
	      JOIN show_themes t ON t.id = st.show_theme_id
	      WHERE st.astronomy_show_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY st.astronomy_show_id, t.name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var showID uint64
		var name string
		if err := rows.Scan(&showID, &name); err != nil {
			return nil, err
		}
		out[showID] = append(out[showID], name)
	}
	return out, rows.Err()
}
