package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// DomeRepo provides persistence for planetarium domes.  Geometry is
// stored as seat_rows and seats_in_row; capacity is derived in Go, not
// stored.
type DomeRepo struct {
	db *sql.DB
}

// NewDomeRepo constructs a DomeRepo with the given DB handle.
func NewDomeRepo(db *sql.DB) *DomeRepo {
	return &DomeRepo{db: db}
}

// Create inserts a dome and populates the generated ID and timestamp.
// The caller must validate that Rows and SeatsInRow are positive.
func (r *DomeRepo) Create(ctx context.Context, d *model.PlanetariumDome) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO planetarium_domes (name, seat_rows, seats_in_row) VALUES (?, ?, ?)",
		d.Name, d.Rows, d.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	const sel = `SELECT id, name, seat_rows, seats_in_row, created_at FROM planetarium_domes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, d.ID).Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow, &d.CreatedAt)
}

// GetByID retrieves a dome by ID, returning ErrNotFound when no row
// matches.
func (r *DomeRepo) GetByID(ctx context.Context, id uint64) (*model.PlanetariumDome, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row, created_at FROM planetarium_domes WHERE id = ?`
	var d model.PlanetariumDome
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns all domes ordered by name.
func (r *DomeRepo) List(ctx context.Context) ([]model.PlanetariumDome, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row, created_at FROM planetarium_domes ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.PlanetariumDome, 0)
	for rows.Next() {
		var d model.PlanetariumDome
		if err := rows.Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
