package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ShowRepo manages persistence for astronomy shows and their theme
// relation. A show belongs to any number of themes; the relation lives
// in the astronomy_show_themes join table and is written together with
// the show row in one transaction.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// ShowFilter narrows List results.  Title matches as a case-insensitive
// substring; ThemeIDs keeps shows belonging to at least one of the
// given themes.  Zero values disable the corresponding filter.
type ShowFilter struct {
	Title    string
	ThemeIDs []uint64
}

// Create inserts a show and its theme relations in one transaction and
// populates the generated ID and timestamps.  Theme IDs must already be
// validated by the caller; a dangling ID surfaces as an FK error.
func (r *ShowRepo) Create(ctx context.Context, s *model.AstronomyShow, themeIDs []uint64) error {
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
	res, err := tx.ExecContext(ctx,
		"INSERT INTO astronomy_shows (title, description) VALUES (?, ?)",
		s.Title, s.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	if len(themeIDs) > 0 {
		q := `INSERT INTO astronomy_show_themes (astronomy_show_id, show_theme_id) VALUES `
		args := make([]interface{}, 0, len(themeIDs)*2)
		for i, tid := range themeIDs {
			if i > 0 {
				q += ","
			}
			q += "(?, ?)"
			args = append(args, s.ID, tid)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	const sel = `SELECT id, title, description, created_at, updated_at FROM astronomy_shows WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.Title, &s.Description, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return r.attachThemes(ctx, []*model.AstronomyShow{s})
}

// GetByID retrieves one show with its themes.  It returns ErrNotFound
// when no matching row exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.AstronomyShow, error) {
	const q = `SELECT id, title, description, created_at, updated_at FROM astronomy_shows WHERE id = ?`
	var s model.AstronomyShow
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachThemes(ctx, []*model.AstronomyShow{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns shows matching the filter, ordered by title, each with
// its themes populated.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter) ([]model.AstronomyShow, error) {
	where := []string{}
	args := []interface{}{}
	if f.Title != "" {
		where = append(where, "LOWER(s.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	if len(f.ThemeIDs) > 0 {
		placeholders := make([]string, 0, len(f.ThemeIDs))
		for _, tid := range f.ThemeIDs {
			placeholders = append(placeholders, "?")
			args = append(args, tid)
		}
		where = append(where, `s.id IN (
			SELECT astronomy_show_id FROM astronomy_show_themes
			WHERE show_theme_id IN (`+strings.Join(placeholders, ",")+`))`)
	}
	q := `SELECT s.id, s.title, s.description, s.created_at, s.updated_at FROM astronomy_shows s`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY s.title ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AstronomyShow, 0)
	for rows.Next() {
		var s model.AstronomyShow
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*model.AstronomyShow, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachThemes(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachThemes populates Themes on each show with a single query over
// the join table, keyed by show ID.
func (r *ShowRepo) attachThemes(ctx context.Context, shows []*model.AstronomyShow) error {
	if len(shows) == 0 {
		return nil
	}
	index := make(map[uint64]*model.AstronomyShow, len(shows))
	placeholders := make([]string, 0, len(shows))
	args := make([]interface{}, 0, len(shows))
	for _, s := range shows {
		s.Themes = []model.ShowTheme{}
		index[s.ID] = s
		placeholders = append(placeholders, "?")
		args = append(args, s.ID)
	}
	q := `SELECT st.astronomy_show_id, t.id, t.name, t.created_at
	      FROM astronomy_show_themes st
	      JOIN show_themes t ON t.id = st.show_theme_id
	      WHERE st.astronomy_show_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY t.name ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var showID uint64
		var t model.ShowTheme
		if err := rows.Scan(&showID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			return err
		}
		if s, ok := index[showID]; ok {
			s.Themes = append(s.Themes, t)
		}
	}
	return rows.Err()
}
