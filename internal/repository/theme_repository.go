package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ThemeRepo provides persistence for show themes.  Themes carry only a
// unique name; once a show references one it is treated as immutable,
// so the repository exposes create and list only.
type ThemeRepo struct {
	db *sql.DB
}

// NewThemeRepo constructs a ThemeRepo with the given DB handle.
func NewThemeRepo(db *sql.DB) *ThemeRepo {
	return &ThemeRepo{db: db}
}

// Create inserts a theme and assigns the generated ID back to the
// struct.  It returns ErrThemeExists when the name is already taken.
func (r *ThemeRepo) Create(ctx context.Context, t *model.ShowTheme) error {
	t.Name = strings.TrimSpace(t.Name)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO show_themes (name) VALUES (?)", t.Name)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrThemeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	const sel = `SELECT id, name, created_at FROM show_themes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.ID, &t.Name, &t.CreatedAt)
}

// List returns all themes ordered by name.  When none exist it returns
// an empty slice and nil error.
func (r *ThemeRepo) List(ctx context.Context) ([]model.ShowTheme, error) {
	const q = `SELECT id, name, created_at FROM show_themes ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShowTheme, 0)
	for rows.Next() {
		var t model.ShowTheme
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ExistingIDs filters ids down to the theme IDs that actually exist.
// It is used to validate the theme set of a new astronomy show before
// inserting the relation rows.
func (r *ThemeRepo) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	found := make(map[uint64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id FROM show_themes WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}
