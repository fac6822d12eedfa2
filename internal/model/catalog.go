package model

import "time"

// ShowTheme is a named category an astronomy show can belong to
// (e.g. "Deep Space", "Solar System").  Theme names are unique and a
// theme is treated as immutable once shows reference it.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique theme name.
//  CreatedAt – timestamp of creation.
type ShowTheme struct {
	ID        uint64    // show_themes.id
	Name      string    // show_themes.name
	CreatedAt time.Time // show_themes.created_at
}

// AstronomyShow is a production in the planetarium's repertoire.  A show
// belongs to any number of themes (many-to-many, order irrelevant) and
// may be scheduled many times via show sessions.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – show title.
//  Description – long-form description.
//  Themes      – themes the show belongs to.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type AstronomyShow struct {
	ID          uint64      // astronomy_shows.id
	Title       string      // astronomy_shows.title
	Description string      // astronomy_shows.description
	Themes      []ShowTheme // via astronomy_show_themes
	CreatedAt   time.Time   // astronomy_shows.created_at
	UpdatedAt   time.Time   // astronomy_shows.updated_at
}

// PlanetariumDome is a physical auditorium.  Its seat space is a grid of
// Rows rows with SeatsInRow seats each; both are positive.  Capacity is
// derived, never stored.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – human readable dome name.
//  Rows       – number of seating rows.
//  SeatsInRow – number of seats in each row.
//  CreatedAt  – timestamp of creation.
type PlanetariumDome struct {
	ID         uint64    // planetarium_domes.id
	Name       string    // planetarium_domes.name
	Rows       uint32    // planetarium_domes.seat_rows
	SeatsInRow uint32    // planetarium_domes.seats_in_row
	CreatedAt  time.Time // planetarium_domes.created_at
}

// Capacity returns the total number of seats in the dome.
func (d PlanetariumDome) Capacity() uint32 {
	return d.Rows * d.SeatsInRow
}

// ShowSession schedules an astronomy show in a dome at a specific time.
// A dome may host many sessions; no overlap check is performed.
//
// Fields:
//  ID                – primary key identifier.
//  AstronomyShowID   – show being presented.
//  PlanetariumDomeID – dome hosting the session.
//  ShowTime          – scheduled start time (UTC).
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type ShowSession struct {
	ID                uint64    // show_sessions.id
	AstronomyShowID   uint64    // show_sessions.astronomy_show_id
	PlanetariumDomeID uint64    // show_sessions.planetarium_dome_id
	ShowTime          time.Time // show_sessions.show_time
	CreatedAt         time.Time // show_sessions.created_at
	UpdatedAt         time.Time // show_sessions.updated_at
}
