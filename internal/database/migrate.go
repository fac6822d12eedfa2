package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema when it does not exist yet.  Statements are
// idempotent so the server can run them on every start.  The unique key
// on tickets (show_session_id, seat_row, seat_num) is the mechanism that
// makes double-booking impossible: two transactions inserting the same
// coordinate for one session cannot both commit, whatever the
// interleaving.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		createUsersTable,
		createRefreshTokensTable,
		createShowThemesTable,
		createAstronomyShowsTable,
		createAstronomyShowThemesTable,
		createPlanetariumDomesTable,
		createShowSessionsTable,
		createReservationsTable,
		createTicketsTable,
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    email         VARCHAR(255)    NOT NULL,
    password_hash VARCHAR(255)    NOT NULL,
    role          ENUM('ADMIN','USER') NOT NULL DEFAULT 'USER',
    is_active     TINYINT(1)      NOT NULL DEFAULT 1,
    created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB;`

const createRefreshTokensTable = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    user_id    BIGINT UNSIGNED NOT NULL,
    token_hash CHAR(64)        NOT NULL,
    expires_at DATETIME        NOT NULL,
    revoked_at DATETIME        NULL,
    created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_refresh_tokens_hash (token_hash),
    KEY idx_refresh_tokens_user (user_id),
    CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
) ENGINE=InnoDB;`

const createShowThemesTable = `
CREATE TABLE IF NOT EXISTS show_themes (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name       VARCHAR(255)    NOT NULL,
    created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_show_themes_name (name)
) ENGINE=InnoDB;`

const createAstronomyShowsTable = `
CREATE TABLE IF NOT EXISTS astronomy_shows (
    id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    title       VARCHAR(255)    NOT NULL,
    description TEXT            NOT NULL,
    created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB;`

const createAstronomyShowThemesTable = `
CREATE TABLE IF NOT EXISTS astronomy_show_themes (
    astronomy_show_id BIGINT UNSIGNED NOT NULL,
    show_theme_id     BIGINT UNSIGNED NOT NULL,
    PRIMARY KEY (astronomy_show_id, show_theme_id),
    CONSTRAINT fk_ast_show FOREIGN KEY (astronomy_show_id) REFERENCES astronomy_shows (id) ON DELETE CASCADE,
    CONSTRAINT fk_ast_theme FOREIGN KEY (show_theme_id) REFERENCES show_themes (id)
) ENGINE=InnoDB;`

const createPlanetariumDomesTable = `
CREATE TABLE IF NOT EXISTS planetarium_domes (
    id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name         VARCHAR(255)    NOT NULL,
    seat_rows    INT UNSIGNED    NOT NULL,
    seats_in_row INT UNSIGNED    NOT NULL,
    created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB;`

const createShowSessionsTable = `
CREATE TABLE IF NOT EXISTS show_sessions (
    id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    astronomy_show_id   BIGINT UNSIGNED NOT NULL,
    planetarium_dome_id BIGINT UNSIGNED NOT NULL,
    show_time           DATETIME        NOT NULL,
    created_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_show_sessions_time (show_time),
    CONSTRAINT fk_sessions_show FOREIGN KEY (astronomy_show_id) REFERENCES astronomy_shows (id) ON DELETE CASCADE,
    CONSTRAINT fk_sessions_dome FOREIGN KEY (planetarium_dome_id) REFERENCES planetarium_domes (id) ON DELETE CASCADE
) ENGINE=InnoDB;`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    user_id    BIGINT UNSIGNED NOT NULL,
    created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_reservations_user_created (user_id, created_at),
    CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
) ENGINE=InnoDB;`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    show_session_id BIGINT UNSIGNED NOT NULL,
    reservation_id  BIGINT UNSIGNED NOT NULL,
    seat_row        INT UNSIGNED    NOT NULL,
    seat_num        INT UNSIGNED    NOT NULL,
    UNIQUE KEY uq_tickets_session_row_seat (show_session_id, seat_row, seat_num),
    KEY idx_tickets_reservation (reservation_id),
    CONSTRAINT fk_tickets_session FOREIGN KEY (show_session_id) REFERENCES show_sessions (id) ON DELETE CASCADE,
    CONSTRAINT fk_tickets_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE
) ENGINE=InnoDB;`
