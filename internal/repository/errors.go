// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrThemeExists indicates a unique-name violation on theme
// creation, while ErrNotFound signals that a catalog entity lookup
// matched no row.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a catalog entity (theme, show, dome or
// session) lookup matches no row. Handlers should translate this into
// an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrThemeExists is returned when creating a show theme whose name is
// already taken. Theme names are unique. Handlers should translate
// this into an HTTP 409 response.
var ErrThemeExists = errors.New("theme name already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062). The driver does not export a sentinel for it, so
// the number is matched in the message.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isLockConflict reports whether err is a MySQL deadlock (error number
// 1213) or lock-wait timeout (1205). InnoDB raises either when two
// transactions hold locks on the same row range, which for tickets
// means a concurrent reservation raced on the same coordinates; the
// loser must re-check whether its seats were in fact taken.
func isLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205")
}
