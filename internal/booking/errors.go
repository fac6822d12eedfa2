package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a reservation or availability
// request references a show session that does not exist.  Handlers
// should translate this into an HTTP 404 response.
var ErrSessionNotFound = errors.New("show session not found")

// ValidationError reports a malformed reservation request: an empty seat
// list, a coordinate outside the dome geometry, or the same coordinate
// requested twice.  Nothing is persisted when it is returned.  Handlers
// should translate it into an HTTP 400 response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SeatTakenError reports that one or more requested coordinates are
// already ticketed for the session.  The whole request is rejected and
// nothing is persisted; the caller is expected to resubmit with
// different seats.  Handlers should translate it into an HTTP 409
// response carrying Seats so the client knows which coordinates
// conflicted.
type SeatTakenError struct {
	Seats []Coordinate
}

func (e *SeatTakenError) Error() string {
	parts := make([]string, 0, len(e.Seats))
	for _, c := range e.Seats {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("seats already taken: %s", strings.Join(parts, ", "))
}
