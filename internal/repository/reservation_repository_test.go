package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planetarium-booking/internal/booking"
)

// Errors as the MySQL driver renders them; the repository classifies
// them by the embedded error number.
var (
	errDuplicate = errors.New("Error 1062 (23000): Duplicate entry '3-1-1' for key 'tickets.uq_tickets_session_row_seat'")
	errDeadlock  = errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction")
	errLockWait  = errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction")
	errSyntax    = errors.New("Error 1064 (42000): You have an error in your SQL syntax")
)

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(errDuplicate))
	assert.False(t, isDuplicateKey(errDeadlock))
	assert.False(t, isDuplicateKey(errSyntax))
	assert.False(t, isDuplicateKey(nil))
}

func TestIsLockConflict(t *testing.T) {
	assert.True(t, isLockConflict(errDeadlock))
	assert.True(t, isLockConflict(errLockWait))
	assert.False(t, isLockConflict(errDuplicate))
	assert.False(t, isLockConflict(errSyntax))
	assert.False(t, isLockConflict(nil))
}

// Two transactions reserving the same free seat can both gap-lock the
// empty range, so the loser surfaces as a deadlock or lock-wait timeout
// instead of a duplicate-entry error. All three must map to the same
// seat conflict once the re-read confirms the winner's tickets.
func TestRaceConflict(t *testing.T) {
	requested := []booking.Coordinate{{Row: 1, Seat: 1}, {Row: 1, Seat: 2}}
	winner := []booking.Coordinate{{Row: 1, Seat: 1}}

	cases := []struct {
		name      string
		raceErr   error
		taken     []booking.Coordinate
		wantSeats []booking.Coordinate
	}{
		{"duplicate key names winners", errDuplicate, winner, winner},
		{"duplicate key without re-read falls back to request", errDuplicate, nil, requested},
		{"deadlock with seats taken", errDeadlock, winner, winner},
		{"lock wait timeout with seats taken", errLockWait, winner, winner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflict := raceConflict(tc.raceErr, tc.taken, requested)
			require.NotNil(t, conflict)
			assert.Equal(t, tc.wantSeats, conflict.Seats)
		})
	}
}

// A deadlock that the re-read cannot attribute to a seat race, or an
// unrelated statement error, must not be rewritten into a conflict.
func TestRaceConflictNotASeatRace(t *testing.T) {
	requested := []booking.Coordinate{{Row: 2, Seat: 3}}
	assert.Nil(t, raceConflict(errDeadlock, nil, requested))
	assert.Nil(t, raceConflict(errLockWait, nil, requested))
	assert.Nil(t, raceConflict(errSyntax, requested, requested))
	assert.Nil(t, raceConflict(nil, requested, requested))
}
