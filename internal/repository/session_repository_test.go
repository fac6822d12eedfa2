package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/planetarium-booking/internal/booking"
)

func TestFirstStranded(t *testing.T) {
	g := booking.Geometry{Rows: 4, SeatsInRow: 6}

	cases := []struct {
		name  string
		taken []booking.Coordinate
		want  booking.Coordinate
		ok    bool
	}{
		{"no tickets", nil, booking.Coordinate{}, false},
		{"all fit", []booking.Coordinate{{Row: 1, Seat: 1}, {Row: 4, Seat: 6}}, booking.Coordinate{}, false},
		{"row beyond grid", []booking.Coordinate{{Row: 2, Seat: 3}, {Row: 5, Seat: 1}}, booking.Coordinate{Row: 5, Seat: 1}, true},
		{"seat beyond grid", []booking.Coordinate{{Row: 3, Seat: 7}}, booking.Coordinate{Row: 3, Seat: 7}, true},
		{"first offender reported", []booking.Coordinate{{Row: 1, Seat: 9}, {Row: 6, Seat: 1}}, booking.Coordinate{Row: 1, Seat: 9}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seat, ok := firstStranded(g, tc.taken)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, seat)
		})
	}
}

func TestDomeTooSmallError(t *testing.T) {
	err := &DomeTooSmallError{Seat: booking.Coordinate{Row: 5, Seat: 2}}
	assert.Equal(t, "dome too small: ticket exists at row 5 seat 2", err.Error())
}
