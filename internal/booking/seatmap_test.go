package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryCapacity(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		want uint32
	}{
		{name: "small dome", g: Geometry{Rows: 5, SeatsInRow: 10}, want: 50},
		{name: "single seat", g: Geometry{Rows: 1, SeatsInRow: 1}, want: 1},
		{name: "wide dome", g: Geometry{Rows: 20, SeatsInRow: 30}, want: 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.g.Capacity())
		})
	}
}

func TestGeometryValidCoordinate(t *testing.T) {
	g := Geometry{Rows: 5, SeatsInRow: 10}
	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{name: "first seat", c: Coordinate{Row: 1, Seat: 1}, want: true},
		{name: "last seat", c: Coordinate{Row: 5, Seat: 10}, want: true},
		{name: "middle", c: Coordinate{Row: 3, Seat: 7}, want: true},
		{name: "row zero", c: Coordinate{Row: 0, Seat: 1}, want: false},
		{name: "seat zero", c: Coordinate{Row: 1, Seat: 0}, want: false},
		{name: "row past last", c: Coordinate{Row: 6, Seat: 1}, want: false},
		{name: "seat past last", c: Coordinate{Row: 1, Seat: 11}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.ValidCoordinate(tt.c))
		})
	}
}

func TestGeometryAvailable(t *testing.T) {
	g := Geometry{Rows: 5, SeatsInRow: 10}
	assert.Equal(t, uint32(50), g.Available(0))
	assert.Equal(t, uint32(48), g.Available(2))
	assert.Equal(t, uint32(0), g.Available(50))
	// taken should never exceed capacity, but the result must still not
	// wrap around if it somehow does
	assert.Equal(t, uint32(0), g.Available(51))
}

func TestCoordinateString(t *testing.T) {
	assert.Equal(t, "row 3 seat 7", Coordinate{Row: 3, Seat: 7}.String())
}
