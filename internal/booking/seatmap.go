// Package booking implements the reservation core of the planetarium API:
// the seat map derived from dome geometry, and the ledger that creates
// reservations while guaranteeing that a (session, row, seat) triple is
// never ticketed twice.
package booking

import "fmt"

// Coordinate identifies a physical seat within a dome.  Rows and seats
// are numbered starting at 1, matching what is printed on the dome's
// seating plan.
type Coordinate struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

// String renders a coordinate as "row 3 seat 7" for error messages and
// event payloads.
func (c Coordinate) String() string {
	return fmt.Sprintf("row %d seat %d", c.Row, c.Seat)
}

// Geometry describes the seat space of a planetarium dome: Rows seating
// rows with SeatsInRow seats each.  Both values are positive for any dome
// accepted by the catalog.
type Geometry struct {
	Rows       uint32
	SeatsInRow uint32
}

// Capacity returns the total number of seats in the dome.
func (g Geometry) Capacity() uint32 {
	return g.Rows * g.SeatsInRow
}

// ValidCoordinate reports whether the coordinate falls inside the dome,
// i.e. 1 <= row <= Rows and 1 <= seat <= SeatsInRow.
func (g Geometry) ValidCoordinate(c Coordinate) bool {
	return c.Row >= 1 && c.Row <= g.Rows && c.Seat >= 1 && c.Seat <= g.SeatsInRow
}

// Available computes the number of free seats given how many tickets
// exist for a session.  The ticket uniqueness constraint guarantees
// taken never exceeds capacity, so the result is never negative.
func (g Geometry) Available(taken uint32) uint32 {
	total := g.Capacity()
	if taken >= total {
		return 0
	}
	return total - taken
}
