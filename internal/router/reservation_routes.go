package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/handler"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
)

// RegisterReservations registers booking endpoints under /v1.  All
// routes require a valid JWT with a known role: any authenticated user
// can inspect availability and book seats, and sees only their own
// reservations.  These routes are never cached — seat state must be
// read fresh on every request.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "USER"),
	)
	g.POST("/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.MyReservations)
	g.GET("/sessions/:id/availability", h.Availability)
	g.GET("/sessions/:id/seats", h.SeatMap)
}
