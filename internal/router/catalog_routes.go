package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/handler"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
)

// RegisterCatalog registers catalog endpoints under /v1.  Every route
// requires a valid JWT; reads accept any known role while writes are
// restricted to ADMIN.  The optional cache middleware is applied to the
// list endpoints only — availability and seat maps must never be served
// stale, so they are registered elsewhere without caching.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, s *handler.SessionHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	read := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "USER"),
	)
	listMW := []echo.MiddlewareFunc{}
	if cache != nil {
		listMW = append(listMW, cache)
	}

	// ---- Themes ----
	read.GET("/themes", h.ListThemes, listMW...)

	// ---- Astronomy shows ----
	read.GET("/shows", h.ListShows, listMW...)
	read.GET("/shows/:id", h.GetShow)

	// ---- Planetarium domes ----
	read.GET("/domes", h.ListDomes, listMW...)
	read.GET("/domes/:id", h.GetDome)

	// ---- Show sessions ----
	read.GET("/sessions", s.ListSessions)
	read.GET("/sessions/:id", s.GetSession)

	admin := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	admin.POST("/themes", h.CreateTheme)
	admin.POST("/shows", h.CreateShow)
	admin.POST("/domes", h.CreateDome)
	admin.POST("/sessions", s.CreateSession)
	// Sessions are the only catalog entity that can be rescheduled or
	// cancelled after creation.
	admin.PUT("/sessions/:id", s.UpdateSession)
	admin.PATCH("/sessions/:id", s.UpdateSession)
	admin.DELETE("/sessions/:id", s.DeleteSession)
}
