package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/model"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

// SessionHandler bundles dependencies for show session endpoints.
type SessionHandler struct {
	Sessions *repository.SessionRepo
	Shows    *repository.ShowRepo
	Domes    *repository.DomeRepo
}

func NewSessionHandler(s *repository.SessionRepo, sh *repository.ShowRepo, d *repository.DomeRepo) *SessionHandler {
	return &SessionHandler{Sessions: s, Shows: sh, Domes: d}
}

type sessionReq struct {
	AstronomyShowID   uint64 `json:"astronomy_show_id"`
	PlanetariumDomeID uint64 `json:"planetarium_dome_id"`
	ShowTime          string `json:"show_time"` // RFC 3339
}

// parse validates the request body and checks that the referenced show
// and dome exist, returning an error message suitable for a 400
// response.
func (h *SessionHandler) parse(ctx context.Context, req sessionReq) (time.Time, string) {
	if req.AstronomyShowID == 0 || req.PlanetariumDomeID == 0 {
		return time.Time{}, "astronomy_show_id and planetarium_dome_id are required"
	}
	when, err := time.Parse(time.RFC3339, req.ShowTime)
	if err != nil {
		return time.Time{}, "show_time must be RFC 3339"
	}
	if _, err := h.Shows.GetByID(ctx, req.AstronomyShowID); err != nil {
		if err == repository.ErrNotFound {
			return time.Time{}, "unknown astronomy_show_id"
		}
		return time.Time{}, "db error"
	}
	if _, err := h.Domes.GetByID(ctx, req.PlanetariumDomeID); err != nil {
		if err == repository.ErrNotFound {
			return time.Time{}, "unknown planetarium_dome_id"
		}
		return time.Time{}, "db error"
	}
	return when.UTC(), ""
}

// CreateSession handles POST /v1/sessions.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	when, msg := h.parse(ctx, req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	sess := &model.ShowSession{
		AstronomyShowID:   req.AstronomyShowID,
		PlanetariumDomeID: req.PlanetariumDomeID,
		ShowTime:          when,
	}
	if err := h.Sessions.Create(ctx, sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create session"})
	}
	detail, err := h.Sessions.GetByID(ctx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, detail)
}

// ListSessions handles GET /v1/sessions with optional ?date=2006-01-02
// and ?show=<id> filters.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	var f repository.SessionFilter
	if d := strings.TrimSpace(c.QueryParam("date")); d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		f.Date = d
	}
	if s := c.QueryParam("show"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show filter"})
		}
		f.AstronomyShowID = id
	}
	items, err := h.Sessions.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSession handles GET /v1/sessions/:id.
func (h *SessionHandler) GetSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	detail, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// UpdateSession handles PUT /v1/sessions/:id.  Moving a session to a
// different dome is refused while any sold ticket falls outside the new
// dome's seat grid.
func (h *SessionHandler) UpdateSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	when, msg := h.parse(ctx, req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	if err := h.Sessions.Update(ctx, id, req.AstronomyShowID, req.PlanetariumDomeID, when); err != nil {
		var tooSmall *repository.DomeTooSmallError
		if errors.As(err, &tooSmall) {
			return c.JSON(http.StatusConflict, echo.Map{"error": tooSmall.Error()})
		}
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	detail, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// DeleteSession handles DELETE /v1/sessions/:id.  Tickets and
// reservations referencing the session are removed by FK cascade.
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
