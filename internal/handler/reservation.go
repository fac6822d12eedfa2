package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/queue"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

// reservationPageSize is how many reservations one page of
// /v1/my-reservations carries.
const reservationPageSize = 10

// ReservationHandler bundles dependencies for booking endpoints.
// PublishEvent is injectable so tests can run without a broker; when
// nil no event is published.
type ReservationHandler struct {
	Ledger       *booking.Ledger
	Reservations *repository.ReservationRepo
	Sessions     *repository.SessionRepo
	PublishEvent func(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

func NewReservationHandler(l *booking.Ledger, r *repository.ReservationRepo, s *repository.SessionRepo,
	publish func(ctx context.Context, ev queue.ReservationCreatedEvent) error) *ReservationHandler {
	return &ReservationHandler{Ledger: l, Reservations: r, Sessions: s, PublishEvent: publish}
}

type seatReq struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

type createReservationReq struct {
	ShowSessionID uint64    `json:"show_session_id"`
	Seats         []seatReq `json:"seats"`
}

type seatView struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

type reservationCreatedResp struct {
	ID            uint64     `json:"id"`
	ShowSessionID uint64     `json:"show_session_id"`
	Seats         []seatView `json:"seats"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CreateReservation handles POST /v1/reservations.  The request either
// books every listed seat or books nothing: any invalid or already
// taken coordinate fails the whole request.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ShowSessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_session_id is required"})
	}
	seats := make([]booking.Coordinate, 0, len(req.Seats))
	for _, s := range req.Seats {
		seats = append(seats, booking.Coordinate{Row: s.Row, Seat: s.Seat})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Ledger.CreateReservation(ctx, userID, req.ShowSessionID, seats)
	if err != nil {
		var vErr *booking.ValidationError
		var takenErr *booking.SeatTakenError
		switch {
		case errors.Is(err, booking.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Reason})
		case errors.As(err, &takenErr):
			conflicts := make([]seatView, 0, len(takenErr.Seats))
			for _, s := range takenErr.Seats {
				conflicts = append(conflicts, seatView{Row: s.Row, Seat: s.Seat})
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "one or more seats are already taken",
				"seats": conflicts,
			})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create reservation"})
		}
	}

	h.publishCreated(res)

	out := reservationCreatedResp{
		ID:            res.ID,
		ShowSessionID: res.SessionID,
		Seats:         make([]seatView, 0, len(res.Seats)),
		CreatedAt:     res.CreatedAt,
	}
	for _, s := range res.Seats {
		out.Seats = append(out.Seats, seatView{Row: s.Row, Seat: s.Seat})
	}
	return c.JSON(http.StatusCreated, out)
}

// publishCreated emits a reservation.created event on a best-effort
// basis.  A broker outage must never fail a committed reservation, so
// errors are swallowed after the publisher logs them.
func (h *ReservationHandler) publishCreated(res *booking.Reservation) {
	if h.PublishEvent == nil {
		return
	}
	ev := queue.ReservationCreatedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		ShowSessionID: res.SessionID,
		CreatedAt:     res.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, s := range res.Seats {
		ev.Seats = append(ev.Seats, s.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if detail, err := h.Sessions.GetByID(ctx, res.SessionID); err == nil {
		ev.ShowTitle = detail.ShowTitle
		ev.DomeName = detail.DomeName
		ev.ShowTime = detail.ShowTime.UTC().Format(time.RFC3339)
	}
	_ = h.PublishEvent(ctx, ev)
}

// MyReservations handles GET /v1/my-reservations?page=N.  Results are
// the caller's own reservations, newest first, ten per page.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := pageParam(c)
	items, total, err := h.Reservations.ListByUser(c.Request().Context(), userID, page, reservationPageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"page":      page,
		"page_size": reservationPageSize,
		"total":     total,
	})
}

// Availability handles GET /v1/sessions/:id/availability and reports
// how many seats remain free.
func (h *ReservationHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	free, err := h.Ledger.Availability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":        id,
		"tickets_available": free,
	})
}

// SeatMap handles GET /v1/sessions/:id/seats: the dome grid plus every
// taken coordinate, for rendering a seating plan.
func (h *ReservationHandler) SeatMap(c echo.Context) error {
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
	coords, err := h.Ledger.TakenCoordinates(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	taken := make([]seatView, 0, len(coords))
	for _, s := range coords {
		taken = append(taken, seatView{Row: s.Row, Seat: s.Seat})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":   id,
		"rows":         detail.DomeRows,
		"seats_in_row": detail.SeatsInRow,
		"taken":        taken,
	})
}
