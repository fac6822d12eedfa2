// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published when a reservation is successfully
// committed. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ShowSessionID uint64   `json:"show_session_id"`
	ShowTitle     string   `json:"show_title"`
	DomeName      string   `json:"dome_name"`
	ShowTime      string   `json:"show_time"`
	Seats         []string `json:"seats"`
	CreatedAt     string   `json:"created_at"`
}
