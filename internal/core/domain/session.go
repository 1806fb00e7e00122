package domain

import "time"

// Session is the typed, server-side state of one signed-in browser. It
// replaces the ad hoc string keys the UI used to keep in local storage.
type Session struct {
	ID            string        `json:"id"`
	Authorization string        `json:"authorization,omitempty"`
	User          *User         `json:"user,omitempty"`
	Booking       *BookingDraft `json:"booking,omitempty"`
	LastViewport  *Viewport     `json:"last_viewport,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BookingDraft carries the booking flow across screens.
type BookingDraft struct {
	VehicleType string          `json:"vehicle_type"`
	QuotedPrice float64         `json:"quoted_price"`
	BookingID   string          `json:"booking_id,omitempty"`
	Summary     *BookingSummary `json:"summary,omitempty"`
}

// Authenticated reports whether the session holds a backend credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Authorization != "" && s.User != nil
}
