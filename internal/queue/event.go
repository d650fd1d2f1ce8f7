// Package queue defines the message payloads exchanged over the broker
// and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a booking reaches confirmed,
// on either pathway.  It carries enough for downstream consumers to
// notify the venue partner or feed analytics without querying the
// primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64  `json:"booking_id"`
	VenueID       string  `json:"venue_id"`
	UserID        *uint64 `json:"user_id,omitempty"`
	BookingDate   string  `json:"booking_date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	GuestName     string  `json:"guest_name"`
	GuestCount    int     `json:"guest_count"`
	TotalPrice    int64   `json:"total_price"`
	PaymentMethod string  `json:"payment_method"`
	ConfirmedAt   string  `json:"confirmed_at"`
}

// PaymentAlertEvent is published when a compensating refund fails after
// a successful charge: money collected, no booking, no refund.  This is
// the one failure mode the service cannot heal on its own, so it goes
// to an operator channel instead of only the API caller.
type PaymentAlertEvent struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Cause           string `json:"cause"`
	RefundError     string `json:"refund_error"`
	OccurredAt      string `json:"occurred_at"`
}
