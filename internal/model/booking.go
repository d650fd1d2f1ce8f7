package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  The
// transitions between them are fixed: pending may move to confirmed,
// rejected or cancelled; confirmed may only move to cancelled; rejected
// and cancelled are terminal.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition out of s is permitted.
func (s BookingStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// CanTransition reports whether a booking currently in status s may move
// to next.  The rules mirror the lifecycle above; every state-changing
// write must pass this check before touching storage.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// PaymentStatus tracks whether money has been collected for a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod distinguishes the two booking pathways: payment at the
// venue after the visit, or a card charge through the gateway before the
// booking row exists.
type PaymentMethod string

const (
	MethodPayAtVenue PaymentMethod = "pay_at_venue"
	MethodStripe     PaymentMethod = "stripe"
)

// Booking mirrors a row of the bookings table.  The guest contact fields
// are denormalized at booking time so the record stays self-contained
// even when a user later edits their profile.  TotalPrice is expressed
// in the smallest currency unit and never changes after creation.
// AdminNotes is internal-only and must never be exposed to the booking
// owner.
type Booking struct {
	ID                    uint64        // bookings.id
	VenueID               string        // bookings.venue_id (UUID)
	UserID                *uint64       // bookings.user_id (nullable; guest bookings have none)
	BookingDate           string        // bookings.booking_date (YYYY-MM-DD)
	StartTime             string        // bookings.start_time (zero-padded HH:MM, venue-local)
	EndTime               string        // bookings.end_time (same-day, strictly after start)
	GuestCount            int           // bookings.guest_count (1-100)
	TotalPrice            int64         // bookings.total_price (minor units, immutable)
	PaymentStatus         PaymentStatus // bookings.payment_status
	PaymentMethod         PaymentMethod // bookings.payment_method
	StripePaymentIntentID *string       // bookings.stripe_payment_intent_id (pre-paid flow only)
	Status                BookingStatus // bookings.status
	GuestName             string        // bookings.guest_name
	GuestPhone            string        // bookings.guest_phone
	GuestEmail            string        // bookings.guest_email
	Notes                 string        // bookings.notes (carries the lookup token line)
	AdminNotes            string        // bookings.admin_notes (internal only)
	LookupToken           string        // bookings.lookup_token
	CreatedAt             time.Time     // bookings.created_at
	UpdatedAt             time.Time     // bookings.updated_at
}
