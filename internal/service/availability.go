package service

import (
	"context"
	"fmt"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/utils"
)

// BookingStore is the persistence surface the booking core depends on.
// The MySQL repository satisfies it in production; tests supply an
// in-memory fake.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	ListBlocking(ctx context.Context, venueID, date string, statuses []model.BookingStatus) ([]model.Booking, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByLookupToken(ctx context.Context, token string) (*model.Booking, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*model.Booking, error)
	UpdateStatusIfExpected(ctx context.Context, id uint64, expected, next model.BookingStatus, reason string) (bool, error)
	SetAdminNotes(ctx context.Context, id uint64, notes string) error
	SetPaymentStatus(ctx context.Context, id uint64, ps model.PaymentStatus) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByVenueDate(ctx context.Context, venueID, date string) ([]model.Booking, error)
}

// VenueStore answers venue existence and ownership questions.
type VenueStore interface {
	OwnerID(ctx context.Context, venueID string) (uint64, error)
	GetByID(ctx context.Context, venueID string) (*model.Venue, error)
}

// Blocking status sets per flow.  The pay-at-venue path is conservative
// and counts pending requests as occupying the slot; the pre-paid path
// counts only confirmed bookings, because pre-paid bookings are created
// confirmed-on-success and no intermediate pending row ever exists.
var (
	BlockingPayAtVenue = []model.BookingStatus{model.StatusPending, model.StatusConfirmed}
	BlockingPrepaid    = []model.BookingStatus{model.StatusConfirmed}
)

// Availability is the result of a slot check.
type Availability struct {
	Available     bool
	ConflictCount int
}

// AvailabilityChecker decides whether a requested slot can be booked by
// counting overlapping bookings in blocking statuses.  It never mutates
// state.
type AvailabilityChecker struct {
	Store BookingStore
}

// NewAvailabilityChecker returns a checker over the given store.
func NewAvailabilityChecker(store BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{Store: store}
}

// CheckAvailable reports whether [startMin, endMin) on the venue and
// date is free of overlapping bookings in the given statuses.  A query
// failure surfaces as ErrAvailabilityCheck, never as "unavailable".
func (a *AvailabilityChecker) CheckAvailable(ctx context.Context, venueID, date string, startMin, endMin int, statuses []model.BookingStatus) (Availability, error) {
	existing, err := a.Store.ListBlocking(ctx, venueID, date, statuses)
	if err != nil {
		return Availability{}, fmt.Errorf("%w: %v", ErrAvailabilityCheck, err)
	}
	conflicts := 0
	for _, b := range existing {
		s, err := utils.ParseClock(b.StartTime)
		if err != nil {
			return Availability{}, fmt.Errorf("%w: stored booking %d has malformed start_time", ErrAvailabilityCheck, b.ID)
		}
		e, err := utils.ParseClock(b.EndTime)
		if err != nil {
			return Availability{}, fmt.Errorf("%w: stored booking %d has malformed end_time", ErrAvailabilityCheck, b.ID)
		}
		if utils.RangesOverlap(startMin, endMin, s, e) {
			conflicts++
		}
	}
	return Availability{Available: conflicts == 0, ConflictCount: conflicts}, nil
}
