package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/repository"
	"github.com/tapn/booking-service/internal/utils"
)

// RefundIssuer reverses a captured charge when a paid booking is
// cancelled.  The payment gateway satisfies it.
type RefundIssuer interface {
	Refund(ctx context.Context, intentID string) error
}

// EventPublisher decouples the booking core from the message broker.
// Publication is best effort: implementations log failures and never
// block or fail the request that triggered them.
type EventPublisher interface {
	// BookingConfirmed announces a booking that reached confirmed.
	BookingConfirmed(ctx context.Context, b *model.Booking)
	// PaymentAlert announces a refund failure that requires manual
	// intervention: money collected, no booking, no refund.
	PaymentAlert(ctx context.Context, intentID string, cause, refundErr error)
}

// NopEvents discards all events.  Used in tests and when no broker is
// configured.
type NopEvents struct{}

func (NopEvents) BookingConfirmed(context.Context, *model.Booking)   {}
func (NopEvents) PaymentAlert(context.Context, string, error, error) {}

// BookingService owns the booking state machine and the pay-at-venue
// creation pathway.  The pre-paid pathway lives in PaymentFlow, which
// shares this service's store and checker.
type BookingService struct {
	Bookings BookingStore
	Venues   VenueStore
	Checker  *AvailabilityChecker
	Events   EventPublisher
	Refunds  RefundIssuer // optional; nil skips refunds on cancellation
}

// NewBookingService wires a lifecycle manager.  Events may be NopEvents.
func NewBookingService(bookings BookingStore, venues VenueStore, checker *AvailabilityChecker, events EventPublisher) *BookingService {
	if bookings == nil || venues == nil || checker == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if events == nil {
		events = NopEvents{}
	}
	return &BookingService{Bookings: bookings, Venues: venues, Checker: checker, Events: events}
}

// lookupTokenLine is the machine-readable line appended to notes so the
// stored record is self-contained even if the lookup_token column is
// ever dropped from an export.
const lookupTokenPrefix = "Lookup-Token: "

func appendLookupToken(notes, token string) string {
	line := lookupTokenPrefix + token
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// CreatePayAtVenue validates the request, checks the slot against both
// pending and confirmed bookings, and inserts a pending booking that
// will be paid physically at the venue.  The returned booking carries
// the generated lookup token.
func (s *BookingService) CreatePayAtVenue(ctx context.Context, raw RawBookingRequest) (*model.Booking, error) {
	norm, err := ValidateBookingRequest(raw)
	if err != nil {
		return nil, err
	}
	avail, err := s.Checker.CheckAvailable(ctx, norm.VenueID, norm.BookingDate, norm.StartMin, norm.EndMin, BlockingPayAtVenue)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, ErrSlotUnavailable
	}
	token, err := utils.NewLookupToken()
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		VenueID:       norm.VenueID,
		UserID:        norm.UserID,
		BookingDate:   norm.BookingDate,
		StartTime:     norm.StartTime,
		EndTime:       norm.EndTime,
		GuestCount:    norm.GuestCount,
		TotalPrice:    norm.TotalPrice,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: model.MethodPayAtVenue,
		Status:        model.StatusPending,
		GuestName:     norm.GuestName,
		GuestPhone:    norm.GuestPhone,
		GuestEmail:    norm.GuestEmail,
		Notes:         appendLookupToken(norm.Notes, token),
		LookupToken:   token,
	}
	if err := s.Bookings.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// authorizePartner verifies that the actor is an admin or the partner
// who owns the venue.
func (s *BookingService) authorizePartner(ctx context.Context, actor model.Actor, venueID string) error {
	if actor.Admin() {
		return nil
	}
	if !actor.Partner() {
		return ErrForbidden
	}
	ownerID, err := s.Venues.OwnerID(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if ownerID != actor.UserID {
		return ErrForbidden
	}
	return nil
}

// ConfirmPending transitions a pending booking to confirmed on behalf
// of the owning partner or an admin.  Calling it on an already-confirmed
// booking returns the booking together with ErrInvalidTransition;
// handlers may choose to treat that as a no-op success for idempotent
// clients.
func (s *BookingService) ConfirmPending(ctx context.Context, id uint64, actor model.Actor) (*model.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.authorizePartner(ctx, actor, b.VenueID); err != nil {
		return nil, err
	}
	switch b.Status {
	case model.StatusConfirmed:
		return b, ErrInvalidTransition
	case model.StatusCancelled:
		return nil, ErrAlreadyTerminal
	case model.StatusRejected:
		return nil, ErrInvalidTransition
	}
	swapped, err := s.Bookings.UpdateStatusIfExpected(ctx, id, model.StatusPending, model.StatusConfirmed, "")
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Someone else changed the status between read and write.
		return nil, ErrInvalidTransition
	}
	b.Status = model.StatusConfirmed
	s.Events.BookingConfirmed(ctx, b)
	return b, nil
}

// DeclineOrCancel moves a booking to rejected or cancelled.  Rejection
// is a partner/admin action and only valid from pending; cancellation is
// valid from pending or confirmed and may be performed by the booking
// owner, the owning partner or an admin.  A cancelled booking always
// fails with ErrAlreadyTerminal regardless of the requested target.
func (s *BookingService) DeclineOrCancel(ctx context.Context, id uint64, actor model.Actor, target model.BookingStatus, reason string) (*model.Booking, error) {
	if target != model.StatusRejected && target != model.StatusCancelled {
		return nil, ErrInvalidTransition
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.Status == model.StatusCancelled {
		return nil, ErrAlreadyTerminal
	}
	if target == model.StatusRejected {
		if err := s.authorizePartner(ctx, actor, b.VenueID); err != nil {
			return nil, err
		}
	} else if err := s.authorizeCancel(ctx, actor, b); err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(target) {
		return nil, ErrInvalidTransition
	}
	swapped, err := s.Bookings.UpdateStatusIfExpected(ctx, id, b.Status, target, reason)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Re-read to report the precise violation after a lost race.
		cur, rerr := s.Bookings.GetByID(ctx, id)
		if rerr == nil && cur.Status == model.StatusCancelled {
			return nil, ErrAlreadyTerminal
		}
		return nil, ErrInvalidTransition
	}
	b.Status = target
	if target == model.StatusCancelled {
		s.refundIfPaid(ctx, b)
	}
	return b, nil
}

// refundIfPaid reverses the charge on a cancelled pre-paid booking and
// records the refund on the row.  A refund failure cannot undo the
// cancellation: it is logged as critical and pushed to the operator
// alert queue instead.
func (s *BookingService) refundIfPaid(ctx context.Context, b *model.Booking) {
	if s.Refunds == nil || b.PaymentMethod != model.MethodStripe ||
		b.PaymentStatus != model.PaymentPaid || b.StripePaymentIntentID == nil {
		return
	}
	intentID := *b.StripePaymentIntentID
	if err := s.Refunds.Refund(ctx, intentID); err != nil {
		log.Printf("CRITICAL: refund failed for intent %s while cancelling booking %d: %v; manual intervention required",
			intentID, b.ID, err)
		s.Events.PaymentAlert(ctx, intentID, fmt.Errorf("booking %d cancelled", b.ID), err)
		return
	}
	if err := s.Bookings.SetPaymentStatus(ctx, b.ID, model.PaymentRefunded); err != nil {
		log.Printf("WARN: refund for intent %s succeeded but booking %d still reads paid: %v", intentID, b.ID, err)
		return
	}
	b.PaymentStatus = model.PaymentRefunded
}

// authorizeCancel permits the booking owner, an admin, or the partner
// who owns the venue to cancel.
func (s *BookingService) authorizeCancel(ctx context.Context, actor model.Actor, b *model.Booking) error {
	if actor.Admin() {
		return nil
	}
	if b.UserID != nil && *b.UserID == actor.UserID && actor.UserID != 0 {
		return nil
	}
	if actor.Partner() {
		return s.authorizePartner(ctx, actor, b.VenueID)
	}
	return ErrForbidden
}

// AdminUpdate lets an admin drive a status transition and/or replace the
// internal notes in one call.  Transitions still respect the state
// machine: cancelled stays terminal even for admins.
func (s *BookingService) AdminUpdate(ctx context.Context, id uint64, actor model.Actor, status *model.BookingStatus, adminNotes *string) (*model.Booking, error) {
	if !actor.Admin() {
		return nil, ErrForbidden
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if status != nil {
		next := *status
		if !next.Valid() {
			return nil, ErrInvalidTransition
		}
		if b.Status == model.StatusCancelled {
			return nil, ErrAlreadyTerminal
		}
		if !b.Status.CanTransition(next) {
			return nil, ErrInvalidTransition
		}
		swapped, err := s.Bookings.UpdateStatusIfExpected(ctx, id, b.Status, next, "")
		if err != nil {
			return nil, err
		}
		if !swapped {
			return nil, ErrInvalidTransition
		}
		b.Status = next
		if next == model.StatusConfirmed {
			s.Events.BookingConfirmed(ctx, b)
		}
		if next == model.StatusCancelled {
			s.refundIfPaid(ctx, b)
		}
	}
	if adminNotes != nil {
		if err := s.Bookings.SetAdminNotes(ctx, id, *adminNotes); err != nil {
			return nil, err
		}
		b.AdminNotes = *adminNotes
	}
	return b, nil
}

// VenueAvailability answers the public availability query.  An unknown
// venue is reported as ErrNotFound rather than as an open slot.
func (s *BookingService) VenueAvailability(ctx context.Context, venueID, date string, startMin, endMin int) (Availability, error) {
	if _, err := s.Venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Availability{}, ErrNotFound
		}
		return Availability{}, err
	}
	return s.Checker.CheckAvailable(ctx, venueID, date, startMin, endMin, BlockingPayAtVenue)
}

// LookupByToken retrieves a booking by its guest lookup token.
func (s *BookingService) LookupByToken(ctx context.Context, token string) (*model.Booking, error) {
	if token == "" {
		return nil, invalid("token", "is required")
	}
	b, err := s.Bookings.GetByLookupToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListForUser returns the caller's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

// ListForVenue returns a venue's bookings for the owning partner or an
// admin, optionally restricted to one date.
func (s *BookingService) ListForVenue(ctx context.Context, actor model.Actor, venueID, date string) ([]model.Booking, error) {
	if err := s.authorizePartner(ctx, actor, venueID); err != nil {
		return nil, err
	}
	return s.Bookings.ListByVenueDate(ctx, venueID, date)
}
