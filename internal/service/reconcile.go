package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/payment"
	"github.com/tapn/booking-service/internal/repository"
	"github.com/tapn/booking-service/internal/utils"
)

// intentIDPattern matches gateway payment intent identifiers.
var intentIDPattern = regexp.MustCompile(`^pi_[a-zA-Z0-9]{24,}$`)

// defaultUpstreamTimeout bounds every gateway call so reconciliation
// can never hang past the request.
const defaultUpstreamTimeout = 10 * time.Second

// PaymentFlow implements the pre-paid pathway: a payment intent is
// created before any booking row exists, and the booking is created
// already confirmed only after the gateway reports success.  Every
// failure branch after a successful charge issues a refund before the
// error is returned.
type PaymentFlow struct {
	Bookings BookingStore
	Checker  *AvailabilityChecker
	Gateway  payment.Gateway
	Events   EventPublisher
	Timeout  time.Duration // per external call; defaults to 10s
}

// NewPaymentFlow wires the pre-paid pathway.  Events may be NopEvents.
func NewPaymentFlow(bookings BookingStore, checker *AvailabilityChecker, gw payment.Gateway, events EventPublisher) *PaymentFlow {
	if bookings == nil || checker == nil || gw == nil {
		panic("nil dependency passed to NewPaymentFlow")
	}
	if events == nil {
		events = NopEvents{}
	}
	return &PaymentFlow{Bookings: bookings, Checker: checker, Gateway: gw, Events: events}
}

func (p *PaymentFlow) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultUpstreamTimeout
}

// Metadata keys used to round-trip the booking request through the
// gateway.  The intent metadata is the single source of truth for what
// the booking should contain.
const (
	metaVenueID     = "venue_id"
	metaBookingDate = "booking_date"
	metaStartTime   = "start_time"
	metaEndTime     = "end_time"
	metaGuestCount  = "guest_count"
	metaGuestName   = "guest_name"
	metaGuestPhone  = "guest_phone"
	metaGuestEmail  = "guest_email"
	metaNotes       = "notes"
	metaLookupToken = "lookup_token"
	metaUserID      = "user_id"
)

// CreateIntent validates the request, checks the slot against confirmed
// bookings only, and opens a gateway hold carrying the normalized
// booking in its metadata together with a pre-generated lookup token.
// No booking row is created at this stage.
func (p *PaymentFlow) CreateIntent(ctx context.Context, raw RawBookingRequest) (*payment.Intent, error) {
	norm, err := ValidateBookingRequest(raw)
	if err != nil {
		return nil, err
	}
	avail, err := p.Checker.CheckAvailable(ctx, norm.VenueID, norm.BookingDate, norm.StartMin, norm.EndMin, BlockingPrepaid)
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
	metadata := map[string]string{
		metaVenueID:     norm.VenueID,
		metaBookingDate: norm.BookingDate,
		metaStartTime:   norm.StartTime,
		metaEndTime:     norm.EndTime,
		metaGuestCount:  strconv.Itoa(norm.GuestCount),
		metaGuestName:   norm.GuestName,
		metaGuestPhone:  norm.GuestPhone,
		metaGuestEmail:  norm.GuestEmail,
		metaNotes:       norm.Notes,
		metaLookupToken: token,
	}
	if norm.UserID != nil {
		metadata[metaUserID] = strconv.FormatUint(*norm.UserID, 10)
	}
	cctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	intent, err := p.Gateway.CreateIntent(cctx, norm.TotalPrice, norm.GuestEmail, metadata)
	if err != nil {
		return nil, p.upstreamErr("create intent", err)
	}
	return intent, nil
}

// ReconcilePayment turns a succeeded payment intent into a confirmed
// booking.  The availability re-check closes the race against holds
// confirmed during the payment flow: if the slot is gone, the charge is
// refunded in full before the error returns.  Reconciling an intent
// that already produced a booking returns that booking unchanged.
func (p *PaymentFlow) ReconcilePayment(ctx context.Context, intentID string) (*model.Booking, error) {
	if !intentIDPattern.MatchString(intentID) {
		return nil, ErrInvalidPaymentReference
	}

	// A repeated confirm call for the same intent must not create a
	// second booking.
	if existing, err := p.Bookings.GetByPaymentIntent(ctx, intentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, p.timeout())
	intent, err := p.Gateway.RetrieveIntent(rctx, intentID)
	cancel()
	if err != nil {
		return nil, p.upstreamErr("retrieve intent", err)
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, fmt.Errorf("%w: gateway status is %q", ErrPaymentNotCompleted, intent.Status)
	}

	norm, token, err := bookingFromMetadata(intent.Metadata, intent.Amount)
	if err != nil {
		return nil, err
	}

	// Money has been charged from here on: every failure branch that is
	// not safely retryable must refund before returning.
	avail, err := p.Checker.CheckAvailable(ctx, norm.VenueID, norm.BookingDate, norm.StartMin, norm.EndMin, BlockingPrepaid)
	if err != nil {
		// Retryable: nothing committed, the charge stays reconcilable.
		return nil, err
	}
	if !avail.Available {
		p.refund(ctx, intentID, ErrSlotTakenDuringPayment)
		return nil, ErrSlotTakenDuringPayment
	}

	piID := intentID
	b := &model.Booking{
		VenueID:               norm.VenueID,
		UserID:                norm.UserID,
		BookingDate:           norm.BookingDate,
		StartTime:             norm.StartTime,
		EndTime:               norm.EndTime,
		GuestCount:            norm.GuestCount,
		TotalPrice:            intent.Amount,
		PaymentStatus:         model.PaymentPaid,
		PaymentMethod:         model.MethodStripe,
		StripePaymentIntentID: &piID,
		Status:                model.StatusConfirmed,
		GuestName:             norm.GuestName,
		GuestPhone:            norm.GuestPhone,
		GuestEmail:            norm.GuestEmail,
		Notes:                 appendLookupToken(norm.Notes, token),
		LookupToken:           token,
	}
	if err := p.Bookings.Insert(ctx, b); err != nil {
		p.refund(ctx, intentID, fmt.Errorf("%w: %v", ErrBookingCreation, err))
		return nil, ErrBookingCreation
	}

	p.Events.BookingConfirmed(ctx, b)
	return b, nil
}

// refund issues the compensating refund after a post-charge failure.  A
// refund that itself fails is the one failure mode that cannot be
// auto-healed: it is logged as critical and pushed to the operator
// alert queue.
func (p *PaymentFlow) refund(ctx context.Context, intentID string, cause error) {
	rctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	if err := p.Gateway.Refund(rctx, intentID); err != nil {
		log.Printf("CRITICAL: refund failed for intent %s (cause: %v): %v; money collected with no booking, manual intervention required",
			intentID, cause, err)
		p.Events.PaymentAlert(ctx, intentID, cause, err)
	}
}

// upstreamErr classifies a gateway failure as a timeout or a lookup
// failure so callers can back off appropriately.
func (p *PaymentFlow) upstreamErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrPaymentLookup, op, err)
}

// bookingFromMetadata rebuilds the normalized booking from intent
// metadata by feeding it back through the validator, so corrupt or
// tampered metadata cannot reach persistence.  The charged amount comes
// from the intent itself, not from metadata.
func bookingFromMetadata(md map[string]string, amount int64) (*NormalizedBooking, string, error) {
	token := md[metaLookupToken]
	if token == "" {
		return nil, "", fmt.Errorf("%w: intent metadata is missing the lookup token", ErrPaymentLookup)
	}
	raw := RawBookingRequest{
		VenueID:     md[metaVenueID],
		BookingDate: md[metaBookingDate],
		StartTime:   md[metaStartTime],
		EndTime:     md[metaEndTime],
		Notes:       md[metaNotes],
		GuestName:   md[metaGuestName],
		GuestPhone:  md[metaGuestPhone],
		GuestEmail:  md[metaGuestEmail],
	}
	if v := md[metaGuestCount]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			raw.GuestCount = NewGuestCount(n)
		}
	}
	raw.TotalPrice = &amount
	if v := md[metaUserID]; v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			raw.UserID = &n
		}
	}
	norm, err := ValidateBookingRequest(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: intent metadata failed validation: %v", ErrPaymentLookup, err)
	}
	return norm, token, nil
}
