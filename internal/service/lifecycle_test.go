package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapn/booking-service/internal/model"
)

const ownerID = uint64(7)

func newTestService(store *fakeStore, events EventPublisher) *BookingService {
	venues := fakeVenues{testVenueID: ownerID}
	return NewBookingService(store, venues, NewAvailabilityChecker(store), events)
}

func TestCreatePayAtVenue(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	b, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.Equal(t, model.MethodPayAtVenue, b.PaymentMethod)
	assert.Len(t, b.LookupToken, 32)
	assert.Contains(t, b.Notes, "Lookup-Token: "+b.LookupToken)

	// The token resolves back to the booking.
	got, err := svc.LookupByToken(context.Background(), b.LookupToken)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestCreatePayAtVenueSlotTaken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	_, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	// Even a pending booking blocks a second overlapping request.
	req := validRequest()
	req.StartTime = "19:00"
	req.EndTime = "21:00"
	_, err = svc.CreatePayAtVenue(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// An adjacent slot is fine.
	req = validRequest()
	req.StartTime = "20:00"
	req.EndTime = "22:00"
	_, err = svc.CreatePayAtVenue(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreatePayAtVenueInvalidRequest(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	req := validRequest()
	req.GuestEmail = "nope"
	_, err := svc.CreatePayAtVenue(context.Background(), req)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestConfirmPending(t *testing.T) {
	store := newFakeStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)

	b, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	partner := model.Actor{UserID: ownerID, Role: model.RolePartner}
	got, err := svc.ConfirmPending(context.Background(), b.ID, partner)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, []uint64{b.ID}, events.confirmed)

	// Confirming again reports the no-op with the booking attached.
	got, err = svc.ConfirmPending(context.Background(), b.ID, partner)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Len(t, events.confirmed, 1)
}

func TestConfirmPendingAuthorization(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	b, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	// A regular user cannot confirm.
	_, err = svc.ConfirmPending(context.Background(), b.ID, model.Actor{UserID: 1, Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	// A partner who does not own the venue cannot confirm.
	_, err = svc.ConfirmPending(context.Background(), b.ID, model.Actor{UserID: 99, Role: model.RolePartner})
	assert.ErrorIs(t, err, ErrForbidden)

	// An admin can.
	_, err = svc.ConfirmPending(context.Background(), b.ID, model.Actor{UserID: 1, Role: model.RoleAdmin})
	assert.NoError(t, err)
}

func TestConfirmPendingNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	_, err := svc.ConfirmPending(context.Background(), 12345, model.Actor{UserID: 1, Role: model.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclineBooking(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	b, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	partner := model.Actor{UserID: ownerID, Role: model.RolePartner}
	got, err := svc.DeclineOrCancel(context.Background(), b.ID, partner, model.StatusRejected, "fully booked offline")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	stored, err := store.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.AdminNotes, "fully booked offline")

	// Rejected is terminal for confirmation attempts.
	_, err = svc.ConfirmPending(context.Background(), b.ID, partner)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Declining a confirmed booking is not allowed.
	b2, err := svc.CreatePayAtVenue(context.Background(), func() RawBookingRequest {
		r := validRequest()
		r.StartTime = "10:00"
		r.EndTime = "12:00"
		return r
	}())
	require.NoError(t, err)
	_, err = svc.ConfirmPending(context.Background(), b2.ID, partner)
	require.NoError(t, err)
	_, err = svc.DeclineOrCancel(context.Background(), b2.ID, partner, model.StatusRejected, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	req := validRequest()
	req.UserID = uint64Ptr(42)
	b, err := svc.CreatePayAtVenue(context.Background(), req)
	require.NoError(t, err)

	owner := model.Actor{UserID: 42, Role: model.RoleUser}

	// A different user cannot cancel someone else's booking.
	_, err = svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 43, Role: model.RoleUser}, model.StatusCancelled, "")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.DeclineOrCancel(context.Background(), b.ID, owner, model.StatusCancelled, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	// Cancelled is terminal, even for an admin.
	_, err = svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 1, Role: model.RoleAdmin}, model.StatusCancelled, "")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	_, err = svc.ConfirmPending(context.Background(), b.ID, model.Actor{UserID: 1, Role: model.RoleAdmin})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelConfirmedBooking(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	req := validRequest()
	req.UserID = uint64Ptr(42)
	b, err := svc.CreatePayAtVenue(context.Background(), req)
	require.NoError(t, err)

	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}
	_, err = svc.ConfirmPending(context.Background(), b.ID, admin)
	require.NoError(t, err)

	got, err := svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 42, Role: model.RoleUser}, model.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestCancelFreesTheSlot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	req := validRequest()
	req.UserID = uint64Ptr(42)
	b, err := svc.CreatePayAtVenue(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreatePayAtVenue(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 42, Role: model.RoleUser}, model.StatusCancelled, "")
	require.NoError(t, err)

	_, err = svc.CreatePayAtVenue(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestCancelPaidBookingRefunds(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	events := &recordingEvents{}
	svc := newTestService(store, events)
	svc.Refunds = gw

	intentID := "pi_cancel00000000000000000000"
	userID := uint64(42)
	b := &model.Booking{
		VenueID:               testVenueID,
		UserID:                &userID,
		BookingDate:           "2026-09-15",
		StartTime:             "18:00",
		EndTime:               "20:00",
		Status:                model.StatusConfirmed,
		PaymentStatus:         model.PaymentPaid,
		PaymentMethod:         model.MethodStripe,
		StripePaymentIntentID: &intentID,
	}
	require.NoError(t, store.Insert(context.Background(), b))

	got, err := svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 42, Role: model.RoleUser}, model.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, []string{intentID}, gw.refunded)

	stored, err := store.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, stored.PaymentStatus)
}

func TestCancelPaidBookingRefundFailureAlerts(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	events := &recordingEvents{}
	svc := newTestService(store, events)
	svc.Refunds = gw
	gw.refundErr = errors.New("gateway 500")

	intentID := "pi_cancel00000000000000000000"
	b := &model.Booking{
		VenueID:               testVenueID,
		BookingDate:           "2026-09-15",
		StartTime:             "18:00",
		EndTime:               "20:00",
		Status:                model.StatusConfirmed,
		PaymentStatus:         model.PaymentPaid,
		PaymentMethod:         model.MethodStripe,
		StripePaymentIntentID: &intentID,
	}
	require.NoError(t, store.Insert(context.Background(), b))

	// The cancellation itself still goes through.
	got, err := svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 1, Role: model.RoleAdmin}, model.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, []string{intentID}, events.alerts)
}

func TestCancelPayAtVenueDoesNotRefund(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	svc := newTestService(store, nil)
	svc.Refunds = gw

	req := validRequest()
	req.UserID = uint64Ptr(42)
	b, err := svc.CreatePayAtVenue(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.DeclineOrCancel(context.Background(), b.ID, model.Actor{UserID: 42, Role: model.RoleUser}, model.StatusCancelled, "")
	require.NoError(t, err)
	assert.Empty(t, gw.refunded)
}

func TestAdminUpdate(t *testing.T) {
	store := newFakeStore()
	events := &recordingEvents{}
	svc := newTestService(store, events)

	b, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}
	confirmed := model.StatusConfirmed
	notes := "guest called to verify"

	got, err := svc.AdminUpdate(context.Background(), b.ID, admin, &confirmed, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, notes, got.AdminNotes)
	assert.Equal(t, []uint64{b.ID}, events.confirmed)

	// Non-admins are rejected outright.
	_, err = svc.AdminUpdate(context.Background(), b.ID, model.Actor{UserID: ownerID, Role: model.RolePartner}, nil, &notes)
	assert.ErrorIs(t, err, ErrForbidden)

	// The state machine still applies: confirmed cannot become pending.
	pending := model.StatusPending
	_, err = svc.AdminUpdate(context.Background(), b.ID, admin, &pending, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVenueAvailability(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	_, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	avail, err := svc.VenueAvailability(context.Background(), testVenueID, "2026-09-15", 19*60, 21*60)
	require.NoError(t, err)
	assert.False(t, avail.Available)

	// An unknown venue is a 404, not an open calendar.
	_, err = svc.VenueAvailability(context.Background(), "00000000-0000-0000-0000-000000000000", "2026-09-15", 18*60, 20*60)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupByToken(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	_, err := svc.LookupByToken(context.Background(), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.LookupByToken(context.Background(), strings.Repeat("0", 32))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForVenueAuthorization(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	_, err := svc.CreatePayAtVenue(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.ListForVenue(context.Background(), model.Actor{UserID: 99, Role: model.RolePartner}, testVenueID, "2026-09-15")
	assert.ErrorIs(t, err, ErrForbidden)

	bs, err := svc.ListForVenue(context.Background(), model.Actor{UserID: ownerID, Role: model.RolePartner}, testVenueID, "2026-09-15")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}
