package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapn/booking-service/internal/model"
)

func seedBooking(t *testing.T, store *fakeStore, start, end string, status model.BookingStatus) *model.Booking {
	t.Helper()
	b := &model.Booking{
		VenueID:     testVenueID,
		BookingDate: "2026-09-15",
		StartTime:   start,
		EndTime:     end,
		Status:      status,
	}
	require.NoError(t, store.Insert(context.Background(), b))
	// Insert copies; keep the stored pointer mutable for the test.
	return store.bookings[b.ID]
}

func TestCheckAvailableConflict(t *testing.T) {
	store := newFakeStore()
	seedBooking(t, store, "18:00", "20:00", model.StatusConfirmed)

	checker := NewAvailabilityChecker(store)
	avail, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 19*60, 21*60, BlockingPayAtVenue)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, 1, avail.ConflictCount)
}

func TestCheckAvailableAdjacentSlotsDoNotConflict(t *testing.T) {
	store := newFakeStore()
	seedBooking(t, store, "18:00", "20:00", model.StatusConfirmed)

	checker := NewAvailabilityChecker(store)
	avail, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 20*60, 22*60, BlockingPayAtVenue)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Zero(t, avail.ConflictCount)
}

func TestCheckAvailableStatusFiltering(t *testing.T) {
	store := newFakeStore()
	seedBooking(t, store, "18:00", "20:00", model.StatusPending)
	seedBooking(t, store, "18:00", "20:00", model.StatusRejected)
	seedBooking(t, store, "18:00", "20:00", model.StatusCancelled)

	checker := NewAvailabilityChecker(store)

	// Pay-at-venue counts the pending booking as blocking.
	avail, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 18*60, 20*60, BlockingPayAtVenue)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, 1, avail.ConflictCount)

	// The pre-paid path only counts confirmed bookings; the slot is free.
	avail, err = checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 18*60, 20*60, BlockingPrepaid)
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestCheckAvailableOtherVenueAndDateIgnored(t *testing.T) {
	store := newFakeStore()
	b := seedBooking(t, store, "18:00", "20:00", model.StatusConfirmed)
	b.BookingDate = "2026-09-16"

	checker := NewAvailabilityChecker(store)
	avail, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 18*60, 20*60, BlockingPayAtVenue)
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestCheckAvailableStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")

	checker := NewAvailabilityChecker(store)
	_, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 18*60, 20*60, BlockingPayAtVenue)
	assert.ErrorIs(t, err, ErrAvailabilityCheck)
}

func TestCheckAvailableMalformedStoredTime(t *testing.T) {
	store := newFakeStore()
	b := seedBooking(t, store, "18:00", "20:00", model.StatusConfirmed)
	b.StartTime = "garbage"

	checker := NewAvailabilityChecker(store)
	_, err := checker.CheckAvailable(context.Background(), testVenueID, "2026-09-15", 18*60, 20*60, BlockingPayAtVenue)
	assert.ErrorIs(t, err, ErrAvailabilityCheck)
}
