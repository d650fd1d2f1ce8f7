package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/payment"
	"github.com/tapn/booking-service/internal/repository"
)

// fakeStore is an in-memory BookingStore used by the service tests.  It
// mirrors the repository's contract including the compare-and-set
// semantics of status updates.
type fakeStore struct {
	bookings map[uint64]*model.Booking
	nextID   uint64

	insertErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[uint64]*model.Booking), nextID: 1}
}

func (f *fakeStore) Insert(_ context.Context, b *model.Booking) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	b.ID = f.nextID
	f.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) ListBlocking(_ context.Context, venueID, date string, statuses []model.BookingStatus) ([]model.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Booking
	for _, b := range f.bookings {
		if b.VenueID != venueID || b.BookingDate != date {
			continue
		}
		for _, s := range statuses {
			if b.Status == s {
				out = append(out, *b)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetByLookupToken(_ context.Context, token string) (*model.Booking, error) {
	for _, b := range f.bookings {
		if b.LookupToken == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetByPaymentIntent(_ context.Context, intentID string) (*model.Booking, error) {
	for _, b := range f.bookings {
		if b.StripePaymentIntentID != nil && *b.StripePaymentIntentID == intentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpdateStatusIfExpected(_ context.Context, id uint64, expected, next model.BookingStatus, reason string) (bool, error) {
	b, ok := f.bookings[id]
	if !ok || b.Status != expected {
		return false, nil
	}
	b.Status = next
	if reason != "" {
		if b.AdminNotes != "" {
			b.AdminNotes += "\n"
		}
		b.AdminNotes += reason
	}
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeStore) SetAdminNotes(_ context.Context, id uint64, notes string) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.AdminNotes = notes
	return nil
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, id uint64, ps model.PaymentStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentStatus = ps
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.UserID != nil && *b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) ListByVenueDate(_ context.Context, venueID, date string) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.VenueID == venueID && (date == "" || b.BookingDate == date) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// fakeVenues maps venue ids to owner ids.
type fakeVenues map[string]uint64

func (f fakeVenues) OwnerID(_ context.Context, venueID string) (uint64, error) {
	owner, ok := f[venueID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return owner, nil
}

func (f fakeVenues) GetByID(_ context.Context, venueID string) (*model.Venue, error) {
	owner, ok := f[venueID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Venue{ID: venueID, OwnerID: owner, Name: "Test Venue"}, nil
}

// fakeGateway is a scripted payment.Gateway that records refunds.
type fakeGateway struct {
	intents map[string]*payment.Intent

	createErr   error
	retrieveErr error
	refundErr   error
	refunded    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*payment.Intent)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, _ string, metadata map[string]string) (*payment.Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	in := &payment.Intent{
		ID:           "pi_test000000000000000000000",
		ClientSecret: "pi_test000000000000000000000_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Metadata:     metadata,
	}
	g.intents[in.ID] = in
	return in, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	in, ok := g.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return in, nil
}

func (g *fakeGateway) Refund(_ context.Context, id string) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunded = append(g.refunded, id)
	return nil
}

// succeed marks an intent as paid, as the provider would after the
// client completes the card flow.
func (g *fakeGateway) succeed(id string) {
	g.intents[id].Status = payment.StatusSucceeded
}

// recordingEvents captures published events for assertions.
type recordingEvents struct {
	confirmed []uint64
	alerts    []string
}

func (r *recordingEvents) BookingConfirmed(_ context.Context, b *model.Booking) {
	r.confirmed = append(r.confirmed, b.ID)
}

func (r *recordingEvents) PaymentAlert(_ context.Context, intentID string, _, _ error) {
	r.alerts = append(r.alerts, intentID)
}
