package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tapn/booking-service/internal/model"
)

// VenueRepo reads the venues table.  The booking core never mutates
// venues; partner onboarding and the approval workflow own that data.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo returns a VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// OwnerID returns the partner account that owns the venue, or
// ErrNotFound when the venue does not exist.  Lifecycle authorization
// checks ("is this caller the owning partner?") go through here.
func (r *VenueRepo) OwnerID(ctx context.Context, venueID string) (uint64, error) {
	const q = `SELECT owner_id FROM venues WHERE id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, venueID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ownerID, err
}

// GetByID returns a venue record or ErrNotFound.
func (r *VenueRepo) GetByID(ctx context.Context, venueID string) (*model.Venue, error) {
	const q = `SELECT id, owner_id, name, created_at FROM venues WHERE id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, venueID).Scan(&v.ID, &v.OwnerID, &v.Name, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
