package model

import "time"

// Venue is the minimal slice of the venues table the booking core needs:
// identity plus the owning partner for authorization checks.  Venue
// discovery, categories and the partner-approval workflow live outside
// this service.
type Venue struct {
	ID        string    // venues.id (UUID)
	OwnerID   uint64    // venues.owner_id (partner account)
	Name      string    // venues.name
	CreatedAt time.Time // venues.created_at
}
