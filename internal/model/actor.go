package model

// Role identifies the authorization level carried in a verified access
// token.  Role assignment itself happens outside this service; handlers
// only consume the claim.
type Role string

const (
	RoleUser    Role = "USER"
	RolePartner Role = "PARTNER"
	RoleAdmin   Role = "ADMIN"
)

// Actor is the already-authenticated caller of a booking operation.  A
// zero UserID with RoleUser represents an unauthenticated guest.
type Actor struct {
	UserID uint64
	Role   Role
}

// Admin reports whether the actor carries the admin role.
func (a Actor) Admin() bool { return a.Role == RoleAdmin }

// Partner reports whether the actor carries the partner role.
func (a Actor) Partner() bool { return a.Role == RolePartner }
