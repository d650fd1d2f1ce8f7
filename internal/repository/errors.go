// Package repository implements MySQL persistence for bookings and
// venues.  Sentinel errors declared here let services distinguish
// failure scenarios without inspecting driver errors directly.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.  Services
// translate it into their own not-found error so callers never see
// database/sql sentinels.
var ErrNotFound = errors.New("record not found")
