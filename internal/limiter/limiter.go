// Package limiter provides sliding-window request limiting for the
// booking entry points.  State lives behind the Limiter interface so a
// single-instance deployment can use the in-process store while a
// multi-instance deployment plugs in the Redis implementation without
// touching the middleware.
package limiter

import (
	"context"
	"time"
)

// Decision is the outcome of one limit check.  Remaining counts the
// requests still allowed inside the current window; RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter answers whether a request identified by key may proceed.
// Implementations must be safe for concurrent use.  An error means the
// backing store failed, not that the request was denied; callers decide
// whether to fail open.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}
