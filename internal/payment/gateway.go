// Package payment abstracts the external card gateway.  The booking
// core depends only on the Gateway interface; the Stripe client lives
// behind it so tests can substitute a recording fake and a future
// provider swap does not touch the reconciliation logic.
package payment

import "context"

// StatusSucceeded is the gateway status reconciliation requires before
// it will create a booking.
const StatusSucceeded = "succeeded"

// Intent is the provider-neutral view of a payment intent.  Metadata is
// the single source of truth for what the eventual booking should
// contain, because the original request is not persisted anywhere before
// payment completes.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Metadata     map[string]string
}

// Gateway is the card-payment capability the pre-paid flow consumes.
type Gateway interface {
	// CreateIntent opens a hold for amount (smallest currency unit)
	// and attaches metadata describing the booking to create on
	// success.
	CreateIntent(ctx context.Context, amount int64, customerEmail string, metadata map[string]string) (*Intent, error)
	// RetrieveIntent fetches the current state of an intent.
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	// Refund returns the full charged amount for an intent.
	Refund(ctx context.Context, id string) error
}
