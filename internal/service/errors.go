// Package service contains the booking core: request validation, slot
// availability, the reservation lifecycle and payment reconciliation.
// Handlers translate the errors declared here into HTTP responses.
package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the booking core.  Callers compare with errors.Is;
// wrapped variants carry diagnostic detail in their message.
var (
	// ErrSlotUnavailable means a legitimate conflict: another blocking
	// booking overlaps the requested range.  The caller should pick a
	// different slot.
	ErrSlotUnavailable = errors.New("requested time slot is no longer available")

	// ErrSlotTakenDuringPayment means a confirmed booking took the slot
	// while the payment was in flight.  A full refund has been issued
	// before this error is returned.
	ErrSlotTakenDuringPayment = errors.New("slot was taken during payment; your payment has been refunded")

	// ErrAlreadyTerminal means the booking is cancelled and can never
	// transition again.
	ErrAlreadyTerminal = errors.New("booking is already cancelled")

	// ErrInvalidTransition means the requested status change violates
	// the lifecycle state machine.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrForbidden means the caller lacks ownership or role for the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means no booking or venue matches the identifier.
	ErrNotFound = errors.New("booking not found")

	// ErrAvailabilityCheck means the conflict query itself failed.  It
	// is distinct from "unavailable": infrastructure failure must never
	// be conflated with a real conflict.
	ErrAvailabilityCheck = errors.New("availability check failed")

	// ErrInvalidPaymentReference means the payment intent id is not in
	// the expected format.
	ErrInvalidPaymentReference = errors.New("invalid payment reference")

	// ErrPaymentLookup means the gateway could not be reached or
	// rejected the request; safe to retry with backoff.
	ErrPaymentLookup = errors.New("payment lookup failed")

	// ErrPaymentNotCompleted means the gateway reports the intent in a
	// non-succeeded state; the wrapped message carries that state.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrBookingCreation means the insert failed after a successful
	// charge; a refund has been attempted before this error returns.
	ErrBookingCreation = errors.New("booking could not be created; your payment has been refunded")

	// ErrUpstreamTimeout means an external call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream call timed out")
)

// ValidationError describes a request field that failed validation.  It
// is never retried automatically; the caller must correct the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
