package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tapn/booking-service/internal/model"
)

// bookingColumns is the canonical column list used by every SELECT so
// that scanBooking can stay in one place.
const bookingColumns = `id, venue_id, user_id, booking_date, start_time, end_time,
	guest_count, total_price, payment_status, payment_method,
	stripe_payment_intent_id, status, guest_name, guest_phone, guest_email,
	notes, admin_notes, lookup_token, created_at, updated_at`

// BookingRepo provides data access to the bookings table.  All
// timestamps are stored and compared in UTC; booking_date and the two
// clock columns are kept as strings ("YYYY-MM-DD" and zero-padded
// "HH:MM") exactly as the validator normalized them.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one row in bookingColumns order into a model.Booking.
func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	var userID sql.NullInt64
	var intentID sql.NullString
	err := s.Scan(
		&b.ID, &b.VenueID, &userID, &b.BookingDate, &b.StartTime, &b.EndTime,
		&b.GuestCount, &b.TotalPrice, &b.PaymentStatus, &b.PaymentMethod,
		&intentID, &b.Status, &b.GuestName, &b.GuestPhone, &b.GuestEmail,
		&b.Notes, &b.AdminNotes, &b.LookupToken, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}
	if intentID.Valid {
		pi := intentID.String
		b.StripePaymentIntentID = &pi
	}
	return &b, nil
}

// Insert persists a new booking and populates the generated ID and the
// database-assigned timestamps on the provided record.  Status, payment
// fields and the guest contact snapshot must already be set by the
// caller; the repository performs no business checks.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(venue_id, user_id, booking_date, start_time, end_time, guest_count,
		 total_price, payment_status, payment_method, stripe_payment_intent_id,
		 status, guest_name, guest_phone, guest_email, notes, admin_notes, lookup_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var userID any
	if b.UserID != nil {
		userID = *b.UserID
	}
	var intentID any
	if b.StripePaymentIntentID != nil {
		intentID = *b.StripePaymentIntentID
	}
	result, err := r.db.ExecContext(ctx, q,
		b.VenueID, userID, b.BookingDate, b.StartTime, b.EndTime, b.GuestCount,
		b.TotalPrice, b.PaymentStatus, b.PaymentMethod, intentID,
		b.Status, b.GuestName, b.GuestPhone, b.GuestEmail, b.Notes, b.AdminNotes,
		b.LookupToken,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Read the row back so created_at/updated_at reflect what the
	// database actually assigned.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// ListBlocking returns every booking on the venue and date whose status
// is in statuses.  The availability checker applies the overlap test in
// memory so that the conflict semantics live in exactly one place.
func (r *BookingRepo) ListBlocking(ctx context.Context, venueID, date string, statuses []model.BookingStatus) ([]model.Booking, error) {
	if len(statuses) == 0 {
		return []model.Booking{}, nil
	}
	placeholders := make([]string, 0, len(statuses))
	args := []any{venueID, date}
	for _, st := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, st)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE venue_id = ? AND booking_date = ?
		AND status IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByLookupToken returns the booking carrying the given guest lookup
// token or ErrNotFound.  Tokens are unique by construction.
func (r *BookingRepo) GetByLookupToken(ctx context.Context, token string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE lookup_token = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByPaymentIntent returns the booking created for a gateway payment
// intent, or ErrNotFound when reconciliation has not created one yet.
func (r *BookingRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE stripe_payment_intent_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, intentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// UpdateStatusIfExpected performs a compare-and-swap status update: the
// row changes only while its current status still equals expected.  It
// returns false when another writer got there first, so two admins
// acting concurrently cannot produce a lost update.  A non-empty reason
// is appended to admin_notes alongside the transition.
func (r *BookingRepo) UpdateStatusIfExpected(ctx context.Context, id uint64, expected, next model.BookingStatus, reason string) (bool, error) {
	const q = `UPDATE bookings
		SET status = ?,
		    admin_notes = IF(? = '', admin_notes, TRIM(CONCAT(admin_notes, '\n', ?))),
		    updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, next, reason, reason, id, expected)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetPaymentStatus records a payment state change (e.g. refunded) on an
// existing booking.
func (r *BookingRepo) SetPaymentStatus(ctx context.Context, id uint64, ps model.PaymentStatus) error {
	const q = `UPDATE bookings SET payment_status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, ps, id)
	return err
}

// SetAdminNotes replaces the internal annotation on a booking.
func (r *BookingRepo) SetAdminNotes(ctx context.Context, id uint64, notes string) error {
	const q = `UPDATE bookings SET admin_notes = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, notes, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 when the notes did not change; confirm
		// the row exists before reporting not found.
		var exists uint64
		err = r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListByUser returns all bookings created by the given account, newest
// first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByVenueDate returns a venue's bookings, optionally restricted to a
// single calendar date, ordered by date and start time.
func (r *BookingRepo) ListByVenueDate(ctx context.Context, venueID, date string) ([]model.Booking, error) {
	if date != "" {
		q := `SELECT ` + bookingColumns + ` FROM bookings
			WHERE venue_id = ? AND booking_date = ?
			ORDER BY start_time`
		return r.list(ctx, q, venueID, date)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE venue_id = ?
		ORDER BY booking_date DESC, start_time`
	return r.list(ctx, q, venueID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
