package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tapn/booking-service/internal/utils"
)

// Bounds enforced by the validator.  The price ceiling is a sanity check
// against fat-finger and overflow amounts, expressed in the smallest
// currency unit.
const (
	MinGuestCount = 1
	MaxGuestCount = 100
	MaxTotalPrice = 1_000_000
	MaxNotesLen   = 500
	MaxEmailLen   = 254
)

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z .'-]{2,100}$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// GuestCount is the requested headcount as it arrives on the wire.
// Booking forms are filled in by hand, so decoding is lenient: JSON
// numbers and numeric strings parse, and anything else is treated as
// absent so the single-guest default applies instead of rejecting the
// whole request.
type GuestCount struct {
	value *int
}

// NewGuestCount returns a GuestCount holding n.
func NewGuestCount(n int) GuestCount { return GuestCount{value: &n} }

// Value returns the decoded count, or nil when the field was absent or
// unparseable.
func (g GuestCount) Value() *int { return g.value }

func (g *GuestCount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		g.value = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		g.value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			g.value = &n
			return nil
		}
	}
	g.value = nil
	return nil
}

func (g GuestCount) MarshalJSON() ([]byte, error) {
	if g.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*g.value)
}

// RawBookingRequest is the unvalidated shape of a booking request as it
// arrives over the wire.  Every field is optional at this layer;
// ValidateBookingRequest decides what is required.  Unvalidated data
// must never reach persistence or the payment gateway.
type RawBookingRequest struct {
	VenueID     string     `json:"venue_id"`
	BookingDate string     `json:"booking_date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	GuestCount  GuestCount `json:"guest_count"`
	TotalPrice  *int64     `json:"total_price"`
	Notes       string     `json:"notes"`
	GuestName   string     `json:"guest_name"`
	GuestPhone  string     `json:"guest_phone"`
	GuestEmail  string     `json:"guest_email"`
	UserID      *uint64    `json:"user_id"`
}

// NormalizedBooking is the strict, sanitized form produced by the
// validator.  Times are zero-padded "HH:MM" with their minute values
// precomputed; all strings are trimmed with angle brackets stripped.
type NormalizedBooking struct {
	VenueID     string
	BookingDate string
	StartTime   string
	EndTime     string
	StartMin    int
	EndMin      int
	GuestCount  int
	TotalPrice  int64
	Notes       string
	GuestName   string
	GuestPhone  string
	GuestEmail  string
	UserID      *uint64
}

// sanitize trims whitespace and strips angle brackets so trivial markup
// injection cannot survive into stored fields.  It is deterministic:
// applying it twice yields the same output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return strings.TrimSpace(s)
}

// ValidateBookingRequest checks a raw request and returns its normalized
// form or a *ValidationError naming the offending field.  It is a pure
// function: no side effects, deterministic output.
func ValidateBookingRequest(raw RawBookingRequest) (*NormalizedBooking, error) {
	venueID := sanitize(raw.VenueID)
	bookingDate := sanitize(raw.BookingDate)
	startTime := sanitize(raw.StartTime)
	endTime := sanitize(raw.EndTime)
	guestName := sanitize(raw.GuestName)
	guestPhone := sanitize(raw.GuestPhone)
	guestEmail := sanitize(raw.GuestEmail)
	notes := sanitize(raw.Notes)

	// 1. Required fields.
	switch {
	case venueID == "":
		return nil, invalid("venue_id", "is required")
	case bookingDate == "":
		return nil, invalid("booking_date", "is required")
	case startTime == "":
		return nil, invalid("start_time", "is required")
	case endTime == "":
		return nil, invalid("end_time", "is required")
	case raw.TotalPrice == nil:
		return nil, invalid("total_price", "is required")
	case guestName == "":
		return nil, invalid("guest_name", "is required")
	case guestPhone == "":
		return nil, invalid("guest_phone", "is required")
	case guestEmail == "":
		return nil, invalid("guest_email", "is required")
	}

	// 2. Venue id must be a canonical 8-4-4-4-12 UUID.
	if len(venueID) != 36 {
		return nil, invalid("venue_id", "must be a UUID")
	}
	if _, err := uuid.Parse(venueID); err != nil {
		return nil, invalid("venue_id", "must be a UUID")
	}
	venueID = strings.ToLower(venueID)

	// 3. Calendar date, shape and actual validity.
	if !datePattern.MatchString(bookingDate) {
		return nil, invalid("booking_date", "must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", bookingDate); err != nil {
		return nil, invalid("booking_date", "is not a valid date")
	}

	// 4. Wall-clock times; end must be strictly after start.  An
	// end-before-start request is a validation error, not a
	// cross-midnight booking.
	startMin, err := utils.ParseClock(startTime)
	if err != nil {
		return nil, invalid("start_time", err.Error())
	}
	endMin, err := utils.ParseClock(endTime)
	if err != nil {
		return nil, invalid("end_time", err.Error())
	}
	if endMin <= startMin {
		return nil, invalid("time_range", "end_time must be after start_time")
	}

	// 5. Guest count defaults to 1 when absent or unparseable;
	// out-of-range values are rejected rather than clamped.
	guestCount := 1
	if n := raw.GuestCount.Value(); n != nil {
		guestCount = *n
		if guestCount < MinGuestCount || guestCount > MaxGuestCount {
			return nil, invalid("guest_count", "must be between 1 and 100")
		}
	}

	// 6. Price in minor units, positive and below the sanity ceiling.
	totalPrice := *raw.TotalPrice
	if totalPrice <= 0 {
		return nil, invalid("total_price", "must be greater than zero")
	}
	if totalPrice > MaxTotalPrice {
		return nil, invalid("total_price", "exceeds the maximum allowed amount")
	}

	// 7-9. Guest contact sanity.
	if !namePattern.MatchString(guestName) {
		return nil, invalid("guest_name", "must be 2-100 letters, spaces, hyphens, apostrophes or periods")
	}
	if !phonePattern.MatchString(guestPhone) {
		return nil, invalid("guest_phone", "must be 7-20 digits or +-() characters")
	}
	if len(guestEmail) > MaxEmailLen || !emailPattern.MatchString(guestEmail) {
		return nil, invalid("guest_email", "is not a valid email address")
	}

	// 10. Notes are free text, capped by character count.  Cutting at a
	// byte index would split multi-byte runes and produce invalid UTF-8
	// that the database rejects.
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		notes = string([]rune(notes)[:MaxNotesLen])
	}

	return &NormalizedBooking{
		VenueID:     venueID,
		BookingDate: bookingDate,
		StartTime:   utils.FormatClock(startMin),
		EndTime:     utils.FormatClock(endMin),
		StartMin:    startMin,
		EndMin:      endMin,
		GuestCount:  guestCount,
		TotalPrice:  totalPrice,
		Notes:       notes,
		GuestName:   guestName,
		GuestPhone:  guestPhone,
		GuestEmail:  guestEmail,
		UserID:      raw.UserID,
	}, nil
}
