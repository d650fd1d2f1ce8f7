// Package handler implements the HTTP surface of the booking core.
// Handlers bind and forward; every business decision lives in the
// service layer.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/service"
)

// getUserID extracts the authenticated user id from context.  The JWT
// middleware stores the raw claim value, whose concrete type depends on
// how the token was minted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getActor builds the caller's identity from the verified claims.  A
// request without claims is a guest user.
func getActor(c echo.Context) model.Actor {
	actor := model.Actor{Role: model.RoleUser}
	if id, err := getUserID(c); err == nil {
		actor.UserID = id
	}
	if role, ok := c.Get("role").(string); ok {
		switch model.Role(role) {
		case model.RoleAdmin, model.RolePartner, model.RoleUser:
			actor.Role = model.Role(role)
		}
	}
	return actor
}

// respondError maps a booking-core error onto the wire contract: a
// {"error": message} body with the appropriate status.  Domain failures
// are 400; authorization, missing records and infrastructure failures
// get their conventional codes.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.As(err, &verr):
		status, msg = http.StatusBadRequest, verr.Error()
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrSlotTakenDuringPayment),
		errors.Is(err, service.ErrInvalidPaymentReference),
		errors.Is(err, service.ErrPaymentNotCompleted),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyTerminal),
		errors.Is(err, service.ErrBookingCreation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrUpstreamTimeout):
		status, msg = http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, service.ErrPaymentLookup):
		status, msg = http.StatusBadGateway, err.Error()
	case errors.Is(err, service.ErrAvailabilityCheck):
		status, msg = http.StatusInternalServerError, err.Error()
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// bookingView is the owner-facing projection of a booking.  AdminNotes
// is deliberately absent: it never leaves the internal surfaces.
type bookingView struct {
	BookingID     uint64 `json:"booking_id"`
	VenueID       string `json:"venue_id"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	GuestCount    int    `json:"guest_count"`
	TotalPrice    int64  `json:"total_price"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
	GuestName     string `json:"guest_name"`
	CreatedAt     string `json:"created_at"`
}

func viewOf(b *model.Booking) bookingView {
	return bookingView{
		BookingID:     b.ID,
		VenueID:       b.VenueID,
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		GuestCount:    b.GuestCount,
		TotalPrice:    b.TotalPrice,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		PaymentMethod: string(b.PaymentMethod),
		GuestName:     b.GuestName,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func viewsOf(bs []model.Booking) []bookingView {
	out := make([]bookingView, 0, len(bs))
	for i := range bs {
		out = append(out, viewOf(&bs[i]))
	}
	return out
}
