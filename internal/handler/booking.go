package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/service"
	"github.com/tapn/booking-service/internal/utils"
)

// BookingHandler exposes the public and user-facing booking endpoints.
type BookingHandler struct {
	Bookings *service.BookingService
	Payments *service.PaymentFlow
}

func NewBookingHandler(bookings *service.BookingService, payments *service.PaymentFlow) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Payments: payments}
}

// CreateBooking handles POST /v1/bookings.  It creates a pay-at-venue
// booking in the pending state.  Guests may call it without a token; an
// authenticated caller gets the booking attached to their account.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req service.RawBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// The claim wins over whatever the body says.
	req.UserID = nil
	if id, err := getUserID(c); err == nil {
		req.UserID = &id
	}

	b, err := h.Bookings.CreatePayAtVenue(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"booking":      viewOf(b),
		"lookup_token": b.LookupToken,
	})
}

// CreatePaymentIntent handles POST /v1/bookings/payment-intent.  No
// booking row is written here; the booking materialises only after the
// payment is confirmed.
func (h *BookingHandler) CreatePaymentIntent(c echo.Context) error {
	var req service.RawBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.UserID = nil
	if id, err := getUserID(c); err == nil {
		req.UserID = &id
	}

	intent, err := h.Payments.CreateIntent(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            intent.Amount,
	})
}

// ConfirmBooking handles POST /v1/bookings/confirm.  The client calls
// it after the payment provider reports success; the server verifies
// the intent independently and only then writes the booking.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	var req struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	b, err := h.Payments.ReconcilePayment(c.Request().Context(), req.PaymentIntentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"booking":      viewOf(b),
		"lookup_token": b.LookupToken,
	})
}

// CancelBooking handles POST /v1/bookings/:id/cancel for the booking
// owner (or a partner/admin acting on the venue).
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&req)

	b, err := h.Bookings.DeclineOrCancel(c.Request().Context(), id, getActor(c), model.StatusCancelled, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
}

// LookupBooking handles GET /v1/bookings/lookup?token=...  It lets a
// guest retrieve their booking with the token handed out at creation.
func (h *BookingHandler) LookupBooking(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	b, err := h.Bookings.LookupByToken(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
}

// MyBookings handles GET /v1/my-bookings for an authenticated user.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bs, err := h.Bookings.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": viewsOf(bs)})
}

// Availability handles GET /v1/venues/:id/availability.  It answers
// whether a time range on a date is free of blocking bookings.
func (h *BookingHandler) Availability(c echo.Context) error {
	venueID := c.Param("id")
	date := c.QueryParam("date")
	start := c.QueryParam("start")
	end := c.QueryParam("end")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	startMin, err := utils.ParseClock(start)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
	}
	endMin, err := utils.ParseClock(end)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end time"})
	}
	if startMin >= endMin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start time must be before end time"})
	}

	avail, err := h.Bookings.VenueAvailability(c.Request().Context(), venueID, date, startMin, endMin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"available":      avail.Available,
		"conflict_count": avail.ConflictCount,
	})
}
