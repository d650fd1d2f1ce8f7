package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/service"
)

// PartnerHandler exposes the venue-side booking management endpoints.
// Routes using it sit behind the PARTNER/ADMIN role middleware; the
// service layer still verifies venue ownership per booking.
type PartnerHandler struct {
	Bookings *service.BookingService
}

func NewPartnerHandler(bookings *service.BookingService) *PartnerHandler {
	return &PartnerHandler{Bookings: bookings}
}

// ConfirmBooking handles POST /v1/partner/bookings/:id/confirm.
// Confirming an already-confirmed booking is treated as a success so
// partners can safely retry.
func (h *PartnerHandler) ConfirmBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Bookings.ConfirmPending(c.Request().Context(), id, getActor(c))
	if errors.Is(err, service.ErrInvalidTransition) && b != nil && b.Status == model.StatusConfirmed {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
}

// DeclineBooking handles POST /v1/partner/bookings/:id/decline.
func (h *PartnerHandler) DeclineBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&req)

	b, err := h.Bookings.DeclineOrCancel(c.Request().Context(), id, getActor(c), model.StatusRejected, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
}

// ListVenueBookings handles GET /v1/partner/venues/:id/bookings and
// returns the venue's bookings for a day, sorted by start time.
func (h *PartnerHandler) ListVenueBookings(c echo.Context) error {
	venueID := c.Param("id")
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}

	bs, err := h.Bookings.ListForVenue(c.Request().Context(), getActor(c), venueID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": viewsOf(bs)})
}
