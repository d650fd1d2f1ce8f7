package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/model"
	"github.com/tapn/booking-service/internal/service"
)

// AdminHandler exposes the back-office booking endpoints.  Routes using
// it sit behind the ADMIN role middleware.
type AdminHandler struct {
	Bookings *service.BookingService
}

func NewAdminHandler(bookings *service.BookingService) *AdminHandler {
	return &AdminHandler{Bookings: bookings}
}

// UpdateBooking handles PATCH /v1/admin/bookings/:id.  Admins may move
// a booking along the state machine and attach internal notes; terminal
// states stay terminal even for admins.
func (h *AdminHandler) UpdateBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req struct {
		Status     *string `json:"status"`
		AdminNotes *string `json:"admin_notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Status == nil && req.AdminNotes == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	var status *model.BookingStatus
	if req.Status != nil {
		s := model.BookingStatus(*req.Status)
		if !s.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		status = &s
	}

	b, err := h.Bookings.AdminUpdate(c.Request().Context(), id, getActor(c), status, req.AdminNotes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": viewOf(b)})
}
