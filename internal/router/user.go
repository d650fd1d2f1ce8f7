package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/handler"
	"github.com/tapn/booking-service/internal/middleware"
)

// RegisterUser registers endpoints that require an authenticated user.
// Any role may call these; the service layer checks that the caller
// actually owns the booking being acted on.
func RegisterUser(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.GET("/my-bookings", h.MyBookings)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
}
