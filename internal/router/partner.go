package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/handler"
	"github.com/tapn/booking-service/internal/middleware"
	"github.com/tapn/booking-service/internal/model"
)

// RegisterPartner registers venue-side management endpoints under /v1.
// All routes require a valid JWT with the PARTNER or ADMIN role; venue
// ownership is verified per booking inside the service layer.
func RegisterPartner(e *echo.Echo, h *handler.PartnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1/partner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(string(model.RolePartner), string(model.RoleAdmin)),
	)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking)
	g.POST("/bookings/:id/decline", h.DeclineBooking)
	g.GET("/venues/:id/bookings", h.ListVenueBookings)
}
