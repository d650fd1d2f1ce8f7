package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/handler"
	"github.com/tapn/booking-service/internal/middleware"
	"github.com/tapn/booking-service/internal/model"
)

// RegisterAdmin registers back-office endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(string(model.RoleAdmin)),
	)
	g.PATCH("/bookings/:id", h.UpdateBooking)
}
