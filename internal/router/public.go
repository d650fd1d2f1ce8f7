package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/handler"
	"github.com/tapn/booking-service/internal/limiter"
	"github.com/tapn/booking-service/internal/middleware"
)

// RegisterPublic registers the guest-reachable endpoints under /v1.
// Booking creation and payment routes are open to guests but carry the
// per-IP rate limit; with a token present the optional JWT middleware
// attaches the caller's identity to the booking.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler, db *sql.DB, jwtSecret string, rl limiter.Limiter, rlPrefix string) {
	e.GET("/healthz", handler.Health(db))

	g := e.Group("/v1", middleware.OptionalJWT(jwtSecret))
	g.GET("/venues/:id/availability", h.Availability)
	g.GET("/bookings/lookup", h.LookupBooking)

	limited := e.Group(
		"/v1",
		middleware.OptionalJWT(jwtSecret),
		middleware.RateLimit(rl, rlPrefix),
	)
	limited.POST("/bookings", h.CreateBooking)
	limited.POST("/bookings/payment-intent", h.CreatePaymentIntent)
	limited.POST("/bookings/confirm", h.ConfirmBooking)
}
