package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tapn/booking-service/internal/limiter"
)

// RateLimit gates booking-creation endpoints behind the injected
// limiter, keyed by client IP.  It sets X-RateLimit-Remaining on every
// response and answers 429 with Retry-After when the window is
// exhausted.  A limiter backend failure fails open: abuse protection is
// best effort and must never take bookings down with it.  A nil limiter
// disables the check entirely.
func RateLimit(l limiter.Limiter, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil {
				return next(c)
			}
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			d, err := l.Check(c.Request().Context(), prefix+":ip:"+ip)
			if err != nil {
				c.Logger().Warnf("ratelimit: backend error for ip=%s: %v", ip, err)
				return next(c)
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 0 {
					secs = 0
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}
