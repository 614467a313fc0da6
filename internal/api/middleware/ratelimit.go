package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/domain"
)

// Limiter is a fixed-window request counter.
type Limiter interface {
	// Allow counts one hit against key and reports whether it fits in limit
	// for the current window, plus the time left in that window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RateLimit allows at most limit requests per client IP per window on the
// routes it wraps. When the limiter itself fails the request is let through.
func RateLimit(l Limiter, name string, limit int, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil || limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			key := name + ":ip:" + c.RealIP()
			ok, retry, err := l.Allow(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(name).Inc()
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
