package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/domain"
)

// RequireRoles enforces role-based access control. It must run after
// Authenticate or OptionalAuthenticate.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues(string(domain.CodeNotAuthenticated)).Inc()
				return domain.ErrNotAuthenticated
			}
			if !id.HasRole(roles...) {
				metrics.AccessDeniedTotal.WithLabelValues(string(domain.CodeInsufficientPermissions)).Inc()
				return domain.ErrInsufficientPermissions
			}
			return next(c)
		}
	}
}
