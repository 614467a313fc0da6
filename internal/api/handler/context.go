package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// currentIdentity returns the caller attached by the Authenticate
// middleware. Its absence means the route was mounted without the gate.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFrom(c.Request().Context())
	if !ok {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	return id, nil
}

// optionalIdentity returns the caller on routes behind OptionalAuthenticate,
// or nil for anonymous requests.
func optionalIdentity(c echo.Context) *domain.Identity {
	id, ok := domain.IdentityFrom(c.Request().Context())
	if !ok {
		return nil
	}
	return &id
}

// bind decodes the request into dst, reporting decode failures as
// validation errors on the given field.
func bind(c echo.Context, dst any, field string) error {
	if err := c.Bind(dst); err != nil {
		return domain.NewValidationError(field, "malformed request")
	}
	return nil
}
