package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

// IdentityKey is the echo context key holding the verified domain.Identity.
const IdentityKey = "identity"

// Authenticate requires a valid bearer token. A missing token fails with
// NO_TOKEN and a token that does not verify fails with INVALID_TOKEN.
func Authenticate(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues(string(domain.CodeNoToken)).Inc()
				return domain.ErrNoToken
			}

			id, err := verifier.Verify(token)
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues(string(domain.CodeInvalidToken)).Inc()
				return domain.ErrInvalidToken
			}

			attach(c, id)
			return next(c)
		}
	}
}

// OptionalAuthenticate attaches the caller's identity when a valid bearer
// token is present and otherwise lets the request through anonymously.
func OptionalAuthenticate(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c.Request()); ok {
				if id, err := verifier.Verify(token); err == nil {
					attach(c, id)
				}
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by Authenticate or
// OptionalAuthenticate.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(domain.Identity)
	return id, ok
}

func attach(c echo.Context, id domain.Identity) {
	c.Set(IdentityKey, id)
	c.SetRequest(c.Request().WithContext(domain.WithIdentity(c.Request().Context(), id)))
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
