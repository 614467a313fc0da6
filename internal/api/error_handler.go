package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/api/handler"
	"github.com/quillpress/blog-api/internal/core/domain"
)

// statusByCode maps every domain error code to its HTTP status.
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:              http.StatusBadRequest,
	domain.CodeInvalidPassword:         http.StatusBadRequest,
	domain.CodeEmailExists:             http.StatusConflict,
	domain.CodeUsernameExists:          http.StatusConflict,
	domain.CodeInvalidCredentials:      http.StatusUnauthorized,
	domain.CodeInvalidToken:            http.StatusUnauthorized,
	domain.CodeNoToken:                 http.StatusUnauthorized,
	domain.CodeNotAuthenticated:        http.StatusUnauthorized,
	domain.CodeInsufficientPermissions: http.StatusForbidden,
	domain.CodeUserNotFound:            http.StatusNotFound,
	domain.CodeArticleNotFound:         http.StatusNotFound,
	domain.CodeRateLimited:             http.StatusTooManyRequests,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status and keeps their code and field.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "...", "code": "...", "field": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, handler.ErrorResponse{Error: de.Message, Code: string(de.Code), Field: de.Field}
	}

	// Echo's own errors (router 404/405, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{Error: "internal server error"}
}
