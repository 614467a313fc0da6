package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/api/handler"
	"github.com/quillpress/blog-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, handler.ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body handler.ErrorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
	}
	return rec.Code, body
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("email", "email must be a valid email"), http.StatusBadRequest},
		{domain.ErrEmailExists, http.StatusConflict},
		{domain.ErrUsernameExists, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrNoToken, http.StatusUnauthorized},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{domain.ErrInsufficientPermissions, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrInvalidPassword, http.StatusBadRequest},
		{domain.ErrArticleNotFound, http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		code := domain.CodeOf(tc.err)
		t.Run(string(code), func(t *testing.T) {
			status, body := renderError(t, tc.err)
			if status != tc.status {
				t.Errorf("status: expected %d, got %d", tc.status, status)
			}
			if body.Code != string(code) {
				t.Errorf("code: expected %s, got %s", code, body.Code)
			}
			if body.Error == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestHTTPErrorHandler_KeepsField(t *testing.T) {
	_, body := renderError(t, fmt.Errorf("wrapped: %w", domain.NewValidationError("tags[1]", "bad tag")))
	if body.Field != "tags[1]" || body.Error != "bad tag" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHTTPErrorHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	status, body := renderError(t, errors.New("mongo: connection refused"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body.Error != "internal server error" || body.Code != "" {
		t.Fatalf("internal details leaked: %+v", body)
	}
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	status, body := renderError(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"))
	if status != http.StatusMethodNotAllowed || body.Error != "method not allowed" {
		t.Fatalf("unexpected: %d %+v", status, body)
	}
}
