package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

type AuthHandler struct {
	accounts ports.AccountService
}

func NewAuthHandler(accounts ports.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register creates a new standard account and signs it in.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.Request().Context(), toRegisterInput(req))
	recordAuthAttempt("register", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login authenticates an account and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	res, err := h.accounts.Login(c.Request().Context(), toLoginInput(req))
	recordAuthAttempt("login", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// Me returns the caller's account.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.GetCurrentUser(c.Request().Context(), id.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: account})
}

// UpdateMe changes the caller's profile fields.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /auth/me [patch]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	account, err := h.accounts.UpdateProfile(c.Request().Context(), id.AccountID, toUpdateProfileInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: account})
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Old and new password"
// @Success      204
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), id.AccountID, toChangePasswordInput(req)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Account returns any account by id. The route is restricted to admins.
//
// @Summary      Get account by id
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/accounts/{id} [get]
func (h *AuthHandler) Account(c echo.Context) error {
	account, err := h.accounts.GetCurrentUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: account})
}

func recordAuthAttempt(operation string, err error) {
	result := "success"
	if err != nil {
		result = string(domain.CodeOf(err))
		if result == "" {
			result = "error"
		}
	}
	metrics.AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}
