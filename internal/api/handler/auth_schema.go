package handler

import (
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// ErrorResponse is the envelope rendered for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

type registerRequest struct {
	Email        string `json:"email" example:"a@x.com"`
	Username     string `json:"username" example:"alice"`
	DisplayName  string `json:"displayName" example:"Alice"`
	Password     string `json:"password" example:"secret1"`
	AgreeToTerms bool   `json:"agreeToTerms" example:"true"`
}

type loginRequest struct {
	Email      string `json:"email" example:"a@x.com"`
	Password   string `json:"password" example:"secret1"`
	RememberMe bool   `json:"rememberMe"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type authResponse struct {
	Account   *domain.PublicAccount `json:"account"`
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
}

type accountResponse struct {
	Account *domain.PublicAccount `json:"account"`
}
