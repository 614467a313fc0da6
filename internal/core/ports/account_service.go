package ports

import (
	"context"
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// RegisterInput is the schema for Register.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Username     string `json:"username" validate:"required,min=3,max=30,username"`
	DisplayName  string `json:"displayName" validate:"required,min=1,max=60"`
	Password     string `json:"password" validate:"required,min=6,max=72,bcryptlen"`
	AgreeToTerms bool   `json:"agreeToTerms" validate:"eq=true"`
}

// LoginInput is the schema for Login.
type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// UpdateProfileInput carries the optional profile fields; nil means "leave as is".
type UpdateProfileInput struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=60"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url,max=2048"`
}

// ChangePasswordInput is the schema for ChangePassword.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72,bcryptlen"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Account   *domain.PublicAccount
	Token     string
	ExpiresAt time.Time
}

// AccountService defines the account use cases.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	GetCurrentUser(ctx context.Context, accountID string) (*domain.PublicAccount, error)
	UpdateProfile(ctx context.Context, accountID string, in UpdateProfileInput) (*domain.PublicAccount, error)
	ChangePassword(ctx context.Context, accountID string, in ChangePasswordInput) error
}
