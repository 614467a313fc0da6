package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

const generatedPasswordLength = 24

// BootstrapInput describes a privileged account created from the command
// line. An empty Password is replaced by a generated one.
type BootstrapInput struct {
	Email       string      `json:"email" validate:"required,email,max=254"`
	Username    string      `json:"username" validate:"required,min=3,max=30,username"`
	DisplayName string      `json:"displayName" validate:"omitempty,max=60"`
	Password    string      `json:"password" validate:"omitempty,min=6,max=72,bcryptlen"`
	Role        domain.Role `json:"role" validate:"required,oneof=admin editor"`
}

// BootstrapResult reports what BootstrapAccount did.
type BootstrapResult struct {
	Account *domain.PublicAccount
	Created bool
	// GeneratedPassword is set only when the password was generated.
	GeneratedPassword string
}

// BootstrapAccount creates an editor or admin account. It is the only path
// that creates non-standard roles and it is idempotent: when an account with
// the email already exists it is returned unchanged.
func BootstrapAccount(
	ctx context.Context,
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	validate *validation.Validator,
	in BootstrapInput,
	log zerolog.Logger,
) (*BootstrapResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	existing, err := repo.FindByEmail(ctx, in.Email)
	if err == nil {
		log.Info().Str("account_id", existing.ID).Str("role", string(existing.Role)).Msg("bootstrap account already exists")
		return &BootstrapResult{Account: existing.Public()}, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("bootstrap: lookup email: %w", err)
	}

	result := &BootstrapResult{Created: true}
	password := in.Password
	if password == "" {
		password, err = generatePassword(generatedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		result.GeneratedPassword = password
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	now := time.Now().UTC()
	created, err := repo.Create(ctx, &domain.Account{
		Email:        in.Email,
		Username:     in.Username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         in.Role,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, passDomain("bootstrap: create account", err)
	}

	log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("bootstrap account created")
	result.Account = created.Public()
	return result, nil
}

func generatePassword(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
