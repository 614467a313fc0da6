package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

// AccountOptions configures token lifetimes for AccountService.
type AccountOptions struct {
	// TokenTTL is the lifetime of ordinary session tokens. Zero defers to the
	// token authority's default.
	TokenTTL time.Duration
	// RememberMeTTL is used when a login asks to be remembered.
	RememberMeTTL time.Duration
}

// AccountService implements registration, login and profile management.
type AccountService struct {
	repo     ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	validate *validation.Validator
	opts     AccountOptions
	now      func() time.Time
	log      zerolog.Logger
}

func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	validate *validation.Validator,
	opts AccountOptions,
	log zerolog.Logger,
) *AccountService {
	if opts.RememberMeTTL <= 0 {
		opts.RememberMeTTL = 30 * 24 * time.Hour
	}
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		validate: validate,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Register creates a standard account and signs the caller in.
//
// The existence checks are best effort; two racing registrations are settled
// by the store's unique indexes, which the repository reports with the same
// domain errors.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	if exists, err := taken(s.repo.FindByEmail(ctx, in.Email)); err != nil {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	} else if exists {
		return nil, domain.ErrEmailExists
	}
	if exists, err := taken(s.repo.FindByUsername(ctx, in.Username)); err != nil {
		return nil, fmt.Errorf("register: lookup username: %w", err)
	} else if exists {
		return nil, domain.ErrUsernameExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Account{
		Email:        in.Email,
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		Role:         domain.RoleStandard,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, passDomain("register: create account", err)
	}

	result, err := s.signIn(created, s.opts.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return result, nil
}

// taken reports whether a lookup found an account.
func taken(_ *domain.Account, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords produce the same domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}
	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	updated, err := s.repo.Update(ctx, account.ID, ports.AccountPatch{LastLoginAt: &now, UpdatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("login: stamp last login: %w", err)
	}

	ttl := s.opts.TokenTTL
	if in.RememberMe {
		ttl = s.opts.RememberMeTTL
	}
	result, err := s.signIn(updated, ttl)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("account_id", updated.ID).Bool("remember_me", in.RememberMe).Msg("login succeeded")
	return result, nil
}

func (s *AccountService) GetCurrentUser(ctx context.Context, accountID string) (*domain.PublicAccount, error) {
	if accountID == "" {
		return nil, domain.ErrUserNotFound
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, passDomain("get current user", err)
	}
	return account.Public(), nil
}

// UpdateProfile applies only the supplied fields. A request that supplies
// nothing returns the account unchanged without writing.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in ports.UpdateProfileInput) (*domain.PublicAccount, error) {
	if in.DisplayName != nil {
		trimmed := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &trimmed
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	if in.DisplayName == nil && in.Bio == nil && in.AvatarURL == nil {
		return s.GetCurrentUser(ctx, accountID)
	}
	if accountID == "" {
		return nil, domain.ErrUserNotFound
	}

	updated, err := s.repo.Update(ctx, accountID, ports.AccountPatch{
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		AvatarURL:   in.AvatarURL,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, passDomain("update profile", err)
	}

	s.log.Info().Str("account_id", accountID).Msg("profile updated")
	return updated.Public(), nil
}

func (s *AccountService) ChangePassword(ctx context.Context, accountID string, in ports.ChangePasswordInput) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	if accountID == "" {
		return domain.ErrUserNotFound
	}

	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return passDomain("change password", err)
	}
	if !s.hasher.Verify(in.OldPassword, account.PasswordHash) {
		return domain.ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if _, err := s.repo.Update(ctx, accountID, ports.AccountPatch{PasswordHash: &hash, UpdatedAt: s.now()}); err != nil {
		return passDomain("change password", err)
	}

	s.log.Info().Str("account_id", accountID).Msg("password changed")
	return nil
}

func (s *AccountService) signIn(account *domain.Account, ttl time.Duration) (*ports.AuthResult, error) {
	issued, err := s.tokens.Issue(account.Identity(), ttl)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{
		Account:   account.Public(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// passDomain returns domain errors untouched and wraps everything else.
func passDomain(op string, err error) error {
	if domain.CodeOf(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
