package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

const (
	TokenIssuer   = "blog-backend"
	TokenAudience = "blog-frontend"

	// DefaultTokenLifetime applies when no lifetime is configured.
	DefaultTokenLifetime = 7 * 24 * time.Hour
)

// claims is the signed payload. The account id travels as the subject.
type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthority issues and verifies HS256 identity tokens.
type JWTAuthority struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option customises a JWTAuthority.
type Option func(*JWTAuthority)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *JWTAuthority) { a.now = now }
}

// NewJWTAuthority returns an authority signing with secret. A non-positive
// lifetime selects DefaultTokenLifetime.
func NewJWTAuthority(secret string, lifetime time.Duration, opts ...Option) (*JWTAuthority, error) {
	if secret == "" {
		return nil, errors.New("jwt authority: empty secret")
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	a := &JWTAuthority{secret: []byte(secret), lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *JWTAuthority) Issue(id domain.Identity, lifetime time.Duration) (ports.IssuedToken, error) {
	if lifetime <= 0 {
		lifetime = a.lifetime
	}
	now := a.now()
	exp := now.Add(lifetime)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.AccountID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := t.SignedString(a.secret)
	if err != nil {
		return ports.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	// NumericDate truncates to seconds; report what the token actually says.
	return ports.IssuedToken{Token: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, issuer, audience and expiry in one pass. Any
// failure is reported as domain.ErrInvalidToken without further detail.
func (a *JWTAuthority) Verify(token string) (domain.Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	role := domain.Role(c.Role)
	if c.Subject == "" || !role.Valid() {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return domain.Identity{AccountID: c.Subject, Email: c.Email, Role: role}, nil
}
