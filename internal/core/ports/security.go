package ports

import (
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// PasswordHasher turns plaintext passwords into stored credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails; a mismatch or a malformed credential is false.
	Verify(plaintext, credential string) bool
}

// IssuedToken is a signed identity token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	// Issue signs id for lifetime; a non-positive lifetime selects the
	// authority's default.
	Issue(id domain.Identity, lifetime time.Duration) (IssuedToken, error)
}

// TokenVerifier checks identity tokens. Every failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// TokenAuthority both issues and verifies tokens.
type TokenAuthority interface {
	TokenIssuer
	TokenVerifier
}
