package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/blog-api/internal/core/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAuthority(t *testing.T, clock *fakeClock) *JWTAuthority {
	t.Helper()
	a, err := NewJWTAuthority("test-secret", 0, WithClock(clock.Now))
	require.NoError(t, err)
	return a
}

var alice = domain.Identity{AccountID: "acc-1", Email: "a@x.com", Role: domain.RoleStandard}

func TestJWTAuthority_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestAuthority(t, clock)

	issued, err := a.Issue(alice, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, clock.t.Add(DefaultTokenLifetime), issued.ExpiresAt)

	got, err := a.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestJWTAuthority_ClaimsCarryIssuerAndAudience(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestAuthority(t, clock)

	issued, err := a.Issue(alice, time.Hour)
	require.NoError(t, err)

	var c claims
	_, _, err = jwt.NewParser().ParseUnverified(issued.Token, &c)
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, c.Issuer)
	assert.Equal(t, jwt.ClaimStrings{TokenAudience}, c.Audience)
	assert.Equal(t, "acc-1", c.Subject)
	assert.NotEmpty(t, c.ID)
}

func TestJWTAuthority_ExpiredTokenRejected(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestAuthority(t, clock)

	issued, err := a.Issue(alice, time.Hour)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = a.Verify(issued.Token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = a.Verify(issued.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTAuthority_FailuresCollapseToInvalidToken(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestAuthority(t, clock)
	issued, err := a.Issue(alice, time.Hour)
	require.NoError(t, err)

	other, err := NewJWTAuthority("other-secret", 0, WithClock(clock.Now))
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: "standard",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	})
	wrongIssuerSigned, err := wrongIssuer.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: "standard",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "acc-1",
			Issuer:   TokenIssuer,
			Audience: jwt.ClaimStrings{TokenAudience},
		},
	})
	noExpirySigned, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]func() string{
		"malformed": func() string { return "not.a.jwt" },
		"empty":     func() string { return "" },
		"forged": func() string {
			forged, err := other.Issue(alice, time.Hour)
			require.NoError(t, err)
			return forged.Token
		},
		"tampered":     func() string { return issued.Token[:len(issued.Token)-2] + "xx" },
		"wrong issuer": func() string { return wrongIssuerSigned },
		"no expiry":    func() string { return noExpirySigned },
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Verify(tok())
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestJWTAuthority_RejectsNoneAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := newTestAuthority(t, clock)

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewJWTAuthority_EmptySecret(t *testing.T) {
	_, err := NewJWTAuthority("", time.Hour)
	assert.Error(t, err)
}
