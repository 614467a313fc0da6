package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
	"github.com/quillpress/blog-api/internal/infrastructure/security"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAccountSvc(t *testing.T, repo *stubAccountRepo) (*AccountService, *security.JWTAuthority) {
	t.Helper()
	authority, err := security.NewJWTAuthority("test-secret", 24*time.Hour, security.WithClock(fixedClock(testNow)))
	if err != nil {
		t.Fatalf("authority: %v", err)
	}
	svc := NewAccountService(repo, plainHasher{}, authority, validation.New(), AccountOptions{
		TokenTTL:      24 * time.Hour,
		RememberMeTTL: 30 * 24 * time.Hour,
	}, discardLogger)
	svc.now = fixedClock(testNow)
	return svc, authority
}

func aliceInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:        "a@x.com",
		Username:     "alice",
		DisplayName:  "Alice",
		Password:     "secret1",
		AgreeToTerms: true,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAccountService_Register_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc, authority := newAccountSvc(t, repo)

	res, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.Account.Role != domain.RoleStandard {
		t.Errorf("role: expected standard, got %s", res.Account.Role)
	}
	if res.Account.Verified {
		t.Error("new accounts must start unverified")
	}
	if res.Token == "" {
		t.Fatal("expected a token")
	}
	if !res.ExpiresAt.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("expiresAt: got %v", res.ExpiresAt)
	}

	id, err := authority.Verify(res.Token)
	if err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
	if id.AccountID != res.Account.ID || id.Email != "a@x.com" || id.Role != domain.RoleStandard {
		t.Errorf("token identity mismatch: %+v", id)
	}

	stored := repo.byID[res.Account.ID]
	if stored.PasswordHash != "hashed:secret1" {
		t.Errorf("expected credential to be hashed, got %q", stored.PasswordHash)
	}

	body, _ := json.Marshal(res.Account)
	if strings.Contains(strings.ToLower(string(body)), "password") {
		t.Errorf("public account leaked credential: %s", body)
	}
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := aliceInput()
	in.Username = "alice_two" // novel username does not matter
	in.Email = "  A@X.com "
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected EMAIL_EXISTS, got: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected no second account, have %d", len(repo.byID))
	}
}

func TestAccountService_Register_DuplicateUsername(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := aliceInput()
	in.Email = "other@x.com"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrUsernameExists) {
		t.Fatalf("expected USERNAME_EXISTS, got: %v", err)
	}
	if domain.CodeOf(err) != domain.CodeUsernameExists {
		t.Errorf("code: got %q", domain.CodeOf(err))
	}
}

func TestAccountService_Register_StoreRejectsDuplicate(t *testing.T) {
	repo := newStubAccountRepo()
	repo.seed(domain.Account{Email: "a@x.com", Username: "someone", Role: domain.RoleStandard})
	repo.hideOnFind = true // the pre-check misses; the unique index still fires
	svc, _ := newAccountSvc(t, repo)

	_, err := svc.Register(context.Background(), aliceInput())
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected EMAIL_EXISTS from store, got: %v", err)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*ports.RegisterInput)
		field string
	}{
		{"terms not accepted", func(in *ports.RegisterInput) { in.AgreeToTerms = false }, "agreeToTerms"},
		{"short password", func(in *ports.RegisterInput) { in.Password = "abc" }, "password"},
		{"multibyte password over 72 bytes", func(in *ports.RegisterInput) { in.Password = strings.Repeat("é", 40) }, "password"},
		{"bad email", func(in *ports.RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"username with spaces", func(in *ports.RegisterInput) { in.Username = "al ice" }, "username"},
		{"blank display name", func(in *ports.RegisterInput) { in.DisplayName = "   " }, "displayName"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubAccountRepo()
			svc, _ := newAccountSvc(t, repo)
			in := aliceInput()
			tc.edit(&in)

			_, err := svc.Register(context.Background(), in)
			var de *domain.Error
			if !errors.As(err, &de) || de.Code != domain.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got: %v", err)
			}
			if de.Field != tc.field {
				t.Errorf("field: expected %q, got %q", tc.field, de.Field)
			}
			if len(repo.byID) != 0 {
				t.Error("validation failure must not touch the store")
			}
		})
	}
}

func TestAccountService_Register_LongMultibytePasswordWithBcrypt(t *testing.T) {
	authority, err := security.NewJWTAuthority("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("authority: %v", err)
	}
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, security.NewBcryptHasher(), authority, validation.New(), AccountOptions{}, discardLogger)

	in := aliceInput()
	in.Password = strings.Repeat("é", 40)
	_, err = svc.Register(context.Background(), in)
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != domain.CodeValidation || de.Field != "password" {
		t.Fatalf("expected VALIDATION_ERROR on password, got: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("rejected password must not create an account")
	}
}

func TestAccountService_Register_InfrastructureErrorIsOpaque(t *testing.T) {
	repo := newStubAccountRepo()
	repo.findErr = errors.New("connection reset")
	svc, _ := newAccountSvc(t, repo)

	_, err := svc.Register(context.Background(), aliceInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.CodeOf(err) != "" {
		t.Errorf("infrastructure failure must not carry a domain code, got %q", domain.CodeOf(err))
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAccountService_Login_Scenario(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got: %v", err)
	}

	res, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("expected login to succeed, got: %v", err)
	}
	if res.Token == "" {
		t.Error("expected non-empty token")
	}
	if res.Account.LastLoginAt == nil || !res.Account.LastLoginAt.Equal(testNow) {
		t.Errorf("expected lastLoginAt to be stamped, got %v", res.Account.LastLoginAt)
	}
}

func TestAccountService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "nope-nope"})
	_, unknownEmail := svc.Login(context.Background(), ports.LoginInput{Email: "ghost@x.com", Password: "nope-nope"})

	if wrongPassword == nil || unknownEmail == nil {
		t.Fatal("expected both logins to fail")
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("errors differ: %q vs %q", wrongPassword, unknownEmail)
	}
	var a, b *domain.Error
	if !errors.As(wrongPassword, &a) || !errors.As(unknownEmail, &b) || *a != *b {
		t.Errorf("error shapes differ: %+v vs %+v", a, b)
	}
}

func TestAccountService_Login_RememberMeExtendsLifetime(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	short, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	long, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1", RememberMe: true})
	if err != nil {
		t.Fatalf("login remember me: %v", err)
	}

	if !short.ExpiresAt.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("default lifetime: got %v", short.ExpiresAt)
	}
	if !long.ExpiresAt.Equal(testNow.Add(30 * 24 * time.Hour)) {
		t.Errorf("remember-me lifetime: got %v", long.ExpiresAt)
	}
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func TestAccountService_GetCurrentUser(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	me, err := svc.GetCurrentUser(context.Background(), reg.Account.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Username != "alice" {
		t.Errorf("username: got %q", me.Username)
	}

	if _, err := svc.GetCurrentUser(context.Background(), "acc-999"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected USER_NOT_FOUND, got: %v", err)
	}
}

func TestAccountService_UpdateProfile_OnlySuppliedFields(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	later := testNow.Add(time.Hour)
	svc.now = fixedClock(later)
	bio := "writes about Go"
	updated, err := svc.UpdateProfile(context.Background(), reg.Account.ID, ports.UpdateProfileInput{Bio: &bio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Bio != bio {
		t.Errorf("bio: got %q", updated.Bio)
	}
	if updated.DisplayName != "Alice" || updated.Email != "a@x.com" || updated.Role != domain.RoleStandard {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("updatedAt: got %v", updated.UpdatedAt)
	}
	if repo.byID[reg.Account.ID].PasswordHash != "hashed:secret1" {
		t.Error("credential must not change")
	}
}

func TestAccountService_UpdateProfile_EmptyIsNoop(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	before := repo.updates

	if _, err := svc.UpdateProfile(context.Background(), reg.Account.ID, ports.UpdateProfileInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updates != before {
		t.Error("empty update must not write")
	}
}

func TestAccountService_UpdateProfile_Errors(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)

	bad := "not a url"
	_, err := svc.UpdateProfile(context.Background(), "acc-1", ports.UpdateProfileInput{AvatarURL: &bad})
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got: %v", err)
	}

	name := "Ghost"
	_, err = svc.UpdateProfile(context.Background(), "acc-404", ports.UpdateProfileInput{DisplayName: &name})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected USER_NOT_FOUND, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ChangePassword
// ---------------------------------------------------------------------------

func TestAccountService_ChangePassword_ThenLogin(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.ChangePassword(context.Background(), reg.Account.ID, ports.ChangePasswordInput{
		OldPassword: "secret1",
		NewPassword: "secret2",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret2"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "a@x.com", Password: "secret1"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password: expected INVALID_CREDENTIALS, got: %v", err)
	}
}

func TestAccountService_ChangePassword_WrongOldPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.ChangePassword(context.Background(), reg.Account.ID, ports.ChangePasswordInput{
		OldPassword: "guess",
		NewPassword: "secret2",
	})
	if !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected INVALID_PASSWORD, got: %v", err)
	}
	if repo.byID[reg.Account.ID].PasswordHash != "hashed:secret1" {
		t.Error("credential must be unchanged")
	}
}

func TestAccountService_ChangePassword_RejectsLongMultibytePassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc, _ := newAccountSvc(t, repo)
	reg, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.ChangePassword(context.Background(), reg.Account.ID, ports.ChangePasswordInput{
		OldPassword: "secret1",
		NewPassword: strings.Repeat("é", 40),
	})
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != domain.CodeValidation || de.Field != "newPassword" {
		t.Fatalf("expected VALIDATION_ERROR on newPassword, got: %v", err)
	}
	if repo.byID[reg.Account.ID].PasswordHash != "hashed:secret1" {
		t.Error("credential must be unchanged")
	}
}

func TestAccountService_ChangePassword_UnknownAccount(t *testing.T) {
	svc, _ := newAccountSvc(t, newStubAccountRepo())

	err := svc.ChangePassword(context.Background(), "acc-404", ports.ChangePasswordInput{
		OldPassword: "secret1",
		NewPassword: "secret2",
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got: %v", err)
	}
}
