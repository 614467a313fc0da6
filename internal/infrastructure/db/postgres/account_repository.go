package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

const (
	constraintAccountEmail    = "accounts_email_key"
	constraintAccountUsername = "accounts_username_key"

	accountColumns = `id, email, username, display_name, password_hash, role, bio, avatar_url,
		verified, last_login_at, created_at, updated_at`
)

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	created := *a
	created.ID = uuid.NewString()

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		created.ID, created.Email, created.Username, created.DisplayName, created.PasswordHash,
		string(created.Role), created.Bio, created.AvatarURL, created.Verified,
		nullTime(created.LastLoginAt), created.CreatedAt, created.UpdatedAt)
	if err != nil {
		switch uniqueConstraint(err) {
		case constraintAccountUsername:
			return nil, domain.ErrUsernameExists
		case constraintAccountEmail:
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// FindByUsername matches case-insensitively, mirroring the unique index.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`, username)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) Update(ctx context.Context, id string, p ports.AccountPatch) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	var set setList
	set.add("updated_at", p.UpdatedAt)
	if p.DisplayName != nil {
		set.add("display_name", *p.DisplayName)
	}
	if p.Bio != nil {
		set.add("bio", *p.Bio)
	}
	if p.AvatarURL != nil {
		set.add("avatar_url", *p.AvatarURL)
	}
	if p.PasswordHash != nil {
		set.add("password_hash", *p.PasswordHash)
	}
	if p.LastLoginAt != nil {
		set.add("last_login_at", *p.LastLoginAt)
	}

	query := `UPDATE accounts SET ` + strings.Join(set.cols, ", ") +
		` WHERE id = ` + set.arg(id) + ` RETURNING ` + accountColumns
	return r.findOne(ctx, query, set.args...)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var (
		a         domain.Account
		role      string
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Email, &a.Username, &a.DisplayName, &a.PasswordHash, &role, &a.Bio, &a.AvatarURL,
		&a.Verified, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.Role = domain.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}
