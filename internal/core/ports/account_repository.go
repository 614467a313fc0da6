package ports

import (
	"context"
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// AccountPatch lists the fields an Update may change. Nil fields are left
// untouched; UpdatedAt is always written.
type AccountPatch struct {
	DisplayName  *string
	Bio          *string
	AvatarURL    *string
	PasswordHash *string
	LastLoginAt  *time.Time
	UpdatedAt    time.Time
}

// AccountRepository is the persistence contract for accounts.
//
// Find* methods return domain.ErrUserNotFound when nothing matches. Create
// returns domain.ErrEmailExists or domain.ErrUsernameExists when the store's
// uniqueness constraints reject the write.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Update applies patch to the account atomically and returns the result.
	Update(ctx context.Context, id string, patch AccountPatch) (*domain.Account, error)
}
