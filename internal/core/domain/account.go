package domain

import "time"

// Role is one of the closed set of permission tiers.
type Role string

const (
	RoleStandard Role = "standard"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// Account is the persisted user record. PasswordHash never leaves the
// service layer; use Public to cross the boundary.
type Account struct {
	ID           string
	Email        string
	Username     string
	DisplayName  string
	PasswordHash string
	Role         Role
	Bio          string
	AvatarURL    string
	Verified     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicAccount is the credential-free view of an Account.
type PublicAccount struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Role        Role       `json:"role"`
	Bio         string     `json:"bio,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Verified    bool       `json:"verified"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Public strips credential material from a.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:          a.ID,
		Email:       a.Email,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Bio:         a.Bio,
		AvatarURL:   a.AvatarURL,
		Verified:    a.Verified,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Identity returns the token payload for a.
func (a *Account) Identity() Identity {
	return Identity{AccountID: a.ID, Email: a.Email, Role: a.Role}
}
