package domain

import "context"

// Identity is the verified caller attached to a single request after its
// bearer token has been checked.
type Identity struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// HasRole reports whether the identity's role is one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// CanModerate reports whether the identity may act on other accounts' content.
func (i Identity) CanModerate() bool {
	return i.HasRole(RoleEditor, RoleAdmin)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
