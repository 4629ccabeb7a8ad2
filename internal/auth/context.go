package auth

import (
	"context"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// principalKey is the context key for storing the verified Principal.
	principalKey contextKey = "principal"
	// userKey is the context key for storing the resolved account.
	userKey contextKey = "user"
)

// ContextWithPrincipal adds a verified Principal to the context. The
// principal is always passed explicitly through the request context;
// nothing in the service resolves a "current user" from package state.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the Principal from the context.
// Returns nil if not present.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// MustPrincipalFromContext retrieves the Principal from the context.
// Panics if not present (use only when the auth middleware has run).
func MustPrincipalFromContext(ctx context.Context) *model.Principal {
	p := PrincipalFromContext(ctx)
	if p == nil {
		panic("principal not found - ensure auth middleware is applied")
	}
	return p
}

// ContextWithUser adds the resolved account to the context.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext retrieves the resolved account from the context.
// Returns nil if not present.
func UserFromContext(ctx context.Context) *model.User {
	u, ok := ctx.Value(userKey).(*model.User)
	if !ok {
		return nil
	}
	return u
}

// MustUserFromContext retrieves the resolved account from the context.
// Panics if not present (use only when the auth middleware has run).
func MustUserFromContext(ctx context.Context) *model.User {
	u := UserFromContext(ctx)
	if u == nil {
		panic("user not found - ensure auth middleware is applied")
	}
	return u
}

// IdentityFromContext is a convenience to get the external identity ID.
// Returns empty string if not authenticated.
func IdentityFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ""
	}
	return p.IdentityID
}
