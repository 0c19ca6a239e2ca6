package middleware

import "context"

type identityKey struct{}

// Identity is the authenticated admin behind a request.
type Identity struct {
	AdminID  string
	Role     string
	AccessID string
}

// WithIdentity stores id on ctx for handlers further down the chain.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the zero Identity for anonymous requests.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// WithAdminID is shorthand for an identity that only carries the admin id.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	id := IdentityFromContext(ctx)
	id.AdminID = adminID
	return WithIdentity(ctx, id)
}

func AdminIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).AdminID
}

func RoleFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).Role
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).AccessID
}
