package user

import "context"

type contextKey string

// ContextPrincipalKey carries the resolved principal through the
// request context.
const ContextPrincipalKey contextKey = "principal"

// ContextWithPrincipal attaches the resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, principal *User) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, principal)
}

// PrincipalFromContext returns the principal placed by the auth
// middleware, or (nil, false) on anonymous requests.
func PrincipalFromContext(ctx context.Context) (*User, bool) {
	principal, ok := ctx.Value(ContextPrincipalKey).(*User)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}
