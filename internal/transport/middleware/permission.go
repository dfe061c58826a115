package middleware

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/user"
)

// RequirePermission gates a route on a single permission name. The auth
// middleware must run earlier in the chain to resolve the principal.
func RequirePermission(security *auth.Security, permission string) func(http.Handler) http.Handler {
	return guard(func(r *http.Request, principal *user.User) error {
		return security.RequirePermission(r.Context(), principal, permission)
	})
}

// RequireAnyPermission gates a route on holding at least one of the
// listed permissions.
func RequireAnyPermission(security *auth.Security, permissions ...string) func(http.Handler) http.Handler {
	return guard(func(r *http.Request, principal *user.User) error {
		return security.RequireAnyPermission(r.Context(), principal, permissions)
	})
}

// RequireAllPermissions gates a route on holding every listed
// permission.
func RequireAllPermissions(security *auth.Security, permissions ...string) func(http.Handler) http.Handler {
	return guard(func(r *http.Request, principal *user.User) error {
		return security.RequireAllPermissions(r.Context(), principal, permissions)
	})
}

// RequireRole gates a route on a role name.
func RequireRole(security *auth.Security, role string) func(http.Handler) http.Handler {
	return guard(func(r *http.Request, principal *user.User) error {
		return security.RequireRole(r.Context(), principal, role)
	})
}

func guard(check func(*http.Request, *user.User) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := user.PrincipalFromContext(r.Context())

			err := check(r, principal)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			var authzErr *auth.AuthorizationError
			switch {
			case errors.Is(err, auth.ErrAuthenticationRequired):
				http.Error(w, "authentication required", http.StatusUnauthorized)
			case errors.As(err, &authzErr):
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
			default:
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		})
	}
}
