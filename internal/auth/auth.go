package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/identity-service/internal/user"
)

// Token type discriminators carried in the `type` claim.
const (
	TokenTypeAccess      = "access"
	TokenTypeRefresh     = "refresh"
	TokenTypeSetPassword = "set_password"
)

// Credentials is the union of inputs the strategies accept. The
// password strategy reads Identifier/Password; the email strategy reads
// Email and the optional MagicToken.
type Credentials struct {
	Identifier string
	Password   string
	Email      string
	MagicToken string
}

// TokenPair is the boundary shape returned by login/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

var (
	// ErrInvalidCredentials covers every non-specific authentication
	// failure: unknown principal, wrong password, bad or expired token,
	// inactive account. Callers never learn which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	// ErrAuthenticationRequired is returned by the security facade when
	// a protected operation runs without a resolved principal.
	ErrAuthenticationRequired = errors.New("authentication required")

	// Token manager failure modes. Strategies re-map both of these to
	// ErrInvalidCredentials so callers never need to distinguish
	// decode-level failures.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// AuthorizationError reports a denied permission/role check. It names
// what was required but never what the principal actually holds.
type AuthorizationError struct {
	Required []string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization denied: required %s", strings.Join(e.Required, ", "))
}

// UserStore is the slice of the principal store the auth flow needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	RegisterFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error
	ResetFailedAttempts(ctx context.Context, id string) error
}

// Authorizer is the predicate surface of the authorization engine the
// security facade evaluates.
type Authorizer interface {
	HasPermission(ctx context.Context, principal *user.User, permissionName string) (bool, error)
	HasRole(ctx context.Context, principal *user.User, roleName string) (bool, error)
	HasAnyPermission(ctx context.Context, principal *user.User, permissionNames []string) (bool, error)
	HasAllPermissions(ctx context.Context, principal *user.User, permissionNames []string) (bool, error)
}

// MagicLinkSender dispatches passwordless login links. Delivery is an
// external collaborator; the default implementation only logs.
type MagicLinkSender interface {
	SendMagicLink(ctx context.Context, email, token string) error
}
