package auth

import (
	"context"
	"strings"

	"github.com/frahmantamala/identity-service/internal/user"
)

// Security is the single entry point request handling code talks to:
// resolve a principal from a bearer credential, then demand permissions
// or roles. Resolution is deliberately forgiving (absence of a
// principal is a normal outcome, reported as nil), while the Require
// methods are strict and return typed errors.
type Security struct {
	authContext *Context
	authorizer  Authorizer
}

func NewSecurity(authContext *Context, authorizer Authorizer) *Security {
	return &Security{
		authContext: authContext,
		authorizer:  authorizer,
	}
}

// ResolvePrincipal turns an Authorization header value into a principal.
// A "Bearer " prefix is stripped case-insensitively. Any failure, from
// a missing header to an expired token, yields nil rather than an
// error; anonymous traffic is not exceptional.
func (s *Security) ResolvePrincipal(ctx context.Context, authorization string) *user.User {
	token := strings.TrimSpace(authorization)
	if len(token) >= len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(token[len(bearerPrefix):])
	}
	if token == "" {
		return nil
	}

	principal, err := s.authContext.ValidateToken(ctx, token)
	if err != nil {
		return nil
	}
	return principal
}

const bearerPrefix = "Bearer "

// RequirePermission fails with ErrAuthenticationRequired when no
// principal is present and with *AuthorizationError when the principal
// lacks the permission.
func (s *Security) RequirePermission(ctx context.Context, principal *user.User, permission string) error {
	if principal == nil {
		return ErrAuthenticationRequired
	}
	ok, err := s.authorizer.HasPermission(ctx, principal, permission)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{Required: []string{permission}}
	}
	return nil
}

func (s *Security) RequireRole(ctx context.Context, principal *user.User, role string) error {
	if principal == nil {
		return ErrAuthenticationRequired
	}
	ok, err := s.authorizer.HasRole(ctx, principal, role)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{Required: []string{role}}
	}
	return nil
}

// RequireAnyPermission passes when the principal holds at least one of
// the listed permissions.
func (s *Security) RequireAnyPermission(ctx context.Context, principal *user.User, permissions []string) error {
	if principal == nil {
		return ErrAuthenticationRequired
	}
	ok, err := s.authorizer.HasAnyPermission(ctx, principal, permissions)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{Required: permissions}
	}
	return nil
}

// RequireAllPermissions passes only when the principal holds every
// listed permission.
func (s *Security) RequireAllPermissions(ctx context.Context, principal *user.User, permissions []string) error {
	if principal == nil {
		return ErrAuthenticationRequired
	}
	ok, err := s.authorizer.HasAllPermissions(ctx, principal, permissions)
	if err != nil {
		return err
	}
	if !ok {
		return &AuthorizationError{Required: permissions}
	}
	return nil
}
