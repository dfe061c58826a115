package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/identity-service/internal/user"
)

// Strategy is the credential-verification capability. Implementations
// verify presented credentials or resolve a principal from a bearer
// token; they never talk to each other's internals. New strategies plug
// in by implementing these two methods and registering a constructor in
// the dispatch table.
type Strategy interface {
	Authenticate(ctx context.Context, credentials Credentials) (*user.User, error)
	ValidateToken(ctx context.Context, token string) (*user.User, error)
}

// Strategy names accepted by NewStrategy.
const (
	StrategyPassword = "password"
	StrategyEmail    = "email"
)

// PasswordStrategy verifies identifier (username or email) plus
// password against the principal store and the lockout state.
type PasswordStrategy struct {
	users   UserStore
	hasher  *PasswordHasher
	lockout *Lockout
	tokens  *TokenManager
}

func NewPasswordStrategy(users UserStore, hasher *PasswordHasher, lockout *Lockout, tokens *TokenManager) *PasswordStrategy {
	return &PasswordStrategy{
		users:   users,
		hasher:  hasher,
		lockout: lockout,
		tokens:  tokens,
	}
}

func (s *PasswordStrategy) Authenticate(ctx context.Context, credentials Credentials) (*user.User, error) {
	identifier := credentials.Identifier
	if identifier == "" {
		identifier = credentials.Email
	}
	if identifier == "" || credentials.Password == "" {
		return nil, ErrInvalidCredentials
	}

	// single combined lookup; the caller cannot tell username misses
	// from email misses
	principal, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !principal.IsActive {
		return nil, ErrInvalidCredentials
	}

	// a still-active lock fails fast and must not touch the counter
	if s.lockout.IsLocked(principal) {
		return nil, ErrAccountLocked
	}

	if !s.hasher.Verify(credentials.Password, principal.PasswordHash) {
		if err := s.lockout.RecordFailure(ctx, principal); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, principal); err != nil {
		return nil, err
	}

	return principal, nil
}

// ValidateToken resolves a principal from an access token. Decode
// failures, wrong token type, and absent or inactive principals all
// collapse into ErrInvalidCredentials.
func (s *PasswordStrategy) ValidateToken(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidCredentials
	}

	if claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	principal, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !principal.IsActive {
		return nil, ErrInvalidCredentials
	}

	return principal, nil
}

// EmailStrategy authenticates by email, either passwordless (presence
// of an active principal is sufficient; link dispatch is an external
// collaborator) or with a magic token whose embedded email must match
// the input exactly.
type EmailStrategy struct {
	users  UserStore
	tokens *TokenManager
	// token validation is strategy-agnostic once issued
	tokenValidator *PasswordStrategy
}

func NewEmailStrategy(users UserStore, tokens *TokenManager, tokenValidator *PasswordStrategy) *EmailStrategy {
	return &EmailStrategy{
		users:          users,
		tokens:         tokens,
		tokenValidator: tokenValidator,
	}
}

func (s *EmailStrategy) Authenticate(ctx context.Context, credentials Credentials) (*user.User, error) {
	if credentials.Email == "" {
		return nil, ErrInvalidCredentials
	}

	principal, err := s.users.FindByEmail(ctx, credentials.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !principal.IsActive {
		return nil, ErrInvalidCredentials
	}

	if credentials.MagicToken != "" {
		claims, err := s.tokens.Decode(credentials.MagicToken)
		if err != nil {
			return nil, ErrInvalidCredentials
		}
		if claims.Email != credentials.Email {
			return nil, ErrInvalidCredentials
		}
	}

	return principal, nil
}

func (s *EmailStrategy) ValidateToken(ctx context.Context, token string) (*user.User, error) {
	return s.tokenValidator.ValidateToken(ctx, token)
}

// Context holds the active strategy and exposes the uniform
// authenticate / validate-token contract.
type Context struct {
	strategy Strategy
}

func NewContext(strategy Strategy) *Context {
	return &Context{strategy: strategy}
}

func (c *Context) Authenticate(ctx context.Context, credentials Credentials) (*user.User, error) {
	return c.strategy.Authenticate(ctx, credentials)
}

func (c *Context) ValidateToken(ctx context.Context, token string) (*user.User, error) {
	return c.strategy.ValidateToken(ctx, token)
}

func (c *Context) SetStrategy(strategy Strategy) {
	c.strategy = strategy
}

// StrategySet constructs the known strategies over shared dependencies
// and hands them out by name.
type StrategySet struct {
	password *PasswordStrategy
	email    *EmailStrategy
}

func NewStrategySet(users UserStore, hasher *PasswordHasher, lockout *Lockout, tokens *TokenManager) *StrategySet {
	password := NewPasswordStrategy(users, hasher, lockout, tokens)
	return &StrategySet{
		password: password,
		email:    NewEmailStrategy(users, tokens, password),
	}
}

func (f *StrategySet) Password() *PasswordStrategy { return f.password }
func (f *StrategySet) Email() *EmailStrategy       { return f.email }

// NewStrategy selects a strategy by name.
func (f *StrategySet) NewStrategy(name string) (Strategy, error) {
	strategies := map[string]Strategy{
		StrategyPassword: f.password,
		StrategyEmail:    f.email,
	}

	strategy, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown authentication strategy: %s", name)
	}
	return strategy, nil
}

// AvailableStrategies lists the registered strategy names.
func (f *StrategySet) AvailableStrategies() []string {
	return []string{StrategyPassword, StrategyEmail}
}
