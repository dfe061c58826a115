package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/user"
)

// Service drives the authentication flows: login, token refresh,
// registration and password handling. Authorization decisions live in
// the rbac package; this service only establishes identity.
type Service struct {
	users       UserStore
	hasher      *PasswordHasher
	tokens      *TokenManager
	strategies  *StrategySet
	authContext *Context
	magicLinks  MagicLinkSender
	logger      *slog.Logger

	setPasswordTTL time.Duration
}

func NewService(users UserStore, hasher *PasswordHasher, tokens *TokenManager, strategies *StrategySet, magicLinks MagicLinkSender, setPasswordTTL time.Duration, logger *slog.Logger) *Service {
	if magicLinks == nil {
		magicLinks = noopMagicLinkSender{logger: logger}
	}
	return &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		strategies:     strategies,
		authContext:    NewContext(strategies.Password()),
		magicLinks:     magicLinks,
		setPasswordTTL: setPasswordTTL,
		logger:         logger,
	}
}

// Context returns the authentication context holding the default
// (password) strategy.
func (s *Service) Context() *Context { return s.authContext }

// Login verifies identifier+password credentials and mints the token
// pair. Failures are ErrInvalidCredentials or ErrAccountLocked.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return TokenPair{}, err
	}

	principal, err := s.strategies.Password().Authenticate(ctx, Credentials{
		Identifier: dto.Identifier,
		Password:   dto.Password,
	})
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.generateTokens(principal)
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateFields(ctx, principal.ID, map[string]any{
		"last_login": now,
		"updated_at": now,
	}); err != nil {
		s.logger.Warn("failed to record last login", "user_id", principal.ID, "error", err)
	}

	return pair, nil
}

// LoginWithEmail runs the email strategy: with a magic token it
// completes authentication, without one it issues and dispatches a
// fresh magic link.
func (s *Service) LoginWithEmail(ctx context.Context, dto EmailLoginDTO) (TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return TokenPair{}, err
	}

	principal, err := s.strategies.Email().Authenticate(ctx, Credentials{
		Email:      dto.Email,
		MagicToken: dto.MagicToken,
	})
	if err != nil {
		return TokenPair{}, err
	}

	if dto.MagicToken == "" {
		token, err := s.tokens.CreateActionToken(
			IdentityClaims(principal.ID, principal.Username, principal.Email, principal.IsSuperuser),
			s.setPasswordTTL, "magic_link")
		if err != nil {
			return TokenPair{}, err
		}
		if err := s.magicLinks.SendMagicLink(ctx, principal.Email, token); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, nil
	}

	return s.generateTokens(principal)
}

// Refresh exchanges a refresh token for a new access token. Wrong token
// type, decode failure, and inactive or absent principals all fail with
// ErrInvalidCredentials.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	if claims.TokenType != TokenTypeRefresh {
		return TokenPair{}, ErrInvalidCredentials
	}

	principal, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !principal.IsActive {
		return TokenPair{}, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.CreateAccessToken(
		IdentityClaims(principal.ID, principal.Username, principal.Email, principal.IsSuperuser))
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// ValidateAccessToken resolves a principal from an access token using
// the default strategy.
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*user.User, error) {
	return s.authContext.ValidateToken(ctx, token)
}

// Register creates a new principal. Username and email must be unique
// among non-deleted principals.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*user.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, dto.Username); err == nil {
		return nil, internal.NewConflictError("username already exists", internal.ErrCodeDuplicateUsername)
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByEmail(ctx, dto.Email); err == nil {
		return nil, internal.NewConflictError("email already exists", internal.ErrCodeDuplicateEmail)
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, err
	}

	principal := &user.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		FullName:     dto.FullName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, principal); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", principal.ID, "username", principal.Username)
	return principal, nil
}

// ChangePassword verifies the current password before storing the new
// digest. The new digest always uses the preferred scheme, which also
// migrates principals off legacy digests.
func (s *Service) ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	principal, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if !s.hasher.Verify(dto.CurrentPassword, principal.PasswordHash) {
		return ErrInvalidCredentials
	}

	return s.storeNewPassword(ctx, principal.ID, dto.NewPassword, false)
}

// CreateSetPasswordToken mints a single-purpose set_password token for
// the principal, used in onboarding and reset links.
func (s *Service) CreateSetPasswordToken(principal *user.User) (string, error) {
	return s.tokens.CreateActionToken(
		IdentityClaims(principal.ID, principal.Username, principal.Email, principal.IsSuperuser),
		s.setPasswordTTL, TokenTypeSetPassword)
}

// SetPasswordWithToken consumes a set_password action token and stores
// the new password. Completing the flow also marks the email verified.
func (s *Service) SetPasswordWithToken(ctx context.Context, dto SetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	claims, err := s.tokens.Decode(dto.Token)
	if err != nil {
		return ErrInvalidCredentials
	}
	if claims.TokenType != TokenTypeSetPassword || claims.Subject == "" {
		return ErrInvalidCredentials
	}

	if _, err := s.users.FindByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	return s.storeNewPassword(ctx, claims.Subject, dto.NewPassword, true)
}

func (s *Service) storeNewPassword(ctx context.Context, userID, newPassword string, markVerified bool) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"password_hash": hash,
		"updated_at":    now,
	}
	if markVerified {
		fields["email_verified"] = true
	}
	if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func (s *Service) generateTokens(principal *user.User) (TokenPair, error) {
	claims := IdentityClaims(principal.ID, principal.Username, principal.Email, principal.IsSuperuser)

	accessToken, err := s.tokens.CreateAccessToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.tokens.CreateRefreshToken(claims)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

type noopMagicLinkSender struct {
	logger *slog.Logger
}

func (s noopMagicLinkSender) SendMagicLink(_ context.Context, email, _ string) error {
	if s.logger != nil {
		s.logger.Info("magic link issued (delivery disabled)", "email", email)
	}
	return nil
}
