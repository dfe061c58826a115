package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the fixed wire-level claim schema. `sub`, `exp`, `iat` come
// from the registered claims; `type` discriminates access, refresh and
// named action tokens. Tokens are self-contained and not revocable
// server-side: signature, expiry and type match are the whole validity
// story.
type Claims struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	TokenType   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates time-boxed typed bearer tokens. It
// holds only configuration and is safe to share across requests.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// CreateAccessToken signs the claims with type=access and expiry
// now + access TTL. The caller-supplied identity claims are carried
// verbatim.
func (m *TokenManager) CreateAccessToken(claims Claims) (string, error) {
	return m.sign(claims, TokenTypeAccess, m.accessTTL)
}

func (m *TokenManager) CreateRefreshToken(claims Claims) (string, error) {
	return m.sign(claims, TokenTypeRefresh, m.refreshTTL)
}

// CreateActionToken signs a single-purpose token with an arbitrary type
// discriminator, e.g. set_password links.
func (m *TokenManager) CreateActionToken(claims Claims, ttl time.Duration, tokenType string) (string, error) {
	return m.sign(claims, tokenType, ttl)
}

func (m *TokenManager) sign(claims Claims, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.TokenType = tokenType
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Decode validates signature and expiry and returns the claims. The
// only failure modes are ErrTokenExpired (past expiry) and
// ErrTokenInvalid (signature or format); callers can rely on the
// distinction.
func (m *TokenManager) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// IdentityClaims builds the standard claim set for a principal: subject
// id plus the identity attributes echoed into access/refresh tokens.
func IdentityClaims(id, username, email string, isSuperuser bool) Claims {
	return Claims{
		Username:    username,
		Email:       email,
		IsSuperuser: isSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id,
		},
	}
}
