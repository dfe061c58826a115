package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/internal/user"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service  *Service
	Security *Security
}

func NewHandler(svc *Service, security *Security) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Security:    security,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	var dto EmailLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.LoginWithEmail(r.Context(), dto)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	// without a magic token this only dispatched the link
	if tokens.AccessToken == "" {
		h.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "magic link sent"})
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Error("token refresh failed", "error", err)
		h.writeAuthError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":       principal.ID,
		"username": principal.Username,
		"email":    principal.Email,
	})
}

// Logout validates the presented token and returns 204. Tokens are not
// revocable server-side, so this endpoint exists for client symmetry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if _, err := h.Service.ValidateAccessToken(r.Context(), token); err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := user.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ChangePassword(r.Context(), principal.ID, dto); err != nil {
		h.writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var dto SetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetPasswordWithToken(r.Context(), dto); err != nil {
		h.writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware resolves the bearer principal and rejects requests
// without one. Routes that tolerate anonymous traffic use
// OptionalAuthMiddleware instead.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := h.Security.ResolvePrincipal(r.Context(), r.Header.Get("Authorization"))
		if principal == nil {
			h.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(user.ContextWithPrincipal(r.Context(), principal)))
	})
}

// OptionalAuthMiddleware resolves the principal when a valid token is
// present and passes the request through either way.
func (h *Handler) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal := h.Security.ResolvePrincipal(r.Context(), r.Header.Get("Authorization")); principal != nil {
			r = r.WithContext(user.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	var appErr *internal.AppError
	var authzErr *AuthorizationError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrAccountLocked):
		h.WriteError(w, http.StatusLocked, "account is locked due to too many failed attempts")
	case errors.Is(err, ErrAuthenticationRequired):
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
	case errors.As(err, &authzErr):
		h.WriteError(w, http.StatusForbidden, authzErr.Error())
	case errors.As(err, &appErr):
		h.WriteDomainError(w, err)
	default:
		h.Logger.Error("authentication flow failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
