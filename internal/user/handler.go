package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

// EffectiveAccessReader exposes the resolved permission and role sets
// for a principal, served on the introspection endpoints.
type EffectiveAccessReader interface {
	EffectivePermissions(ctx context.Context, principalID string) (map[string]struct{}, error)
	EffectiveRoles(ctx context.Context, principalID string) ([]string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Access  EffectiveAccessReader
}

func NewHandler(svc *Service, access EffectiveAccessReader) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Access:      access,
	}
}

// Me returns the authenticated principal's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.WriteJSON(w, http.StatusOK, ToV1(principal))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	updated, err := h.Service.UpdateProfile(r.Context(), principal.ID, dto)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToV1(updated))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	out := make([]ResponseV1, len(users))
	for i, u := range users {
		out[i] = ToV1(u)
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToV1(u))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToV1(u))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToV1(u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	if err := h.Service.AssignRole(r.Context(), chi.URLParam(r, "id"), dto.RoleID); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveRole(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "roleID")); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var dto GrantPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	if err := h.Service.GrantPermission(r.Context(), chi.URLParam(r, "id"), dto.PermissionID); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RevokePermission(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "permissionID")); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EffectivePermissions returns the flattened permission names granted
// directly or through roles.
func (h *Handler) EffectivePermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.GetByID(r.Context(), id); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	perms, err := h.Access.EffectivePermissions(r.Context(), id)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	names := make([]string, 0, len(perms))
	for name := range perms {
		names = append(names, name)
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{"permissions": names})
}

func (h *Handler) EffectiveRoles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.GetByID(r.Context(), id); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	roles, err := h.Access.EffectiveRoles(r.Context(), id)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}
