package rbac

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

// Handler serves the role and permission administration endpoints.
type Handler struct {
	*transport.BaseHandler
	Admin *AdminService
}

func NewHandler(admin *AdminService) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Admin:       admin,
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	roles, err := h.Admin.ListRoles(r.Context(), limit, offset)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Admin.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	role, err := h.Admin.CreateRole(r.Context(), dto)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	role, err := h.Admin.UpdateRole(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var dto SetRolePermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	role, err := h.Admin.SetRolePermissions(r.Context(), chi.URLParam(r, "id"), dto.PermissionIDs)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	permissions, err := h.Admin.ListPermissions(r.Context(), limit, offset)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]any{"permissions": permissions})
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	permission, err := h.Admin.GetPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permission)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	permission, err := h.Admin.CreatePermission(r.Context(), dto)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, permission)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := internal.ValidateStruct(dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	permission, err := h.Admin.UpdatePermissionDescription(r.Context(), chi.URLParam(r, "id"), dto.Description)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permission)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
