package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/user"
)

// PrincipalStore is the slice of the user store the authorization
// engine needs for by-id principal resolution.
type PrincipalStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// AuthorizationService resolves whether a principal holds a permission
// or role by walking direct grants and role-inherited grants. All
// methods are read-only over the stores; "permission does not exist"
// and "role not held" are false, never errors. Only infrastructure
// failures propagate.
type AuthorizationService struct {
	users       PrincipalStore
	roles       RoleStore
	permissions PermissionStore
	logger      *slog.Logger
}

func NewAuthorizationService(users PrincipalStore, roles RoleStore, permissions PermissionStore, logger *slog.Logger) *AuthorizationService {
	return &AuthorizationService{
		users:       users,
		roles:       roles,
		permissions: permissions,
		logger:      logger,
	}
}

// HasPermission reports whether the principal holds the named
// permission, either directly or through any of its roles. Superusers
// hold every permission, including names that do not resolve.
func (s *AuthorizationService) HasPermission(ctx context.Context, principal *user.User, permissionName string) (bool, error) {
	if principal.IsSuperuser {
		return true, nil
	}

	perm, err := s.permissions.FindByName(ctx, permissionName)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return false, nil
		}
		return false, err
	}

	if principal.HasPermissionID(perm.ID) {
		return true, nil
	}

	for _, roleID := range principal.RoleIDs {
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				// dangling role reference, skip
				continue
			}
			return false, err
		}
		if role.HasPermissionID(perm.ID) {
			return true, nil
		}
	}

	return false, nil
}

func (s *AuthorizationService) HasRole(ctx context.Context, principal *user.User, roleName string) (bool, error) {
	if principal.IsSuperuser {
		return true, nil
	}

	for _, roleID := range principal.RoleIDs {
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				continue
			}
			return false, err
		}
		if role.Name == roleName {
			return true, nil
		}
	}

	return false, nil
}

func (s *AuthorizationService) HasAnyPermission(ctx context.Context, principal *user.User, permissionNames []string) (bool, error) {
	for _, name := range permissionNames {
		ok, err := s.HasPermission(ctx, principal, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *AuthorizationService) HasAllPermissions(ctx context.Context, principal *user.User, permissionNames []string) (bool, error) {
	for _, name := range permissionNames {
		ok, err := s.HasPermission(ctx, principal, name)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// EffectivePermissions returns the deduplicated union of direct
// permission names and all names reachable through held roles. Output
// order is unspecified. An absent principal yields an empty set.
func (s *AuthorizationService) EffectivePermissions(ctx context.Context, principalID string) (map[string]struct{}, error) {
	principal, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}

	names := make(map[string]struct{})

	collect := func(permissionIDs []string) error {
		for _, permID := range permissionIDs {
			perm, err := s.permissions.FindByID(ctx, permID)
			if err != nil {
				if errors.Is(err, ErrPermissionNotFound) {
					continue
				}
				return err
			}
			names[perm.Name] = struct{}{}
		}
		return nil
	}

	if err := collect(principal.PermissionIDs); err != nil {
		return nil, err
	}

	for _, roleID := range principal.RoleIDs {
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				continue
			}
			return nil, err
		}
		if err := collect(role.PermissionIDs); err != nil {
			return nil, err
		}
	}

	return names, nil
}

// EffectiveRoles returns the names of all roles the principal holds
// directly. An absent principal yields an empty list.
func (s *AuthorizationService) EffectiveRoles(ctx context.Context, principalID string) ([]string, error) {
	principal, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(principal.RoleIDs))
	for _, roleID := range principal.RoleIDs {
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				continue
			}
			return nil, err
		}
		names = append(names, role.Name)
	}
	return names, nil
}

// AdminService covers the administrative role/permission operations:
// catalogue CRUD and role-permission assignment.
type AdminService struct {
	roles       RoleStore
	permissions PermissionStore
	logger      *slog.Logger
}

func NewAdminService(roles RoleStore, permissions PermissionStore, logger *slog.Logger) *AdminService {
	return &AdminService{
		roles:       roles,
		permissions: permissions,
		logger:      logger,
	}
}

func (s *AdminService) GetRole(ctx context.Context, id string) (*Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
		}
		return nil, err
	}
	return role, nil
}

func (s *AdminService) ListRoles(ctx context.Context, limit, offset int) ([]*Role, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.roles.List(ctx, limit, offset)
}

func (s *AdminService) CreateRole(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if _, err := s.roles.FindByName(ctx, dto.Name); err == nil {
		return nil, internal.NewConflictError("role with this name already exists", internal.ErrCodeDuplicateRole)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}

	role := &Role{
		Name:          dto.Name,
		Description:   dto.Description,
		PermissionIDs: dto.PermissionIDs,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role created", "role_id", role.ID, "name", role.Name)
	return role, nil
}

func (s *AdminService) UpdateRole(ctx context.Context, id string, dto UpdateRoleDTO) (*Role, error) {
	if _, err := s.GetRole(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Description != nil {
		fields["description"] = *dto.Description
	}
	if len(fields) > 0 {
		if err := s.roles.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.GetRole(ctx, id)
}

func (s *AdminService) DeleteRole(ctx context.Context, id string) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return internal.NewForbiddenError("system roles cannot be deleted", internal.ErrCodeSystemEntity)
	}
	return s.roles.Delete(ctx, id)
}

// SetRolePermissions replaces the role's permission set. Every
// referenced permission must exist; a missing one fails the whole
// operation with NotFound. The store bumps the role's revision
// timestamp as part of the update.
func (s *AdminService) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) (*Role, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	for _, permID := range permissionIDs {
		if _, err := s.permissions.FindByID(ctx, permID); err != nil {
			if errors.Is(err, ErrPermissionNotFound) {
				return nil, internal.NewNotFoundError("permission not found: "+permID, internal.ErrCodePermissionNotFound)
			}
			return nil, err
		}
	}
	if err := s.roles.SetPermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, err
	}
	s.logger.Info("role permissions updated", "role_id", roleID, "count", len(permissionIDs))
	return s.GetRole(ctx, roleID)
}

func (s *AdminService) GetPermission(ctx context.Context, id string) (*Permission, error) {
	perm, err := s.permissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
		}
		return nil, err
	}
	return perm, nil
}

func (s *AdminService) ListPermissions(ctx context.Context, limit, offset int) ([]*Permission, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.permissions.List(ctx, limit, offset)
}

func (s *AdminService) CreatePermission(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	name := PermissionName(dto.Resource, dto.Action)
	if _, err := s.permissions.FindByName(ctx, name); err == nil {
		return nil, internal.NewConflictError("permission already exists", internal.ErrCodeValidationFailed)
	} else if !errors.Is(err, ErrPermissionNotFound) {
		return nil, err
	}

	perm := &Permission{
		Name:        name,
		Resource:    dto.Resource,
		Action:      dto.Action,
		Description: dto.Description,
	}
	if err := s.permissions.Create(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

// UpdatePermissionDescription is the only mutation allowed on a
// permission once it can be referenced by roles.
func (s *AdminService) UpdatePermissionDescription(ctx context.Context, id, description string) (*Permission, error) {
	if _, err := s.GetPermission(ctx, id); err != nil {
		return nil, err
	}
	if err := s.permissions.UpdateDescription(ctx, id, description); err != nil {
		return nil, err
	}
	return s.GetPermission(ctx, id)
}

func (s *AdminService) DeletePermission(ctx context.Context, id string) error {
	perm, err := s.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	if perm.IsSystem {
		return internal.NewForbiddenError("system permissions cannot be deleted", internal.ErrCodeSystemEntity)
	}
	return s.permissions.Delete(ctx, id)
}
