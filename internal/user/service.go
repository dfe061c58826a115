package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal"
)

// RoleFinder and PermissionFinder are the narrow slices of the rbac
// stores this service needs for assignment checks.
type RoleFinder interface {
	RoleExists(ctx context.Context, roleID string) (bool, error)
}

type PermissionFinder interface {
	PermissionExists(ctx context.Context, permissionID string) (bool, error)
}

type Service struct {
	store       Store
	roles       RoleFinder
	permissions PermissionFinder
	logger      *slog.Logger
}

func NewService(store Store, roles RoleFinder, permissions PermissionFinder, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		roles:       roles,
		permissions: permissions,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

func (s *Service) Activate(ctx context.Context, id string) (*User, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*User, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (*User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}
	if err := s.store.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	s.logger.Info("user active flag changed", "user_id", id, "is_active", active)
	return s.GetByID(ctx, id)
}

// Delete soft-deletes the user; the row stays behind for audit and
// uniqueness checks only consider non-deleted principals.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user soft-deleted", "user_id", id)
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, dto UpdateProfileDTO) (*User, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if dto.FullName != nil {
		fields["full_name"] = *dto.FullName
	}
	if dto.Bio != nil {
		fields["bio"] = *dto.Bio
	}
	if err := s.store.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	ok, err := s.roles.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}
	return s.store.AssignRole(ctx, userID, roleID)
}

func (s *Service) RemoveRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.store.RemoveRole(ctx, userID, roleID)
}

func (s *Service) GrantPermission(ctx context.Context, userID, permissionID string) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	ok, err := s.permissions.PermissionExists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
	}
	return s.store.GrantPermission(ctx, userID, permissionID)
}

func (s *Service) RevokePermission(ctx context.Context, userID, permissionID string) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.store.RevokePermission(ctx, userID, permissionID)
}
