package group

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal"
)

// MemberFinder verifies that a principal exists before membership
// changes reference it.
type MemberFinder interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// PermissionFinder verifies that a permission exists before it is
// attached to a group.
type PermissionFinder interface {
	PermissionExists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	store       Store
	members     MemberFinder
	permissions PermissionFinder
	logger      *slog.Logger
}

func NewService(store Store, members MemberFinder, permissions PermissionFinder, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		members:     members,
		permissions: permissions,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Group, error) {
	g, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.NewNotFoundError("group not found", internal.ErrCodeGroupNotFound)
		}
		return nil, err
	}
	return g, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*Group, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, offset, limit)
}

// Create creates the group and enrolls the owner as its first member.
func (s *Service) Create(ctx context.Context, ownerID string, dto CreateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByName(ctx, dto.Name); err == nil {
		return nil, internal.NewConflictError("group name already exists", internal.ErrCodeDuplicateGroup)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	g := &Group{
		Name:             dto.Name,
		Description:      dto.Description,
		OwnerID:          ownerID,
		MaxMembers:       dto.MaxMembers,
		IsPublic:         dto.IsPublic,
		RequiresApproval: dto.RequiresApproval,
	}
	if err := s.store.Create(ctx, g); err != nil {
		return nil, err
	}

	if ownerID != "" {
		if err := s.store.AddMember(ctx, g.ID, ownerID); err != nil {
			return nil, err
		}
		g.MemberIDs = append(g.MemberIDs, ownerID)
	}

	s.logger.Info("group created", "group_id", g.ID, "name", g.Name, "owner_id", ownerID)
	return g, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if dto.Name != nil && *dto.Name != g.Name {
		if _, err := s.store.FindByName(ctx, *dto.Name); err == nil {
			return nil, internal.NewConflictError("group name already exists", internal.ErrCodeDuplicateGroup)
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		fields["name"] = *dto.Name
	}
	if dto.Description != nil {
		fields["description"] = *dto.Description
	}
	if dto.MaxMembers != nil {
		// shrinking below the current membership is allowed; it only
		// blocks further joins
		fields["max_members"] = *dto.MaxMembers
	}
	if dto.IsPublic != nil {
		fields["is_public"] = *dto.IsPublic
	}
	if dto.RequiresApproval != nil {
		fields["requires_approval"] = *dto.RequiresApproval
	}

	if err := s.store.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("group deleted", "group_id", id)
	return nil
}

// AddMember adds the principal to the group. Adding an existing member
// is a no-op; a full group fails with GROUP_AT_CAPACITY.
func (s *Service) AddMember(ctx context.Context, groupID, userID string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	ok, err := s.members.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	if g.HasMember(userID) {
		return nil
	}
	if g.AtCapacity() {
		return internal.NewConflictError("group is at capacity", internal.ErrCodeGroupFull)
	}

	return s.store.AddMember(ctx, groupID, userID)
}

// RemoveMember removes the principal from the group. Removing a
// non-member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(userID) {
		return nil
	}
	return s.store.RemoveMember(ctx, groupID, userID)
}

// AttachPermission grants a permission to every member of the group.
func (s *Service) AttachPermission(ctx context.Context, groupID, permissionID string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	ok, err := s.permissions.PermissionExists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
	}

	if g.HasPermissionID(permissionID) {
		return nil
	}
	return s.store.AttachPermission(ctx, groupID, permissionID)
}

func (s *Service) DetachPermission(ctx context.Context, groupID, permissionID string) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.HasPermissionID(permissionID) {
		return nil
	}
	return s.store.DetachPermission(ctx, groupID, permissionID)
}
