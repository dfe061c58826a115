package group

import (
	"context"
	"errors"
	"time"
)

// Group is a named collection of principals that can carry its own
// permission grants. Membership and permission references are held as
// id lists, loaded from join tables by the store.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`

	// MaxMembers of zero means unlimited.
	MaxMembers int `json:"max_members"`

	IsPublic         bool `json:"is_public"`
	RequiresApproval bool `json:"requires_approval"`

	MemberIDs     []string `json:"member_ids"`
	PermissionIDs []string `json:"permission_ids"`

	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Group) IsOwnedBy(userID string) bool {
	return g.OwnerID != "" && g.OwnerID == userID
}

func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (g *Group) HasPermissionID(permissionID string) bool {
	for _, id := range g.PermissionIDs {
		if id == permissionID {
			return true
		}
	}
	return false
}

// AtCapacity reports whether another member would exceed MaxMembers.
func (g *Group) AtCapacity() bool {
	return g.MaxMembers > 0 && len(g.MemberIDs) >= g.MaxMembers
}

var ErrNotFound = errors.New("group not found")

// Store is the persistence contract for groups. Find operations return
// ErrNotFound for absent or soft-deleted groups.
type Store interface {
	FindByID(ctx context.Context, id string) (*Group, error)
	FindByName(ctx context.Context, name string) (*Group, error)
	List(ctx context.Context, offset, limit int) ([]*Group, error)
	Create(ctx context.Context, g *Group) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, id string) error

	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	AttachPermission(ctx context.Context, groupID, permissionID string) error
	DetachPermission(ctx context.Context, groupID, permissionID string) error
}
