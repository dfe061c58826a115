package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Permission is an atomic grantable capability identified by a
// resource:action pair; the name is always the pair joined by a colon.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionName builds the canonical resource:action name.
func PermissionName(resource, action string) string {
	return fmt.Sprintf("%s:%s", resource, action)
}

// Role bundles permission ids. Principals reference roles by id only;
// there is no back-pointer ownership.
type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	IsSystem      bool      `json:"is_system"`
	PermissionIDs []string  `json:"permission_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *Role) HasPermissionID(permissionID string) bool {
	for _, id := range r.PermissionIDs {
		if id == permissionID {
			return true
		}
	}
	return false
}

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
)

// RoleStore is the persistence contract for roles. Absence is signalled
// with ErrRoleNotFound so authorization checks can treat a dangling
// role reference as "skip" rather than a request failure.
type RoleStore interface {
	FindByID(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context, limit, offset int) ([]*Role, error)
	Create(ctx context.Context, r *Role) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

type PermissionStore interface {
	FindByID(ctx context.Context, id string) (*Permission, error)
	FindByName(ctx context.Context, name string) (*Permission, error)
	List(ctx context.Context, limit, offset int) ([]*Permission, error)
	Create(ctx context.Context, p *Permission) error
	UpdateDescription(ctx context.Context, id, description string) error
	Delete(ctx context.Context, id string) error
}
