package user

import (
	"context"
	"errors"
	"time"
)

// User is the principal subject to authentication and authorization.
// Role, permission and group relationships are unowned id references
// resolved through lookups, never embedded objects.
type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FullName      string     `json:"full_name,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	IsActive      bool       `json:"is_active"`
	IsSuperuser   bool       `json:"is_superuser"`
	EmailVerified bool       `json:"email_verified"`
	IsDeleted     bool       `json:"-"`

	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`

	RoleIDs       []string `json:"role_ids"`
	PermissionIDs []string `json:"permission_ids"`
	GroupIDs      []string `json:"group_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLocked reports whether the lockout window is still active. A
// lock-until timestamp in the past means the account counts as
// unlocked; the failed-attempt counter is only reset on the next
// successful authentication.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

func (u *User) HasRoleID(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func (u *User) HasPermissionID(permissionID string) bool {
	for _, id := range u.PermissionIDs {
		if id == permissionID {
			return true
		}
	}
	return false
}

func (u *User) IsMemberOf(groupID string) bool {
	for _, id := range u.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// ErrNotFound signals an absent principal. Stores return it so callers
// can tell absence apart from infrastructure failures.
var ErrNotFound = errors.New("user not found")

// Store is the persistence contract for principals. Lookups never
// return soft-deleted users. RegisterFailedAttempt must apply the
// counter increment and the conditional lock in a single atomic update
// so concurrent failed logins cannot lose increments.
type Store interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)

	Create(ctx context.Context, u *User) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, id string) error

	RegisterFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error
	ResetFailedAttempts(ctx context.Context, id string) error

	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	GrantPermission(ctx context.Context, userID, permissionID string) error
	RevokePermission(ctx context.Context, userID, permissionID string) error
}
