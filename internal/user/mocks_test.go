package user_test

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/identity-service/internal/user"
)

type mockStore struct {
	users map[string]*user.User

	listLimit  int
	listOffset int
	nextID     int
}

func newMockStore() *mockStore {
	return &mockStore{users: make(map[string]*user.User), nextID: 1}
}

func (m *mockStore) add(u *user.User) *user.User {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", m.nextID)
		m.nextID++
	}
	m.users[u.ID] = u
	return u
}

func (m *mockStore) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok || u.IsDeleted {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockStore) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if !u.IsDeleted && u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockStore) FindByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range m.users {
		if !u.IsDeleted && u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockStore) FindByEmailOrUsername(ctx context.Context, identifier string) (*user.User, error) {
	if u, err := m.FindByEmail(ctx, identifier); err == nil {
		return u, nil
	}
	return m.FindByUsername(ctx, identifier)
}

func (m *mockStore) List(_ context.Context, limit, offset int) ([]*user.User, error) {
	m.listLimit = limit
	m.listOffset = offset
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		if u.IsDeleted {
			continue
		}
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) Create(_ context.Context, u *user.User) error {
	m.add(u)
	return nil
}

func (m *mockStore) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	for col, value := range fields {
		switch col {
		case "is_active":
			u.IsActive = value.(bool)
		case "full_name":
			u.FullName = value.(string)
		case "bio":
			u.Bio = value.(string)
		case "updated_at":
			u.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (m *mockStore) SoftDelete(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsDeleted = true
	u.IsActive = false
	return nil
}

func (m *mockStore) RegisterFailedAttempt(_ context.Context, id string, maxAttempts int, lockUntil time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.FailedAttempts++
	if u.FailedAttempts >= maxAttempts {
		until := lockUntil
		u.LockedUntil = &until
	}
	return nil
}

func (m *mockStore) ResetFailedAttempts(_ context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.FailedAttempts = 0
	u.LockedUntil = nil
	return nil
}

func (m *mockStore) AssignRole(_ context.Context, userID, roleID string) error {
	u, ok := m.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	if !u.HasRoleID(roleID) {
		u.RoleIDs = append(u.RoleIDs, roleID)
	}
	return nil
}

func (m *mockStore) RemoveRole(_ context.Context, userID, roleID string) error {
	u, ok := m.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	kept := u.RoleIDs[:0]
	for _, id := range u.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	u.RoleIDs = kept
	return nil
}

func (m *mockStore) GrantPermission(_ context.Context, userID, permissionID string) error {
	u, ok := m.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	if !u.HasPermissionID(permissionID) {
		u.PermissionIDs = append(u.PermissionIDs, permissionID)
	}
	return nil
}

func (m *mockStore) RevokePermission(_ context.Context, userID, permissionID string) error {
	u, ok := m.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	kept := u.PermissionIDs[:0]
	for _, id := range u.PermissionIDs {
		if id != permissionID {
			kept = append(kept, id)
		}
	}
	u.PermissionIDs = kept
	return nil
}

type mockRoleFinder struct {
	existing map[string]bool
	err      error
}

func (m *mockRoleFinder) RoleExists(_ context.Context, roleID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[roleID], nil
}

type mockPermissionFinder struct {
	existing map[string]bool
	err      error
}

func (m *mockPermissionFinder) PermissionExists(_ context.Context, permissionID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[permissionID], nil
}
