package rbac_test

import (
	"context"
	"fmt"

	"github.com/frahmantamala/identity-service/internal/rbac"
	"github.com/frahmantamala/identity-service/internal/user"
)

type mockPrincipalStore struct {
	users     map[string]*user.User
	findError error
}

func newMockPrincipalStore() *mockPrincipalStore {
	return &mockPrincipalStore{users: make(map[string]*user.User)}
}

func (m *mockPrincipalStore) add(u *user.User) *user.User {
	m.users[u.ID] = u
	return u
}

func (m *mockPrincipalStore) FindByID(_ context.Context, id string) (*user.User, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type mockRoleStore struct {
	roles map[string]*rbac.Role

	findError error
	nextID    int
	deleted   []string
}

func newMockRoleStore() *mockRoleStore {
	return &mockRoleStore{roles: make(map[string]*rbac.Role), nextID: 1}
}

func (m *mockRoleStore) add(r *rbac.Role) *rbac.Role {
	if r.ID == "" {
		r.ID = fmt.Sprintf("role-%d", m.nextID)
		m.nextID++
	}
	m.roles[r.ID] = r
	return r
}

func (m *mockRoleStore) FindByID(_ context.Context, id string) (*rbac.Role, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	r, ok := m.roles[id]
	if !ok {
		return nil, rbac.ErrRoleNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRoleStore) FindByName(_ context.Context, name string) (*rbac.Role, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	for _, r := range m.roles {
		if r.Name == name {
			copied := *r
			return &copied, nil
		}
	}
	return nil, rbac.ErrRoleNotFound
}

func (m *mockRoleStore) List(_ context.Context, limit, offset int) ([]*rbac.Role, error) {
	out := make([]*rbac.Role, 0, len(m.roles))
	for _, r := range m.roles {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRoleStore) Create(_ context.Context, r *rbac.Role) error {
	m.add(r)
	return nil
}

func (m *mockRoleStore) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	r, ok := m.roles[id]
	if !ok {
		return rbac.ErrRoleNotFound
	}
	for col, value := range fields {
		switch col {
		case "name":
			r.Name = value.(string)
		case "description":
			r.Description = value.(string)
		}
	}
	return nil
}

func (m *mockRoleStore) Delete(_ context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return rbac.ErrRoleNotFound
	}
	delete(m.roles, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRoleStore) SetPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	r, ok := m.roles[roleID]
	if !ok {
		return rbac.ErrRoleNotFound
	}
	r.PermissionIDs = append([]string(nil), permissionIDs...)
	return nil
}

type mockPermissionStore struct {
	permissions map[string]*rbac.Permission

	findError error
	nextID    int
	deleted   []string
}

func newMockPermissionStore() *mockPermissionStore {
	return &mockPermissionStore{permissions: make(map[string]*rbac.Permission), nextID: 1}
}

func (m *mockPermissionStore) add(p *rbac.Permission) *rbac.Permission {
	if p.ID == "" {
		p.ID = fmt.Sprintf("perm-%d", m.nextID)
		m.nextID++
	}
	if p.Name == "" {
		p.Name = rbac.PermissionName(p.Resource, p.Action)
	}
	m.permissions[p.ID] = p
	return p
}

func (m *mockPermissionStore) FindByID(_ context.Context, id string) (*rbac.Permission, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	p, ok := m.permissions[id]
	if !ok {
		return nil, rbac.ErrPermissionNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPermissionStore) FindByName(_ context.Context, name string) (*rbac.Permission, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	for _, p := range m.permissions {
		if p.Name == name {
			copied := *p
			return &copied, nil
		}
	}
	return nil, rbac.ErrPermissionNotFound
}

func (m *mockPermissionStore) List(_ context.Context, limit, offset int) ([]*rbac.Permission, error) {
	out := make([]*rbac.Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockPermissionStore) Create(_ context.Context, p *rbac.Permission) error {
	m.add(p)
	return nil
}

func (m *mockPermissionStore) UpdateDescription(_ context.Context, id, description string) error {
	p, ok := m.permissions[id]
	if !ok {
		return rbac.ErrPermissionNotFound
	}
	p.Description = description
	return nil
}

func (m *mockPermissionStore) Delete(_ context.Context, id string) error {
	if _, ok := m.permissions[id]; !ok {
		return rbac.ErrPermissionNotFound
	}
	delete(m.permissions, id)
	m.deleted = append(m.deleted, id)
	return nil
}
