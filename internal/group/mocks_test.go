package group_test

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/identity-service/internal/group"
)

type mockStore struct {
	groups map[string]*group.Group
	nextID int
}

func newMockStore() *mockStore {
	return &mockStore{groups: make(map[string]*group.Group), nextID: 1}
}

func (m *mockStore) add(g *group.Group) *group.Group {
	if g.ID == "" {
		g.ID = fmt.Sprintf("group-%d", m.nextID)
		m.nextID++
	}
	m.groups[g.ID] = g
	return g
}

func (m *mockStore) FindByID(_ context.Context, id string) (*group.Group, error) {
	g, ok := m.groups[id]
	if !ok || g.IsDeleted {
		return nil, group.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *mockStore) FindByName(_ context.Context, name string) (*group.Group, error) {
	for _, g := range m.groups {
		if !g.IsDeleted && g.Name == name {
			copied := *g
			return &copied, nil
		}
	}
	return nil, group.ErrNotFound
}

func (m *mockStore) List(_ context.Context, offset, limit int) ([]*group.Group, error) {
	out := make([]*group.Group, 0, len(m.groups))
	for _, g := range m.groups {
		if g.IsDeleted {
			continue
		}
		copied := *g
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockStore) Create(_ context.Context, g *group.Group) error {
	m.add(g)
	return nil
}

func (m *mockStore) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	g, ok := m.groups[id]
	if !ok {
		return group.ErrNotFound
	}
	for col, value := range fields {
		switch col {
		case "name":
			g.Name = value.(string)
		case "description":
			g.Description = value.(string)
		case "max_members":
			g.MaxMembers = value.(int)
		case "is_public":
			g.IsPublic = value.(bool)
		case "requires_approval":
			g.RequiresApproval = value.(bool)
		case "updated_at":
			g.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (m *mockStore) SoftDelete(_ context.Context, id string) error {
	g, ok := m.groups[id]
	if !ok {
		return group.ErrNotFound
	}
	g.IsDeleted = true
	return nil
}

func (m *mockStore) AddMember(_ context.Context, groupID, userID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	if !g.HasMember(userID) {
		g.MemberIDs = append(g.MemberIDs, userID)
	}
	return nil
}

func (m *mockStore) RemoveMember(_ context.Context, groupID, userID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	kept := g.MemberIDs[:0]
	for _, id := range g.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	g.MemberIDs = kept
	return nil
}

func (m *mockStore) AttachPermission(_ context.Context, groupID, permissionID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	if !g.HasPermissionID(permissionID) {
		g.PermissionIDs = append(g.PermissionIDs, permissionID)
	}
	return nil
}

func (m *mockStore) DetachPermission(_ context.Context, groupID, permissionID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	kept := g.PermissionIDs[:0]
	for _, id := range g.PermissionIDs {
		if id != permissionID {
			kept = append(kept, id)
		}
	}
	g.PermissionIDs = kept
	return nil
}

type mockMemberFinder struct {
	existing map[string]bool
	err      error
}

func (m *mockMemberFinder) UserExists(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[id], nil
}

type mockPermissionFinder struct {
	existing map[string]bool
	err      error
}

func (m *mockPermissionFinder) PermissionExists(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[id], nil
}
