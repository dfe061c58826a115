package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/identity-service/internal/group"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const groupColumns = `id, name, description, owner_id, max_members, is_public, requires_approval, is_deleted, created_at, updated_at`

func (r *Repository) FindByID(ctx context.Context, id string) (*group.Group, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) FindByName(ctx context.Context, name string) (*group.Group, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *Repository) findOne(ctx context.Context, cond string, args ...any) (*group.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups WHERE %s AND is_deleted = false`, groupColumns, cond)

	var g group.Group
	var description, ownerID sql.NullString
	err := r.db.WithContext(ctx).Raw(query, args...).Row().
		Scan(&g.ID, &g.Name, &description, &ownerID, &g.MaxMembers,
			&g.IsPublic, &g.RequiresApproval, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, group.ErrNotFound
		}
		return nil, err
	}
	g.Description = description.String
	g.OwnerID = ownerID.String

	if err := r.loadReferences(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]*group.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups WHERE is_deleted = false
		ORDER BY name LIMIT ? OFFSET ?`, groupColumns)

	rows, err := r.db.WithContext(ctx).Raw(query, limit, offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*group.Group
	for rows.Next() {
		var g group.Group
		var description, ownerID sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &description, &ownerID, &g.MaxMembers,
			&g.IsPublic, &g.RequiresApproval, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.Description = description.String
		g.OwnerID = ownerID.String
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if err := r.loadReferences(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *Repository) Create(ctx context.Context, g *group.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	owner := sql.NullString{String: g.OwnerID, Valid: g.OwnerID != ""}

	query := `INSERT INTO groups (id, name, description, owner_id, max_members, is_public, requires_approval, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, false, ?, ?)`
	return r.db.WithContext(ctx).Exec(query,
		g.ID, g.Name, g.Description, owner, g.MaxMembers,
		g.IsPublic, g.RequiresApproval, g.CreatedAt, g.UpdatedAt).Error
}

func (r *Repository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE groups SET %s WHERE id = ? AND is_deleted = false`,
		strings.Join(sets, ", "))
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE groups SET is_deleted = true, updated_at = ?
		WHERE id = ? AND is_deleted = false`
	return r.db.WithContext(ctx).Exec(query, time.Now().UTC(), id).Error
}

func (r *Repository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `INSERT INTO group_members (group_id, user_id) VALUES (?, ?)
		ON CONFLICT (group_id, user_id) DO NOTHING`
	return r.db.WithContext(ctx).Exec(query, groupID, userID).Error
}

func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE group_id = ? AND user_id = ?`
	return r.db.WithContext(ctx).Exec(query, groupID, userID).Error
}

func (r *Repository) AttachPermission(ctx context.Context, groupID, permissionID string) error {
	query := `INSERT INTO group_permissions (group_id, permission_id) VALUES (?, ?)
		ON CONFLICT (group_id, permission_id) DO NOTHING`
	return r.db.WithContext(ctx).Exec(query, groupID, permissionID).Error
}

func (r *Repository) DetachPermission(ctx context.Context, groupID, permissionID string) error {
	query := `DELETE FROM group_permissions WHERE group_id = ? AND permission_id = ?`
	return r.db.WithContext(ctx).Exec(query, groupID, permissionID).Error
}

func (r *Repository) loadReferences(ctx context.Context, g *group.Group) error {
	var err error
	if g.MemberIDs, err = r.collectIDs(ctx,
		`SELECT user_id FROM group_members WHERE group_id = ?`, g.ID); err != nil {
		return err
	}
	if g.PermissionIDs, err = r.collectIDs(ctx,
		`SELECT permission_id FROM group_permissions WHERE group_id = ?`, g.ID); err != nil {
		return err
	}
	return nil
}

func (r *Repository) collectIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
