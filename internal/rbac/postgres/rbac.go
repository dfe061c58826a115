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

	"github.com/frahmantamala/identity-service/internal/rbac"
)

// RoleRepository persists roles and their permission references.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

const roleColumns = `id, name, description, is_system, created_at, updated_at`

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*rbac.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*rbac.Role, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *RoleRepository) findOne(ctx context.Context, cond string, args ...any) (*rbac.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE %s`, roleColumns, cond)

	var role rbac.Role
	err := r.db.WithContext(ctx).Raw(query, args...).Row().
		Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, err
	}

	if role.PermissionIDs, err = collectIDs(ctx, r.db,
		`SELECT permission_id FROM role_permissions WHERE role_id = ?`, role.ID); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context, limit, offset int) ([]*rbac.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM roles ORDER BY name LIMIT ? OFFSET ?`, roleColumns)

	rows, err := r.db.WithContext(ctx).Raw(query, limit, offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*rbac.Role
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem,
			&role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, role := range roles {
		if role.PermissionIDs, err = collectIDs(ctx, r.db,
			`SELECT permission_id FROM role_permissions WHERE role_id = ?`, role.ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *rbac.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := `INSERT INTO roles (id, name, description, is_system, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`
		if err := tx.Exec(query, role.ID, role.Name, role.Description, role.IsSystem,
			role.CreatedAt, role.UpdatedAt).Error; err != nil {
			return err
		}
		return insertRolePermissions(tx, role.ID, role.PermissionIDs)
	})
}

func (r *RoleRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
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

	query := fmt.Sprintf(`UPDATE roles SET %s WHERE id = ?`, strings.Join(sets, ", "))
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM user_roles WHERE role_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM roles WHERE id = ?`, id).Error
	})
}

// SetPermissions replaces the role's permission set wholesale and bumps
// the role revision timestamp.
func (r *RoleRepository) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, roleID).Error; err != nil {
			return err
		}
		if err := insertRolePermissions(tx, roleID, permissionIDs); err != nil {
			return err
		}
		return tx.Exec(`UPDATE roles SET updated_at = ? WHERE id = ?`,
			time.Now().UTC(), roleID).Error
	})
}

func insertRolePermissions(tx *gorm.DB, roleID string, permissionIDs []string) error {
	for _, pid := range permissionIDs {
		query := `INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
			ON CONFLICT (role_id, permission_id) DO NOTHING`
		if err := tx.Exec(query, roleID, pid).Error; err != nil {
			return err
		}
	}
	return nil
}

// RoleExists satisfies the user service's role verification.
func (r *RoleRepository) RoleExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(1) FROM roles WHERE id = ?`, id)
}

// PermissionRepository persists the permission catalogue.
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permissionColumns = `id, name, resource, action, description, is_system, created_at, updated_at`

func (r *PermissionRepository) FindByID(ctx context.Context, id string) (*rbac.Permission, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *PermissionRepository) FindByName(ctx context.Context, name string) (*rbac.Permission, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *PermissionRepository) findOne(ctx context.Context, cond string, args ...any) (*rbac.Permission, error) {
	query := fmt.Sprintf(`SELECT %s FROM permissions WHERE %s`, permissionColumns, cond)

	var p rbac.Permission
	err := r.db.WithContext(ctx).Raw(query, args...).Row().
		Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsSystem,
			&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.ErrPermissionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) List(ctx context.Context, limit, offset int) ([]*rbac.Permission, error) {
	query := fmt.Sprintf(`SELECT %s FROM permissions ORDER BY name LIMIT ? OFFSET ?`, permissionColumns)

	rows, err := r.db.WithContext(ctx).Raw(query, limit, offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []*rbac.Permission
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description,
			&p.IsSystem, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, &p)
	}
	return permissions, rows.Err()
}

func (r *PermissionRepository) Create(ctx context.Context, p *rbac.Permission) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO permissions
		(id, name, resource, action, description, is_system, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	return r.db.WithContext(ctx).Exec(query,
		p.ID, p.Name, p.Resource, p.Action, p.Description, p.IsSystem,
		p.CreatedAt, p.UpdatedAt).Error
}

func (r *PermissionRepository) UpdateDescription(ctx context.Context, id, description string) error {
	query := `UPDATE permissions SET description = ?, updated_at = ? WHERE id = ?`
	return r.db.WithContext(ctx).Exec(query, description, time.Now().UTC(), id).Error
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM role_permissions WHERE permission_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM user_permissions WHERE permission_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM group_permissions WHERE permission_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM permissions WHERE id = ?`, id).Error
	})
}

// PermissionExists satisfies the user and group services' permission
// verification.
func (r *PermissionRepository) PermissionExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, `SELECT COUNT(1) FROM permissions WHERE id = ?`, id)
}

func exists(ctx context.Context, db *gorm.DB, query string, args ...any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func collectIDs(ctx context.Context, db *gorm.DB, query string, args ...any) ([]string, error) {
	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
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
