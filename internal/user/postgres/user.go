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

	"github.com/frahmantamala/identity-service/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, email, password_hash, full_name, bio,
	is_active, is_superuser, email_verified, is_deleted,
	failed_attempts, locked_until, last_login, created_at, updated_at`

func (r *Repository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *Repository) FindByEmailOrUsername(ctx context.Context, identifier string) (*user.User, error) {
	return r.findOne(ctx, "(email = ? OR username = ?)", identifier, identifier)
}

func (r *Repository) findOne(ctx context.Context, cond string, args ...any) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s AND is_deleted = false`, userColumns, cond)

	row := r.db.WithContext(ctx).Raw(query, args...).Row()
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadReferences(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE is_deleted = false
		ORDER BY created_at LIMIT ? OFFSET ?`, userColumns)

	rows, err := r.db.WithContext(ctx).Raw(query, limit, offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range users {
		if err := r.loadReferences(ctx, u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `INSERT INTO users
		(id, username, email, password_hash, full_name, bio,
		 is_active, is_superuser, email_verified, is_deleted,
		 failed_attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, false, 0, ?, ?)`

	return r.db.WithContext(ctx).Exec(query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Bio,
		u.IsActive, u.IsSuperuser, u.EmailVerified,
		u.CreatedAt, u.UpdatedAt).Error
}

// UpdateFields applies a partial update. Column names come from the
// service layer, never from request input.
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

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ? AND is_deleted = false`,
		strings.Join(sets, ", "))
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE users SET is_deleted = true, is_active = false, updated_at = ?
		WHERE id = ? AND is_deleted = false`
	return r.db.WithContext(ctx).Exec(query, time.Now().UTC(), id).Error
}

// RegisterFailedAttempt increments the failure counter and, when the
// incremented count reaches the maximum, sets locked_until in the same
// statement. Concurrent failures cannot lose increments and cannot
// double-lock.
func (r *Repository) RegisterFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error {
	query := `UPDATE users SET
		failed_attempts = failed_attempts + 1,
		locked_until = CASE WHEN failed_attempts + 1 >= ? THEN ? ELSE locked_until END,
		updated_at = ?
		WHERE id = ? AND is_deleted = false`
	return r.db.WithContext(ctx).Exec(query, maxAttempts, lockUntil.UTC(), time.Now().UTC(), id).Error
}

func (r *Repository) ResetFailedAttempts(ctx context.Context, id string) error {
	query := `UPDATE users SET failed_attempts = 0, locked_until = NULL, updated_at = ?
		WHERE id = ? AND is_deleted = false`
	return r.db.WithContext(ctx).Exec(query, time.Now().UTC(), id).Error
}

func (r *Repository) AssignRole(ctx context.Context, userID, roleID string) error {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)
		ON CONFLICT (user_id, role_id) DO NOTHING`
	return r.db.WithContext(ctx).Exec(query, userID, roleID).Error
}

func (r *Repository) RemoveRole(ctx context.Context, userID, roleID string) error {
	query := `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`
	return r.db.WithContext(ctx).Exec(query, userID, roleID).Error
}

func (r *Repository) GrantPermission(ctx context.Context, userID, permissionID string) error {
	query := `INSERT INTO user_permissions (user_id, permission_id) VALUES (?, ?)
		ON CONFLICT (user_id, permission_id) DO NOTHING`
	return r.db.WithContext(ctx).Exec(query, userID, permissionID).Error
}

func (r *Repository) RevokePermission(ctx context.Context, userID, permissionID string) error {
	query := `DELETE FROM user_permissions WHERE user_id = ? AND permission_id = ?`
	return r.db.WithContext(ctx).Exec(query, userID, permissionID).Error
}

// UserExists satisfies the group service's member lookup without
// loading the full principal.
func (r *Repository) UserExists(ctx context.Context, id string) (bool, error) {
	var count int64
	query := `SELECT COUNT(1) FROM users WHERE id = ? AND is_deleted = false`
	if err := r.db.WithContext(ctx).Raw(query, id).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) loadReferences(ctx context.Context, u *user.User) error {
	var err error
	if u.RoleIDs, err = r.collectIDs(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = ?`, u.ID); err != nil {
		return err
	}
	if u.PermissionIDs, err = r.collectIDs(ctx,
		`SELECT permission_id FROM user_permissions WHERE user_id = ?`, u.ID); err != nil {
		return err
	}
	if u.GroupIDs, err = r.collectIDs(ctx,
		`SELECT group_id FROM group_members WHERE user_id = ?`, u.ID); err != nil {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var fullName, bio sql.NullString
	var lockedUntil, lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &bio,
		&u.IsActive, &u.IsSuperuser, &u.EmailVerified, &u.IsDeleted,
		&u.FailedAttempts, &lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	u.FullName = fullName.String
	u.Bio = bio.String
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}
