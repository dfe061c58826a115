package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// defaultPermissions is the catalogue every deployment starts from.
// Names follow the resource:action convention.
var defaultPermissions = []struct {
	Resource string
	Action   string
	Desc     string
}{
	{"users", "read", "View user accounts"},
	{"users", "write", "Create and update user accounts"},
	{"users", "delete", "Delete user accounts"},
	{"roles", "read", "View roles"},
	{"roles", "write", "Create and update roles"},
	{"roles", "delete", "Delete roles"},
	{"permissions", "read", "View permissions"},
	{"permissions", "write", "Create and update permissions"},
	{"permissions", "delete", "Delete permissions"},
	{"groups", "read", "View groups"},
	{"groups", "write", "Create and update groups and membership"},
	{"groups", "delete", "Delete groups"},
	{"admin", "access", "Access administrative interfaces"},
	{"profile", "read", "View own profile"},
	{"profile", "write", "Update own profile"},
	{"api", "access", "Call the API"},
}

// defaultRoles maps system roles onto subsets of the catalogue.
var defaultRoles = []struct {
	Name        string
	Desc        string
	Permissions []string
}{
	{"superadmin", "Full access to everything", permissionNames()},
	{"admin", "Administrative access without superuser bypass", []string{
		"users:read", "users:write", "users:delete",
		"roles:read", "roles:write", "roles:delete",
		"permissions:read", "permissions:write", "permissions:delete",
		"groups:read", "groups:write", "groups:delete",
		"admin:access", "profile:read", "profile:write", "api:access",
	}},
	{"moderator", "User and group management", []string{
		"users:read", "users:write",
		"groups:read", "groups:write",
		"profile:read", "profile:write", "api:access",
	}},
	{"user", "Standard account", []string{
		"profile:read", "profile:write", "api:access",
	}},
	{"guest", "Read-only access", []string{
		"profile:read", "api:access",
	}},
}

func permissionNames() []string {
	names := make([]string, len(defaultPermissions))
	for i, p := range defaultPermissions {
		names[i] = fmt.Sprintf("%s:%s", p.Resource, p.Action)
	}
	return names
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default permission catalogue, system roles and superuser",
	Long:  `Seed the permission catalogue, the system roles with their permission sets, and an initial superuser account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gdb, err := initGorm(cfg.Database, db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"role_permissions", "user_roles", "user_permissions",
				"group_permissions", "group_members"} {
				if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing assignment data")
		}

		permIDs := seedPermissions(gdb)
		seedRoles(gdb, permIDs)
		seedSuperuser(gdb, permIDs)

		fmt.Println("Seeding complete")
	},
}

func seedPermissions(db *gorm.DB) map[string]string {
	ids := make(map[string]string, len(defaultPermissions))

	for _, p := range defaultPermissions {
		name := fmt.Sprintf("%s:%s", p.Resource, p.Action)

		var id string
		row := db.Raw("SELECT id FROM permissions WHERE name = ?", name).Row()
		if err := row.Scan(&id); err == nil {
			ids[name] = id
			continue
		}

		id = uuid.NewString()
		if err := db.Exec(`INSERT INTO permissions
			(id, name, resource, action, description, is_system, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, true, now(), now())`,
			id, name, p.Resource, p.Action, p.Desc).Error; err != nil {
			log.Fatalf("failed to insert permission %s: %v", name, err)
		}
		ids[name] = id
		fmt.Println("Seeded permission:", name)
	}

	return ids
}

func seedRoles(db *gorm.DB, permIDs map[string]string) {
	for _, r := range defaultRoles {
		var roleID string
		row := db.Raw("SELECT id FROM roles WHERE name = ?", r.Name).Row()
		if err := row.Scan(&roleID); err != nil {
			roleID = uuid.NewString()
			if err := db.Exec(`INSERT INTO roles
				(id, name, description, is_system, created_at, updated_at)
				VALUES (?, ?, ?, true, now(), now())`,
				roleID, r.Name, r.Desc).Error; err != nil {
				log.Fatalf("failed to insert role %s: %v", r.Name, err)
			}
			fmt.Println("Seeded role:", r.Name)
		}

		for _, permName := range r.Permissions {
			pid, ok := permIDs[permName]
			if !ok {
				log.Fatalf("role %s references unknown permission %s", r.Name, permName)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?",
				roleID, pid).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
				roleID, pid).Error; err != nil {
				log.Fatalf("failed to grant %s to role %s: %v", permName, r.Name, err)
			}
		}
	}
}

func seedSuperuser(db *gorm.DB, permIDs map[string]string) {
	const email = "admin@local"
	const username = "admin"

	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("superuser already exists:", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme-now"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash superuser password: %v", err)
	}

	userID := uuid.NewString()
	if err := db.Exec(`INSERT INTO users
		(id, username, email, password_hash, is_active, is_superuser, email_verified,
		 is_deleted, failed_attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, true, true, true, false, 0, now(), now())`,
		userID, username, email, string(hash)).Error; err != nil {
		log.Fatalf("failed to insert superuser: %v", err)
	}

	var roleID string
	if err := db.Raw("SELECT id FROM roles WHERE name = ?", "superadmin").Row().Scan(&roleID); err != nil {
		log.Fatalf("superadmin role missing: %v", err)
	}
	if err := db.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)",
		userID, roleID).Error; err != nil {
		log.Fatalf("failed to assign superadmin role: %v", err)
	}

	fmt.Println("Seeded superuser:", email, "(change the password immediately)")
}
