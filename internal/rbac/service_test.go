package rbac_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/rbac"
	"github.com/frahmantamala/identity-service/internal/user"
)

var _ = Describe("AuthorizationService", func() {
	var (
		ctx         context.Context
		users       *mockPrincipalStore
		roles       *mockRoleStore
		permissions *mockPermissionStore
		service     *rbac.AuthorizationService

		readUsers  *rbac.Permission
		writeUsers *rbac.Permission
		adminRole  *rbac.Role
		subject    *user.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = newMockPrincipalStore()
		roles = newMockRoleStore()
		permissions = newMockPermissionStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = rbac.NewAuthorizationService(users, roles, permissions, logger)

		readUsers = permissions.add(&rbac.Permission{Resource: "users", Action: "read"})
		writeUsers = permissions.add(&rbac.Permission{Resource: "users", Action: "write"})
		adminRole = roles.add(&rbac.Role{
			Name:          "admin",
			PermissionIDs: []string{writeUsers.ID},
		})

		subject = users.add(&user.User{
			ID:       "user-1",
			Username: "alice",
			IsActive: true,
		})
	})

	Describe("HasPermission", func() {
		It("grants everything to a superuser, even unresolvable names", func() {
			root := &user.User{ID: "root", IsSuperuser: true}

			ok, err := service.HasPermission(ctx, root, "no:such")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("treats an unknown permission name as not held", func() {
			ok, err := service.HasPermission(ctx, subject, "no:such")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("honours a direct grant", func() {
			subject.PermissionIDs = []string{readUsers.ID}

			ok, err := service.HasPermission(ctx, subject, "users:read")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("honours a grant inherited through a role", func() {
			subject.RoleIDs = []string{adminRole.ID}

			ok, err := service.HasPermission(ctx, subject, "users:write")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("skips dangling role references", func() {
			subject.RoleIDs = []string{"gone", adminRole.ID}

			ok, err := service.HasPermission(ctx, subject, "users:write")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("denies when neither direct nor role grants match", func() {
			subject.RoleIDs = []string{adminRole.ID}

			ok, err := service.HasPermission(ctx, subject, "users:read")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("propagates store failures", func() {
			permissions.findError = errors.New("connection reset")

			_, err := service.HasPermission(ctx, subject, "users:read")
			Expect(err).To(MatchError("connection reset"))
		})
	})

	Describe("HasRole", func() {
		It("matches a held role by name", func() {
			subject.RoleIDs = []string{adminRole.ID}

			ok, err := service.HasRole(ctx, subject, "admin")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("denies a role the principal does not hold", func() {
			ok, err := service.HasRole(ctx, subject, "admin")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("grants any role to a superuser", func() {
			root := &user.User{ID: "root", IsSuperuser: true}

			ok, err := service.HasRole(ctx, root, "whatever")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("HasAnyPermission", func() {
		It("passes when one of the candidates is held", func() {
			subject.PermissionIDs = []string{readUsers.ID}

			ok, err := service.HasAnyPermission(ctx, subject, []string{"users:write", "users:read"})
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("denies when none are held", func() {
			ok, err := service.HasAnyPermission(ctx, subject, []string{"users:write", "users:read"})
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("HasAllPermissions", func() {
		It("passes only with the full set", func() {
			subject.PermissionIDs = []string{readUsers.ID}
			subject.RoleIDs = []string{adminRole.ID}

			ok, err := service.HasAllPermissions(ctx, subject, []string{"users:read", "users:write"})
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("denies when one is missing", func() {
			subject.PermissionIDs = []string{readUsers.ID}

			ok, err := service.HasAllPermissions(ctx, subject, []string{"users:read", "users:write"})
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("EffectivePermissions", func() {
		It("unions direct and role-inherited permission names", func() {
			subject.PermissionIDs = []string{readUsers.ID}
			subject.RoleIDs = []string{adminRole.ID}

			names, err := service.EffectivePermissions(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(HaveLen(2))
			Expect(names).To(HaveKey("users:read"))
			Expect(names).To(HaveKey("users:write"))
		})

		It("deduplicates names granted both directly and via a role", func() {
			subject.PermissionIDs = []string{writeUsers.ID}
			subject.RoleIDs = []string{adminRole.ID}

			names, err := service.EffectivePermissions(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(HaveLen(1))
			Expect(names).To(HaveKey("users:write"))
		})

		It("yields an empty set for an absent principal", func() {
			names, err := service.EffectivePermissions(ctx, "gone")
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(BeEmpty())
		})
	})

	Describe("EffectiveRoles", func() {
		It("lists held role names, skipping dangling references", func() {
			subject.RoleIDs = []string{adminRole.ID, "gone"}

			names, err := service.EffectiveRoles(ctx, subject.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(ConsistOf("admin"))
		})

		It("yields an empty list for an absent principal", func() {
			names, err := service.EffectiveRoles(ctx, "gone")
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(BeEmpty())
		})
	})
})

var _ = Describe("AdminService", func() {
	var (
		ctx         context.Context
		roles       *mockRoleStore
		permissions *mockPermissionStore
		service     *rbac.AdminService

		readUsers *rbac.Permission
	)

	BeforeEach(func() {
		ctx = context.Background()
		roles = newMockRoleStore()
		permissions = newMockPermissionStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = rbac.NewAdminService(roles, permissions, logger)

		readUsers = permissions.add(&rbac.Permission{Resource: "users", Action: "read"})
	})

	Describe("CreateRole", func() {
		It("creates a role with its initial permission ids", func() {
			role, err := service.CreateRole(ctx, rbac.CreateRoleDTO{
				Name:          "auditor",
				Description:   "read-only access",
				PermissionIDs: []string{readUsers.ID},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(role.ID).ToNot(BeEmpty())
			Expect(role.PermissionIDs).To(ConsistOf(readUsers.ID))
		})

		It("rejects a duplicate name with a conflict", func() {
			roles.add(&rbac.Role{Name: "auditor"})

			_, err := service.CreateRole(ctx, rbac.CreateRoleDTO{Name: "auditor", Description: "dup"})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateRole))
		})
	})

	Describe("DeleteRole", func() {
		It("refuses to delete a system role", func() {
			system := roles.add(&rbac.Role{Name: "superadmin", IsSystem: true})

			err := service.DeleteRole(ctx, system.ID)

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemEntity))
		})

		It("deletes a custom role", func() {
			custom := roles.add(&rbac.Role{Name: "auditor"})

			Expect(service.DeleteRole(ctx, custom.ID)).To(Succeed())
			Expect(roles.deleted).To(ConsistOf(custom.ID))
		})

		It("maps an absent role to not found", func() {
			err := service.DeleteRole(ctx, "gone")

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRoleNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("applies only the provided fields", func() {
			role := roles.add(&rbac.Role{Name: "auditor", Description: "old"})
			name := "reviewer"

			updated, err := service.UpdateRole(ctx, role.ID, rbac.UpdateRoleDTO{Name: &name})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Name).To(Equal("reviewer"))
			Expect(updated.Description).To(Equal("old"))
		})
	})

	Describe("SetRolePermissions", func() {
		It("replaces the role's permission set", func() {
			role := roles.add(&rbac.Role{Name: "auditor", PermissionIDs: []string{"old"}})

			updated, err := service.SetRolePermissions(ctx, role.ID, []string{readUsers.ID})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PermissionIDs).To(ConsistOf(readUsers.ID))
		})

		It("fails the whole operation when a permission id does not resolve", func() {
			role := roles.add(&rbac.Role{Name: "auditor", PermissionIDs: []string{readUsers.ID}})

			_, err := service.SetRolePermissions(ctx, role.ID, []string{readUsers.ID, "gone"})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePermissionNotFound))

			kept, findErr := roles.FindByID(ctx, role.ID)
			Expect(findErr).ToNot(HaveOccurred())
			Expect(kept.PermissionIDs).To(ConsistOf(readUsers.ID))
		})

		It("allows clearing all permissions", func() {
			role := roles.add(&rbac.Role{Name: "auditor", PermissionIDs: []string{readUsers.ID}})

			updated, err := service.SetRolePermissions(ctx, role.ID, []string{})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PermissionIDs).To(BeEmpty())
		})
	})

	Describe("CreatePermission", func() {
		It("derives the name from resource and action", func() {
			perm, err := service.CreatePermission(ctx, rbac.CreatePermissionDTO{
				Resource: "reports",
				Action:   "export",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(perm.Name).To(Equal("reports:export"))
		})

		It("rejects a duplicate resource:action pair", func() {
			_, err := service.CreatePermission(ctx, rbac.CreatePermissionDTO{
				Resource: "users",
				Action:   "read",
			})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
		})
	})

	Describe("UpdatePermissionDescription", func() {
		It("updates the description and nothing else", func() {
			updated, err := service.UpdatePermissionDescription(ctx, readUsers.ID, "list and view users")

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Description).To(Equal("list and view users"))
			Expect(updated.Name).To(Equal("users:read"))
		})

		It("maps an absent permission to not found", func() {
			_, err := service.UpdatePermissionDescription(ctx, "gone", "whatever")

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePermissionNotFound))
		})
	})

	Describe("DeletePermission", func() {
		It("refuses to delete a system permission", func() {
			system := permissions.add(&rbac.Permission{Resource: "admin", Action: "access", IsSystem: true})

			err := service.DeletePermission(ctx, system.ID)

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeSystemEntity))
		})

		It("deletes a custom permission", func() {
			Expect(service.DeletePermission(ctx, readUsers.ID)).To(Succeed())
			Expect(permissions.deleted).To(ConsistOf(readUsers.ID))
		})
	})
})
