package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/group"
	"github.com/frahmantamala/identity-service/internal/rbac"
	"github.com/frahmantamala/identity-service/internal/transport/middleware"
	"github.com/frahmantamala/identity-service/internal/transport/swagger"
	"github.com/frahmantamala/identity-service/internal/user"
)

// RegisterAllRoutes wires the full API surface onto the router. Auth
// endpoints are public, everything else sits behind the auth middleware
// with per-route permission gates.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, security *auth.Security, userHandler *user.Handler, rbacHandler *rbac.Handler, groupHandler *group.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/login/email", authHandler.LoginWithEmail)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/register", authHandler.Register)
			sr.Post("/logout", authHandler.Logout)
			sr.Post("/set-password", authHandler.SetPassword)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Post("/auth/change-password", authHandler.ChangePassword)

			pr.Get("/users/me", userHandler.Me)
			pr.Patch("/users/me", userHandler.UpdateMe)

			pr.Route("/users", func(ur chi.Router) {
				ur.With(middleware.RequirePermission(security, "users:read")).Get("/", userHandler.List)
				ur.With(middleware.RequirePermission(security, "users:read")).Get("/{id}", userHandler.Get)
				ur.With(middleware.RequirePermission(security, "users:read")).Get("/{id}/permissions", userHandler.EffectivePermissions)
				ur.With(middleware.RequirePermission(security, "users:read")).Get("/{id}/roles", userHandler.EffectiveRoles)

				ur.With(middleware.RequirePermission(security, "users:write")).Post("/{id}/activate", userHandler.Activate)
				ur.With(middleware.RequirePermission(security, "users:write")).Post("/{id}/deactivate", userHandler.Deactivate)
				ur.With(middleware.RequirePermission(security, "users:delete")).Delete("/{id}", userHandler.Delete)

				ur.With(middleware.RequirePermission(security, "roles:write")).Post("/{id}/roles", userHandler.AssignRole)
				ur.With(middleware.RequirePermission(security, "roles:write")).Delete("/{id}/roles/{roleID}", userHandler.RemoveRole)
				ur.With(middleware.RequirePermission(security, "permissions:write")).Post("/{id}/permissions", userHandler.GrantPermission)
				ur.With(middleware.RequirePermission(security, "permissions:write")).Delete("/{id}/permissions/{permissionID}", userHandler.RevokePermission)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.With(middleware.RequirePermission(security, "roles:read")).Get("/", rbacHandler.ListRoles)
				rr.With(middleware.RequirePermission(security, "roles:read")).Get("/{id}", rbacHandler.GetRole)
				rr.With(middleware.RequirePermission(security, "roles:write")).Post("/", rbacHandler.CreateRole)
				rr.With(middleware.RequirePermission(security, "roles:write")).Patch("/{id}", rbacHandler.UpdateRole)
				rr.With(middleware.RequirePermission(security, "roles:write")).Put("/{id}/permissions", rbacHandler.SetRolePermissions)
				rr.With(middleware.RequirePermission(security, "roles:delete")).Delete("/{id}", rbacHandler.DeleteRole)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.With(middleware.RequirePermission(security, "permissions:read")).Get("/", rbacHandler.ListPermissions)
				pmr.With(middleware.RequirePermission(security, "permissions:read")).Get("/{id}", rbacHandler.GetPermission)
				pmr.With(middleware.RequirePermission(security, "permissions:write")).Post("/", rbacHandler.CreatePermission)
				pmr.With(middleware.RequirePermission(security, "permissions:write")).Patch("/{id}", rbacHandler.UpdatePermission)
				pmr.With(middleware.RequirePermission(security, "permissions:delete")).Delete("/{id}", rbacHandler.DeletePermission)
			})

			pr.Route("/groups", func(gr chi.Router) {
				gr.With(middleware.RequirePermission(security, "groups:read")).Get("/", groupHandler.List)
				gr.With(middleware.RequirePermission(security, "groups:read")).Get("/{id}", groupHandler.Get)
				gr.With(middleware.RequirePermission(security, "groups:write")).Post("/", groupHandler.Create)
				gr.With(middleware.RequirePermission(security, "groups:write")).Patch("/{id}", groupHandler.Update)
				gr.With(middleware.RequirePermission(security, "groups:delete")).Delete("/{id}", groupHandler.Delete)

				gr.With(middleware.RequirePermission(security, "groups:write")).Post("/{id}/members", groupHandler.AddMember)
				gr.With(middleware.RequirePermission(security, "groups:write")).Delete("/{id}/members/{userID}", groupHandler.RemoveMember)
				gr.With(middleware.RequirePermission(security, "groups:write")).Post("/{id}/permissions", groupHandler.AttachPermission)
				gr.With(middleware.RequirePermission(security, "groups:write")).Delete("/{id}/permissions/{permissionID}", groupHandler.DetachPermission)
			})
		})
	})
}
