package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tasktracker/api"
	"github.com/frahmantamala/tasktracker/internal/auth"
	"github.com/frahmantamala/tasktracker/internal/group"
	"github.com/frahmantamala/tasktracker/internal/permission"
	"github.com/frahmantamala/tasktracker/internal/project"
	"github.com/frahmantamala/tasktracker/internal/sop"
	"github.com/frahmantamala/tasktracker/internal/task"
	"github.com/frahmantamala/tasktracker/internal/transport/middleware"
	"github.com/frahmantamala/tasktracker/internal/transport/swagger"
	"github.com/frahmantamala/tasktracker/internal/user"
	"github.com/go-chi/chi"
)

// Dependencies is everything the HTTP surface needs. Nil handlers leave
// their routes unmounted.
type Dependencies struct {
	DB               *sql.DB
	AllowedOrigins   string
	SOPRequiredTitle string

	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	Membership *auth.MembershipPolicy
	SOPGate    middleware.AgreementGate

	Users       *user.Handler
	Groups      *group.Handler
	Permissions *permission.Handler
	Tasks       *task.Handler
	Projects    *project.Handler
	SOPs        *sop.Handler
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies, logger *slog.Logger) {
	healthHandler := NewHealthHandler(deps.DB)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)
		r.Get("/heartbeat", healthHandler.heartbeatHandler)

		if deps.Users != nil {
			r.Post("/users/register", deps.Users.Register)
		}

		if deps.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", deps.Auth.Login)
			sr.Post("/otp/request", deps.Auth.RequestOTP)
			sr.Post("/otp/verify", deps.Auth.VerifyOTP)
			sr.Post("/refresh", deps.Auth.RefreshToken)
			sr.Post("/logout", deps.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)
			pr.Use(deps.Auth.RequireAuthentication)

			if deps.Users != nil {
				pr.Get("/users/me", deps.Users.GetCurrentUser)
				pr.Get("/users/me/permissions", deps.Users.GetPermissions)
				pr.Post("/users/me/devices", deps.Users.RegisterDevice)
			}
			if deps.SOPs != nil {
				pr.Get("/users/me/agreements", deps.SOPs.MyAgreements)
			}
			if deps.Permissions != nil {
				pr.Get("/permissions", deps.Permissions.GetPermissions)
			}

			if deps.Groups != nil {
				pr.Post("/groups", deps.Groups.CreateGroup)
				pr.Get("/users/me/groups", deps.Groups.MyGroups)
			}

			if deps.Projects != nil {
				pr.With(deps.RBAC.RequireManageProjects()).Post("/projects", deps.Projects.CreateProject)
			}

			pr.Route("/groups/{groupID}", func(gr chi.Router) {
				gr.Use(deps.Membership.RequireMember())
				registerGroupRoutes(gr, deps, logger)
			})
		})
	})
}

func registerGroupRoutes(gr chi.Router, deps Dependencies, logger *slog.Logger) {
	admin := deps.Membership.RequireRole(group.RoleAdmin)
	sopGate := middleware.RequireSOPAgreement(deps.SOPGate, deps.SOPRequiredTitle, logger)

	if deps.Groups != nil {
		gr.Get("/", deps.Groups.GetGroup)
		gr.Get("/members", deps.Groups.ListMembers)
		gr.With(admin).Post("/members", deps.Groups.AddMember)
		gr.With(admin).Patch("/members/{username}", deps.Groups.ChangeRole)
		gr.Get("/permissions", deps.Groups.ListPermissions)
		gr.With(deps.RBAC.RequireManagePermissions()).Post("/permissions", deps.Groups.GrantPermission)
		gr.With(deps.RBAC.RequireManagePermissions()).Delete("/permissions/{permission}", deps.Groups.RevokePermission)
	}

	if deps.Tasks != nil {
		gr.Route("/tasks", func(tr chi.Router) {
			tr.Get("/", deps.Tasks.OpenTasks)
			tr.Get("/completed", deps.Tasks.CompletedTasks)
			tr.Get("/history", deps.Tasks.History)
			tr.Get("/stats", deps.Tasks.Stats)
			tr.With(deps.RBAC.RequireExportData()).Get("/export.csv", deps.Tasks.ExportCSV)
			tr.With(sopGate).Post("/", deps.Tasks.CreateTask)
			tr.With(sopGate).Post("/{taskID}/finish", deps.Tasks.FinishTask)
		})
	}

	if deps.Projects != nil {
		gr.Get("/projects", deps.Projects.ListProjects)
		gr.Route("/projects/{projectID}", func(pr chi.Router) {
			pr.Get("/", deps.Projects.GetProject)
			pr.Post("/todos", deps.Projects.CreateTodo)
			pr.With(sopGate).Post("/todos/{todoID}/convert", deps.Projects.ConvertTodo)
			pr.Post("/todos/{todoID}/complete", deps.Projects.CompleteTodo)
			pr.Get("/whitelist", deps.Projects.ListWhitelist)
			pr.With(deps.RBAC.RequireAssignProjects()).Post("/whitelist", deps.Projects.AddToWhitelist)
			pr.With(deps.RBAC.RequireAssignProjects()).Delete("/whitelist/{username}", deps.Projects.RemoveFromWhitelist)
		})
	}

	if deps.SOPs != nil {
		gr.Route("/sops", func(sr chi.Router) {
			sr.Get("/", deps.SOPs.ListSOPs)
			sr.Get("/current", deps.SOPs.Current)
			sr.With(deps.RBAC.RequireManageSOPs()).Post("/", deps.SOPs.Publish)
			sr.With(deps.RBAC.RequireManageSOPs()).Put("/{sopID}", deps.SOPs.Revise)
			sr.Post("/{sopID}/agree", deps.SOPs.Agree)
		})
	}
}
