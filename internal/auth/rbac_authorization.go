package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/permission"
	"github.com/frahmantamala/tasktracker/internal/transport"
)

// RBACAuthorization guards routes by the caller's resolved permission set.
// A request without an authenticated user is rejected with 401 before any
// permission is consulted; a user lacking the permission gets 403.
type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, perm string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
			ra.WriteAppError(w, internal.ErrNotAuthenticated)
			return
		}

		hasAccess, err := ra.authorizer.HasPermission(r.Context(), user.Permissions, perm)
		if err != nil {
			ra.Logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", user.ID, "permission", perm)
			ra.HandleServiceError(w, err)
			return
		}

		if !hasAccess {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"required_permission", perm,
				"user_permissions", user.Permissions)
			ra.WriteAppError(w, internal.ErrPermissionDenied)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, perm)
	}
}

func (ra *RBACAuthorization) RequireManagePermissions() func(http.Handler) http.Handler {
	return ra.Middleware(permission.ManagePermissions)
}

func (ra *RBACAuthorization) RequireManageSOPs() func(http.Handler) http.Handler {
	return ra.Middleware(permission.ManageSOPs)
}

func (ra *RBACAuthorization) RequireAssignProjects() func(http.Handler) http.Handler {
	return ra.Middleware(permission.AssignProjects)
}

func (ra *RBACAuthorization) RequireManageProjects() func(http.Handler) http.Handler {
	return ra.Middleware(permission.ManageProjects)
}

func (ra *RBACAuthorization) RequireExportData() func(http.Handler) http.Handler {
	return ra.Middleware(permission.ExportData)
}
