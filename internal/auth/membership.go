package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/frahmantamala/tasktracker/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
)

// MembershipPolicy guards group scoped routes ("/groups/{groupID}/...") by
// the caller's membership and role in that group.
type MembershipPolicy struct {
	*transport.BaseHandler
	db *sqlx.DB
}

func NewMembershipPolicy(db *sqlx.DB, logger *slog.Logger) *MembershipPolicy {
	return &MembershipPolicy{
		BaseHandler: transport.NewBaseHandler(logger),
		db:          db,
	}
}

// RoleInGroup returns the user's role in the group, or "" when the user is
// not a member.
func (p *MembershipPolicy) RoleInGroup(ctx context.Context, userID, groupID int64) (string, error) {
	var role string
	err := p.db.GetContext(ctx, &role,
		p.db.Rebind("SELECT role FROM user_groups WHERE user_id = ? AND group_id = ?"), userID, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}

func (p *MembershipPolicy) groupExists(ctx context.Context, groupID int64) (bool, error) {
	var count int
	err := p.db.GetContext(ctx, &count, p.db.Rebind("SELECT COUNT(*) FROM \"groups\" WHERE id = ?"), groupID)
	return count > 0, err
}

// RequireMember admits any member of the addressed group.
func (p *MembershipPolicy) RequireMember() func(http.Handler) http.Handler {
	return p.RequireRole()
}

// RequireRole admits members holding one of roles; no roles means any
// member. The caller's role is stored on the request context.
func (p *MembershipPolicy) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				p.WriteAppError(w, internal.ErrNotAuthenticated)
				return
			}

			groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
			if err != nil || groupID <= 0 {
				p.WriteError(w, http.StatusBadRequest, "invalid groupID")
				return
			}

			role, err := p.RoleInGroup(r.Context(), user.ID, groupID)
			if err != nil {
				p.HandleServiceError(w, internal.NewInternalError("membership lookup failed", err))
				return
			}

			if role == "" {
				exists, err := p.groupExists(r.Context(), groupID)
				if err != nil {
					p.HandleServiceError(w, internal.NewInternalError("group lookup failed", err))
					return
				}
				if !exists {
					p.WriteAppError(w, internal.ErrGroupNotFound)
					return
				}
				logger.FromOr(r.Context(), p.Logger).WarnContext(r.Context(), "access denied: not a group member", "group_id", groupID)
				p.WriteAppError(w, internal.ErrNotGroupMember)
				return
			}

			if len(roles) > 0 && !containsRole(roles, role) {
				logger.FromOr(r.Context(), p.Logger).WarnContext(r.Context(), "access denied: group role too low",
					"group_id", groupID, "role", role, "required_roles", roles)
				p.WriteAppError(w, internal.ErrPermissionDenied)
				return
			}

			ctx := internal.ContextWithGroupRole(r.Context(), role)
			ctx = logger.With(ctx, "group_id", groupID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
