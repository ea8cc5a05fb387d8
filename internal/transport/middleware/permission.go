package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/go-chi/chi"
)

// AgreementGate reports whether a user has agreed to the current version of
// a group's SOP. A nil error means the request may proceed.
type AgreementGate interface {
	Check(ctx context.Context, userID, groupID int64, title string) error
}

// RequireSOPAgreement blocks group scoped requests until the caller has
// agreed to the current version of the SOP with the given title. An empty
// title disables the gate.
func RequireSOPAgreement(gate AgreementGate, title string, logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		if title == "" || gate == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				base.WriteAppError(w, internal.ErrNotAuthenticated)
				return
			}

			groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
			if err != nil || groupID <= 0 {
				base.WriteError(w, http.StatusBadRequest, "invalid groupID")
				return
			}

			if err := gate.Check(r.Context(), user.ID, groupID, title); err != nil {
				base.Logger.WarnContext(r.Context(), "request blocked by SOP gate",
					"user_id", user.ID,
					"group_id", groupID,
					"sop_title", title)
				base.HandleServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
