package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tasktracker/internal/transport"
)

type ServiceAPI interface {
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetPermissions handles GET /permissions
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PermissionsResponse{
		Permissions: permissions,
	})
}
