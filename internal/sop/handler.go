package sop

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
)

type ServiceAPI interface {
	Publish(ctx context.Context, groupID int64, creator *internal.User, dto PublishSOPDTO) (*SOP, error)
	Revise(ctx context.Context, groupID, sopID int64, dto ReviseSOPDTO) (*SOP, error)
	ListSOPs(ctx context.Context, groupID int64) ([]SOP, error)
	Current(ctx context.Context, groupID int64, title string) (*SOP, error)
	Agree(ctx context.Context, groupID, sopID int64, user *internal.User) (*Agreement, error)
	MyAgreements(ctx context.Context, user *internal.User) ([]Agreement, error)
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

// ListSOPs handles GET /groups/{groupID}/sops
func (h *Handler) ListSOPs(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	sops, err := h.Service.ListSOPs(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, SOPsResponse{SOPs: sops})
}

// Publish handles POST /groups/{groupID}/sops
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	var dto PublishSOPDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	created, err := h.Service.Publish(r.Context(), groupID, user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// Revise handles PUT /groups/{groupID}/sops/{sopID}
func (h *Handler) Revise(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}
	sopID, ok := h.URLParamInt64(w, r, "sopID")
	if !ok {
		return
	}

	var dto ReviseSOPDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	revised, err := h.Service.Revise(r.Context(), groupID, sopID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, revised)
}

// Current handles GET /groups/{groupID}/sops/current?title=...
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		h.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	current, err := h.Service.Current(r.Context(), groupID, title)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, current)
}

// Agree handles POST /groups/{groupID}/sops/{sopID}/agree
func (h *Handler) Agree(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}
	sopID, ok := h.URLParamInt64(w, r, "sopID")
	if !ok {
		return
	}

	agreement, err := h.Service.Agree(r.Context(), groupID, sopID, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, agreement)
}

// MyAgreements handles GET /users/me/agreements
func (h *Handler) MyAgreements(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	agreements, err := h.Service.MyAgreements(r.Context(), user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AgreementsResponse{Agreements: agreements})
}
