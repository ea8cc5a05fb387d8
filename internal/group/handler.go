package group

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateGroup(ctx context.Context, creator *internal.User, dto CreateGroupDTO) (*Group, error)
	GetGroup(ctx context.Context, groupID int64) (*Group, error)
	AddMember(ctx context.Context, groupID int64, dto AddMemberDTO) (*Member, error)
	ChangeRole(ctx context.Context, groupID int64, username string, dto ChangeRoleDTO) (*Member, error)
	ListMembers(ctx context.Context, groupID int64) ([]Member, error)
	ListUserGroups(ctx context.Context, userID int64) ([]UserGroup, error)
	GrantPermission(ctx context.Context, groupID int64, dto GrantPermissionDTO) ([]string, error)
	RevokePermission(ctx context.Context, groupID int64, name string) ([]string, error)
	ListPermissions(ctx context.Context, groupID int64) ([]string, error)
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

// CreateGroup handles POST /groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateGroupDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	g, err := h.Service.CreateGroup(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, g)
}

// GetGroup handles GET /groups/{groupID}
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	g, err := h.Service.GetGroup(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, g)
}

// MyGroups handles GET /users/me/groups
func (h *Handler) MyGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	groups, err := h.Service.ListUserGroups(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UserGroupsResponse{Groups: groups})
}

// ListMembers handles GET /groups/{groupID}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	members, err := h.Service.ListMembers(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MembersResponse{Members: members})
}

// AddMember handles POST /groups/{groupID}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	var dto AddMemberDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	member, err := h.Service.AddMember(r.Context(), groupID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, member)
}

// ChangeRole handles PATCH /groups/{groupID}/members/{username}
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}
	username := chi.URLParam(r, "username")

	var dto ChangeRoleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	member, err := h.Service.ChangeRole(r.Context(), groupID, username, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, member)
}

// ListPermissions handles GET /groups/{groupID}/permissions
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	perms, err := h.Service.ListPermissions(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GroupPermissionsResponse{GroupID: groupID, Permissions: perms})
}

// GrantPermission handles POST /groups/{groupID}/permissions
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	var dto GrantPermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	perms, err := h.Service.GrantPermission(r.Context(), groupID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GroupPermissionsResponse{GroupID: groupID, Permissions: perms})
}

// RevokePermission handles DELETE /groups/{groupID}/permissions/{permission}
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	perms, err := h.Service.RevokePermission(r.Context(), groupID, chi.URLParam(r, "permission"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GroupPermissionsResponse{GroupID: groupID, Permissions: perms})
}
