package project

import (
	"context"
	"net/http"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateProject(ctx context.Context, creator *internal.User, dto CreateProjectDTO) (*Project, error)
	ListProjects(ctx context.Context, groupID int64) ([]Project, error)
	GetProject(ctx context.Context, groupID, projectID int64) (*Detail, error)
	CreateTodo(ctx context.Context, groupID, projectID int64, dto CreateTodoDTO) (*Todo, error)
	ConvertTodo(ctx context.Context, groupID, projectID, todoID int64, dto ConvertTodoDTO) (*Todo, error)
	CompleteTodo(ctx context.Context, groupID, projectID, todoID int64, user *internal.User) (*Todo, error)
	ListWhitelist(ctx context.Context, groupID, projectID int64) ([]string, error)
	AddToWhitelist(ctx context.Context, groupID, projectID int64, dto AssignmentDTO) ([]string, error)
	RemoveFromWhitelist(ctx context.Context, groupID, projectID int64, username string) ([]string, error)
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

// projectParams reads {groupID} and {projectID} from the path.
func (h *Handler) projectParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return 0, 0, false
	}
	projectID, ok := h.URLParamInt64(w, r, "projectID")
	if !ok {
		return 0, 0, false
	}
	return groupID, projectID, true
}

// CreateProject handles POST /projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateProjectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.CreateProject(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /groups/{groupID}/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	projects, err := h.Service.ListProjects(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

// GetProject handles GET /groups/{groupID}/projects/{projectID}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.GetProject(r.Context(), groupID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

// CreateTodo handles POST /groups/{groupID}/projects/{projectID}/todos
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}

	var dto CreateTodoDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	todo, err := h.Service.CreateTodo(r.Context(), groupID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, todo)
}

// ConvertTodo handles POST /groups/{groupID}/projects/{projectID}/todos/{todoID}/convert
func (h *Handler) ConvertTodo(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}
	todoID, ok := h.URLParamInt64(w, r, "todoID")
	if !ok {
		return
	}

	var dto ConvertTodoDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	todo, err := h.Service.ConvertTodo(r.Context(), groupID, projectID, todoID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, todo)
}

// CompleteTodo handles POST /groups/{groupID}/projects/{projectID}/todos/{todoID}/complete
func (h *Handler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}
	todoID, ok := h.URLParamInt64(w, r, "todoID")
	if !ok {
		return
	}

	todo, err := h.Service.CompleteTodo(r.Context(), groupID, projectID, todoID, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, todo)
}

// ListWhitelist handles GET /groups/{groupID}/projects/{projectID}/assignments
func (h *Handler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}

	usernames, err := h.Service.ListWhitelist(r.Context(), groupID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, WhitelistResponse{ProjectID: projectID, Usernames: usernames})
}

// AddToWhitelist handles POST /groups/{groupID}/projects/{projectID}/assignments
func (h *Handler) AddToWhitelist(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}

	var dto AssignmentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	usernames, err := h.Service.AddToWhitelist(r.Context(), groupID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, WhitelistResponse{ProjectID: projectID, Usernames: usernames})
}

// RemoveFromWhitelist handles DELETE /groups/{groupID}/projects/{projectID}/assignments/{username}
func (h *Handler) RemoveFromWhitelist(w http.ResponseWriter, r *http.Request) {
	groupID, projectID, ok := h.projectParams(w, r)
	if !ok {
		return
	}

	usernames, err := h.Service.RemoveFromWhitelist(r.Context(), groupID, projectID, chi.URLParam(r, "username"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, WhitelistResponse{ProjectID: projectID, Usernames: usernames})
}
