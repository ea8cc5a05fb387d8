package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/transport"
)

type ServiceAPI interface {
	CreateTask(ctx context.Context, groupID int64, creator *internal.User, dto CreateTaskDTO) (*Task, error)
	FinishTask(ctx context.Context, groupID, taskID int64, user *internal.User) (*Task, error)
	OpenTasks(ctx context.Context, groupID int64) ([]Task, error)
	CompletedTasks(ctx context.Context, groupID int64) ([]Task, error)
	History(ctx context.Context, groupID int64) ([]Task, error)
	Stats(ctx context.Context, groupID int64) ([]CompletionStat, error)
	Export(ctx context.Context, groupID int64, w io.Writer) error
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

// CreateTask handles POST /groups/{groupID}/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	var dto CreateTaskDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	t, err := h.Service.CreateTask(r.Context(), groupID, user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

// FinishTask handles POST /groups/{groupID}/tasks/{taskID}/finish
func (h *Handler) FinishTask(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}
	taskID, ok := h.URLParamInt64(w, r, "taskID")
	if !ok {
		return
	}

	t, err := h.Service.FinishTask(r.Context(), groupID, taskID, user)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// OpenTasks handles GET /groups/{groupID}/tasks/open
func (h *Handler) OpenTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, h.Service.OpenTasks)
}

// CompletedTasks handles GET /groups/{groupID}/tasks/completed
func (h *Handler) CompletedTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, h.Service.CompletedTasks)
}

// History handles GET /groups/{groupID}/tasks
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, h.Service.History)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request, list func(context.Context, int64) ([]Task, error)) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	tasks, err := list(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TasksResponse{Tasks: tasks})
}

// Stats handles GET /groups/{groupID}/tasks/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), groupID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StatsResponse{GroupID: groupID, Stats: stats})
}

// ExportCSV handles GET /groups/{groupID}/tasks/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.URLParamInt64(w, r, "groupID")
	if !ok {
		return
	}

	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), groupID, &buf); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"tasks-group-%d.csv\"", groupID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Error("failed to write CSV export", "error", err, "group_id", groupID)
	}
}
