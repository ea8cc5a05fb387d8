package project

import (
	"errors"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
)

// Errors the repository reports from inside the conversion transaction.
var (
	ErrTodoMissing      = errors.New("todo not found")
	ErrAlreadyConverted = errors.New("todo already converted")
	ErrNotWhitelisted   = errors.New("assignee not whitelisted")
	ErrDuplicate        = errors.New("duplicate record")
)

var (
	errAssigneeNotWhitelisted = internal.NewForbiddenError("Assignee is not on the project's assignment whitelist", internal.ErrCodeAssigneeNotWhitelisted)
	errTodoAlreadyConverted   = internal.NewConflictError("Todo has already been converted to a task", internal.ErrCodeTodoAlreadyConverted)
	errAlreadyAssigned        = internal.NewConflictError("User is already on the project's whitelist", internal.ErrCodeAlreadyAssigned)
)

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	GroupID     int64     `json:"group_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Todo struct {
	ID           int64      `json:"id"`
	ProjectID    int64      `json:"project_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Points       *int       `json:"points,omitempty"`
	IsTask       bool       `json:"is_task"`
	Completed    bool       `json:"completed"`
	AssignedTo   *string    `json:"assigned_to,omitempty"`
	CreationDate time.Time  `json:"creation_date"`
	CompletedBy  *string    `json:"completed_by,omitempty"`
	CompletedOn  *time.Time `json:"completed_on,omitempty"`
}

// Detail is a project together with its todos and assignment whitelist.
type Detail struct {
	Project
	Todos     []Todo   `json:"todos"`
	Whitelist []string `json:"whitelist"`
}

// Conversion carries the fields a todo receives when it becomes a task.
type Conversion struct {
	AssignedTo string
	DueDate    time.Time
	Points     int
}

// CanAssign reports whether username may be assigned under whitelist. An
// empty whitelist places no restriction.
func CanAssign(whitelist []string, username string) bool {
	if len(whitelist) == 0 {
		return true
	}
	for _, allowed := range whitelist {
		if allowed == username {
			return true
		}
	}
	return false
}

func FromDataModel(p *projectDatamodel.Project) *Project {
	return &Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		GroupID:     p.GroupID,
		CreatedAt:   p.CreatedAt,
	}
}

func TodoFromDataModel(t *projectDatamodel.Todo) *Todo {
	return &Todo{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate,
		Points:       t.Points,
		IsTask:       t.IsTask,
		Completed:    t.Completed,
		AssignedTo:   t.AssignedTo,
		CreationDate: t.CreationDate,
		CompletedBy:  t.CompletedBy,
		CompletedOn:  t.CompletedOn,
	}
}
