package project

import (
	"strings"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

type CreateProjectDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	GroupID     int64  `json:"group_id"`
}

func (d *CreateProjectDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("group_id", d.GroupID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateTodoDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Points      *int       `json:"points,omitempty"`
}

func (d *CreateTodoDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("points", d.Points).MinInt(0, internal.ErrCodeInvalidPoints)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ConvertTodoDTO turns a todo into a task; every field is mandatory.
type ConvertTodoDTO struct {
	AssignedTo    string `json:"assigned_to"`
	DurationHours *int   `json:"duration_hours"`
	Points        *int   `json:"points"`
}

func (d *ConvertTodoDTO) Validate() error {
	d.AssignedTo = strings.TrimSpace(d.AssignedTo)
	v := validation.NewValidator()
	v.Field("assigned_to", d.AssignedTo).Required()
	v.Field("duration_hours", d.DurationHours).Required().MinInt(1, internal.ErrCodeInvalidDuration).MaxInt(internal.MaxDurationHours, internal.ErrCodeInvalidDuration)
	v.Field("points", d.Points).Required().MinInt(0, internal.ErrCodeInvalidPoints)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AssignmentDTO struct {
	Username string `json:"username"`
}

func (d *AssignmentDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ProjectsResponse struct {
	Projects []Project `json:"projects"`
}

type WhitelistResponse struct {
	ProjectID int64    `json:"project_id"`
	Usernames []string `json:"usernames"`
}
