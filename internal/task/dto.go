package task

import (
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

// CreateTaskDTO describes a new task. DurationHours falls back to the
// configured default when omitted.
type CreateTaskDTO struct {
	Title          string  `json:"title"`
	AssignedTo     *string `json:"assigned_to,omitempty"`
	DurationHours  *int    `json:"duration_hours,omitempty"`
	IsRecurring    bool    `json:"is_recurring"`
	FrequencyHours *int    `json:"frequency_hours,omitempty"`
	AlwaysAssigned bool    `json:"always_assigned"`
	ProjectID      *int64  `json:"project_id,omitempty"`
}

func (d *CreateTaskDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.AssignedTo != nil {
		assignee := strings.TrimSpace(*d.AssignedTo)
		if assignee == "" {
			d.AssignedTo = nil
		} else {
			d.AssignedTo = &assignee
		}
	}

	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("duration_hours", d.DurationHours).MinInt(1, internal.ErrCodeInvalidDuration).MaxInt(internal.MaxDurationHours, internal.ErrCodeInvalidDuration)
	if d.IsRecurring {
		v.Field("frequency_hours", d.FrequencyHours).Required().MinInt(1, internal.ErrCodeInvalidDuration).MaxInt(internal.MaxDurationHours, internal.ErrCodeInvalidDuration)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type TasksResponse struct {
	Tasks []Task `json:"tasks"`
}

type StatsResponse struct {
	GroupID int64            `json:"group_id"`
	Stats   []CompletionStat `json:"stats"`
}
