package task

import (
	"time"

	taskDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/task"
)

type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	CreationDate   time.Time  `json:"creation_date"`
	DueDate        time.Time  `json:"due_date"`
	Completed      bool       `json:"completed"`
	CompletedBy    *string    `json:"completed_by,omitempty"`
	CompletedOn    *time.Time `json:"completed_on,omitempty"`
	IsRecurring    bool       `json:"is_recurring"`
	FrequencyHours *int       `json:"frequency_hours,omitempty"`
	AlwaysAssigned bool       `json:"always_assigned"`
	GroupID        int64      `json:"group_id"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	CreatedBy      string     `json:"created_by"`
}

// CompletionStat is the number of tasks one member has finished in a group.
type CompletionStat struct {
	CompletedBy string `json:"completed_by"`
	Count       int64  `json:"count"`
}

func FromDataModel(t *taskDatamodel.Task) *Task {
	return &Task{
		ID:             t.ID,
		Title:          t.Title,
		AssignedTo:     t.AssignedTo,
		CreationDate:   t.CreationDate,
		DueDate:        t.DueDate,
		Completed:      t.Completed,
		CompletedBy:    t.CompletedBy,
		CompletedOn:    t.CompletedOn,
		IsRecurring:    t.IsRecurring,
		FrequencyHours: t.FrequencyHours,
		AlwaysAssigned: t.AlwaysAssigned,
		GroupID:        t.GroupID,
		ProjectID:      t.ProjectID,
		CreatedBy:      t.CreatedBy,
	}
}

func fromDataModels(rows []*taskDatamodel.Task) []Task {
	tasks := make([]Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, *FromDataModel(row))
	}
	return tasks
}
