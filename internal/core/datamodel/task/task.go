package task

import "time"

type Task struct {
	ID             int64      `gorm:"primaryKey"`
	Title          string     `gorm:"column:title;not null"`
	AssignedTo     *string    `gorm:"column:assigned_to"`
	CreationDate   time.Time  `gorm:"column:creation_date;not null"`
	DueDate        time.Time  `gorm:"column:due_date;not null"`
	Completed      bool       `gorm:"column:completed;not null;default:false"`
	CompletedBy    *string    `gorm:"column:completed_by"`
	CompletedOn    *time.Time `gorm:"column:completed_on"`
	IsRecurring    bool       `gorm:"column:is_recurring;not null;default:false"`
	FrequencyHours *int       `gorm:"column:frequency_hours"`
	AlwaysAssigned bool       `gorm:"column:always_assigned;not null;default:false"`
	GroupID        int64      `gorm:"column:group_id;not null;index"`
	ProjectID      *int64     `gorm:"column:project_id;index"`
	CreatedBy      string     `gorm:"column:created_by;not null"`
}

func (Task) TableName() string { return "tasks" }

// CompletionCount is one row of the per-completer statistics query.
type CompletionCount struct {
	CompletedBy string `gorm:"column:completed_by"`
	Count       int64  `gorm:"column:count"`
}
