package project

import "time"

type Project struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	CreatedBy   string    `gorm:"column:created_by;not null"`
	GroupID     int64     `gorm:"column:group_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Project) TableName() string { return "projects" }

type Todo struct {
	ID           int64      `gorm:"primaryKey"`
	ProjectID    int64      `gorm:"column:project_id;not null;index"`
	Title        string     `gorm:"column:title;not null"`
	Description  string     `gorm:"column:description"`
	DueDate      *time.Time `gorm:"column:due_date"`
	Points       *int       `gorm:"column:points"`
	IsTask       bool       `gorm:"column:is_task;not null;default:false"`
	Completed    bool       `gorm:"column:completed;not null;default:false"`
	AssignedTo   *string    `gorm:"column:assigned_to"`
	CreationDate time.Time  `gorm:"column:creation_date;not null"`
	CompletedBy  *string    `gorm:"column:completed_by"`
	CompletedOn  *time.Time `gorm:"column:completed_on"`
}

func (Todo) TableName() string { return "project_todos" }

type Assignment struct {
	ID        int64     `gorm:"primaryKey"`
	ProjectID int64     `gorm:"column:project_id;not null;uniqueIndex:idx_project_assignments_project_user"`
	Username  string    `gorm:"column:username;not null;uniqueIndex:idx_project_assignments_project_user"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Assignment) TableName() string { return "project_assignments" }
