package postgres

import (
	"context"
	"errors"

	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
	taskDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/task"
	"github.com/frahmantamala/tasktracker/internal/task"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *taskDatamodel.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, groupID, taskID int64) (*taskDatamodel.Task, error) {
	var t taskDatamodel.Task
	err := r.db.WithContext(ctx).Where("id = ? AND group_id = ?", taskID, groupID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *taskDatamodel.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TaskRepository) ListOpen(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND completed = ?", groupID, false).
		Order("due_date ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListCompleted(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND completed = ?", groupID, true).
		Order("completed_on DESC, id DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListHistory(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("creation_date ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) CompletionStats(ctx context.Context, groupID int64) ([]taskDatamodel.CompletionCount, error) {
	var counts []taskDatamodel.CompletionCount
	err := r.db.WithContext(ctx).Model(&taskDatamodel.Task{}).
		Select("completed_by, COUNT(*) AS count").
		Where("group_id = ? AND completed = ? AND completed_by IS NOT NULL", groupID, true).
		Group("completed_by").
		Order("count DESC, completed_by ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *TaskRepository) ProjectGroupID(ctx context.Context, projectID int64) (int64, bool, error) {
	var p projectDatamodel.Project
	err := r.db.WithContext(ctx).Select("id", "group_id").Where("id = ?", projectID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return p.GroupID, true, nil
}
