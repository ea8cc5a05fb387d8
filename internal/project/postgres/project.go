package postgres

import (
	"context"
	"errors"

	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/project"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.Repository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&groupDatamodel.Group{}).Where("id = ?", groupID).Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) Create(ctx context.Context, p *projectDatamodel.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID int64) (*projectDatamodel.Project, error) {
	var p projectDatamodel.Project
	err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) ListByGroup(ctx context.Context, groupID int64) ([]*projectDatamodel.Project, error) {
	var projects []*projectDatamodel.Project
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("name ASC, id ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) CreateTodo(ctx context.Context, t *projectDatamodel.Todo) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ProjectRepository) GetTodo(ctx context.Context, projectID, todoID int64) (*projectDatamodel.Todo, error) {
	return getTodo(r.db.WithContext(ctx), projectID, todoID)
}

func getTodo(db *gorm.DB, projectID, todoID int64) (*projectDatamodel.Todo, error) {
	var t projectDatamodel.Todo
	err := db.Where("id = ? AND project_id = ?", todoID, projectID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *ProjectRepository) ListTodos(ctx context.Context, projectID int64) ([]*projectDatamodel.Todo, error) {
	var todos []*projectDatamodel.Todo
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("creation_date ASC, id ASC").Find(&todos).Error
	return todos, err
}

func (r *ProjectRepository) UpdateTodo(ctx context.Context, t *projectDatamodel.Todo) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *ProjectRepository) ConvertTodo(ctx context.Context, projectID, todoID int64, conv project.Conversion) (*projectDatamodel.Todo, error) {
	var converted *projectDatamodel.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := getTodo(tx, projectID, todoID)
		if err != nil {
			return err
		}
		if t == nil {
			return project.ErrTodoMissing
		}
		if t.IsTask {
			return project.ErrAlreadyConverted
		}

		whitelist, err := listWhitelist(tx, projectID)
		if err != nil {
			return err
		}
		if !project.CanAssign(whitelist, conv.AssignedTo) {
			return project.ErrNotWhitelisted
		}

		dueDate := conv.DueDate
		points := conv.Points
		assignee := conv.AssignedTo
		// the is_task guard makes a concurrent second conversion a no-op
		res := tx.Model(&projectDatamodel.Todo{}).
			Where("id = ? AND is_task = ?", t.ID, false).
			Updates(map[string]interface{}{
				"is_task":     true,
				"assigned_to": assignee,
				"due_date":    dueDate,
				"points":      points,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return project.ErrAlreadyConverted
		}

		t.IsTask = true
		t.AssignedTo = &assignee
		t.DueDate = &dueDate
		t.Points = &points
		converted = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return converted, nil
}

func (r *ProjectRepository) ListWhitelist(ctx context.Context, projectID int64) ([]string, error) {
	return listWhitelist(r.db.WithContext(ctx), projectID)
}

func listWhitelist(db *gorm.DB, projectID int64) ([]string, error) {
	usernames := []string{}
	err := db.Model(&projectDatamodel.Assignment{}).
		Where("project_id = ?", projectID).
		Order("username ASC").
		Pluck("username", &usernames).Error
	return usernames, err
}

func (r *ProjectRepository) AddToWhitelist(ctx context.Context, projectID int64, username string) error {
	err := r.db.WithContext(ctx).Create(&projectDatamodel.Assignment{ProjectID: projectID, Username: username}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return project.ErrDuplicate
	}
	return err
}

func (r *ProjectRepository) RemoveFromWhitelist(ctx context.Context, projectID int64, username string) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND username = ?", projectID, username).
		Delete(&projectDatamodel.Assignment{}).Error
}
