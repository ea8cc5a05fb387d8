package postgres

import (
	"context"
	"errors"

	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	"github.com/frahmantamala/tasktracker/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetAll(ctx context.Context) ([]*groupDatamodel.Permission, error) {
	var permissions []*groupDatamodel.Permission
	err := r.db.WithContext(ctx).Order("name ASC").Find(&permissions).Error
	return permissions, err
}

func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*groupDatamodel.Permission, error) {
	var p groupDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) Create(ctx context.Context, p *groupDatamodel.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}
