package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/tasktracker/internal"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*groupDatamodel.Permission, error)
	GetByName(ctx context.Context, name string) (*groupDatamodel.Permission, error)
	Create(ctx context.Context, permission *groupDatamodel.Permission) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	dataPermissions, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get permissions from repository", "error", err)
		return nil, internal.NewInternalError("failed to list permissions", err)
	}

	responses := make([]PermissionResponse, 0, len(dataPermissions))
	for _, dp := range dataPermissions {
		responses = append(responses, FromDataModel(dp).ToResponse())
	}

	return responses, nil
}

// GetByName returns the catalog entry or ErrPermissionNotFound.
func (s *Service) GetByName(ctx context.Context, name string) (*Permission, error) {
	dp, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permission", err)
	}
	if dp == nil {
		return nil, internal.ErrPermissionNotFound
	}
	return FromDataModel(dp), nil
}

// EnsureCatalog inserts any built-in permission that is missing and reports
// how many were created.
func (s *Service) EnsureCatalog(ctx context.Context) (int, error) {
	created := 0
	for _, p := range Catalog() {
		existing, err := s.repo.GetByName(ctx, p.Name)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if err := s.repo.Create(ctx, ToDataModel(&p)); err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.logger.Info("permission catalog seeded", "created", created)
	}
	return created, nil
}
