package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	projectDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/project"
	"github.com/frahmantamala/tasktracker/internal/core/events"
)

// Repository is the project storage. Lookups return nil, nil when nothing
// matches.
type Repository interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	UserExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, project *projectDatamodel.Project) error
	GetByID(ctx context.Context, projectID int64) (*projectDatamodel.Project, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*projectDatamodel.Project, error)
	CreateTodo(ctx context.Context, todo *projectDatamodel.Todo) error
	GetTodo(ctx context.Context, projectID, todoID int64) (*projectDatamodel.Todo, error)
	ListTodos(ctx context.Context, projectID int64) ([]*projectDatamodel.Todo, error)
	UpdateTodo(ctx context.Context, todo *projectDatamodel.Todo) error
	// ConvertTodo re-reads the todo and the whitelist and applies the
	// conversion in one transaction. It returns ErrTodoMissing,
	// ErrAlreadyConverted or ErrNotWhitelisted and leaves the todo
	// untouched in each of those cases.
	ConvertTodo(ctx context.Context, projectID, todoID int64, conv Conversion) (*projectDatamodel.Todo, error)
	ListWhitelist(ctx context.Context, projectID int64) ([]string, error)
	AddToWhitelist(ctx context.Context, projectID int64, username string) error
	RemoveFromWhitelist(ctx context.Context, projectID int64, username string) error
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateProject creates a project in an existing group. The creator does not
// need to be a member of that group.
func (s *Service) CreateProject(ctx context.Context, creator *internal.User, dto CreateProjectDTO) (*Project, error) {
	if creator == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.GroupExists(ctx, dto.GroupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up group", err)
	}
	if !exists {
		return nil, internal.ErrGroupNotFound
	}

	p := &projectDatamodel.Project{
		Name:        dto.Name,
		Description: dto.Description,
		CreatedBy:   creator.Username,
		GroupID:     dto.GroupID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create project", "error", err, "group_id", dto.GroupID)
		return nil, internal.NewInternalError("failed to create project", err)
	}

	s.logger.Info("project created", "project_id", p.ID, "group_id", p.GroupID, "created_by", creator.Username)
	return FromDataModel(p), nil
}

func (s *Service) ListProjects(ctx context.Context, groupID int64) ([]Project, error) {
	rows, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	projects := make([]Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, *FromDataModel(row))
	}
	return projects, nil
}

// loadProject returns the project when it belongs to groupID.
func (s *Service) loadProject(ctx context.Context, groupID, projectID int64) (*projectDatamodel.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if p == nil || p.GroupID != groupID {
		return nil, internal.ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, groupID, projectID int64) (*Detail, error) {
	p, err := s.loadProject(ctx, groupID, projectID)
	if err != nil {
		return nil, err
	}

	todos, err := s.repo.ListTodos(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list todos", err)
	}
	whitelist, err := s.repo.ListWhitelist(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list whitelist", err)
	}

	detail := &Detail{
		Project:   *FromDataModel(p),
		Todos:     make([]Todo, 0, len(todos)),
		Whitelist: whitelist,
	}
	for _, t := range todos {
		detail.Todos = append(detail.Todos, *TodoFromDataModel(t))
	}
	return detail, nil
}

func (s *Service) CreateTodo(ctx context.Context, groupID, projectID int64, dto CreateTodoDTO) (*Todo, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}

	t := &projectDatamodel.Todo{
		ProjectID:    projectID,
		Title:        dto.Title,
		Description:  dto.Description,
		DueDate:      dto.DueDate,
		Points:       dto.Points,
		CreationDate: s.now().UTC(),
	}
	if err := s.repo.CreateTodo(ctx, t); err != nil {
		return nil, internal.NewInternalError("failed to create todo", err)
	}

	s.logger.Info("todo created", "todo_id", t.ID, "project_id", projectID)
	return TodoFromDataModel(t), nil
}

// ConvertTodo promotes a todo into a task assigned to dto.AssignedTo. The
// assignee must be on the project whitelist when the whitelist is not empty.
func (s *Service) ConvertTodo(ctx context.Context, groupID, projectID, todoID int64, dto ConvertTodoDTO) (*Todo, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}

	conv := Conversion{
		AssignedTo: dto.AssignedTo,
		DueDate:    s.now().UTC().Add(time.Duration(*dto.DurationHours) * time.Hour),
		Points:     *dto.Points,
	}

	t, err := s.repo.ConvertTodo(ctx, projectID, todoID, conv)
	switch {
	case errors.Is(err, ErrTodoMissing):
		return nil, internal.ErrTodoNotFound
	case errors.Is(err, ErrAlreadyConverted):
		return nil, errTodoAlreadyConverted
	case errors.Is(err, ErrNotWhitelisted):
		s.logger.Warn("todo conversion refused", "todo_id", todoID, "project_id", projectID, "assignee", dto.AssignedTo)
		return nil, errAssigneeNotWhitelisted
	case err != nil:
		s.logger.Error("failed to convert todo", "error", err, "todo_id", todoID)
		return nil, internal.NewInternalError("failed to convert todo", err)
	}

	s.logger.Info("todo converted", "todo_id", todoID, "project_id", projectID, "assignee", dto.AssignedTo)
	if s.publisher != nil {
		event := events.NewTodoConvertedEvent(t.ID, projectID, groupID, t.Title, dto.AssignedTo)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return TodoFromDataModel(t), nil
}

// CompleteTodo marks a todo as done by the caller.
func (s *Service) CompleteTodo(ctx context.Context, groupID, projectID, todoID int64, user *internal.User) (*Todo, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}

	t, err := s.repo.GetTodo(ctx, projectID, todoID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load todo", err)
	}
	if t == nil {
		return nil, internal.ErrTodoNotFound
	}

	now := s.now().UTC()
	completedBy := user.Username
	t.Completed = true
	t.CompletedBy = &completedBy
	t.CompletedOn = &now
	if err := s.repo.UpdateTodo(ctx, t); err != nil {
		return nil, internal.NewInternalError("failed to complete todo", err)
	}

	return TodoFromDataModel(t), nil
}

func (s *Service) ListWhitelist(ctx context.Context, groupID, projectID int64) ([]string, error) {
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}
	usernames, err := s.repo.ListWhitelist(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list whitelist", err)
	}
	return usernames, nil
}

// AddToWhitelist allows username to be assigned converted todos of the
// project.
func (s *Service) AddToWhitelist(ctx context.Context, groupID, projectID int64, dto AssignmentDTO) ([]string, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	if err := s.repo.AddToWhitelist(ctx, projectID, dto.Username); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errAlreadyAssigned
		}
		return nil, internal.NewInternalError("failed to update whitelist", err)
	}

	s.logger.Info("whitelist entry added", "project_id", projectID, "username", dto.Username)
	return s.ListWhitelist(ctx, groupID, projectID)
}

// RemoveFromWhitelist drops username from the whitelist. Removing an absent
// entry is not an error.
func (s *Service) RemoveFromWhitelist(ctx context.Context, groupID, projectID int64, username string) ([]string, error) {
	if _, err := s.loadProject(ctx, groupID, projectID); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveFromWhitelist(ctx, projectID, username); err != nil {
		return nil, internal.NewInternalError("failed to update whitelist", err)
	}
	return s.ListWhitelist(ctx, groupID, projectID)
}
