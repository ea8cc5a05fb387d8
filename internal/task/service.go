package task

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	taskDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/task"
	"github.com/frahmantamala/tasktracker/internal/core/events"
)

// Repository is the task storage. Lookups return nil, nil when nothing
// matches.
type Repository interface {
	Create(ctx context.Context, task *taskDatamodel.Task) error
	GetByID(ctx context.Context, groupID, taskID int64) (*taskDatamodel.Task, error)
	Update(ctx context.Context, task *taskDatamodel.Task) error
	ListOpen(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error)
	ListCompleted(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error)
	ListHistory(ctx context.Context, groupID int64) ([]*taskDatamodel.Task, error)
	CompletionStats(ctx context.Context, groupID int64) ([]taskDatamodel.CompletionCount, error)
	ProjectGroupID(ctx context.Context, projectID int64) (int64, bool, error)
}

type Config struct {
	DefaultDurationHours int
	// AllowRefinish lets a finished task be finished again, overwriting the
	// completer and timestamp. When false the second finish is a conflict.
	AllowRefinish bool
	Now           func() time.Time
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	cfg       Config
	logger    *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, cfg Config, logger *slog.Logger) *Service {
	if cfg.DefaultDurationHours <= 0 {
		cfg.DefaultDurationHours = 48
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

var errTaskAlreadyCompleted = internal.NewConflictError("Task is already completed", internal.ErrCodeTaskAlreadyCompleted)

// CreateTask stores a task in the group. The due date is derived from a
// single clock reading so that due_date - creation_date equals the
// requested duration exactly.
func (s *Service) CreateTask(ctx context.Context, groupID int64, creator *internal.User, dto CreateTaskDTO) (*Task, error) {
	if creator == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.ProjectID != nil {
		projectGroup, found, err := s.repo.ProjectGroupID(ctx, *dto.ProjectID)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up project", err)
		}
		if !found || projectGroup != groupID {
			return nil, internal.ErrProjectNotFound
		}
	}

	hours := s.cfg.DefaultDurationHours
	if dto.DurationHours != nil {
		hours = *dto.DurationHours
	}

	now := s.cfg.Now().UTC()
	t := &taskDatamodel.Task{
		Title:          dto.Title,
		AssignedTo:     dto.AssignedTo,
		CreationDate:   now,
		DueDate:        now.Add(time.Duration(hours) * time.Hour),
		IsRecurring:    dto.IsRecurring,
		AlwaysAssigned: dto.AlwaysAssigned,
		GroupID:        groupID,
		ProjectID:      dto.ProjectID,
		CreatedBy:      creator.Username,
	}
	if dto.IsRecurring {
		t.FrequencyHours = dto.FrequencyHours
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create task", "error", err, "group_id", groupID)
		return nil, internal.NewInternalError("failed to create task", err)
	}

	s.logger.Info("task created", "task_id", t.ID, "group_id", groupID, "due_date", t.DueDate)

	assignee := ""
	if t.AssignedTo != nil {
		assignee = *t.AssignedTo
	}
	s.publish(ctx, events.NewTaskCreatedEvent(t.ID, groupID, t.Title, assignee, creator.Username))

	return FromDataModel(t), nil
}

// FinishTask marks the task completed by the caller.
func (s *Service) FinishTask(ctx context.Context, groupID, taskID int64, user *internal.User) (*Task, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}

	t, err := s.repo.GetByID(ctx, groupID, taskID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load task", err)
	}
	if t == nil {
		return nil, internal.ErrTaskNotFound
	}
	if t.Completed && !s.cfg.AllowRefinish {
		return nil, errTaskAlreadyCompleted
	}

	now := s.cfg.Now().UTC()
	completedBy := user.Username
	t.Completed = true
	t.CompletedBy = &completedBy
	t.CompletedOn = &now

	if err := s.repo.Update(ctx, t); err != nil {
		s.logger.Error("failed to finish task", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to finish task", err)
	}

	s.logger.Info("task finished", "task_id", taskID, "group_id", groupID, "completed_by", completedBy)
	s.publish(ctx, events.NewTaskCompletedEvent(t.ID, groupID, t.Title, completedBy))

	return FromDataModel(t), nil
}

func (s *Service) OpenTasks(ctx context.Context, groupID int64) ([]Task, error) {
	rows, err := s.repo.ListOpen(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list open tasks", err)
	}
	return fromDataModels(rows), nil
}

func (s *Service) CompletedTasks(ctx context.Context, groupID int64) ([]Task, error) {
	rows, err := s.repo.ListCompleted(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list completed tasks", err)
	}
	return fromDataModels(rows), nil
}

// History returns every task of the group ordered by creation date.
func (s *Service) History(ctx context.Context, groupID int64) ([]Task, error) {
	rows, err := s.repo.ListHistory(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list tasks", err)
	}
	return fromDataModels(rows), nil
}

func (s *Service) Stats(ctx context.Context, groupID int64) ([]CompletionStat, error) {
	rows, err := s.repo.CompletionStats(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to compute statistics", err)
	}
	stats := make([]CompletionStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, CompletionStat{CompletedBy: row.CompletedBy, Count: row.Count})
	}
	return stats, nil
}

// Export writes the group's task history as CSV.
func (s *Service) Export(ctx context.Context, groupID int64, w io.Writer) error {
	tasks, err := s.History(ctx, groupID)
	if err != nil {
		return err
	}
	return WriteCSV(w, exportColumns, taskRows(tasks))
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
