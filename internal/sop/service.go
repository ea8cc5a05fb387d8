package sop

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	sopDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/sop"
	"github.com/frahmantamala/tasktracker/internal/core/events"
)

// Repository is the SOP storage. Lookups return nil, nil when nothing
// matches.
type Repository interface {
	VersionExists(ctx context.Context, groupID int64, title, version string) (bool, error)
	Create(ctx context.Context, sop *sopDatamodel.SOP) error
	Update(ctx context.Context, sop *sopDatamodel.SOP) error
	GetByID(ctx context.Context, groupID, sopID int64) (*sopDatamodel.SOP, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*sopDatamodel.SOP, error)
	Current(ctx context.Context, groupID int64, title string) (*sopDatamodel.SOP, error)
	UpsertAgreement(ctx context.Context, agreement *sopDatamodel.Agreement) error
	ListAgreements(ctx context.Context, userID int64) ([]AgreementRow, error)
	LatestAgreement(ctx context.Context, userID, groupID int64, title string) (*AgreementRow, error)
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

var (
	errVersionExists     = internal.NewConflictError("This SOP version has already been published", internal.ErrCodeSOPVersionExists)
	errAgreementRequired = internal.NewForbiddenError("You must agree to the current version of this SOP", internal.ErrCodeSOPAgreementRequired)
)

// Publish stores a new SOP version for the group. Content is sanitised
// before it is stored.
func (s *Service) Publish(ctx context.Context, groupID int64, creator *internal.User, dto PublishSOPDTO) (*SOP, error) {
	if creator == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.VersionExists(ctx, groupID, dto.Title, dto.Version)
	if err != nil {
		return nil, internal.NewInternalError("failed to check SOP version", err)
	}
	if exists {
		return nil, errVersionExists
	}

	now := s.now().UTC()
	effective := now
	if dto.EffectiveDate != nil {
		effective = dto.EffectiveDate.UTC()
	}

	row := &sopDatamodel.SOP{
		Title:         dto.Title,
		Content:       Sanitize(dto.Content),
		Version:       dto.Version,
		PublishDate:   now,
		EffectiveDate: effective,
		GroupID:       groupID,
		CreatedBy:     creator.Username,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to publish SOP", "error", err, "group_id", groupID, "title", dto.Title)
		return nil, internal.NewInternalError("failed to publish SOP", err)
	}

	s.logger.Info("SOP published", "sop_id", row.ID, "group_id", groupID, "title", row.Title, "version", row.Version)
	if s.publisher != nil {
		event := events.NewSOPPublishedEvent(row.ID, groupID, row.Title, row.Version)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return FromDataModel(row), nil
}

// Revise publishes a new version of an existing SOP in place. The SOP keeps
// its id, so agreements recorded against the previous version no longer
// satisfy the gate until the user agrees again.
func (s *Service) Revise(ctx context.Context, groupID, sopID int64, dto ReviseSOPDTO) (*SOP, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, groupID, sopID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load SOP", err)
	}
	if row == nil {
		return nil, internal.ErrSOPNotFound
	}

	exists, err := s.repo.VersionExists(ctx, groupID, row.Title, dto.Version)
	if err != nil {
		return nil, internal.NewInternalError("failed to check SOP version", err)
	}
	if exists {
		return nil, errVersionExists
	}

	now := s.now().UTC()
	row.Version = dto.Version
	row.Content = Sanitize(dto.Content)
	row.PublishDate = now
	row.EffectiveDate = now
	if dto.EffectiveDate != nil {
		row.EffectiveDate = dto.EffectiveDate.UTC()
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to revise SOP", err)
	}

	s.logger.Info("SOP revised", "sop_id", row.ID, "group_id", groupID, "version", row.Version)
	if s.publisher != nil {
		event := events.NewSOPPublishedEvent(row.ID, groupID, row.Title, row.Version)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return FromDataModel(row), nil
}

func (s *Service) ListSOPs(ctx context.Context, groupID int64) ([]SOP, error) {
	rows, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list SOPs", err)
	}
	sops := make([]SOP, 0, len(rows))
	for _, row := range rows {
		sops = append(sops, *FromDataModel(row))
	}
	return sops, nil
}

// Current returns the most recently published version of title.
func (s *Service) Current(ctx context.Context, groupID int64, title string) (*SOP, error) {
	row, err := s.repo.Current(ctx, groupID, title)
	if err != nil {
		return nil, internal.NewInternalError("failed to load SOP", err)
	}
	if row == nil {
		return nil, internal.ErrSOPNotFound
	}
	return FromDataModel(row), nil
}

// Agree records that user accepted the SOP. Agreeing again overwrites the
// stored version and timestamp.
func (s *Service) Agree(ctx context.Context, groupID, sopID int64, user *internal.User) (*Agreement, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}

	row, err := s.repo.GetByID(ctx, groupID, sopID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load SOP", err)
	}
	if row == nil {
		return nil, internal.ErrSOPNotFound
	}

	agreement := &sopDatamodel.Agreement{
		UserID:   user.ID,
		SOPID:    row.ID,
		Version:  row.Version,
		AgreedAt: s.now().UTC(),
	}
	if err := s.repo.UpsertAgreement(ctx, agreement); err != nil {
		return nil, internal.NewInternalError("failed to record agreement", err)
	}

	s.logger.Info("SOP agreed", "sop_id", row.ID, "user_id", user.ID, "version", row.Version)
	return &Agreement{
		SOPID:    row.ID,
		Title:    row.Title,
		GroupID:  row.GroupID,
		Version:  row.Version,
		AgreedAt: agreement.AgreedAt,
	}, nil
}

func (s *Service) MyAgreements(ctx context.Context, user *internal.User) ([]Agreement, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	rows, err := s.repo.ListAgreements(ctx, user.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list agreements", err)
	}
	agreements := make([]Agreement, 0, len(rows))
	for _, r := range rows {
		agreements = append(agreements, agreementFromRow(r))
	}
	return agreements, nil
}

// Check gates an action on the user having agreed to the current version of
// title in the group. A title that was never published does not block.
func (s *Service) Check(ctx context.Context, userID, groupID int64, title string) error {
	current, err := s.repo.Current(ctx, groupID, title)
	if err != nil {
		return internal.NewInternalError("failed to load SOP", err)
	}
	if current == nil {
		return nil
	}

	latest, err := s.repo.LatestAgreement(ctx, userID, groupID, title)
	if err != nil {
		return internal.NewInternalError("failed to load agreement", err)
	}
	if latest == nil || latest.Version != current.Version {
		return errAgreementRequired
	}
	return nil
}
