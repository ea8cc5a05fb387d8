package postgres

import (
	"context"
	"errors"

	sopDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/sop"
	"github.com/frahmantamala/tasktracker/internal/sop"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SOPRepository struct {
	db *gorm.DB
}

func NewSOPRepository(db *gorm.DB) sop.Repository {
	return &SOPRepository{db: db}
}

func (r *SOPRepository) VersionExists(ctx context.Context, groupID int64, title, version string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&sopDatamodel.SOP{}).
		Where("group_id = ? AND title = ? AND version = ?", groupID, title, version).
		Count(&count).Error
	return count > 0, err
}

func (r *SOPRepository) Create(ctx context.Context, s *sopDatamodel.SOP) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SOPRepository) Update(ctx context.Context, s *sopDatamodel.SOP) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SOPRepository) GetByID(ctx context.Context, groupID, sopID int64) (*sopDatamodel.SOP, error) {
	return first(r.db.WithContext(ctx).Where("id = ? AND group_id = ?", sopID, groupID))
}

func (r *SOPRepository) ListByGroup(ctx context.Context, groupID int64) ([]*sopDatamodel.SOP, error) {
	var sops []*sopDatamodel.SOP
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("title ASC, publish_date DESC, id DESC").
		Find(&sops).Error
	return sops, err
}

// Current picks the latest publish date, breaking ties on the highest id.
func (r *SOPRepository) Current(ctx context.Context, groupID int64, title string) (*sopDatamodel.SOP, error) {
	return first(r.db.WithContext(ctx).
		Where("group_id = ? AND title = ?", groupID, title).
		Order("publish_date DESC, id DESC"))
}

func first(q *gorm.DB) (*sopDatamodel.SOP, error) {
	var s sopDatamodel.SOP
	if err := q.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SOPRepository) UpsertAgreement(ctx context.Context, a *sopDatamodel.Agreement) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "sop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "agreed_at"}),
	}).Create(a).Error
}

func (r *SOPRepository) agreements(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("sop_agreements a").
		Select("a.sop_id, s.title, s.group_id, a.version, a.agreed_at").
		Joins("JOIN sops s ON s.id = a.sop_id")
}

func (r *SOPRepository) ListAgreements(ctx context.Context, userID int64) ([]sop.AgreementRow, error) {
	rows := []sop.AgreementRow{}
	err := r.agreements(ctx).
		Where("a.user_id = ?", userID).
		Order("a.agreed_at DESC, a.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *SOPRepository) LatestAgreement(ctx context.Context, userID, groupID int64, title string) (*sop.AgreementRow, error) {
	var rows []sop.AgreementRow
	err := r.agreements(ctx).
		Where("a.user_id = ? AND s.group_id = ? AND s.title = ?", userID, groupID, title).
		Order("a.agreed_at DESC, a.id DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
