package sop

import (
	"time"

	sopDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/sop"
)

type SOP struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Version       string    `json:"version"`
	PublishDate   time.Time `json:"publish_date"`
	EffectiveDate time.Time `json:"effective_date"`
	GroupID       int64     `json:"group_id"`
	CreatedBy     string    `json:"created_by"`
}

// Agreement records which version of an SOP a user accepted and when.
type Agreement struct {
	SOPID    int64     `json:"sop_id"`
	Title    string    `json:"title"`
	GroupID  int64     `json:"group_id"`
	Version  string    `json:"version"`
	AgreedAt time.Time `json:"agreed_at"`
}

// AgreementRow is an agreement joined with the SOP it refers to.
type AgreementRow struct {
	SOPID    int64     `gorm:"column:sop_id"`
	Title    string    `gorm:"column:title"`
	GroupID  int64     `gorm:"column:group_id"`
	Version  string    `gorm:"column:version"`
	AgreedAt time.Time `gorm:"column:agreed_at"`
}

func FromDataModel(s *sopDatamodel.SOP) *SOP {
	return &SOP{
		ID:            s.ID,
		Title:         s.Title,
		Content:       s.Content,
		Version:       s.Version,
		PublishDate:   s.PublishDate,
		EffectiveDate: s.EffectiveDate,
		GroupID:       s.GroupID,
		CreatedBy:     s.CreatedBy,
	}
}

func agreementFromRow(r AgreementRow) Agreement {
	return Agreement(r)
}
