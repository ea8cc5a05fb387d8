package sop

import "time"

type SOP struct {
	ID            int64     `gorm:"primaryKey"`
	Title         string    `gorm:"column:title;not null;index:idx_sops_group_title"`
	Content       string    `gorm:"column:content"`
	Version       string    `gorm:"column:version;not null"`
	PublishDate   time.Time `gorm:"column:publish_date;not null"`
	EffectiveDate time.Time `gorm:"column:effective_date;not null"`
	GroupID       int64     `gorm:"column:group_id;not null;index:idx_sops_group_title"`
	CreatedBy     string    `gorm:"column:created_by;not null"`
}

func (SOP) TableName() string { return "sops" }

type Agreement struct {
	ID       int64     `gorm:"primaryKey"`
	UserID   int64     `gorm:"column:user_id;not null;uniqueIndex:idx_sop_agreements_user_sop"`
	SOPID    int64     `gorm:"column:sop_id;not null;uniqueIndex:idx_sop_agreements_user_sop"`
	Version  string    `gorm:"column:version;not null"`
	AgreedAt time.Time `gorm:"column:agreed_at;not null"`
}

func (Agreement) TableName() string { return "sop_agreements" }
