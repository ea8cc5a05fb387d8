package sop

import (
	"strings"
	"time"

	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

// PublishSOPDTO publishes a new version of a titled SOP. EffectiveDate
// defaults to the publish time.
type PublishSOPDTO struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Version       string     `json:"version"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (d *PublishSOPDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Version = strings.TrimSpace(d.Version)
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("version", d.Version).Required().MaxLength(50)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReviseSOPDTO struct {
	Content       string     `json:"content"`
	Version       string     `json:"version"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (d *ReviseSOPDTO) Validate() error {
	d.Version = strings.TrimSpace(d.Version)
	v := validation.NewValidator()
	v.Field("version", d.Version).Required().MaxLength(50)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SOPsResponse struct {
	SOPs []SOP `json:"sops"`
}

type AgreementsResponse struct {
	Agreements []Agreement `json:"agreements"`
}
