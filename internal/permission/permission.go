package permission

import (
	"time"

	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
)

// Permission names understood by the route guards.
const (
	ManagePermissions = "manage_permissions"
	ManageSOPs        = "manage_sops"
	AssignProjects    = "assign_projects"
	ManageProjects    = "manage_projects"
	ExportData        = "export_data"
)

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Catalog is the built-in set of permissions every deployment starts with.
func Catalog() []Permission {
	return []Permission{
		{Name: ManagePermissions, Description: "Grant and revoke group permissions"},
		{Name: ManageSOPs, Description: "Publish standard operating procedures"},
		{Name: AssignProjects, Description: "Manage project assignment whitelists"},
		{Name: ManageProjects, Description: "Create projects"},
		{Name: ExportData, Description: "Export task data"},
	}
}

func (p *Permission) ToResponse() PermissionResponse {
	return PermissionResponse{
		Name:        p.Name,
		Description: p.Description,
	}
}

func ToDataModel(p *Permission) *groupDatamodel.Permission {
	return &groupDatamodel.Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func FromDataModel(p *groupDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
