package group

import (
	"time"

	"github.com/frahmantamala/tasktracker/internal"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
)

const (
	RoleUser   = groupDatamodel.RoleUser
	RoleEditor = groupDatamodel.RoleEditor
	RoleAdmin  = groupDatamodel.RoleAdmin
)

// ValidRoles lists the roles a membership may hold.
var ValidRoles = []string{RoleUser, RoleEditor, RoleAdmin}

var ErrMemberNotFound = internal.NewNotFoundError("User is not a member of this group", internal.ErrCodeUserNotFound)

type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user's membership as seen from the group.
type Member struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// UserGroup is a membership as seen from the user.
type UserGroup struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
	Role      string `json:"role"`
}

func FromDataModel(g *groupDatamodel.Group) *Group {
	return &Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}
