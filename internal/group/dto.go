package group

import (
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

type CreateGroupDTO struct {
	Name string `json:"name"`
}

func (d *CreateGroupDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// AddMemberDTO invites an existing user; Role defaults to "user".
type AddMemberDTO struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (d *AddMemberDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	if d.Role == "" {
		d.Role = RoleUser
	}
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("role", d.Role).OneOf(ValidRoles, internal.ErrCodeInvalidRole)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ChangeRoleDTO struct {
	Role string `json:"role"`
}

func (d *ChangeRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("role", d.Role).Required().OneOf(ValidRoles, internal.ErrCodeInvalidRole)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type GrantPermissionDTO struct {
	Permission string `json:"permission"`
}

func (d *GrantPermissionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("permission", d.Permission).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MembersResponse struct {
	Members []Member `json:"members"`
}

type UserGroupsResponse struct {
	Groups []UserGroup `json:"groups"`
}

type GroupPermissionsResponse struct {
	GroupID     int64    `json:"group_id"`
	Permissions []string `json:"permissions"`
}
