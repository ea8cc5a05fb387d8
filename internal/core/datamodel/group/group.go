package group

import "time"

const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

type Group struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedBy string    `gorm:"column:created_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Group) TableName() string { return "groups" }

type Membership struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_groups_user_group"`
	GroupID   int64     `gorm:"column:group_id;not null;uniqueIndex:idx_user_groups_user_group"`
	Role      string    `gorm:"column:role;not null;default:'user'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Membership) TableName() string { return "user_groups" }

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string { return "permissions" }

type GroupPermission struct {
	ID           int64     `gorm:"primaryKey"`
	GroupID      int64     `gorm:"column:group_id;not null;uniqueIndex:idx_group_permissions_group_perm"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_group_permissions_group_perm"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (GroupPermission) TableName() string { return "group_permissions" }
