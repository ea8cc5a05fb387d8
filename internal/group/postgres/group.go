package postgres

import (
	"context"
	"errors"

	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
	"github.com/frahmantamala/tasktracker/internal/group"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) group.Repository {
	return &GroupRepository{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return group.ErrDuplicate
	}
	return err
}

func (r *GroupRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&groupDatamodel.Group{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// CreateWithAdmin inserts the group and the creator's admin membership
// atomically; either both rows exist afterwards or neither does.
func (r *GroupRepository) CreateWithAdmin(ctx context.Context, g *groupDatamodel.Group, adminUserID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return tx.Create(&groupDatamodel.Membership{
			UserID:  adminUserID,
			GroupID: g.ID,
			Role:    groupDatamodel.RoleAdmin,
		}).Error
	})
	return translate(err)
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*groupDatamodel.Group, error) {
	var g groupDatamodel.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) FindUserID(ctx context.Context, username string) (int64, bool, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return u.ID, true, nil
}

func (r *GroupRepository) GetMembership(ctx context.Context, userID, groupID int64) (*groupDatamodel.Membership, error) {
	var m groupDatamodel.Membership
	err := r.db.WithContext(ctx).Where("user_id = ? AND group_id = ?", userID, groupID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, m *groupDatamodel.Membership) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// UpdateRole changes a member's role. The admin count is read in the same
// transaction as the write so a group never ends up without an admin.
func (r *GroupRepository) UpdateRole(ctx context.Context, userID, groupID int64, role string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if role != groupDatamodel.RoleAdmin {
			var admins []int64
			err := tx.Model(&groupDatamodel.Membership{}).
				Where("group_id = ? AND role = ?", groupID, groupDatamodel.RoleAdmin).
				Pluck("user_id", &admins).Error
			if err != nil {
				return err
			}
			if len(admins) == 1 && admins[0] == userID {
				return group.ErrLastAdmin
			}
		}
		return tx.Model(&groupDatamodel.Membership{}).
			Where("user_id = ? AND group_id = ?", userID, groupID).
			Update("role", role).Error
	})
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]group.Member, error) {
	members := []group.Member{}
	err := r.db.WithContext(ctx).Table("user_groups ug").
		Select("ug.user_id, u.username, ug.role, ug.created_at AS joined_at").
		Joins("JOIN users u ON u.id = ug.user_id").
		Where("ug.group_id = ?", groupID).
		Order("u.username ASC").
		Scan(&members).Error
	return members, err
}

func (r *GroupRepository) ListUserGroups(ctx context.Context, userID int64) ([]group.UserGroup, error) {
	groups := []group.UserGroup{}
	err := r.db.WithContext(ctx).Table("user_groups ug").
		Select("g.id AS group_id, g.name AS group_name, ug.role").
		Joins("JOIN \"groups\" g ON g.id = ug.group_id").
		Where("ug.user_id = ?", userID).
		Order("g.name ASC").
		Scan(&groups).Error
	return groups, err
}

func (r *GroupRepository) GrantPermission(ctx context.Context, groupID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&groupDatamodel.GroupPermission{GroupID: groupID, PermissionID: permissionID}).Error
}

func (r *GroupRepository) RevokePermission(ctx context.Context, groupID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND permission_id = ?", groupID, permissionID).
		Delete(&groupDatamodel.GroupPermission{}).Error
}

func (r *GroupRepository) ListPermissions(ctx context.Context, groupID int64) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).Table("group_permissions gp").
		Select("p.name").
		Joins("JOIN permissions p ON p.id = gp.permission_id").
		Where("gp.group_id = ?", groupID).
		Order("p.name ASC").
		Pluck("p.name", &names).Error
	return names, err
}
