package group

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/tasktracker/internal"
	groupDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/group"
	"github.com/frahmantamala/tasktracker/internal/permission"
)

// Repository is the group storage. Lookups return nil, nil when nothing
// matches; writes that hit a unique constraint return ErrDuplicate.
type Repository interface {
	NameExists(ctx context.Context, name string) (bool, error)
	CreateWithAdmin(ctx context.Context, group *groupDatamodel.Group, adminUserID int64) error
	GetByID(ctx context.Context, id int64) (*groupDatamodel.Group, error)
	FindUserID(ctx context.Context, username string) (int64, bool, error)
	GetMembership(ctx context.Context, userID, groupID int64) (*groupDatamodel.Membership, error)
	AddMember(ctx context.Context, membership *groupDatamodel.Membership) error
	UpdateRole(ctx context.Context, userID, groupID int64, role string) error
	ListMembers(ctx context.Context, groupID int64) ([]Member, error)
	ListUserGroups(ctx context.Context, userID int64) ([]UserGroup, error)
	GrantPermission(ctx context.Context, groupID, permissionID int64) error
	RevokePermission(ctx context.Context, groupID, permissionID int64) error
	ListPermissions(ctx context.Context, groupID int64) ([]string, error)
}

// PermissionLookup resolves catalog entries by name.
type PermissionLookup interface {
	GetByName(ctx context.Context, name string) (*permission.Permission, error)
}

type Service struct {
	repo        Repository
	permissions PermissionLookup
	logger      *slog.Logger
}

func NewService(repo Repository, permissions PermissionLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		permissions: permissions,
		logger:      logger,
	}
}

var (
	errGroupNameTaken = internal.NewConflictError("A group with this name already exists", internal.ErrCodeGroupNameTaken)
	errAlreadyMember  = internal.NewConflictError("User is already a member of this group", internal.ErrCodeAlreadyMember)
	errLastAdmin      = internal.NewConflictError("A group must keep at least one admin", internal.ErrCodeLastAdmin)
)

// CreateGroup creates the group and makes the creator its admin in one
// transaction. A duplicate name is rejected before anything is written.
func (s *Service) CreateGroup(ctx context.Context, creator *internal.User, dto CreateGroupDTO) (*Group, error) {
	if creator == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.NameExists(ctx, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check group name", err)
	}
	if exists {
		return nil, errGroupNameTaken
	}

	g := &groupDatamodel.Group{
		Name:      dto.Name,
		CreatedBy: creator.Username,
	}
	if err := s.repo.CreateWithAdmin(ctx, g, creator.ID); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errGroupNameTaken
		}
		s.logger.Error("failed to create group", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create group", err)
	}

	s.logger.Info("group created", "group_id", g.ID, "name", g.Name, "created_by", creator.Username)
	return FromDataModel(g), nil
}

func (s *Service) GetGroup(ctx context.Context, groupID int64) (*Group, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group", err)
	}
	if g == nil {
		return nil, internal.ErrGroupNotFound
	}
	return FromDataModel(g), nil
}

// AddMember invites an existing user into the group.
func (s *Service) AddMember(ctx context.Context, groupID int64, dto AddMemberDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	userID, found, err := s.repo.FindUserID(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if !found {
		return nil, internal.ErrUserNotFound
	}

	existing, err := s.repo.GetMembership(ctx, userID, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up membership", err)
	}
	if existing != nil {
		return nil, errAlreadyMember
	}

	m := &groupDatamodel.Membership{UserID: userID, GroupID: groupID, Role: dto.Role}
	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, errAlreadyMember
		}
		return nil, internal.NewInternalError("failed to add member", err)
	}

	s.logger.Info("member added", "group_id", groupID, "username", dto.Username, "role", dto.Role)
	return &Member{UserID: userID, Username: dto.Username, Role: m.Role, JoinedAt: m.CreatedAt}, nil
}

// ChangeRole sets an existing member's role. Demoting the only admin is a
// conflict.
func (s *Service) ChangeRole(ctx context.Context, groupID int64, username string, dto ChangeRoleDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	userID, found, err := s.repo.FindUserID(ctx, username)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if !found {
		return nil, internal.ErrUserNotFound
	}

	existing, err := s.repo.GetMembership(ctx, userID, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up membership", err)
	}
	if existing == nil {
		return nil, ErrMemberNotFound
	}

	if err := s.repo.UpdateRole(ctx, userID, groupID, dto.Role); err != nil {
		if errors.Is(err, ErrLastAdmin) {
			return nil, errLastAdmin
		}
		return nil, internal.NewInternalError("failed to change role", err)
	}

	s.logger.Info("member role changed", "group_id", groupID, "username", username, "from", existing.Role, "to", dto.Role)
	return &Member{UserID: userID, Username: username, Role: dto.Role, JoinedAt: existing.CreatedAt}, nil
}

func (s *Service) ListMembers(ctx context.Context, groupID int64) ([]Member, error) {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list members", err)
	}
	return members, nil
}

func (s *Service) ListUserGroups(ctx context.Context, userID int64) ([]UserGroup, error) {
	groups, err := s.repo.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list groups", err)
	}
	return groups, nil
}

// GrantPermission maps a catalog permission to the group. Granting twice is
// a no-op.
func (s *Service) GrantPermission(ctx context.Context, groupID int64, dto GrantPermissionDTO) ([]string, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	p, err := s.permissions.GetByName(ctx, dto.Permission)
	if err != nil {
		return nil, err
	}

	if err := s.repo.GrantPermission(ctx, groupID, p.ID); err != nil {
		return nil, internal.NewInternalError("failed to grant permission", err)
	}

	s.logger.Info("permission granted", "group_id", groupID, "permission", p.Name)
	return s.ListPermissions(ctx, groupID)
}

func (s *Service) RevokePermission(ctx context.Context, groupID int64, name string) ([]string, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	p, err := s.permissions.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokePermission(ctx, groupID, p.ID); err != nil {
		return nil, internal.NewInternalError("failed to revoke permission", err)
	}

	s.logger.Info("permission revoked", "group_id", groupID, "permission", p.Name)
	return s.ListPermissions(ctx, groupID)
}

func (s *Service) ListPermissions(ctx context.Context, groupID int64) ([]string, error) {
	perms, err := s.repo.ListPermissions(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list group permissions", err)
	}
	return perms, nil
}
