package service

import (
	"context"
	"errors"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/pkg/log"
)

// DefaultGroupService implements GroupService over the group and membership
// repositories.
type DefaultGroupService struct {
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
}

// NewGroupService creates a new group service.
func NewGroupService(groups repository.GroupRepository, memberships repository.MembershipRepository) *DefaultGroupService {
	return &DefaultGroupService{groups: groups, memberships: memberships}
}

// CreateGroup creates a group and enrolls the creator as its first member.
// Only admins may create groups.
func (s *DefaultGroupService) CreateGroup(ctx context.Context, actor domain.Identity, req *domain.CreateGroupRequest) (*domain.Group, error) {
	l := log.Ctx(ctx)

	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	model := &domain.GroupModel{
		Title:       req.Title,
		Description: req.Description,
		CreatedByID: actor.UserID,
	}
	if err := s.groups.Create(ctx, model); err != nil {
		return nil, err
	}

	if err := s.memberships.Add(ctx, model.ID, actor.UserID); err != nil {
		l.Error().Err(err).Uint(log.FieldGroupID, model.ID).Msg("failed to enroll creator in new group")
		return nil, err
	}

	l.Info().
		Uint(log.FieldGroupID, model.ID).
		Uint(log.FieldUserID, actor.UserID).
		Msg("group created")
	return s.groups.GetByID(ctx, model.ID)
}

// GetGroup retrieves a group by id.
func (s *DefaultGroupService) GetGroup(ctx context.Context, id uint) (*domain.Group, error) {
	return s.groups.GetByID(ctx, id)
}

// ListGroups retrieves all groups.
func (s *DefaultGroupService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// ListUserGroups retrieves the groups a user belongs to.
func (s *DefaultGroupService) ListUserGroups(ctx context.Context, userID uint) ([]domain.Group, error) {
	return s.groups.ListByMember(ctx, userID)
}

// JoinGroup enrolls the actor in a group. Joining twice is a conflict, not a
// no-op.
func (s *DefaultGroupService) JoinGroup(ctx context.Context, actor domain.Identity, groupID uint) error {
	l := log.Ctx(ctx)

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return err
	}

	if err := s.memberships.Add(ctx, groupID, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrDuplicateMembership) {
			return ErrAlreadyMember
		}
		return err
	}

	l.Info().
		Uint(log.FieldGroupID, groupID).
		Uint(log.FieldUserID, actor.UserID).
		Msg("user joined group")
	return nil
}

// LeaveGroup removes the actor's membership. The creator is pinned to their
// group and must delete it instead.
func (s *DefaultGroupService) LeaveGroup(ctx context.Context, actor domain.Identity, groupID uint) error {
	l := log.Ctx(ctx)

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedByID == actor.UserID {
		return ErrCreatorCannotLeave
	}

	if err := s.memberships.Remove(ctx, groupID, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return ErrNotMember
		}
		return err
	}

	l.Info().
		Uint(log.FieldGroupID, groupID).
		Uint(log.FieldUserID, actor.UserID).
		Msg("user left group")
	return nil
}

// DeleteGroup removes a group with its memberships and messages. The actor
// must be an admin and the group's creator.
func (s *DefaultGroupService) DeleteGroup(ctx context.Context, actor domain.Identity, groupID uint) error {
	l := log.Ctx(ctx)

	if !actor.IsAdmin() {
		return ErrNotAdmin
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedByID != actor.UserID {
		return ErrNotCreator
	}

	if err := s.groups.Delete(ctx, groupID); err != nil {
		return err
	}

	l.Info().Uint(log.FieldGroupID, groupID).Msg("group deleted")
	return nil
}

// IsMember checks whether a user holds standing membership in a group.
func (s *DefaultGroupService) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	return s.memberships.Exists(ctx, groupID, userID)
}
