package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/git-mahad/group-chat/internal/cache"
	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/pkg/log"
)

// DefaultChatService implements ChatService. A nil cache disables history
// caching without changing behavior.
type DefaultChatService struct {
	messages    repository.MessageRepository
	memberships repository.MembershipRepository
	cache       cache.MessageCache
	group       singleflight.Group
}

// NewChatService creates a new chat service. cache may be nil.
func NewChatService(messages repository.MessageRepository, memberships repository.MembershipRepository, msgCache cache.MessageCache) *DefaultChatService {
	return &DefaultChatService{
		messages:    messages,
		memberships: memberships,
		cache:       msgCache,
	}
}

// CreateMessage validates and persists a message. Both the REST path and the
// gateway sendMessage command go through here, so the membership gate and
// content rules hold on either surface.
func (s *DefaultChatService) CreateMessage(ctx context.Context, actor domain.Identity, groupID uint, content string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if err := domain.ValidateMessageContent(content); err != nil {
		return nil, err
	}

	// Membership is checked for everyone, admins included. Reading a group
	// is privileged; speaking into it is not.
	member, err := s.memberships.Exists(ctx, groupID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	model := &domain.MessageModel{
		Content:  content,
		SenderID: actor.UserID,
		GroupID:  groupID,
	}
	msg, err := s.messages.Append(ctx, model)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, groupID)

	l.Debug().
		Uint(log.FieldMessageID, msg.ID).
		Uint(log.FieldGroupID, groupID).
		Uint(log.FieldUserID, actor.UserID).
		Msg("message created")
	return msg, nil
}

// ListMessages returns a group's history in creation order. Members and
// admins may read; everyone else gets ErrNotMember.
func (s *DefaultChatService) ListMessages(ctx context.Context, actor domain.Identity, groupID uint) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	if !actor.IsAdmin() {
		member, err := s.memberships.Exists(ctx, groupID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotMember
		}
	}

	if s.cache != nil {
		cached, err := s.cache.GetMessages(ctx, groupID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Uint(log.FieldGroupID, groupID).Msg("message cache read failed, falling back to db")
		}
	}

	// Collapse concurrent misses for the same group into one db query.
	key := fmt.Sprintf("messages:%d", groupID)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		messages, err := s.messages.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetMessages(ctx, groupID, messages); err != nil {
				l.Warn().Err(err).Uint(log.FieldGroupID, groupID).Msg("message cache write failed")
			}
		}
		return messages, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Message), nil
}

// DeleteMessage removes a message. Only the original sender may delete it,
// regardless of role.
func (s *DefaultChatService) DeleteMessage(ctx context.Context, actor domain.Identity, messageID uint) error {
	l := log.Ctx(ctx)

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actor.UserID {
		return ErrNotMessageSender
	}

	if err := s.messages.Remove(ctx, messageID); err != nil {
		return err
	}

	s.invalidate(ctx, msg.GroupID)

	l.Info().
		Uint(log.FieldMessageID, messageID).
		Uint(log.FieldGroupID, msg.GroupID).
		Msg("message deleted")
	return nil
}

func (s *DefaultChatService) invalidate(ctx context.Context, groupID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, groupID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Uint(log.FieldGroupID, groupID).Msg("message cache invalidation failed")
	}
}
