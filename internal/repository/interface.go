package repository

import (
	"context"
	"errors"

	"github.com/git-mahad/group-chat/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrGroupNotFound       = errors.New("group not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("membership already exists")
	ErrMessageNotFound     = errors.New("message not found")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.UserModel) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	// GetByEmail returns the raw model including the password hash; it is
	// only for credential verification.
	GetByEmail(ctx context.Context, email string) (*domain.UserModel, error)
}

// GroupRepository defines the interface for group persistence.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.GroupModel) error
	GetByID(ctx context.Context, id uint) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	ListByMember(ctx context.Context, userID uint) ([]domain.Group, error)
	// Delete removes the group and cascades to its memberships and messages.
	Delete(ctx context.Context, id uint) error
}

// MembershipRepository is the authoritative (group, user) mapping queried by
// both the REST and gateway paths on every send/read.
type MembershipRepository interface {
	Exists(ctx context.Context, groupID, userID uint) (bool, error)
	Add(ctx context.Context, groupID, userID uint) error
	Remove(ctx context.Context, groupID, userID uint) error
}

// MessageRepository defines the append-only message store.
type MessageRepository interface {
	// Append persists the message and returns it with the sender resolved.
	Append(ctx context.Context, msg *domain.MessageModel) (*domain.Message, error)
	GetByID(ctx context.Context, id uint) (*domain.Message, error)
	Remove(ctx context.Context, id uint) error
	ListByGroup(ctx context.Context, groupID uint) ([]domain.Message, error)
}
