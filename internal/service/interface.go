package service

import (
	"context"
	"errors"

	"github.com/git-mahad/group-chat/internal/domain"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrNotAdmin           = errors.New("admin role required")
	ErrAlreadyMember      = errors.New("user is already a member of this group")
	ErrNotMember          = errors.New("user is not a member of this group")
	ErrCreatorCannotLeave = errors.New("group creator cannot leave the group")
	ErrNotCreator         = errors.New("only the group creator can delete the group")

	ErrNotMessageSender = errors.New("only the sender can delete a message")
)

// AuthService handles account registration and credential resolution.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	// Resolve validates an access token and returns the actor identity it
	// names, confirming the account still exists.
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// GroupService handles group lifecycle and membership.
type GroupService interface {
	CreateGroup(ctx context.Context, actor domain.Identity, req *domain.CreateGroupRequest) (*domain.Group, error)
	GetGroup(ctx context.Context, id uint) (*domain.Group, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	ListUserGroups(ctx context.Context, userID uint) ([]domain.Group, error)
	JoinGroup(ctx context.Context, actor domain.Identity, groupID uint) error
	LeaveGroup(ctx context.Context, actor domain.Identity, groupID uint) error
	DeleteGroup(ctx context.Context, actor domain.Identity, groupID uint) error
	// IsMember checks standing membership, the authorization gate for
	// sending into a group.
	IsMember(ctx context.Context, groupID, userID uint) (bool, error)
}

// ChatService handles message creation, history and deletion.
type ChatService interface {
	CreateMessage(ctx context.Context, actor domain.Identity, groupID uint, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, actor domain.Identity, groupID uint) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, actor domain.Identity, messageID uint) error
}
