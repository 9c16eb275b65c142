package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/pkg/jwt"
	"github.com/git-mahad/group-chat/pkg/log"
)

const bcryptCost = 10

// DefaultAuthService implements AuthService over the user repository and a
// JWT manager.
type DefaultAuthService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens *jwt.Manager) *DefaultAuthService {
	return &DefaultAuthService{users: users, tokens: tokens}
}

// Register creates a new account. The role defaults to member unless the
// request asks for admin.
func (s *DefaultAuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	l := log.Ctx(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = string(domain.RoleMember)
	}

	model := &domain.UserModel{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, model); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	l.Info().Uint(log.FieldUserID, model.ID).Msg("user registered")
	return model.ToDomain(), nil
}

// Login verifies credentials and issues an access token.
func (s *DefaultAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	model, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(model.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(model.ID, model.Email, model.Name, model.Role)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, model.ID).Msg("failed to generate access token")
		return nil, err
	}

	l.Info().Uint(log.FieldUserID, model.ID).Msg("user logged in")
	return &domain.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        *model.ToDomain(),
	}, nil
}

// Resolve validates a token and confirms the account behind it still exists.
// The role comes from the database, not the token, so a role change takes
// effect without waiting for token expiry.
func (s *DefaultAuthService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return domain.Identity{}, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.Identity{}, jwt.ErrInvalidToken
		}
		return domain.Identity{}, err
	}

	return domain.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}
