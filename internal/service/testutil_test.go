package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/pkg/jwt"
)

type testEnv struct {
	db     *gorm.DB
	auth   *DefaultAuthService
	groups *DefaultGroupService
	chat   *DefaultChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.UserModel{},
		&domain.GroupModel{},
		&domain.MembershipModel{},
		&domain.MessageModel{},
	))

	userRepo := repository.NewGormUserRepository(db)
	groupRepo := repository.NewGormGroupRepository(db)
	membershipRepo := repository.NewGormMembershipRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	tokens := jwt.NewManager("test-secret", time.Hour, "test")

	return &testEnv{
		db:     db,
		auth:   NewAuthService(userRepo, tokens),
		groups: NewGroupService(groupRepo, membershipRepo),
		chat:   NewChatService(messageRepo, membershipRepo, nil),
	}
}

func (e *testEnv) registerUser(t *testing.T, name, email, role string) domain.Identity {
	t.Helper()
	user, err := e.auth.Register(context.Background(), &domain.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return domain.Identity{UserID: user.ID, Name: user.Name, Role: user.Role}
}

func (e *testEnv) createGroup(t *testing.T, admin domain.Identity, title string) *domain.Group {
	t.Helper()
	group, err := e.groups.CreateGroup(context.Background(), admin, &domain.CreateGroupRequest{
		Title: title,
	})
	require.NoError(t, err)
	return group
}
