package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/git-mahad/group-chat/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedUserAndGroup(t *testing.T, db *gorm.DB) (userID, groupID uint) {
	t.Helper()

	user := &domain.UserModel{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: "member"}
	require.NoError(t, db.Create(user).Error)

	group := &domain.GroupModel{Title: "general", CreatedByID: user.ID}
	require.NoError(t, db.Create(group).Error)

	return user.ID, group.ID
}

func TestMembershipUniquePerGroupAndUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMembershipRepository(db)
	ctx := context.Background()

	userID, groupID := seedUserAndGroup(t, db)

	require.NoError(t, repo.Add(ctx, groupID, userID))
	assert.ErrorIs(t, repo.Add(ctx, groupID, userID), ErrDuplicateMembership)

	exists, err := repo.Exists(ctx, groupID, userID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMembershipRemove(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMembershipRepository(db)
	ctx := context.Background()

	userID, groupID := seedUserAndGroup(t, db)

	assert.ErrorIs(t, repo.Remove(ctx, groupID, userID), ErrMembershipNotFound)

	require.NoError(t, repo.Add(ctx, groupID, userID))
	require.NoError(t, repo.Remove(ctx, groupID, userID))

	exists, err := repo.Exists(ctx, groupID, userID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.UserModel{
		Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: "member",
	}))
	err := repo.Create(ctx, &domain.UserModel{
		Name: "Clone", Email: "alice@example.com", PasswordHash: "y", Role: "member",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}
