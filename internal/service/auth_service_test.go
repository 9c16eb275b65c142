package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-mahad/group-chat/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, &domain.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.RoleMember, user.Role, "role defaults to member")

	auth, err := env.auth.Login(ctx, &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, user.ID, auth.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, &domain.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, &domain.RegisterRequest{
		Name: "Alice Again", Email: "alice@example.com", Password: "other456",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "Alice", "alice@example.com", "")

	_, err := env.auth.Login(ctx, &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "Alice", "alice@example.com", string(domain.RoleAdmin))
	auth, err := env.auth.Login(ctx, &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	identity, err := env.auth.Resolve(ctx, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, identity.UserID)
	assert.Equal(t, "Alice", identity.Name)
	assert.True(t, identity.IsAdmin())

	_, err = env.auth.Resolve(ctx, "garbage-token")
	assert.Error(t, err)
}
