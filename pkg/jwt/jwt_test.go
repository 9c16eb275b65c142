package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "test-issuer")

	token, expiresAt, err := m.Generate(42, "alice@example.com", "Alice", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m1 := NewManager("secret-one", time.Hour, "issuer")
	m2 := NewManager("secret-two", time.Hour, "issuer")

	token, _, err := m1.Generate(1, "a@b.c", "A", "member")
	require.NoError(t, err)

	_, err = m2.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret", -time.Minute, "issuer")

	token, _, err := m.Generate(1, "a@b.c", "A", "member")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("secret", time.Hour, "issuer")

	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
