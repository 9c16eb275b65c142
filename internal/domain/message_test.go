package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "valid message",
			content: "hello everyone",
			wantErr: nil,
		},
		{
			name:    "empty message",
			content: "",
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "exactly max length",
			content: strings.Repeat("a", MaxMessageLength),
			wantErr: nil,
		},
		{
			name:    "one over max length",
			content: strings.Repeat("a", MaxMessageLength+1),
			wantErr: ErrMessageTooLong,
		},
		{
			name:    "multibyte runes counted as characters not bytes",
			content: strings.Repeat("日", MaxMessageLength),
			wantErr: nil,
		},
		{
			name:    "multibyte runes over limit",
			content: strings.Repeat("日", MaxMessageLength+1),
			wantErr: ErrMessageTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageContent(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionIdentityLifecycle(t *testing.T) {
	s := NewSession("conn-1")

	_, ok := s.Identity()
	assert.False(t, ok, "fresh session must not be authenticated")

	s.Authenticate(Identity{UserID: 7, Name: "alice", Role: RoleMember})

	id, ok := s.Identity()
	assert.True(t, ok)
	assert.Equal(t, uint(7), id.UserID)
	assert.Equal(t, "alice", id.Name)
	assert.False(t, id.IsAdmin())
}
