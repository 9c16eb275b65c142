package cache

import (
	"context"
	"errors"

	"github.com/git-mahad/group-chat/internal/domain"
)

// ErrCacheMiss indicates the requested entry is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// MessageCache caches a group's message history so repeated reads do not hit
// the database. Entries are invalidated whenever the group's history changes.
type MessageCache interface {
	GetMessages(ctx context.Context, groupID uint) ([]domain.Message, error)
	SetMessages(ctx context.Context, groupID uint, messages []domain.Message) error
	Invalidate(ctx context.Context, groupID uint) error
	Close() error
}
