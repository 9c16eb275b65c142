package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

const messageKeyPrefix = "group:messages:"

// RedisMessageCache implements MessageCache backed by Redis.
type RedisMessageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMessageCache connects to Redis and verifies the connection.
func NewRedisMessageCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{client: client, ttl: ttl}, nil
}

// GetMessages returns the cached history for a group, or ErrCacheMiss.
func (c *RedisMessageCache) GetMessages(ctx context.Context, groupID uint) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	data, err := c.client.Get(ctx, messageKey(groupID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		l.Error().Err(err).Uint(log.FieldGroupID, groupID).Msg("failed to get messages from cache")
		return nil, err
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		l.Error().Err(err).Uint(log.FieldGroupID, groupID).Msg("failed to unmarshal cached messages")
		// Corrupt entry, drop it and treat as a miss.
		c.client.Del(ctx, messageKey(groupID))
		return nil, ErrCacheMiss
	}
	return messages, nil
}

// SetMessages stores the history for a group with the configured TTL.
func (c *RedisMessageCache) SetMessages(ctx context.Context, groupID uint, messages []domain.Message) error {
	l := log.Ctx(ctx)

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	if err := c.client.Set(ctx, messageKey(groupID), data, c.ttl).Err(); err != nil {
		l.Error().Err(err).Uint(log.FieldGroupID, groupID).Msg("failed to set messages in cache")
		return err
	}
	return nil
}

// Invalidate drops the cached history for a group.
func (c *RedisMessageCache) Invalidate(ctx context.Context, groupID uint) error {
	l := log.Ctx(ctx)

	if err := c.client.Del(ctx, messageKey(groupID)).Err(); err != nil {
		l.Error().Err(err).Uint(log.FieldGroupID, groupID).Msg("failed to invalidate messages in cache")
		return err
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}

func messageKey(groupID uint) string {
	return fmt.Sprintf("%s%d", messageKeyPrefix, groupID)
}
