// Package cache provides a Redis-backed external-id cache for the resolver.
// It stores only the mapping from external identifier to player id; the
// resolver re-reads the player row on every hit, so stale cache entries can
// never resurrect a deactivated player.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dugout/internal/platform/redis"
	"dugout/internal/player/models"
	id "dugout/pkg/domain"
)

type ExternalID struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewExternalID wraps the given client. A nil client yields a cache on
// which every Get misses and every Set is a no-op.
func NewExternalID(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ExternalID {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalID{client: client, ttl: ttl, logger: logger}
}

func (c *ExternalID) Get(ctx context.Context, system models.ExternalSystem, value string) (id.PlayerID, bool) {
	if c.client == nil {
		return id.PlayerID{}, false
	}
	raw, err := c.client.Get(ctx, key(system, value)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.WarnContext(ctx, "resolver cache read failed", "error", err)
		}
		return id.PlayerID{}, false
	}
	playerID, err := id.ParsePlayerID(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "resolver cache held malformed player id", "key", key(system, value))
		return id.PlayerID{}, false
	}
	return playerID, true
}

func (c *ExternalID) Set(ctx context.Context, system models.ExternalSystem, value string, playerID id.PlayerID) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(system, value), playerID.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "resolver cache write failed", "error", err)
	}
}

func key(system models.ExternalSystem, value string) string {
	return fmt.Sprintf("dugout:extid:%s:%s", system, value)
}
