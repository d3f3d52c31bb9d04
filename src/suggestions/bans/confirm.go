package bans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	clearPrefix = "suggestbox:clearbans:"
	// ClearConfirmWindow is how long a clear-bans confirmation stays valid.
	ClearConfirmWindow = 30 * time.Second
)

// ConfirmStore holds pending clear-bans confirmations in Redis. A pending
// entry expires after ClearConfirmWindow; an expired or missing entry means
// the clear is aborted with no mutation.
type ConfirmStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConfirmStore(rdb *redis.Client) *ConfirmStore {
	return &ConfirmStore{rdb: rdb, ttl: ClearConfirmWindow}
}

func clearKey(guildID, moderatorID string) string {
	return clearPrefix + guildID + ":" + moderatorID
}

// Begin records that moderatorID asked to clear the guild's bans.
func (c *ConfirmStore) Begin(ctx context.Context, guildID, moderatorID string) error {
	if err := c.rdb.Set(ctx, clearKey(guildID, moderatorID), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("bans: begin clear confirmation: %w", err)
	}
	return nil
}

// Consume takes the pending confirmation, if any. It returns false when the
// window has expired or no clear was requested.
func (c *ConfirmStore) Consume(ctx context.Context, guildID, moderatorID string) (bool, error) {
	err := c.rdb.GetDel(ctx, clearKey(guildID, moderatorID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bans: consume clear confirmation: %w", err)
	}
	return true, nil
}

// Cancel drops a pending confirmation without clearing anything.
func (c *ConfirmStore) Cancel(ctx context.Context, guildID, moderatorID string) error {
	if err := c.rdb.Del(ctx, clearKey(guildID, moderatorID)).Err(); err != nil {
		return fmt.Errorf("bans: cancel clear confirmation: %w", err)
	}
	return nil
}
