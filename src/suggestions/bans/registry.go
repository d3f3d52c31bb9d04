// Package bans tracks which members are barred from submitting suggestions.
// Who may ban whom (self, owner, role hierarchy) is the command layer's
// business; the registry only keeps the set consistent.
package bans

import (
	"context"
	"fmt"

	"github.com/communitykit/suggestbox/src/suggestions/locks"
	"github.com/communitykit/suggestbox/src/suggestions/types"
	"gorm.io/gorm"
)

type Registry struct {
	db *gorm.DB
	mu *locks.KeyedMutex
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db, mu: locks.NewKeyedMutex()}
}

func banKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Ban adds userID to the guild's ban set. Banning an already banned member
// is a no-op; the boolean reports whether the set changed.
func (r *Registry) Ban(ctx context.Context, guildID, userID, bannedByID string) (bool, error) {
	unlock := r.mu.Lock(banKey(guildID, userID))
	defer unlock()

	banned, err := r.isBanned(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	if banned {
		return false, nil
	}
	row := types.SuggestionBan{GuildID: guildID, UserID: userID, BannedByID: bannedByID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return false, fmt.Errorf("bans: ban: %w", err)
	}
	return true, nil
}

// Unban removes userID from the guild's ban set. The boolean reports
// whether the member was banned to begin with.
func (r *Registry) Unban(ctx context.Context, guildID, userID string) (bool, error) {
	unlock := r.mu.Lock(banKey(guildID, userID))
	defer unlock()

	res := r.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Delete(&types.SuggestionBan{})
	if res.Error != nil {
		return false, fmt.Errorf("bans: unban: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Registry) IsBanned(ctx context.Context, guildID, userID string) (bool, error) {
	return r.isBanned(ctx, guildID, userID)
}

func (r *Registry) isBanned(ctx context.Context, guildID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&types.SuggestionBan{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("bans: query: %w", err)
	}
	return count > 0, nil
}

// ListBanned returns the banned member ids for a guild, oldest ban first.
func (r *Registry) ListBanned(ctx context.Context, guildID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&types.SuggestionBan{}).
		Where("guild_id = ?", guildID).
		Order("created_at").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("bans: list: %w", err)
	}
	return ids, nil
}

// Clear empties the guild's ban set and returns how many bans were removed.
// Callers gate this behind the confirmation flow in ConfirmStore.
func (r *Registry) Clear(ctx context.Context, guildID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&types.SuggestionBan{})
	if res.Error != nil {
		return 0, fmt.Errorf("bans: clear: %w", res.Error)
	}
	return res.RowsAffected, nil
}
