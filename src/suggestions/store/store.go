// Package store owns all suggestion state: per-guild settings (including the
// id counter) and suggestion records. Every read is a fresh fetch and every
// write goes through this package, which is the single lock boundary.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/communitykit/suggestbox/src/suggestions/locks"
	"github.com/communitykit/suggestbox/src/suggestions/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned for suggestions that were never created or
	// never made it to a channel.
	ErrNotFound = errors.New("suggestion not found")
	// ErrAlreadyExists signals an id was handed out twice. That breaks the
	// allocator invariant and is never surfaced to users.
	ErrAlreadyExists = errors.New("suggestion already exists")
)

type Store struct {
	db      *gorm.DB
	guildMu *locks.KeyedMutex
	recMu   *locks.KeyedMutex
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		guildMu: locks.NewKeyedMutex(),
		recMu:   locks.NewKeyedMutex(),
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.GuildSettings{},
		&types.Suggestion{},
		&types.SuggestionBan{},
	)
}

func recKey(guildID string, id uint64) string {
	return fmt.Sprintf("%s:%d", guildID, id)
}

// Settings returns the guild's settings, creating the row with defaults on
// first access.
func (s *Store) Settings(ctx context.Context, guildID string) (types.GuildSettings, error) {
	unlock := s.guildMu.Lock(guildID)
	defer unlock()
	return s.loadSettings(ctx, guildID)
}

func (s *Store) loadSettings(ctx context.Context, guildID string) (types.GuildSettings, error) {
	var gs types.GuildSettings
	err := s.db.WithContext(ctx).First(&gs, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		gs = types.DefaultGuildSettings(guildID)
		// Another instance may have raced us to the insert.
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&gs).Error
		if err == nil {
			err = s.db.WithContext(ctx).First(&gs, "guild_id = ?", guildID).Error
		}
	}
	if err != nil {
		return types.GuildSettings{}, fmt.Errorf("store: load settings: %w", err)
	}
	return gs, nil
}

// UpdateSettings applies fn to the guild's settings under the guild lock.
func (s *Store) UpdateSettings(ctx context.Context, guildID string, fn func(*types.GuildSettings)) (types.GuildSettings, error) {
	unlock := s.guildMu.Lock(guildID)
	defer unlock()

	gs, err := s.loadSettings(ctx, guildID)
	if err != nil {
		return types.GuildSettings{}, err
	}
	fn(&gs)
	gs.GuildID = guildID
	if err := s.db.WithContext(ctx).Save(&gs).Error; err != nil {
		return types.GuildSettings{}, fmt.Errorf("store: save settings: %w", err)
	}
	return gs, nil
}

// NextID allocates the next suggestion id for the guild. The read, the
// increment and the write-back happen under the guild lock inside one
// transaction, so concurrent submissions never observe the same value.
func (s *Store) NextID(ctx context.Context, guildID string) (uint64, error) {
	unlock := s.guildMu.Lock(guildID)
	defer unlock()

	gs, err := s.loadSettings(ctx, guildID)
	if err != nil {
		return 0, err
	}

	id := gs.NextID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&types.GuildSettings{}).
			Where("guild_id = ?", guildID).
			Update("next_id", id+1).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: advance next_id: %w", err)
	}
	return id, nil
}

// Create inserts a new suggestion record. A duplicate key is an allocator
// invariant violation, reported as ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, rec types.Suggestion) error {
	unlock := s.recMu.Lock(recKey(rec.GuildID, rec.SuggestionID))
	defer unlock()

	var count int64
	err := s.db.WithContext(ctx).Model(&types.Suggestion{}).
		Where("guild_id = ? AND suggestion_id = ?", rec.GuildID, rec.SuggestionID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("store: create: %w", err)
	}
	if count > 0 {
		return ErrAlreadyExists
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("store: create: %w", err)
	}
	return nil
}

// Get fetches a suggestion. Records that were never posted do not exist as
// far as callers are concerned.
func (s *Store) Get(ctx context.Context, guildID string, id uint64) (types.Suggestion, error) {
	var rec types.Suggestion
	err := s.db.WithContext(ctx).
		First(&rec, "guild_id = ? AND suggestion_id = ?", guildID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Suggestion{}, ErrNotFound
	}
	if err != nil {
		return types.Suggestion{}, fmt.Errorf("store: get: %w", err)
	}
	if !rec.Posted() {
		return types.Suggestion{}, ErrNotFound
	}
	return rec, nil
}

// Mutate applies fn to the current record and writes the result back,
// serialized per (guild, id). fn returning an error aborts with no write.
func (s *Store) Mutate(ctx context.Context, guildID string, id uint64, fn func(*types.Suggestion) error) (types.Suggestion, error) {
	unlock := s.recMu.Lock(recKey(guildID, id))
	defer unlock()

	rec, err := s.Get(ctx, guildID, id)
	if err != nil {
		return types.Suggestion{}, err
	}
	if err := fn(&rec); err != nil {
		return types.Suggestion{}, err
	}
	rec.GuildID = guildID
	rec.SuggestionID = id
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return types.Suggestion{}, fmt.Errorf("store: mutate: %w", err)
	}
	return rec, nil
}

// WithResolveLock runs fn while holding the record lock for (guild, id).
// Resolution uses it to make the finished-check and the terminal write one
// unit; fn must not call Create or Mutate on the same key.
func (s *Store) WithResolveLock(guildID string, id uint64, fn func() error) error {
	unlock := s.recMu.Lock("resolve:" + recKey(guildID, id))
	defer unlock()
	return fn()
}

// Save writes a record without going through Mutate. Callers must hold the
// resolve lock for the key.
func (s *Store) Save(ctx context.Context, rec types.Suggestion) error {
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// ForEachID calls fn with every suggestion id ever allocated for the guild,
// in order. Used by the erasure sweep.
func (s *Store) ForEachID(ctx context.Context, guildID string, fn func(id uint64) error) error {
	gs, err := s.Settings(ctx, guildID)
	if err != nil {
		return err
	}
	for id := uint64(1); id < gs.NextID; id++ {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// GuildIDs lists every guild with a settings row.
func (s *Store) GuildIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&types.GuildSettings{}).
		Order("guild_id").Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("store: guild ids: %w", err)
	}
	return ids, nil
}
