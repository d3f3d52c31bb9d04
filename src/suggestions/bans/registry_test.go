package bans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/communitykit/suggestbox/src/suggestions/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&types.SuggestionBan{}))
	return NewRegistry(db)
}

func TestBanUnbanRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	banned, err := r.IsBanned(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.False(t, banned)

	added, err := r.Ban(ctx, "g1", "alice", "mod")
	require.NoError(t, err)
	assert.True(t, added)

	banned, err = r.IsBanned(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.True(t, banned)

	// Second ban is a no-op.
	added, err = r.Ban(ctx, "g1", "alice", "mod")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := r.Unban(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Unban(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.False(t, removed, "unbanning twice reports no change")
}

func TestBansAreScopedPerGuild(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Ban(ctx, "g1", "alice", "mod")
	require.NoError(t, err)

	banned, err := r.IsBanned(ctx, "g2", "alice")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestListBanned(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	ids, err := r.ListBanned(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, user := range []string{"alice", "bob", "carol"} {
		_, err := r.Ban(ctx, "g1", user, "mod")
		require.NoError(t, err)
	}
	_, err = r.Ban(ctx, "g2", "dave", "mod")
	require.NoError(t, err)

	ids, err = r.ListBanned(ctx, "g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, ids)
}

func TestClear(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, user := range []string{"alice", "bob"} {
		_, err := r.Ban(ctx, "g1", user, "mod")
		require.NoError(t, err)
	}
	_, err := r.Ban(ctx, "g2", "carol", "mod")
	require.NoError(t, err)

	n, err := r.Clear(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := r.ListBanned(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// The other guild keeps its bans.
	banned, err := r.IsBanned(ctx, "g2", "carol")
	require.NoError(t, err)
	assert.True(t, banned)

	n, err = r.Clear(ctx, "g1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
