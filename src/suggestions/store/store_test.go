package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/communitykit/suggestbox/src/suggestions/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return New(db)
}

func TestSettingsCreatedWithDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gs, err := s.Settings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", gs.GuildID)
	assert.Equal(t, uint64(1), gs.NextID)
	assert.True(t, gs.DeleteOnResolve)
	assert.True(t, gs.AllowAttachments)
	assert.False(t, gs.SameChannel)
	assert.Empty(t, gs.SubmissionChannelID)
}

func TestUpdateSettingsPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	updated, err := s.UpdateSettings(ctx, "g1", func(gs *types.GuildSettings) {
		gs.SubmissionChannelID = "sub"
		gs.SameChannel = true
	})
	require.NoError(t, err)
	assert.Equal(t, "sub", updated.SubmissionChannelID)

	gs, err := s.Settings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "sub", gs.SubmissionChannelID)
	assert.True(t, gs.SameChannel)
	assert.Equal(t, uint64(1), gs.NextID, "update must not disturb the counter")
}

func TestNextIDSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		id, err := s.NextID(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	// A second guild has its own counter.
	id, err := s.NextID(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestNextIDConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 30
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextID(ctx, "g1")
			if err == nil {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
	for id := uint64(1); id <= n; id++ {
		assert.True(t, seen[id], "sequence has a gap at %d", id)
	}
}

func rec(guildID string, id uint64) types.Suggestion {
	return types.Suggestion{
		GuildID:      guildID,
		SuggestionID: id,
		AuthorID:     "alice",
		AuthorName:   "alice",
		MessageID:    "msg-1",
		Body:         "an idea",
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, rec("g1", 1)))

	got, err := s.Get(ctx, "g1", 1)
	require.NoError(t, err)
	assert.Equal(t, "an idea", got.Body)
	assert.False(t, got.Finished)

	_, err = s.Get(ctx, "g1", 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "g2", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, rec("g1", 1)))
	err := s.Create(ctx, rec("g1", 1))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetHidesUnpostedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	unposted := rec("g1", 1)
	unposted.MessageID = types.MessageUnset
	require.NoError(t, s.Create(ctx, unposted))

	_, err := s.Get(ctx, "g1", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// Orphaned records are still visible.
	orphaned := rec("g1", 2)
	orphaned.MessageID = types.MessageOrphaned
	require.NoError(t, s.Create(ctx, orphaned))

	got, err := s.Get(ctx, "g1", 2)
	require.NoError(t, err)
	assert.Equal(t, types.MessageOrphaned, got.MessageID)
}

func TestMutate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, rec("g1", 1)))

	updated, err := s.Mutate(ctx, "g1", 1, func(cur *types.Suggestion) error {
		cur.Finished = true
		cur.Approved = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Finished)

	got, err := s.Get(ctx, "g1", 1)
	require.NoError(t, err)
	assert.True(t, got.Approved)
}

func TestMutateAbortsWithoutWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, rec("g1", 1)))

	boom := assert.AnError
	_, err := s.Mutate(ctx, "g1", 1, func(cur *types.Suggestion) error {
		cur.Finished = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "g1", 1)
	require.NoError(t, err)
	assert.False(t, got.Finished, "aborted mutation must not persist")
}

func TestForEachIDCoversAllocatedRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for n := 0; n < 4; n++ {
		_, err := s.NextID(ctx, "g1")
		require.NoError(t, err)
	}

	var visited []uint64
	require.NoError(t, s.ForEachID(ctx, "g1", func(id uint64) error {
		visited = append(visited, id)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2, 3, 4}, visited)
}

func TestGuildIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Settings(ctx, "g2")
	require.NoError(t, err)
	_, err = s.Settings(ctx, "g1")
	require.NoError(t, err)

	ids, err := s.GuildIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, ids)
}
