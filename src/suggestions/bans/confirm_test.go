package bans

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfirmStore(t *testing.T) (*ConfirmStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewConfirmStore(rdb), mr
}

func TestConfirmConsumeOnce(t *testing.T) {
	cs, _ := newTestConfirmStore(t)
	ctx := context.Background()

	require.NoError(t, cs.Begin(ctx, "g1", "mod"))

	pending, err := cs.Consume(ctx, "g1", "mod")
	require.NoError(t, err)
	assert.True(t, pending)

	// Consumed: a second press finds nothing.
	pending, err = cs.Consume(ctx, "g1", "mod")
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestConfirmExpires(t *testing.T) {
	cs, mr := newTestConfirmStore(t)
	ctx := context.Background()

	require.NoError(t, cs.Begin(ctx, "g1", "mod"))
	mr.FastForward(ClearConfirmWindow + time.Second)

	pending, err := cs.Consume(ctx, "g1", "mod")
	require.NoError(t, err)
	assert.False(t, pending, "an expired confirmation must not clear anything")
}

func TestConfirmScopedToModerator(t *testing.T) {
	cs, _ := newTestConfirmStore(t)
	ctx := context.Background()

	require.NoError(t, cs.Begin(ctx, "g1", "mod-a"))

	pending, err := cs.Consume(ctx, "g1", "mod-b")
	require.NoError(t, err)
	assert.False(t, pending, "another moderator's press must not consume the token")

	pending, err = cs.Consume(ctx, "g1", "mod-a")
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestConfirmCancel(t *testing.T) {
	cs, _ := newTestConfirmStore(t)
	ctx := context.Background()

	require.NoError(t, cs.Begin(ctx, "g1", "mod"))
	require.NoError(t, cs.Cancel(ctx, "g1", "mod"))

	pending, err := cs.Consume(ctx, "g1", "mod")
	require.NoError(t, err)
	assert.False(t, pending)
}
