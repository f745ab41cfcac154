package clipboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(client)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestTracker_MarkAndExpire(t *testing.T) {
	tr, now := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.MarkCopied(ctx, "alice", "code-1"))
	copied, err := tr.Copied(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, copied["code-1"])

	*now = now.Add(1999 * time.Millisecond)
	copied, err = tr.Copied(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, copied["code-1"])

	*now = now.Add(time.Millisecond)
	copied, err = tr.Copied(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, copied["code-1"])
}

func TestTracker_IndependentMarks(t *testing.T) {
	tr, now := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.MarkCopied(ctx, "alice", "code-1"))
	*now = now.Add(time.Second)
	require.NoError(t, tr.MarkCopied(ctx, "alice", AllID))
	*now = now.Add(1500 * time.Millisecond)

	copied, err := tr.Copied(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, copied["code-1"])
	assert.True(t, copied[AllID])

	other, err := tr.Copied(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTracker_Reset(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.MarkCopied(ctx, "alice", "code-1"))
	require.NoError(t, tr.Reset(ctx, "alice"))

	copied, err := tr.Copied(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, copied)
}
