package groups

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/topichub/internal/pubsub"
)

// runGroupsContract checks the behaviour every Groups implementation shares.
func runGroupsContract(t *testing.T, g Groups) {
	ctx := context.Background()

	t.Run("unknown group", func(t *testing.T) {
		exists, err := g.Exists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, exists)

		members, err := g.Members(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, members)

		assert.NoError(t, g.Delete(ctx, "ghost"), "deleting an unknown group succeeds")
		assert.NoError(t, g.Leave(ctx, "ghost", "a"), "leaving an unknown group is a no-op")
	})

	t.Run("join requires group", func(t *testing.T) {
		assert.ErrorIs(t, g.Join(ctx, "nogroup", "a"), ErrNoGroup)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		require.NoError(t, g.Create(ctx, "twice"))
		require.NoError(t, g.Create(ctx, "twice"))

		exists, err := g.Exists(ctx, "twice")
		require.NoError(t, err)
		assert.True(t, exists)

		all, err := g.All(ctx)
		require.NoError(t, err)
		count := 0
		for _, k := range all {
			if k == "twice" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("membership", func(t *testing.T) {
		require.NoError(t, g.Create(ctx, "room"))
		require.NoError(t, g.Join(ctx, "room", "a"))
		require.NoError(t, g.Join(ctx, "room", "a"))
		require.NoError(t, g.Join(ctx, "room", "b"))

		members, err := g.Members(ctx, "room")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, members)

		assert.ErrorIs(t, g.Delete(ctx, "room"), ErrNotEmpty)
		exists, err := g.Exists(ctx, "room")
		require.NoError(t, err)
		assert.True(t, exists, "failed delete leaves the group in place")

		require.NoError(t, g.Leave(ctx, "room", "a"))
		require.NoError(t, g.Leave(ctx, "room", "a"))
		require.NoError(t, g.Leave(ctx, "room", "b"))

		members, err = g.Members(ctx, "room")
		require.NoError(t, err)
		assert.Empty(t, members)

		exists, err = g.Exists(ctx, "room")
		require.NoError(t, err)
		assert.True(t, exists, "an empty group still exists")

		require.NoError(t, g.Delete(ctx, "room"))
		exists, err = g.Exists(ctx, "room")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestMemory(t *testing.T) {
	runGroupsContract(t, NewMemory())
}

func TestReplicated_SingleNode(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	r := NewReplicated("node-a", bus)
	require.NoError(t, r.Start(context.Background()))

	runGroupsContract(t, r)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("TOPICHUB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TOPICHUB_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := ConnectRedis(ctx, url, 3, 100*time.Millisecond)
	require.NoError(t, err)
	defer client.Close()

	runGroupsContract(t, NewRedis(client, "topichub-test:"+uuid.NewString()+":"))
}

func TestConnectRedis_EmptyURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "", 1, time.Millisecond)
	assert.ErrorIs(t, err, ErrEmptyRedisURL)
}

func TestConnectRedis_BadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "http://not-redis", 1, time.Millisecond)
	assert.Error(t, err)
}
