package data

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	err := PublishEvent(ctx, rdb, map[string]interface{}{
		"event": "lawsuit.created",
		"guild": "guild-1",
	})
	require.NoError(t, err)

	entries, err := rdb.XRange(ctx, eventStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lawsuit.created", entries[0].Values["event"])
	assert.Equal(t, "guild-1", entries[0].Values["guild"])
}
