package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTripAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	type payload struct {
		Count int `json:"count"`
	}

	var got payload
	assert.ErrorIs(t, GetJSON(ctx, rdb, "missing", &got), ErrMiss)

	require.NoError(t, SetJSON(ctx, rdb, "k", payload{Count: 3}, time.Minute))
	require.NoError(t, GetJSON(ctx, rdb, "k", &got))
	assert.Equal(t, 3, got.Count)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, GetJSON(ctx, rdb, "k", &got), ErrMiss)
}

func TestGlobalClientHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	ctx := context.Background()

	require.NoError(t, Set(ctx, "a", "1", 0))
	v, err := Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, Delete(ctx, "a"))
	_, err = Get(ctx, "a")
	assert.ErrorIs(t, err, redis.Nil)
}
