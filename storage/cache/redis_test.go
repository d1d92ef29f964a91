package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfq-match/types"
)

// fakeRedis 内存版，只记录 key -> value
type fakeRedis struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestMatchCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewMatchCache(rdb, 5*time.Minute, zap.NewNop())

	_, ok, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	matches := []types.StoredMatch{{
		DocumentID:     "doc-1",
		Rank:           1,
		SupplierID:     "sup-a",
		CompositeScore: 0.91,
		StrategyScores: map[string]float64{"compliance": 1},
	}}
	require.NoError(t, c.Set(ctx, "doc-1", matches))
	assert.Equal(t, 5*time.Minute, rdb.ttls["rfq:matches:doc-1"])

	got, ok, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sup-a", got[0].SupplierID)
	assert.Equal(t, 1.0, got[0].StrategyScores["compliance"])

	require.NoError(t, c.Invalidate(ctx, "doc-1"))
	_, ok, err = c.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchCache_CorruptEntryIsMiss(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["rfq:matches:doc-1"] = []byte("{not json")
	c := NewMatchCache(rdb, time.Minute, zap.NewNop())

	got, ok, err := c.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMatchCache_BackendError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	c := NewMatchCache(rdb, time.Minute, zap.NewNop())

	_, ok, err := c.Get(context.Background(), "doc-1")
	assert.Error(t, err)
	assert.False(t, ok)
}
