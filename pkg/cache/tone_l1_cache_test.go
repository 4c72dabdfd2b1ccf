package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestL1Cache_TTL(t *testing.T) {
	c := NewL1Cache(&L1Config{MaxItems: 10, DefaultTTL: time.Minute})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", item{Name: "a"}, time.Hour))

	var got item
	ok, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Name)

	// the hour TTL was capped at a minute
	now = now.Add(61 * time.Second)
	ok, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestL1Cache_LRUEviction(t *testing.T) {
	c := NewL1Cache(&L1Config{MaxItems: 2, DefaultTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "a", item{Name: "a"}, 0))
	require.NoError(t, c.SetJSON(ctx, "b", item{Name: "b"}, 0))

	var got item
	ok, _ := c.GetJSON(ctx, "a", &got)
	require.True(t, ok)

	require.NoError(t, c.SetJSON(ctx, "c", item{Name: "c"}, 0))
	assert.Equal(t, 2, c.Len())

	ok, _ = c.GetJSON(ctx, "b", &got)
	assert.False(t, ok, "least recently used entry is evicted")
	ok, _ = c.GetJSON(ctx, "a", &got)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "a"))
	ok, _ = c.GetJSON(ctx, "a", &got)
	assert.False(t, ok)
}

type failingStore struct{ *memStore }

func (failingStore) GetJSON(context.Context, string, any) (bool, error) {
	return false, errors.New("l2 down")
}

func TestTieredStore(t *testing.T) {
	ctx := context.Background()
	l1 := NewL1Cache(nil)
	l2 := newMemStore()
	tiered := NewTieredStore(l1, l2)

	require.NoError(t, l2.SetJSON(ctx, "k", item{Name: "from-l2"}, time.Minute))

	var got item
	ok, err := tiered.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-l2", got.Name)
	assert.Equal(t, 1, l1.Len(), "l2 hit back-fills l1")

	require.NoError(t, tiered.Delete(ctx, "k"))
	assert.Zero(t, l1.Len())
	_, stillInL2 := l2.data["k"]
	assert.False(t, stillInL2)

	broken := NewTieredStore(NewL1Cache(nil), failingStore{newMemStore()})
	ok, err = broken.GetJSON(ctx, "k", &got)
	assert.Error(t, err)
	assert.False(t, ok)
}
