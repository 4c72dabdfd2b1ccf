package cache

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/core/domain"
)

type memStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestProfileCache(t *testing.T) {
	store := newMemStore()
	c := NewProfileCache(store, 0)
	ctx := context.Background()

	got, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	readability := 9.5
	p := &domain.StoredProfile{
		UserID: "u1",
		Profile: domain.UserProfile{
			MainProfile: domain.AggregatedProfile{
				Values:      map[domain.Axis]string{domain.AxisEmotion: domain.EmotionPositive},
				Readability: &readability,
				EmailCount:  3,
			},
			StyleClusters: []domain.StyleCluster{{ID: 0, Size: 3, Name: "Casual Communication"}},
			EmailCount:    3,
		},
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, c.Set(ctx, p))
	assert.Equal(t, DefaultProfileTTL, store.ttls["tone:profile:u1"])

	got, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.EmotionPositive, got.Profile.MainProfile.Value(domain.AxisEmotion))
	assert.Equal(t, "Casual Communication", got.Profile.StyleClusters[0].Name)
	assert.True(t, p.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, c.Invalidate(ctx, "u1"))
	got, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
