package cache

import (
	"context"
	"time"

	"tone_server/core/domain"
	"tone_server/core/port/out"
)

var _ out.ProfileCache = (*ProfileCache)(nil)

const (
	profileKeyPrefix  = "tone:profile:"
	DefaultProfileTTL = 30 * time.Minute
)

// ProfileCache caches stored profiles by user id.
type ProfileCache struct {
	store JSONStore
	ttl   time.Duration
}

func NewProfileCache(store JSONStore, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{store: store, ttl: ttl}
}

// Get returns nil without error on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*domain.StoredProfile, error) {
	var p domain.StoredProfile
	ok, err := c.store.GetJSON(ctx, profileKey(userID), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, p *domain.StoredProfile) error {
	return c.store.SetJSON(ctx, profileKey(p.UserID), p, c.ttl)
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.store.Delete(ctx, profileKey(userID))
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}
