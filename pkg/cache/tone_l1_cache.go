package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// L1Config configures the in-process cache.
type L1Config struct {
	MaxItems   int
	DefaultTTL time.Duration
}

func DefaultL1Config() *L1Config {
	return &L1Config{
		MaxItems:   10000,
		DefaultTTL: time.Minute,
	}
}

type l1Entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// L1Cache is an in-memory JSONStore with TTL and LRU eviction.
// Entries never outlive DefaultTTL, so peers sharing an L2 converge within it.
type L1Cache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	lru      *list.List // front = most recently used
	maxItems int
	ttl      time.Duration
	now      func() time.Time

	hits   int64
	misses int64
}

func NewL1Cache(cfg *L1Config) *L1Cache {
	if cfg == nil {
		cfg = DefaultL1Config()
	}
	return &L1Cache{
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		maxItems: cfg.MaxItems,
		ttl:      cfg.DefaultTTL,
		now:      time.Now,
	}
}

func (c *L1Cache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return false, nil
	}
	entry := el.Value.(*l1Entry)
	if c.now().After(entry.expiresAt) {
		c.removeElement(el)
		c.mu.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return false, nil
	}
	c.lru.MoveToFront(el)
	value := entry.value
	c.mu.Unlock()

	atomic.AddInt64(&c.hits, 1)
	if err := json.Unmarshal(value, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value; ttl is capped at the cache's own TTL.
func (c *L1Cache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*l1Entry)
		entry.value = data
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return nil
	}

	c.items[key] = c.lru.PushFront(&l1Entry{key: key, value: data, expiresAt: expiresAt})
	for c.maxItems > 0 && c.lru.Len() > c.maxItems {
		c.removeElement(c.lru.Back())
	}
	return nil
}

func (c *L1Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	return nil
}

func (c *L1Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns hit and miss counters.
func (c *L1Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *L1Cache) removeElement(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*l1Entry).key)
}

// TieredStore reads L1 first, then L2, back-filling L1 on an L2 hit.
// Writes and deletes go to both layers.
type TieredStore struct {
	l1 JSONStore
	l2 JSONStore
}

func NewTieredStore(l1, l2 JSONStore) *TieredStore {
	return &TieredStore{l1: l1, l2: l2}
}

func (t *TieredStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if ok, err := t.l1.GetJSON(ctx, key, dest); err == nil && ok {
		return true, nil
	}

	ok, err := t.l2.GetJSON(ctx, key, dest)
	if err != nil || !ok {
		return false, err
	}
	_ = t.l1.SetJSON(ctx, key, dest, 0)
	return true, nil
}

func (t *TieredStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	_ = t.l1.SetJSON(ctx, key, value, ttl)
	return t.l2.SetJSON(ctx, key, value, ttl)
}

func (t *TieredStore) Delete(ctx context.Context, key string) error {
	_ = t.l1.Delete(ctx, key)
	return t.l2.Delete(ctx, key)
}
