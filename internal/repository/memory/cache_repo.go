package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
)

type cacheEntry struct {
	product   domain.Product
	expiresAt time.Time
}

// CacheRepo — кэш снимка каталога с TTL. Просроченные записи считаются промахом.
type CacheRepo struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]cacheEntry
}

func NewCacheRepo(ttl time.Duration) *CacheRepo {
	return &CacheRepo{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]cacheEntry),
	}
}

func (c *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	res := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		entry, ok := c.entries[id]
		if !ok {
			continue
		}

		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			continue
		}

		res[id] = entry.product
	}

	return res, nil
}

func (c *CacheRepo) SetProducts(ctx context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	for _, p := range products {
		c.entries[p.ID] = cacheEntry{product: p, expiresAt: expiresAt}
	}

	return nil
}

func (c *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.entries, id)
	}

	return nil
}
