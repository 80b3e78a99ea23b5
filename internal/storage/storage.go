package storage

import (
	"context"
	"sync"

	"github.com/lehigh-university-libraries/mods-enricher/internal/authority"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

type cacheKey struct {
	domain vocabulary.Domain
	key    string
}

// MemoryCache keeps lookup results for the life of the process
type MemoryCache struct {
	results map[cacheKey]authority.Result
	mu      sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		results: make(map[cacheKey]authority.Result),
	}
}

func (c *MemoryCache) Get(_ context.Context, domain vocabulary.Domain, key string) (authority.Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, exists := c.results[cacheKey{domain, key}]
	return r, exists, nil
}

func (c *MemoryCache) Put(_ context.Context, domain vocabulary.Domain, key string, r authority.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[cacheKey{domain, key}] = r
	return nil
}
