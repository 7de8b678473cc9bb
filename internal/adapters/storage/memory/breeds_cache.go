package memory

import (
	"context"
	"sync"
	"time"

	"pet-records/internal/domain/breeds"
)

type breedCache struct {
	mu        sync.RWMutex
	bySpecies map[string]breedEntry
	now       func() time.Time
}

type breedEntry struct {
	items     []breeds.Breed
	expiresAt time.Time
}

func NewBreedCache() breeds.Cache {
	return &breedCache{bySpecies: make(map[string]breedEntry), now: time.Now}
}

func (c *breedCache) Get(ctx context.Context, species string) ([]breeds.Breed, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.bySpecies[species]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append([]breeds.Breed(nil), e.items...), true, nil
}

func (c *breedCache) Set(ctx context.Context, species string, items []breeds.Breed, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bySpecies[species] = breedEntry{
		items:     append([]breeds.Breed(nil), items...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}
