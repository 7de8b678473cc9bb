package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-records/internal/domain/breeds"

	"github.com/redis/go-redis/v9"
)

const breedsKeyPrefix = "breeds:"

type breedCache struct {
	rdb redis.Cmdable
}

func NewBreedCache(rdb redis.Cmdable) breeds.Cache {
	return &breedCache{rdb: rdb}
}

func (c *breedCache) Get(ctx context.Context, species string) ([]breeds.Breed, bool, error) {
	raw, err := c.rdb.Get(ctx, breedsKeyPrefix+species).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get breeds: %w", err)
	}

	var items []breeds.Breed
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode breeds: %w", err)
	}
	return items, true, nil
}

func (c *breedCache) Set(ctx context.Context, species string, items []breeds.Breed, ttl time.Duration) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode breeds: %w", err)
	}
	if err := c.rdb.Set(ctx, breedsKeyPrefix+species, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set breeds: %w", err)
	}
	return nil
}
