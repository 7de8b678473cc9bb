package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/users"

	"github.com/redis/go-redis/v9"
)

const attemptsKeyPrefix = "login_attempts:"

// attemptStore comparte el registro de intentos entre instancias.
type attemptStore struct {
	rdb redis.Cmdable
}

func NewAttemptStore(rdb redis.Cmdable) users.AttemptStore {
	return &attemptStore{rdb: rdb}
}

func (s *attemptStore) Load(ctx context.Context, key string) (identity.LoginAttempts, error) {
	raw, err := s.rdb.Get(ctx, attemptsKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return identity.LoginAttempts{}, nil
	}
	if err != nil {
		return identity.LoginAttempts{}, fmt.Errorf("get login attempts: %w", err)
	}

	var a identity.LoginAttempts
	if err := json.Unmarshal(raw, &a); err != nil {
		return identity.LoginAttempts{}, fmt.Errorf("decode login attempts: %w", err)
	}
	return a, nil
}

// Save borra la clave cuando el registro queda en cero.
func (s *attemptStore) Save(ctx context.Context, key string, a identity.LoginAttempts, ttl time.Duration) error {
	if a.Count == 0 {
		if err := s.rdb.Del(ctx, attemptsKeyPrefix+key).Err(); err != nil {
			return fmt.Errorf("delete login attempts: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode login attempts: %w", err)
	}
	if err := s.rdb.Set(ctx, attemptsKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set login attempts: %w", err)
	}
	return nil
}
