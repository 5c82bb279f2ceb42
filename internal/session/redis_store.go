package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis so the session cache is shared when
// more than one bot instance runs against the same account base.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix defaults to
// "assistant:session".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = "assistant:session"
	}
	trimmed = strings.TrimSuffix(trimmed, ":")

	return &RedisStore{client: client, prefix: trimmed}
}

func (s *RedisStore) key(phone string) string {
	return fmt.Sprintf("%s:%s", s.prefix, phone)
}

func (s *RedisStore) Get(ctx context.Context, phone string) (string, error) {
	email, err := s.client.Get(ctx, s.key(phone)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (s *RedisStore) Set(ctx context.Context, phone, email string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(phone), email, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, s.key(phone)).Err()
}
