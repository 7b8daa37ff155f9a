package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
)

// TokenStore remembers revoked token ids until the tokens expire
type TokenStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisTokenStore keeps revocations in Redis with a TTL matching the token
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "auth:revoked"}
}

func (s *RedisTokenStore) key(jti string) string {
	return fmt.Sprintf("%s:%s", s.prefix, jti)
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryTokenStore is a bounded in-process store, used when Redis is not configured
type MemoryTokenStore struct {
	mu    sync.Mutex
	cache *lru.Cache
	now   func() time.Time
}

func NewMemoryTokenStore(size int) (*MemoryTokenStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	return &MemoryTokenStore{cache: cache, now: time.Now}, nil
}

func (s *MemoryTokenStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(jti, expiresAt)
	return nil
}

func (s *MemoryTokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(jti)
	if !ok {
		return false, nil
	}
	if s.now().After(v.(time.Time)) {
		s.cache.Remove(jti)
		return false, nil
	}
	return true, nil
}
