package crm

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peterbiondo/solar-calculator-proxy/internal/domain"
)

// TokenStore holds at most one bearer token across invocations. Stores do not
// single-flight refreshes: concurrent misses race to an idempotent re-fetch
// and the last writer wins.
type TokenStore interface {
	Get(ctx context.Context) (domain.AccessToken, bool)
	Set(ctx context.Context, token domain.AccessToken)
	Clear(ctx context.Context)
}

// MemoryStore is the default single-slot in-process store.
type MemoryStore struct {
	mu    sync.Mutex
	token domain.AccessToken
	now   func() time.Time
}

// NewMemoryStore builds a store on the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock builds a store with an injected clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

// Get returns the cached token when it has not expired.
func (s *MemoryStore) Get(_ context.Context) (domain.AccessToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.token.Valid(s.now()) {
		return domain.AccessToken{}, false
	}
	return s.token, true
}

// Set replaces the cached token.
func (s *MemoryStore) Set(_ context.Context, token domain.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear drops the cached token.
func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = domain.AccessToken{}
}

const redisTokenKey = "crm:access_token"

// RedisStore shares the token slot between instances. Expiry is enforced by
// the key TTL, so a restart or a second instance reuses the same token.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a store on an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the shared token when present. Redis errors degrade to a cache
// miss so the caller falls back to a fresh token exchange.
func (s *RedisStore) Get(ctx context.Context) (domain.AccessToken, bool) {
	raw, err := s.client.Get(ctx, redisTokenKey).Bytes()
	if err != nil {
		return domain.AccessToken{}, false
	}
	var token domain.AccessToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return domain.AccessToken{}, false
	}
	if token.Value == "" {
		return domain.AccessToken{}, false
	}
	return token, true
}

// Set stores the token with a TTL matching its expiry.
func (s *RedisStore) Set(ctx context.Context, token domain.AccessToken) {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, redisTokenKey, raw, ttl).Err()
}

// Clear drops the shared token.
func (s *RedisStore) Clear(ctx context.Context) {
	_ = s.client.Del(ctx, redisTokenKey).Err()
}
