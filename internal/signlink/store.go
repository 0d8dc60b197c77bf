// AngelaMos | 2026
// store.go

package signlink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atelierloc/backoffice/internal/core"
)

// Store tracks sign-link tokens between issuance and their single use.
// The database is the source of truth for token identity; the store exists
// to make consumption atomic so a double-submitted link signs exactly once.
type Store interface {
	Issue(ctx context.Context, token string, ttl time.Duration) error
	// Consume atomically spends a token. The second call for the same token
	// returns false.
	Consume(ctx context.Context, token string) (bool, error)
	// Release undoes a Consume when the transition could not be persisted.
	Release(ctx context.Context, token string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(token string) string {
	return "signlink:" + core.HashToken(token)
}

func (s *RedisStore) Issue(
	ctx context.Context,
	token string,
	ttl time.Duration,
) error {
	if err := s.client.Set(ctx, key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("issue sign link: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (bool, error) {
	err := s.client.GetDel(ctx, key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume sign link: %w", err)
	}
	return true, nil
}

func (s *RedisStore) Release(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, key(token), "1", 0).Err(); err != nil {
		return fmt.Errorf("release sign link: %w", err)
	}
	return nil
}

// MemoryStore is the in-process Store used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]struct{})}
}

func (s *MemoryStore) Issue(_ context.Context, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key(token)] = struct{}{}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[key(token)]; !ok {
		return false, nil
	}
	delete(s.tokens, key(token))
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key(token)] = struct{}{}
	return nil
}
