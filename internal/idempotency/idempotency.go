// Package idempotency lets a client retry order placement with the same
// Idempotency-Key and get the original order back.
package idempotency

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

const Header = "Idempotency-Key"

const pending = "pending"

var ErrInProgress = apperr.Conflict("IDEMPOTENCY_IN_PROGRESS", "a request with this idempotency key is still running")

// Fingerprint scopes key to userID so two users never collide.
func Fingerprint(userID, key string) string {
	sum := blake2b.Sum256([]byte(userID + "\x00" + strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// Store reserves fingerprints. Begin returns the order id recorded for fp, or
// "" when the caller now owns the reservation and must Complete or Release it.
type Store interface {
	Begin(ctx context.Context, fp string, ttl time.Duration) (orderID string, err error)
	Complete(ctx context.Context, fp, orderID string, ttl time.Duration) error
	Release(ctx context.Context, fp string) error
}

type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, keyPrefix: "idem:order:"}
}

func storeErr(err error) error {
	return apperr.Dependency(err, "IDEMPOTENCY_STORE_UNAVAILABLE", "idempotency store failed")
}

func (s *RedisStore) Begin(ctx context.Context, fp string, ttl time.Duration) (string, error) {
	key := s.keyPrefix + fp
	ok, err := s.client.SetNX(ctx, key, pending, ttl).Result()
	if err != nil {
		return "", storeErr(err)
	}
	if ok {
		return "", nil
	}
	v, err := s.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// expired between the two calls; try once more
		return s.Begin(ctx, fp, ttl)
	case err != nil:
		return "", storeErr(err)
	case v == pending:
		return "", ErrInProgress
	}
	return v, nil
}

func (s *RedisStore) Complete(ctx context.Context, fp, orderID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+fp, orderID, ttl).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, fp string) error {
	if err := s.client.Del(ctx, s.keyPrefix+fp).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

type entry struct {
	value   string
	expires time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Begin(_ context.Context, fp string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[fp]; ok && s.now().Before(e.expires) {
		if e.value == pending {
			return "", ErrInProgress
		}
		return e.value, nil
	}
	s.entries[fp] = entry{value: pending, expires: s.now().Add(ttl)}
	return "", nil
}

func (s *MemoryStore) Complete(_ context.Context, fp, orderID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fp] = entry{value: orderID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fp)
	return nil
}
