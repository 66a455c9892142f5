package cart

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

const fieldSep = "\x1f"

// consumeScript decrements each field by its snapshotted quantity and drops
// fields that reach zero, atomically.
var consumeScript = redis.NewScript(`
for i = 1, #ARGV, 2 do
  local left = redis.call('HINCRBY', KEYS[1], ARGV[i], -tonumber(ARGV[i + 1]))
  if left <= 0 then
    redis.call('HDEL', KEYS[1], ARGV[i])
  end
end
return 1
`)

// RedisStore keeps one hash per user: field "product\x1fsize" -> quantity.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	log       *zap.Logger
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, keyPrefix: "cart:", ttl: ttl, log: log}
}

func (s *RedisStore) key(userID string) string { return s.keyPrefix + userID }

func field(productID, size string) string { return productID + fieldSep + size }

// parseField reverses field and reads the stored quantity.
func parseField(f, v string) (Line, error) {
	pid, size, ok := strings.Cut(f, fieldSep)
	if !ok || pid == "" {
		return Line{}, fmt.Errorf("malformed cart field %q", f)
	}
	q, err := strconv.Atoi(v)
	if err != nil {
		return Line{}, fmt.Errorf("quantity %q: %w", v, err)
	}
	return Line{ProductID: pid, Size: size, Quantity: q}, nil
}

func redisErr(err error, op string) error {
	return apperr.Dependency(err, "CART_STORE_UNAVAILABLE", fmt.Sprintf("cart %s failed", op))
}

func (s *RedisStore) AddOrUpdate(ctx context.Context, userID, productID, size string, quantity int) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID, size)
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key(userID), field(productID, size), quantity)
		if s.ttl > 0 {
			p.Expire(ctx, s.key(userID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return redisErr(err, "update")
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, productID, size string) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.key(userID), field(productID, size)).Err(); err != nil {
		return redisErr(err, "remove")
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	if err := validateUser(userID); err != nil {
		return Snapshot{}, err
	}
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return Snapshot{}, redisErr(err, "snapshot")
	}
	lines := make([]Line, 0, len(raw))
	for f, v := range raw {
		l, err := parseField(f, v)
		if err != nil {
			s.log.Warn("skipping unreadable cart entry",
				zap.String("user_id", userID),
				zap.String("field", f),
				zap.Error(err))
			continue
		}
		lines = append(lines, l)
	}
	return NewSnapshot(userID, lines), nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return redisErr(err, "clear")
	}
	return nil
}

func (s *RedisStore) ClearSnapshot(ctx context.Context, userID string, snap Snapshot) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	lines := snap.Lines()
	if len(lines) == 0 {
		return nil
	}
	args := make([]any, 0, len(lines)*2)
	for _, l := range lines {
		args = append(args, field(l.ProductID, l.Size), l.Quantity)
	}
	if err := consumeScript.Run(ctx, s.client, []string{s.key(userID)}, args...).Err(); err != nil {
		return redisErr(err, "clear")
	}
	return nil
}
