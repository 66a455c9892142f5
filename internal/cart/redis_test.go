package cart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// hashHook answers HGETALL from a fixed hash so no server is needed.
type hashHook struct{ hash map[string]string }

func (h hashHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h hashHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if c, ok := cmd.(*redis.MapStringStringCmd); ok {
			c.SetVal(h.hash)
			return nil
		}
		return next(ctx, cmd)
	}
}

func (h hashHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestParseField(t *testing.T) {
	l, err := parseField(field("tomato", "1kg"), "3")
	require.NoError(t, err)
	assert.Equal(t, Line{ProductID: "tomato", Size: "1kg", Quantity: 3}, l)

	_, err = parseField("tomato", "3")
	assert.Error(t, err, "missing separator")
	_, err = parseField(fieldSep+"1kg", "3")
	assert.Error(t, err, "empty product")
	_, err = parseField(field("tomato", "1kg"), "three")
	assert.Error(t, err)
}

func TestRedisSnapshot_LogsUnreadableEntries(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(hashHook{hash: map[string]string{
		field("tomato", "1kg"): "2",
		"legacy-field":         "1",
		field("olive", "1l"):   "lots",
	}})

	core, logs := observer.New(zap.WarnLevel)
	s := NewRedisStore(client, time.Hour, zap.New(core))

	snap, err := s.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 2, snap.Quantity("tomato", "1kg"))

	require.Equal(t, 2, logs.Len())
	fields := map[string]bool{}
	for _, e := range logs.All() {
		assert.Equal(t, "u1", e.ContextMap()["user_id"])
		fields[e.ContextMap()["field"].(string)] = true
	}
	assert.True(t, fields["legacy-field"])
	assert.True(t, fields[field("olive", "1l")])
}
