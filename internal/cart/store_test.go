package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

// runStoreContract exercises behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("add update remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddOrUpdate(ctx, "u1", "tomato", "1kg", 2))
		require.NoError(t, s.AddOrUpdate(ctx, "u1", "tomato", "1kg", 2))
		require.NoError(t, s.AddOrUpdate(ctx, "u1", "tomato", "5kg", 1))

		snap, err := s.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Quantity("tomato", "1kg"), "absolute set is idempotent")
		assert.Equal(t, 2, snap.Len())

		require.NoError(t, s.AddOrUpdate(ctx, "u1", "tomato", "5kg", 0))
		require.NoError(t, s.Remove(ctx, "u1", "tomato", "1kg"))
		require.NoError(t, s.Remove(ctx, "u1", "ghost", "1kg"))

		snap, err = s.Snapshot(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("unknown user has empty cart", func(t *testing.T) {
		s := newStore(t)
		snap, err := s.Snapshot(ctx, "nobody")
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("invalid keys", func(t *testing.T) {
		s := newStore(t)
		err := s.AddOrUpdate(ctx, "", "tomato", "1kg", 1)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
		err = s.AddOrUpdate(ctx, "u1", "tomato", " ", 1)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})

	t.Run("clear snapshot keeps later additions", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddOrUpdate(ctx, "u2", "tomato", "1kg", 2))
		require.NoError(t, s.AddOrUpdate(ctx, "u2", "olive", "1L", 1))
		snap, err := s.Snapshot(ctx, "u2")
		require.NoError(t, err)

		require.NoError(t, s.AddOrUpdate(ctx, "u2", "honey", "500g", 1))
		require.NoError(t, s.AddOrUpdate(ctx, "u2", "olive", "1L", 3))
		require.NoError(t, s.ClearSnapshot(ctx, "u2", snap))

		after, err := s.Snapshot(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, 0, after.Quantity("tomato", "1kg"))
		assert.Equal(t, 2, after.Quantity("olive", "1L"))
		assert.Equal(t, 1, after.Quantity("honey", "500g"))
		assert.Equal(t, 2, after.Len())
	})

	t.Run("clear", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.AddOrUpdate(ctx, "u3", "tomato", "1kg", 2))
		require.NoError(t, s.Clear(ctx, "u3"))
		snap, err := s.Snapshot(ctx, "u3")
		require.NoError(t, err)
		assert.True(t, snap.IsEmpty())
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_ConcurrentUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.AddOrUpdate(ctx, "u", "p", "s", n+1)
		}(i)
	}
	wg.Wait()
	snap, err := s.Snapshot(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.AddOrUpdate(ctx, "u", "tomato", "1kg", 2))

	snap, err := s.Snapshot(ctx, "u")
	require.NoError(t, err)
	require.NoError(t, s.AddOrUpdate(ctx, "u", "tomato", "1kg", 9))

	assert.Equal(t, 2, snap.Quantity("tomato", "1kg"))
	items := snap.Items()
	items["tomato"]["1kg"] = 100
	assert.Equal(t, 2, snap.Quantity("tomato", "1kg"))
	assert.Equal(t, snap.Lines(), snap.Lines(), "lines are restartable")
}

func TestSnapshotSameItems(t *testing.T) {
	a := NewSnapshot("u", []Line{{"p", "s", 1}, {"q", "s", 2}})
	b := NewSnapshot("other", []Line{{"q", "s", 2}, {"p", "s", 1}})
	c := NewSnapshot("u", []Line{{"p", "s", 1}})

	assert.True(t, a.SameItems(b))
	assert.False(t, a.SameItems(c))
	assert.Equal(t, []Line{{"p", "s", 1}, {"q", "s", 2}}, a.Lines())
}
