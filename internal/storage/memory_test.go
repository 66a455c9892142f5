package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWithinTx_RollsBackOnError(t *testing.T) {
	m := NewMemory()
	state := map[string]int{"a": 1}

	set := func(ctx context.Context, k string, v int) {
		release := m.Write(ctx)
		defer release()
		prev, had := state[k]
		m.OnRollback(ctx, func() {
			if had {
				state[k] = prev
			} else {
				delete(state, k)
			}
		})
		state[k] = v
	}

	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		set(ctx, "a", 2)
		set(ctx, "b", 3)
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, map[string]int{"a": 1}, state)

	err = m.WithinTx(context.Background(), func(ctx context.Context) error {
		set(ctx, "a", 5)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, state["a"])
}

func TestMemoryWithinTx_NestedJoins(t *testing.T) {
	m := NewMemory()
	calls := 0
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		return m.WithinTx(ctx, func(ctx context.Context) error {
			release := m.Read(ctx)
			defer release()
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMemoryWithinTx_Serializes(t *testing.T) {
	m := NewMemory()
	n := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithinTx(context.Background(), func(ctx context.Context) error {
				v := n
				n = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, n)
}
