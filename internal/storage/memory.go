package storage

import (
	"context"
	"sync"
)

type memTxKey struct{}

type memTx struct {
	undo []func()
}

// Memory is the lock shared by all in-memory repositories. Inside WithinTx the
// write lock is held for the whole unit and repositories skip their own locking.
type Memory struct {
	mu sync.RWMutex
}

func NewMemory() *Memory { return &Memory{} }

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// Read takes the shared lock unless ctx already runs inside a unit.
func (m *Memory) Read(ctx context.Context) (release func()) {
	if txFrom(ctx) != nil {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

// Write takes the exclusive lock unless ctx already runs inside a unit.
func (m *Memory) Write(ctx context.Context) (release func()) {
	if txFrom(ctx) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// OnRollback registers fn to restore state if the surrounding unit fails.
// Outside a unit it is a no-op. Call it with the write lock held.
func (m *Memory) OnRollback(ctx context.Context, fn func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}
