package cart

import (
	"context"
	"sync"
)

type entryKey struct {
	productID string
	size      string
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]map[entryKey]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]map[entryKey]int)}
}

func (s *MemoryStore) AddOrUpdate(_ context.Context, userID, productID, size string, quantity int) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entryKey{productID, size}
	if quantity <= 0 {
		s.deleteLocked(userID, k)
		return nil
	}
	c, ok := s.carts[userID]
	if !ok {
		c = make(map[entryKey]int)
		s.carts[userID] = c
	}
	c[k] = quantity
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, productID, size string) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(userID, entryKey{productID, size})
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, userID string) (Snapshot, error) {
	if err := validateUser(userID); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]Line, 0, len(s.carts[userID]))
	for k, q := range s.carts[userID] {
		lines = append(lines, Line{ProductID: k.productID, Size: k.size, Quantity: q})
	}
	return NewSnapshot(userID, lines), nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) ClearSnapshot(_ context.Context, userID string, snap Snapshot) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.carts[userID]
	for _, l := range snap.Lines() {
		k := entryKey{l.ProductID, l.Size}
		left := c[k] - l.Quantity
		if left <= 0 {
			s.deleteLocked(userID, k)
			continue
		}
		c[k] = left
	}
	return nil
}

func (s *MemoryStore) deleteLocked(userID string, k entryKey) {
	c, ok := s.carts[userID]
	if !ok {
		return
	}
	delete(c, k)
	if len(c) == 0 {
		delete(s.carts, userID)
	}
}
