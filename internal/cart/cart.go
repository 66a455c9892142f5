// Package cart keeps per-user working carts keyed by (product, size).
package cart

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

// Store is implemented by the memory, redis and postgres backends.
type Store interface {
	// AddOrUpdate sets the absolute quantity; quantity <= 0 removes the entry.
	AddOrUpdate(ctx context.Context, userID, productID, size string, quantity int) error
	Remove(ctx context.Context, userID, productID, size string) error
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
	Clear(ctx context.Context, userID string) error
	// ClearSnapshot subtracts the snapshotted quantities and keeps anything
	// added since the snapshot was taken.
	ClearSnapshot(ctx context.Context, userID string, snap Snapshot) error
}

type Line struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"gt=0"`
}

// Snapshot is an immutable copy of a cart at CapturedAt.
type Snapshot struct {
	UserID     string
	CapturedAt time.Time
	items      map[string]map[string]int
}

func NewSnapshot(userID string, lines []Line) Snapshot {
	s := Snapshot{UserID: userID, CapturedAt: time.Now().UTC(), items: map[string]map[string]int{}}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		sizes, ok := s.items[l.ProductID]
		if !ok {
			sizes = map[string]int{}
			s.items[l.ProductID] = sizes
		}
		sizes[l.Size] += l.Quantity
	}
	return s
}

// Lines returns the entries sorted by product then size. Each call returns a
// fresh slice.
func (s Snapshot) Lines() []Line {
	out := make([]Line, 0, s.Len())
	for pid, sizes := range s.items {
		for size, q := range sizes {
			out = append(out, Line{ProductID: pid, Size: size, Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Size < out[j].Size
	})
	return out
}

// Items returns a copy of productId -> size -> quantity.
func (s Snapshot) Items() map[string]map[string]int {
	out := make(map[string]map[string]int, len(s.items))
	for pid, sizes := range s.items {
		cp := make(map[string]int, len(sizes))
		for k, v := range sizes {
			cp[k] = v
		}
		out[pid] = cp
	}
	return out
}

func (s Snapshot) Quantity(productID, size string) int {
	return s.items[productID][size]
}

func (s Snapshot) Len() int {
	n := 0
	for _, sizes := range s.items {
		n += len(sizes)
	}
	return n
}

func (s Snapshot) IsEmpty() bool { return s.Len() == 0 }

// SameItems compares contents, ignoring user and capture time.
func (s Snapshot) SameItems(o Snapshot) bool {
	if s.Len() != o.Len() {
		return false
	}
	for pid, sizes := range s.items {
		for size, q := range sizes {
			if o.Quantity(pid, size) != q {
				return false
			}
		}
	}
	return true
}

func validateKey(userID, productID, size string) error {
	switch {
	case strings.TrimSpace(userID) == "":
		return apperr.InvalidArgument("USER_ID_REQUIRED", "userId is required")
	case strings.TrimSpace(productID) == "":
		return apperr.InvalidArgument("PRODUCT_ID_REQUIRED", "productId is required")
	case strings.TrimSpace(size) == "":
		return apperr.InvalidArgument("SIZE_REQUIRED", "size is required")
	}
	return nil
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.InvalidArgument("USER_ID_REQUIRED", "userId is required")
	}
	return nil
}
