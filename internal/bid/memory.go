package bid

import (
	"context"
	"sort"
	"time"

	"github.com/MikeMC777/agromarket/internal/storage"
)

type MemoryRepo struct {
	mem  *storage.Memory
	bids map[string]Bid
}

func NewMemoryRepo(mem *storage.Memory) *MemoryRepo {
	return &MemoryRepo{mem: mem, bids: make(map[string]Bid)}
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*Bid, error) {
	release := r.mem.Read(ctx)
	defer release()
	b, ok := r.bids[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepo) FindByOrderAndBidder(ctx context.Context, orderID, bidderID string) (*Bid, error) {
	release := r.mem.Read(ctx)
	defer release()
	for _, b := range r.bids {
		if b.OrderID == orderID && b.BidderID == bidderID {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) Save(ctx context.Context, bids ...*Bid) error {
	release := r.mem.Write(ctx)
	defer release()

	now := time.Now().UTC()
	for _, b := range bids {
		prev, had := r.bids[b.ID]
		id := b.ID
		r.mem.OnRollback(ctx, func() {
			if had {
				r.bids[id] = prev
			} else {
				delete(r.bids, id)
			}
		})
		b.UpdatedAt = now
		r.bids[b.ID] = *b
	}
	return nil
}

func (r *MemoryRepo) ListByOrder(ctx context.Context, orderID string) ([]Bid, error) {
	return r.list(ctx, func(b Bid) bool { return b.OrderID == orderID })
}

func (r *MemoryRepo) ListByBidder(ctx context.Context, bidderID string) ([]Bid, error) {
	return r.list(ctx, func(b Bid) bool { return b.BidderID == bidderID })
}

func (r *MemoryRepo) list(ctx context.Context, match func(Bid) bool) ([]Bid, error) {
	release := r.mem.Read(ctx)
	defer release()
	out := []Bid{}
	for _, b := range r.bids {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
