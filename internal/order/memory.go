package order

import (
	"context"
	"sort"
	"time"

	"github.com/MikeMC777/agromarket/internal/storage"
)

type MemoryRepo struct {
	mem    *storage.Memory
	orders map[string]*Order
}

func NewMemoryRepo(mem *storage.Memory) *MemoryRepo {
	return &MemoryRepo{mem: mem, orders: make(map[string]*Order)}
}

func (r *MemoryRepo) Create(ctx context.Context, o *Order) error {
	release := r.mem.Write(ctx)
	defer release()

	id := o.ID
	r.orders[id] = o.clone()
	r.mem.OnRollback(ctx, func() { delete(r.orders, id) })
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*Order, error) {
	release := r.mem.Read(ctx)
	defer release()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.clone(), nil
}

// GetForUpdate relies on the store-wide lock held by the surrounding unit.
func (r *MemoryRepo) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return r.Get(ctx, id)
}

func (r *MemoryRepo) Update(ctx context.Context, o *Order) error {
	release := r.mem.Write(ctx)
	defer release()

	cur, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != o.Version {
		return ErrVersionConflict
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	r.orders[o.ID] = o.clone()
	r.mem.OnRollback(ctx, func() { r.orders[cur.ID] = cur })
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	release := r.mem.Write(ctx)
	defer release()

	cur, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	r.mem.OnRollback(ctx, func() { r.orders[id] = cur })
	return nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, p Page) ([]Order, error) {
	return r.list(ctx, p, true, func(o *Order) bool { return o.OwnerID == ownerID })
}

func (r *MemoryRepo) ListAwaitingCourier(ctx context.Context, p Page) ([]Order, error) {
	return r.list(ctx, p, false, (*Order).AwaitsCourier)
}

func (r *MemoryRepo) ListForProducer(ctx context.Context, producerID string, status Status, p Page) ([]Order, error) {
	return r.list(ctx, p, true, func(o *Order) bool {
		return o.HasProducer(producerID) && (status == "" || o.Status == status)
	})
}

func (r *MemoryRepo) list(ctx context.Context, p Page, newestFirst bool, match func(*Order) bool) ([]Order, error) {
	release := r.mem.Read(ctx)
	defer release()

	out := []Order{}
	for _, o := range r.orders {
		if match(o) {
			out = append(out, *o.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	p = p.normalize()
	if p.Offset >= len(out) {
		return []Order{}, nil
	}
	end := min(p.Offset+p.Limit, len(out))
	return out[p.Offset:end], nil
}
