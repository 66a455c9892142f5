package mandate

import (
	"context"
	"sort"
	"time"

	"github.com/MikeMC777/agromarket/internal/storage"
)

type MemoryRepo struct {
	mem      *storage.Memory
	mandates map[string]Mandate
}

func NewMemoryRepo(mem *storage.Memory) *MemoryRepo {
	return &MemoryRepo{mem: mem, mandates: make(map[string]Mandate)}
}

func (r *MemoryRepo) Create(ctx context.Context, m *Mandate) error {
	release := r.mem.Write(ctx)
	defer release()
	id := m.ID
	r.mandates[id] = *m
	r.mem.OnRollback(ctx, func() { delete(r.mandates, id) })
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*Mandate, error) {
	release := r.mem.Read(ctx)
	defer release()
	m, ok := r.mandates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *MemoryRepo) GetForUpdate(ctx context.Context, id string) (*Mandate, error) {
	return r.Get(ctx, id)
}

func (r *MemoryRepo) Update(ctx context.Context, m *Mandate) error {
	release := r.mem.Write(ctx)
	defer release()
	cur, ok := r.mandates[m.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != m.Version {
		return ErrVersionConflict
	}
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	r.mandates[m.ID] = *m
	r.mem.OnRollback(ctx, func() { r.mandates[cur.ID] = cur })
	return nil
}

func (r *MemoryRepo) ListByProducteur(ctx context.Context, producteurID string) ([]Mandate, error) {
	return r.list(ctx, func(m Mandate) bool { return m.ProducteurID == producteurID })
}

func (r *MemoryRepo) ListByVendeur(ctx context.Context, vendeurID string, status Status) ([]Mandate, error) {
	return r.list(ctx, func(m Mandate) bool {
		return m.VendeurID == vendeurID && (status == "" || m.Status == status)
	})
}

func (r *MemoryRepo) FindAccepted(ctx context.Context, vendeurID, productID string) (*Mandate, error) {
	list, err := r.list(ctx, func(m Mandate) bool {
		return m.VendeurID == vendeurID && m.ProductID == productID && m.Status == StatusAccepted
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := &list[0]
	for i := range list[1:] {
		if m := &list[i+1]; m.DecidedAt != nil && (latest.DecidedAt == nil || m.DecidedAt.After(*latest.DecidedAt)) {
			latest = m
		}
	}
	return latest, nil
}

func (r *MemoryRepo) list(ctx context.Context, match func(Mandate) bool) ([]Mandate, error) {
	release := r.mem.Read(ctx)
	defer release()
	out := []Mandate{}
	for _, m := range r.mandates {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
