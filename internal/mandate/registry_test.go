package mandate

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/catalog"
	"github.com/MikeMC777/agromarket/internal/identity"
	"github.com/MikeMC777/agromarket/internal/storage"
)

func newRegistry(t *testing.T, dir identity.Directory) *Registry {
	t.Helper()
	mem := storage.NewMemory()
	lookup := catalog.Static{
		"tomato": {ID: "tomato", Price: decimal.NewFromInt(10), OwnerID: "p1"},
		"olive":  {ID: "olive", Price: decimal.NewFromInt(4), OwnerID: "p2"},
	}
	return NewRegistry(NewMemoryRepo(mem), lookup, dir, mem, zap.NewNop())
}

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPropose_Validation(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		vendeur string
		prod    string
		product string
		pct     string
		desc    string
		want    apperr.Kind
	}{
		{"too high", "v1", "p1", "tomato", "150", "resale", apperr.KindInvalidArgument},
		{"zero", "v1", "p1", "tomato", "0", "resale", apperr.KindInvalidArgument},
		{"negative", "v1", "p1", "tomato", "-5", "resale", apperr.KindInvalidArgument},
		{"three decimals", "v1", "p1", "tomato", "12.345", "resale", apperr.KindInvalidArgument},
		{"empty description", "v1", "p1", "tomato", "20", "  ", apperr.KindInvalidArgument},
		{"self mandate", "p1", "p1", "tomato", "20", "resale", apperr.KindInvalidArgument},
		{"unknown product", "v1", "p1", "ghost", "20", "resale", apperr.KindNotFound},
		{"foreign product", "v1", "p1", "olive", "20", "resale", apperr.KindInvalidArgument},
		{"upper bound", "v1", "p1", "tomato", "100", "resale", ""},
		{"fraction", "v1", "p1", "tomato", "0.5", "resale", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.Propose(ctx, tt.vendeur, tt.prod, tt.product, pct(tt.pct), tt.desc)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, StatusWaiting, m.Status)
				return
			}
			assert.Equal(t, tt.want, apperr.KindOf(err), "err=%v", err)
		})
	}
}

func TestDecide_Lifecycle(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()

	m, err := r.Propose(ctx, "v1", "p1", "tomato", pct("20"), "marché central")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, m.Status)

	_, err = r.Decide(ctx, m.ID, "p2", StatusAccepted)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	got, err := r.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, got.Status, "forbidden decide leaves status")

	_, err = r.Decide(ctx, m.ID, "p1", Status("maybe"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	decided, err := r.Decide(ctx, m.ID, "p1", StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	_, err = r.Decide(ctx, m.ID, "p1", StatusRefused)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))

	auth, err := r.Authorization(ctx, "v1", "tomato")
	require.NoError(t, err)
	assert.Equal(t, m.ID, auth.ID)

	_, err = r.Authorization(ctx, "v2", "tomato")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = r.Decide(ctx, "missing", "p1", StatusAccepted)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDecide_ConcurrentOnlyOneWins(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	m, err := r.Propose(ctx, "v1", "p1", "tomato", pct("10"), "x")
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for _, d := range []Status{StatusAccepted, StatusRefused, StatusAccepted, StatusRefused} {
		wg.Add(1)
		go func(d Status) {
			defer wg.Done()
			if _, err := r.Decide(ctx, m.ID, "p1", d); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}(d)
	}
	wg.Wait()
	assert.Equal(t, 1, oks)
}

func TestLists(t *testing.T) {
	r := newRegistry(t, nil)
	ctx := context.Background()
	a, err := r.Propose(ctx, "v1", "p1", "tomato", pct("10"), "a")
	require.NoError(t, err)
	_, err = r.Propose(ctx, "v1", "p2", "olive", pct("15"), "b")
	require.NoError(t, err)
	_, err = r.Propose(ctx, "v2", "p1", "tomato", pct("12"), "c")
	require.NoError(t, err)
	_, err = r.Decide(ctx, a.ID, "p1", StatusAccepted)
	require.NoError(t, err)

	forP1, err := r.ListForProducer(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, forP1, 2)

	accepted, err := r.ListForVendeur(ctx, "v1", StatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, a.ID, accepted[0].ID)

	all, err := r.ListForVendeur(ctx, "v1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = r.ListForVendeur(ctx, "v1", Status("bogus"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestPropose_DirectoryChecksRole(t *testing.T) {
	dir := identity.StaticDirectory{
		"p1": {identity.RoleClient},
	}
	r := newRegistry(t, dir)
	ctx := context.Background()

	_, err := r.Propose(ctx, "v1", "p1", "tomato", pct("10"), "x")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = r.Propose(ctx, "v1", "p2", "olive", pct("10"), "x")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	dir["p1"] = []identity.Role{identity.RoleProducteur}
	_, err = r.Propose(ctx, "v1", "p1", "tomato", pct("10"), "x")
	assert.NoError(t, err)
}
