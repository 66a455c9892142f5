//go:build integration

package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/bid"
	"github.com/MikeMC777/agromarket/internal/cart"
	"github.com/MikeMC777/agromarket/internal/catalog"
	"github.com/MikeMC777/agromarket/internal/events"
	"github.com/MikeMC777/agromarket/internal/idempotency"
	"github.com/MikeMC777/agromarket/internal/mandate"
	"github.com/MikeMC777/agromarket/internal/metrics"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/storage"
)

func newPGCoordinator(t *testing.T) (*Coordinator, catalog.Static) {
	t.Helper()
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("agromarket"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(dsn, zap.NewNop()))

	pool, err := storage.Connect(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	db := storage.NewPostgres(pool, 5*time.Second)

	lookup := catalog.Static{
		"tomato": {ID: "tomato", Name: "Tomate", Price: decimal.NewFromInt(10), OwnerID: "p1"},
		"olive":  {ID: "olive", Name: "Olive", Price: decimal.RequireFromString("4.255"), OwnerID: "p2"},
	}
	log := zap.NewNop()
	orders := order.NewPGRepo(db)
	c := New(Deps{
		Cart:        cart.NewPGStore(db),
		Ledger:      order.NewLedger(orders, lookup, db, log),
		Board:       bid.NewBoard(bid.NewPGRepo(db), orders, db, log),
		Registry:    mandate.NewRegistry(mandate.NewPGRepo(db), lookup, nil, db, log),
		Tx:          db,
		Idempotency: idempotency.NewMemoryStore(),
		Events:      &events.Recorder{},
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Log:         log,
	})
	return c, lookup
}

func TestPostgresWorkflow(t *testing.T) {
	c, _ := newPGCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.AddToCart(ctx, user("u1"), cart.AddRequest{UserID: "u1", ProductID: "tomato", Size: "1kg", Quantity: 2}))
	p, err := c.PlaceOrder(ctx, user("u1"), PlaceOrder{UserID: "u1", Delivery: courierDelivery, PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "20", p.Order.Amount.String())

	got, err := c.Order(ctx, p.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(20)))
	require.Len(t, got.Items, 1)

	var ids []string
	for _, courier := range []string{"c1", "c2", "c3"} {
		b, err := c.SubmitBid(ctx, user(courier), bid.SubmitRequest{OrderID: p.Order.ID, BidderID: courier, Price: decimal.NewFromInt(6)})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := c.AcceptBid(ctx, user("u1"), id, "u1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	got, err = c.Order(ctx, p.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAssignedForDelivery, got.Status)
	require.NotNil(t, got.DeliveryFee)
	assert.Equal(t, "6", got.DeliveryFee.String())

	m, err := c.ProposeMandate(ctx, user("v1"), mandate.ProposeRequest{
		VendeurID: "v1", ProducteurID: "p1", ProductID: "tomato", Percentage: decimal.RequireFromString("12.5"), Description: "souk",
	})
	require.NoError(t, err)
	_, err = c.DecideMandate(ctx, user("p1"), m.ID, mandate.DecisionRequest{ProducteurID: "p1", Decision: mandate.StatusRefused})
	require.NoError(t, err)
	_, err = c.DecideMandate(ctx, user("p1"), m.ID, mandate.DecisionRequest{ProducteurID: "p1", Decision: mandate.StatusAccepted})
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))
}

func TestPostgresWorkflow_MillimesAndFrozenPrices(t *testing.T) {
	c, lookup := newPGCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.AddToCart(ctx, user("u1"), cart.AddRequest{UserID: "u1", ProductID: "olive", Size: "1l", Quantity: 2}))
	p, err := c.PlaceOrder(ctx, user("u1"), PlaceOrder{UserID: "u1", Delivery: courierDelivery, PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "8.51", p.Order.Amount.String())

	lookup["olive"] = catalog.Product{ID: "olive", Name: "Olive", Price: decimal.RequireFromString("5"), OwnerID: "p2"}

	got, err := c.Order(ctx, p.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(p.Order.Amount), "amount=%s", got.Amount)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.255")), "unit=%s", got.Items[0].UnitPrice)
	assert.True(t, got.Items[0].Subtotal.Equal(decimal.RequireFromString("8.51")))

	_, err = c.SubmitBid(ctx, user("c1"), bid.SubmitRequest{OrderID: p.Order.ID, BidderID: "c1", Price: decimal.RequireFromString("0.0004")})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	b, err := c.SubmitBid(ctx, user("c1"), bid.SubmitRequest{OrderID: p.Order.ID, BidderID: "c1", Price: decimal.RequireFromString("7.505")})
	require.NoError(t, err)
	_, err = c.AcceptBid(ctx, user("u1"), b.ID, "u1")
	require.NoError(t, err)

	got, err = c.Order(ctx, p.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveryFee)
	assert.Equal(t, "7.505", got.DeliveryFee.String())

	bids, err := c.BidsForOrder(ctx, p.Order.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, "7.505", bids[0].Price.String())
}
