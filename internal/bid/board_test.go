package bid

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/storage"
)

type fixture struct {
	board  *Board
	orders *order.MemoryRepo
	repo   *MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemory()
	orders := order.NewMemoryRepo(mem)
	repo := NewMemoryRepo(mem)
	return &fixture{board: NewBoard(repo, orders, mem, zap.NewNop()), orders: orders, repo: repo}
}

func (f *fixture) placeOrder(t *testing.T, owner string, dt order.DeliveryType) *order.Order {
	t.Helper()
	o := &order.Order{
		ID:       gofakeit.UUID(),
		OwnerID:  owner,
		Status:   order.StatusPlaced,
		Delivery: order.Delivery{Type: dt, Address: gofakeit.Street(), Phone: gofakeit.Phone()},
		Amount:   decimal.NewFromInt(20),
		Version:  1,
	}
	require.NoError(t, f.orders.Create(context.Background(), o))
	return o
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)

	b, err := f.board.Submit(ctx, o.ID, "c1", dec("7"))
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, b.Status)

	again, err := f.board.Submit(ctx, o.ID, "c1", dec("6"))
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID, "resubmission supersedes")

	bids, err := f.board.ListForOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, "6", bids[0].Price.String())

	mine, err := f.board.ListForBidder(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	awaiting := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)
	pickup := f.placeOrder(t, "u1", order.DeliverySelfPickup)

	tests := []struct {
		name    string
		orderID string
		bidder  string
		price   decimal.Decimal
		want    apperr.Kind
	}{
		{"zero price", awaiting.ID, "c1", decimal.Zero, apperr.KindInvalidArgument},
		{"negative price", awaiting.ID, "c1", dec("-1"), apperr.KindInvalidArgument},
		{"finer than millimes", awaiting.ID, "c1", dec("7.5055"), apperr.KindInvalidArgument},
		{"rounds to zero", awaiting.ID, "c1", dec("0.0004"), apperr.KindInvalidArgument},
		{"missing bidder", awaiting.ID, "", dec("5"), apperr.KindInvalidArgument},
		{"unknown order", "missing", "c1", dec("5"), apperr.KindNotFound},
		{"self pickup order", pickup.ID, "c1", dec("5"), apperr.KindInvalidStateTransition},
		{"owner bids", awaiting.ID, "u1", dec("5"), apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.board.Submit(ctx, tt.orderID, tt.bidder, tt.price)
			assert.Equal(t, tt.want, apperr.KindOf(err), "err=%v", err)
		})
	}
	assert.Equal(t, "INVALID_ORDER_STATE", apperr.CodeOf(func() error {
		_, err := f.board.Submit(ctx, pickup.ID, "c1", dec("5"))
		return err
	}()))
}

func TestSubmit_KeepsMillimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)

	b, err := f.board.Submit(ctx, o.ID, "c1", dec("7.505"))
	require.NoError(t, err)
	assert.Equal(t, "7.505", b.Price.String())

	small, err := f.board.Submit(ctx, o.ID, "c2", dec("0.004"))
	require.NoError(t, err)
	assert.Equal(t, "0.004", small.Price.String())
}

func TestAccept_SingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)

	b1, err := f.board.Submit(ctx, o.ID, "c1", dec("7"))
	require.NoError(t, err)
	b2, err := f.board.Submit(ctx, o.ID, "c2", dec("6"))
	require.NoError(t, err)

	_, err = f.board.Accept(ctx, o.ID, b1.ID, "c2")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	d, err := f.board.Accept(ctx, o.ID, b1.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, d.Accepted.Status)
	require.Len(t, d.Rejected, 1)
	assert.Equal(t, b2.ID, d.Rejected[0].ID)

	got, err := f.board.Get(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)

	_, err = f.board.Accept(ctx, o.ID, b2.ID, "u1")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.board.Accept(ctx, o.ID, "nope", "u1")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "conflict wins once a bid is accepted")
}

func TestAccept_UnknownBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)
	other := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)
	foreign, err := f.board.Submit(ctx, other.ID, "c1", dec("3"))
	require.NoError(t, err)

	_, err = f.board.Accept(ctx, o.ID, foreign.ID, "u1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAccept_ConcurrentExactlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		b, err := f.board.Submit(ctx, o.ID, gofakeit.UUID(), decimal.NewFromFloat(gofakeit.Price(1, 50)).Round(2).Add(dec("0.01")))
		require.NoError(t, err)
		ids[i] = b.ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.board.Accept(ctx, o.ID, id, "u1")
			mu.Lock()
			defer mu.Unlock()
			switch apperr.KindOf(err) {
			case "":
				wins++
			case apperr.KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)

	bids, err := f.board.ListForOrder(ctx, o.ID)
	require.NoError(t, err)
	accepted := 0
	for _, b := range bids {
		if b.Status == StatusAccepted {
			accepted++
		} else {
			assert.Equal(t, StatusRejected, b.Status)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)
	b, err := f.board.Submit(ctx, o.ID, "c1", dec("7"))
	require.NoError(t, err)

	_, err = f.board.Reject(ctx, o.ID, b.ID, "c1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	got, err := f.board.Reject(ctx, o.ID, b.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)

	_, err = f.board.Reject(ctx, o.ID, b.ID, "u1")
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))

	again, err := f.board.Submit(ctx, o.ID, "c1", dec("5"))
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, again.Status, "resubmission reopens a rejected bid")
}

func TestRejectWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t, "u1", order.DeliveryAwaitingCourier)

	none, err := f.board.RejectWaiting(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	b1, err := f.board.Submit(ctx, o.ID, "c1", dec("5"))
	require.NoError(t, err)
	_, err = f.board.Submit(ctx, o.ID, "c2", dec("6"))
	require.NoError(t, err)
	_, err = f.board.Reject(ctx, o.ID, b1.ID, "u1")
	require.NoError(t, err)

	dropped, err := f.board.RejectWaiting(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	assert.Equal(t, "c2", dropped[0].BidderID)

	bids, err := f.board.ListForOrder(ctx, o.ID)
	require.NoError(t, err)
	for _, b := range bids {
		assert.Equal(t, StatusRejected, b.Status, "bid %s", b.BidderID)
	}
}
