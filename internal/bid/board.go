package bid

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/storage"
)

// OrderReader locks and reads the order a bid targets.
type OrderReader interface {
	GetForUpdate(ctx context.Context, id string) (*order.Order, error)
}

type Board struct {
	repo   Repository
	orders OrderReader
	tx     storage.TxManager
	log    *zap.Logger
}

func NewBoard(repo Repository, orders OrderReader, tx storage.TxManager, log *zap.Logger) *Board {
	return &Board{repo: repo, orders: orders, tx: tx, log: log.Named("bid")}
}

// Submit records bidder's price on an order awaiting a courier. A second
// submission by the same bidder replaces the price and reopens the bid.
func (b *Board) Submit(ctx context.Context, orderID, bidderID string, price decimal.Decimal) (*Bid, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(bidderID) == "" {
		return nil, apperr.InvalidArgument("BID_IDS_REQUIRED", "orderId and bidderId are required")
	}
	if !price.IsPositive() {
		return nil, apperr.InvalidArgument("INVALID_BID_PRICE", "price must be greater than zero")
	}
	if !order.FitsMoneyScale(price) {
		return nil, apperr.InvalidArgument("INVALID_BID_PRICE", "price allows at most three decimals")
	}

	var out *Bid
	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := b.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.AwaitsCourier() {
			return apperr.Newf(apperr.KindInvalidStateTransition, "INVALID_ORDER_STATE",
				"order %s is not awaiting a courier", orderID)
		}
		if o.OwnerID == bidderID {
			return apperr.Forbidden("OWN_ORDER_BID", "cannot bid on your own order")
		}

		now := time.Now().UTC()
		existing, err := b.repo.FindByOrderAndBidder(ctx, orderID, bidderID)
		switch {
		case err == nil:
			existing.Price = price
			existing.Status = StatusWaiting
			out = existing
		case apperr.IsKind(err, apperr.KindNotFound):
			out = &Bid{
				ID:        uuid.NewString(),
				OrderID:   orderID,
				BidderID:  bidderID,
				Price:     price,
				Status:    StatusWaiting,
				CreatedAt: now,
			}
		default:
			return err
		}
		return b.repo.Save(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("bid submitted",
		zap.String("bid_id", out.ID),
		zap.String("order_id", orderID),
		zap.String("bidder_id", bidderID),
		zap.String("price", price.String()),
	)
	return out, nil
}

// Accept marks bidID accepted and every other waiting bid on the order
// rejected. Only the order owner may accept, and only once per order.
func (b *Board) Accept(ctx context.Context, orderID, bidID, actorID string) (Decision, error) {
	var d Decision
	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := b.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return apperr.Forbidden("NOT_ORDER_OWNER", "only the order owner may accept a bid")
		}
		bids, err := b.repo.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}

		var target *Bid
		for i := range bids {
			if bids[i].Status == StatusAccepted {
				return apperr.Conflict("BID_ALREADY_ACCEPTED", "a bid was already accepted for this order")
			}
			if bids[i].ID == bidID {
				target = &bids[i]
			}
		}
		if target == nil {
			return ErrNotFound
		}
		if o.DeliveryFee != nil {
			return apperr.Conflict("DELIVERY_FEE_ALREADY_ATTACHED", "order already has a courier")
		}
		if target.Status != StatusWaiting {
			return apperr.Newf(apperr.KindInvalidStateTransition, "BID_NOT_WAITING", "bid is %s", target.Status)
		}

		changed := []*Bid{target}
		target.Status = StatusAccepted
		for i := range bids {
			if bids[i].ID != bidID && bids[i].Status == StatusWaiting {
				bids[i].Status = StatusRejected
				changed = append(changed, &bids[i])
				d.Rejected = append(d.Rejected, bids[i])
			}
		}
		if err := b.repo.Save(ctx, changed...); err != nil {
			return err
		}
		d.Accepted = *target
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	b.log.Info("bid accepted",
		zap.String("bid_id", bidID),
		zap.String("order_id", orderID),
		zap.Int("rejected", len(d.Rejected)),
	)
	return d, nil
}

// Reject turns down a single waiting bid.
func (b *Board) Reject(ctx context.Context, orderID, bidID, actorID string) (*Bid, error) {
	var out *Bid
	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := b.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return apperr.Forbidden("NOT_ORDER_OWNER", "only the order owner may reject a bid")
		}
		bd, err := b.repo.Get(ctx, bidID)
		if err != nil {
			return err
		}
		if bd.OrderID != orderID {
			return ErrNotFound
		}
		if bd.Status != StatusWaiting {
			return apperr.Newf(apperr.KindInvalidStateTransition, "BID_NOT_WAITING", "bid is %s", bd.Status)
		}
		bd.Status = StatusRejected
		if err := b.repo.Save(ctx, bd); err != nil {
			return err
		}
		out = bd
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("bid rejected", zap.String("bid_id", bidID), zap.String("order_id", orderID))
	return out, nil
}

// RejectWaiting turns down every waiting bid of an order that no longer
// needs a courier. Accepted and rejected bids are left as they are.
func (b *Board) RejectWaiting(ctx context.Context, orderID string) ([]Bid, error) {
	var out []Bid
	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		bids, err := b.repo.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		var changed []*Bid
		for i := range bids {
			if bids[i].Status == StatusWaiting {
				bids[i].Status = StatusRejected
				changed = append(changed, &bids[i])
				out = append(out, bids[i])
			}
		}
		if len(changed) == 0 {
			return nil
		}
		return b.repo.Save(ctx, changed...)
	})
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		b.log.Info("waiting bids rejected", zap.String("order_id", orderID), zap.Int("count", len(out)))
	}
	return out, nil
}

func (b *Board) Get(ctx context.Context, id string) (*Bid, error) {
	return b.repo.Get(ctx, id)
}

func (b *Board) ListForOrder(ctx context.Context, orderID string) ([]Bid, error) {
	return b.repo.ListByOrder(ctx, orderID)
}

func (b *Board) ListForBidder(ctx context.Context, bidderID string) ([]Bid, error) {
	return b.repo.ListByBidder(ctx, bidderID)
}
