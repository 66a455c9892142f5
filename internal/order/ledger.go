package order

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/cart"
	"github.com/MikeMC777/agromarket/internal/catalog"
	"github.com/MikeMC777/agromarket/internal/identity"
	"github.com/MikeMC777/agromarket/internal/storage"
)

// maxLookups bounds concurrent catalog calls per order.
const maxLookups = 8

// Change describes an applied status transition.
type Change struct {
	Order *Order
	From  Status
	To    Status
}

type Ledger struct {
	repo    Repository
	catalog catalog.Lookup
	tx      storage.TxManager
	log     *zap.Logger
}

func NewLedger(repo Repository, lookup catalog.Lookup, tx storage.TxManager, log *zap.Logger) *Ledger {
	return &Ledger{repo: repo, catalog: lookup, tx: tx, log: log.Named("order")}
}

func validateDelivery(d Delivery, paymentMethod string) error {
	switch d.Type {
	case DeliverySelfPickup:
	case DeliveryPickupCenter:
		if strings.TrimSpace(d.PickupCenter) == "" {
			return apperr.InvalidArgument("PICKUP_CENTER_REQUIRED", "pickupCenter is required for pickup_center delivery")
		}
	case DeliveryAwaitingCourier:
		if strings.TrimSpace(d.Address) == "" {
			return apperr.InvalidArgument("ADDRESS_REQUIRED", "address is required for courier delivery")
		}
		if strings.TrimSpace(d.Phone) == "" {
			return apperr.InvalidArgument("PHONE_REQUIRED", "numeroPhone is required for courier delivery")
		}
	case DeliveryPlatformDelivery:
		return apperr.InvalidArgument("DELIVERY_TYPE_RESERVED", "platform_delivery is set by accepting a courier bid")
	default:
		return apperr.Newf(apperr.KindInvalidArgument, "INVALID_DELIVERY_TYPE", "unknown delivery type %q", d.Type)
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return apperr.InvalidArgument("PAYMENT_METHOD_REQUIRED", "paymentMethod is required")
	}
	return nil
}

// Create resolves every line through the catalog and persists a placed order.
func (l *Ledger) Create(ctx context.Context, ownerID string, snap cart.Snapshot, d Delivery, paymentMethod string) (*Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.InvalidArgument("USER_ID_REQUIRED", "userId is required")
	}
	if snap.IsEmpty() {
		return nil, apperr.InvalidArgument("EMPTY_CART", "cart is empty")
	}
	if err := validateDelivery(d, paymentMethod); err != nil {
		return nil, err
	}

	products, err := l.resolve(ctx, snap)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Delivery:      d,
		PaymentMethod: paymentMethod,
		Status:        StatusPlaced,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	amount := decimal.Zero
	for _, line := range snap.Lines() {
		p := products[line.ProductID]
		sub := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		o.Items = append(o.Items, Item{
			ProductID:   line.ProductID,
			ProductName: p.Name,
			ProducerID:  p.OwnerID,
			UnitPrice:   p.Price,
			Size:        line.Size,
			Quantity:    line.Quantity,
			Subtotal:    sub,
		})
		amount = amount.Add(sub)
	}
	o.Amount = amount

	if err := l.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	l.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("owner_id", ownerID),
		zap.String("amount", o.Amount.String()),
		zap.Int("lines", len(o.Items)),
	)
	return o, nil
}

func (l *Ledger) resolve(ctx context.Context, snap cart.Snapshot) (map[string]catalog.Product, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]catalog.Product)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for pid := range snap.Items() {
		pid := pid
		g.Go(func() error {
			p, err := l.catalog.Product(gctx, pid)
			if err != nil {
				return classifyLookup(err, pid)
			}
			if !FitsMoneyScale(p.Price) || p.Price.IsNegative() {
				return apperr.New(apperr.KindDependencyFailure, "INVALID_CATALOG_PRICE", "catalog returned an unusable price for "+pid)
			}
			mu.Lock()
			out[pid] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func classifyLookup(err error, productID string) error {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindDependencyFailure:
		return err
	}
	return apperr.Dependency(err, "CATALOG_UNAVAILABLE", "catalog lookup failed for "+productID)
}

func (l *Ledger) Get(ctx context.Context, id string) (*Order, error) {
	return l.repo.Get(ctx, id)
}

// Transition moves the order to target on behalf of actor.
func (l *Ledger) Transition(ctx context.Context, id string, target Status, actor identity.Actor) (Change, error) {
	var ch Change
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.TransitionTo(target, actor); err != nil {
			return err
		}
		if err := l.repo.Update(ctx, o); err != nil {
			return err
		}
		ch = Change{Order: o, From: from, To: target}
		return nil
	})
	if err != nil {
		return Change{}, err
	}
	l.log.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(ch.From)),
		zap.String("to", string(ch.To)),
		zap.String("actor_id", actor.ID),
	)
	return ch, nil
}

// AttachDeliveryFee records the accepted courier's price. A second call fails
// with Conflict.
func (l *Ledger) AttachDeliveryFee(ctx context.Context, id string, fee decimal.Decimal, courierID string) (*Order, error) {
	var out *Order
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := o.AttachDeliveryFee(fee, courierID); err != nil {
			return err
		}
		if err := l.repo.Update(ctx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("delivery fee attached",
		zap.String("order_id", id),
		zap.String("courier_id", courierID),
		zap.String("fee", fee.String()),
	)
	return out, nil
}

// Discard removes an order whose placement did not complete.
func (l *Ledger) Discard(ctx context.Context, id string) error {
	if err := l.repo.Delete(ctx, id); err != nil {
		return err
	}
	l.log.Warn("order discarded", zap.String("order_id", id))
	return nil
}

func (l *Ledger) ListByOwner(ctx context.Context, ownerID string, p Page) ([]Order, error) {
	return l.repo.ListByOwner(ctx, ownerID, p)
}

func (l *Ledger) ListAwaitingCourier(ctx context.Context, p Page) ([]Order, error) {
	return l.repo.ListAwaitingCourier(ctx, p)
}

func (l *Ledger) ListForProducer(ctx context.Context, producerID string, status Status, p Page) ([]Order, error) {
	if status != "" && !status.IsValid() {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "UNKNOWN_STATUS", "unknown status %q", status)
	}
	return l.repo.ListForProducer(ctx, producerID, status, p)
}
