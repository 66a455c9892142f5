// Package workflow sequences the cart, order, bid and mandate components
// into the user-facing operations. It owns per-order and per-mandate
// serialization and the atomic bid acceptance.
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/bid"
	"github.com/MikeMC777/agromarket/internal/cart"
	"github.com/MikeMC777/agromarket/internal/events"
	"github.com/MikeMC777/agromarket/internal/idempotency"
	"github.com/MikeMC777/agromarket/internal/identity"
	"github.com/MikeMC777/agromarket/internal/keylock"
	"github.com/MikeMC777/agromarket/internal/mandate"
	"github.com/MikeMC777/agromarket/internal/metrics"
	"github.com/MikeMC777/agromarket/internal/order"
	"github.com/MikeMC777/agromarket/internal/storage"
)

const publishTimeout = 5 * time.Second

type Deps struct {
	Cart           cart.Store
	Ledger         *order.Ledger
	Board          *bid.Board
	Registry       *mandate.Registry
	Tx             storage.TxManager
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	Events         events.Publisher
	Metrics        *metrics.Metrics
	Log            *zap.Logger
}

type Coordinator struct {
	cart     cart.Store
	ledger   *order.Ledger
	board    *bid.Board
	registry *mandate.Registry
	tx       storage.TxManager
	idem     idempotency.Store
	idemTTL  time.Duration
	events   events.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger

	users    *keylock.Map
	orders   *keylock.Map
	mandates *keylock.Map
}

func New(d Deps) *Coordinator {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Coordinator{
		cart:     d.Cart,
		ledger:   d.Ledger,
		board:    d.Board,
		registry: d.Registry,
		tx:       d.Tx,
		idem:     d.Idempotency,
		idemTTL:  ttl,
		events:   d.Events,
		metrics:  d.Metrics,
		log:      d.Log.Named("workflow"),
		users:    keylock.New(),
		orders:   keylock.New(),
		mandates: keylock.New(),
	}
}

// requireSelf rejects requests that act on behalf of another user.
func requireSelf(actor identity.Actor, id, field string) error {
	if actor.IsZero() || actor.ID != id {
		return apperr.Newf(apperr.KindForbidden, "ACTOR_MISMATCH", "%s must be the current user", field)
	}
	return nil
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.events.Publish(ctx, e); err != nil {
		c.log.Warn("event publish failed",
			zap.String("type", e.Type),
			zap.String("aggregate_id", e.AggregateID),
			zap.Error(err),
		)
	}
}

// ===== cart =====

func (c *Coordinator) AddToCart(ctx context.Context, actor identity.Actor, req cart.AddRequest) error {
	if err := requireSelf(actor, req.UserID, "userId"); err != nil {
		return err
	}
	return c.cart.AddOrUpdate(ctx, req.UserID, req.ProductID, req.Size, req.Quantity)
}

func (c *Coordinator) RemoveFromCart(ctx context.Context, actor identity.Actor, req cart.RemoveRequest) error {
	if err := requireSelf(actor, req.UserID, "userId"); err != nil {
		return err
	}
	return c.cart.Remove(ctx, req.UserID, req.ProductID, req.Size)
}

func (c *Coordinator) Cart(ctx context.Context, actor identity.Actor, userID string) (cart.Snapshot, error) {
	if err := requireSelf(actor, userID, "userId"); err != nil {
		return cart.Snapshot{}, err
	}
	return c.cart.Snapshot(ctx, userID)
}

// ===== orders =====

// PlaceOrder is the input of order placement. Expected, when non-nil, must
// match the stored cart exactly.
type PlaceOrder struct {
	UserID         string
	Expected       []cart.Line
	Delivery       order.Delivery
	PaymentMethod  string
	IdempotencyKey string
}

type Placement struct {
	Order    *order.Order
	Replayed bool
}

// PlaceOrder turns the user's cart into an order and clears what was
// ordered. If the cart cannot be cleared the order is discarded. A repeated
// IdempotencyKey returns the order created by the first call.
func (c *Coordinator) PlaceOrder(ctx context.Context, actor identity.Actor, req PlaceOrder) (Placement, error) {
	if err := requireSelf(actor, req.UserID, "userId"); err != nil {
		return Placement{}, err
	}
	if req.IdempotencyKey == "" || c.idem == nil {
		return c.placeOrder(ctx, req)
	}

	fp := idempotency.Fingerprint(req.UserID, req.IdempotencyKey)
	prior, err := c.idem.Begin(ctx, fp, c.idemTTL)
	if err != nil {
		return Placement{}, err
	}
	if prior != "" {
		o, err := c.ledger.Get(ctx, prior)
		if err != nil {
			return Placement{}, err
		}
		return Placement{Order: o, Replayed: true}, nil
	}

	res, err := c.placeOrder(ctx, req)
	bg := context.WithoutCancel(ctx)
	if err != nil {
		if rerr := c.idem.Release(bg, fp); rerr != nil {
			c.log.Warn("idempotency release failed", zap.Error(rerr))
		}
		return Placement{}, err
	}
	if cerr := c.idem.Complete(bg, fp, res.Order.ID, c.idemTTL); cerr != nil {
		c.log.Warn("idempotency complete failed", zap.String("order_id", res.Order.ID), zap.Error(cerr))
	}
	return res, nil
}

func (c *Coordinator) placeOrder(ctx context.Context, req PlaceOrder) (Placement, error) {
	unlock := c.users.Lock(req.UserID)
	defer unlock()

	snap, err := c.cart.Snapshot(ctx, req.UserID)
	if err != nil {
		return Placement{}, err
	}
	if req.Expected != nil && !snap.SameItems(cart.NewSnapshot(req.UserID, req.Expected)) {
		return Placement{}, apperr.Conflict("CART_CHANGED", "cart changed since it was displayed")
	}

	o, err := c.ledger.Create(ctx, req.UserID, snap, req.Delivery, req.PaymentMethod)
	if err != nil {
		return Placement{}, err
	}
	if err := c.cart.ClearSnapshot(ctx, req.UserID, snap); err != nil {
		if derr := c.ledger.Discard(context.WithoutCancel(ctx), o.ID); derr != nil {
			c.log.Error("compensating discard failed", zap.String("order_id", o.ID), zap.Error(derr))
		}
		return Placement{}, err
	}
	c.metrics.OrdersPlaced.Inc()
	c.publish(ctx, events.New(events.OrderPlaced, o.ID, map[string]any{
		"ownerId":      o.OwnerID,
		"amount":       o.Amount.String(),
		"deliveryType": o.Delivery.Type,
		"lines":        len(o.Items),
	}))
	return Placement{Order: o}, nil
}

func (c *Coordinator) Order(ctx context.Context, id string) (*order.Order, error) {
	return c.ledger.Get(ctx, id)
}

// OrdersByOwner lists the actor's own orders; nobody reads another buyer's history.
func (c *Coordinator) OrdersByOwner(ctx context.Context, actor identity.Actor, ownerID string, p order.Page) ([]order.Order, error) {
	if err := requireSelf(actor, ownerID, "userId"); err != nil {
		return nil, err
	}
	return c.ledger.ListByOwner(ctx, ownerID, p)
}

func (c *Coordinator) OrdersAwaitingCourier(ctx context.Context, p order.Page) ([]order.Order, error) {
	return c.ledger.ListAwaitingCourier(ctx, p)
}

func (c *Coordinator) OrdersForProducer(ctx context.Context, producerID string, status order.Status, p order.Page) ([]order.Order, error) {
	return c.ledger.ListForProducer(ctx, producerID, status, p)
}

// TransitionOrder applies one lifecycle step. First assignment only happens
// through AcceptBid; the ledger refuses it for any user. Cancelling rejects
// the order's waiting bids in the same transaction.
func (c *Coordinator) TransitionOrder(ctx context.Context, actor identity.Actor, orderID string, target order.Status) (order.Change, error) {
	if actor.IsZero() {
		return order.Change{}, apperr.Forbidden("ANONYMOUS", "an authenticated user is required")
	}
	unlock := c.orders.Lock(orderID)
	defer unlock()

	var (
		ch      order.Change
		dropped []bid.Bid
	)
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ch, err = c.ledger.Transition(ctx, orderID, target, actor)
		if err != nil {
			return err
		}
		if target == order.StatusCancelled {
			dropped, err = c.board.RejectWaiting(ctx, orderID)
		}
		return err
	})
	if err != nil {
		return order.Change{}, err
	}
	c.publishStatus(ctx, ch, actor.ID)
	for _, b := range dropped {
		c.publish(ctx, events.New(events.BidRejected, b.OrderID, map[string]any{
			"bidId":    b.ID,
			"bidderId": b.BidderID,
			"reason":   "order_cancelled",
		}))
	}
	return ch, nil
}

func (c *Coordinator) publishStatus(ctx context.Context, ch order.Change, actorID string) {
	c.publish(ctx, events.New(events.OrderStatusChanged, ch.Order.ID, map[string]any{
		"from":    ch.From,
		"to":      ch.To,
		"actorId": actorID,
	}))
}

// ===== bids =====

func (c *Coordinator) SubmitBid(ctx context.Context, actor identity.Actor, req bid.SubmitRequest) (*bid.Bid, error) {
	if err := requireSelf(actor, req.BidderID, "bidderId"); err != nil {
		return nil, err
	}
	unlock := c.orders.Lock(req.OrderID)
	defer unlock()

	b, err := c.board.Submit(ctx, req.OrderID, req.BidderID, req.Price)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.New(events.BidSubmitted, b.OrderID, map[string]any{
		"bidId":    b.ID,
		"bidderId": b.BidderID,
		"price":    b.Price.String(),
	}))
	return b, nil
}

type Acceptance struct {
	Decision bid.Decision
	Order    *order.Order
}

// AcceptBid accepts bidID, rejects the other waiting bids, attaches the
// courier's price as delivery fee and assigns the order, all or nothing.
func (c *Coordinator) AcceptBid(ctx context.Context, actor identity.Actor, bidID, actorID string) (Acceptance, error) {
	res, err := c.acceptBid(ctx, actor, bidID, actorID)
	c.metrics.BidAccepts.WithLabelValues(acceptResult(err)).Inc()
	return res, err
}

func acceptResult(err error) string {
	if err == nil {
		return "accepted"
	}
	return string(apperr.KindOf(err))
}

func (c *Coordinator) acceptBid(ctx context.Context, actor identity.Actor, bidID, actorID string) (Acceptance, error) {
	if err := requireSelf(actor, actorID, "actorId"); err != nil {
		return Acceptance{}, err
	}
	target, err := c.board.Get(ctx, bidID)
	if err != nil {
		return Acceptance{}, err
	}
	unlock := c.orders.Lock(target.OrderID)
	defer unlock()

	var (
		res Acceptance
		ch  order.Change
	)
	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := c.board.Accept(ctx, target.OrderID, bidID, actor.ID)
		if err != nil {
			return err
		}
		if _, err := c.ledger.AttachDeliveryFee(ctx, target.OrderID, d.Accepted.Price, d.Accepted.BidderID); err != nil {
			return err
		}
		ch, err = c.ledger.Transition(ctx, target.OrderID, order.StatusAssignedForDelivery, identity.System())
		if err != nil {
			return err
		}
		res = Acceptance{Decision: d, Order: ch.Order}
		return nil
	})
	if err != nil {
		c.log.Info("bid acceptance refused",
			zap.String("bid_id", bidID),
			zap.String("order_id", target.OrderID),
			zap.String("kind", string(apperr.KindOf(err))),
		)
		return Acceptance{}, err
	}

	rejected := make([]string, 0, len(res.Decision.Rejected))
	for _, r := range res.Decision.Rejected {
		rejected = append(rejected, r.ID)
	}
	c.publish(ctx, events.New(events.BidAccepted, target.OrderID, map[string]any{
		"bidId":       bidID,
		"courierId":   res.Decision.Accepted.BidderID,
		"deliveryFee": res.Decision.Accepted.Price.String(),
		"rejected":    rejected,
	}))
	c.publishStatus(ctx, ch, identity.System().ID)
	return res, nil
}

func (c *Coordinator) RejectBid(ctx context.Context, actor identity.Actor, bidID, actorID string) (*bid.Bid, error) {
	if err := requireSelf(actor, actorID, "actorId"); err != nil {
		return nil, err
	}
	target, err := c.board.Get(ctx, bidID)
	if err != nil {
		return nil, err
	}
	unlock := c.orders.Lock(target.OrderID)
	defer unlock()

	b, err := c.board.Reject(ctx, target.OrderID, bidID, actor.ID)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.New(events.BidRejected, b.OrderID, map[string]any{
		"bidId":    b.ID,
		"bidderId": b.BidderID,
	}))
	return b, nil
}

func (c *Coordinator) BidsForOrder(ctx context.Context, orderID string) ([]bid.Bid, error) {
	if _, err := c.ledger.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return c.board.ListForOrder(ctx, orderID)
}

func (c *Coordinator) BidsForBidder(ctx context.Context, bidderID string) ([]bid.Bid, error) {
	return c.board.ListForBidder(ctx, bidderID)
}

// ===== mandates =====

func (c *Coordinator) ProposeMandate(ctx context.Context, actor identity.Actor, req mandate.ProposeRequest) (*mandate.Mandate, error) {
	if err := requireSelf(actor, req.VendeurID, "vendeurId"); err != nil {
		return nil, err
	}
	m, err := c.registry.Propose(ctx, req.VendeurID, req.ProducteurID, req.ProductID, req.Percentage, req.Description)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.New(events.MandateProposed, m.ID, map[string]any{
		"vendeurId":    m.VendeurID,
		"producteurId": m.ProducteurID,
		"productId":    m.ProductID,
		"percentage":   m.Percentage.String(),
	}))
	return m, nil
}

func (c *Coordinator) DecideMandate(ctx context.Context, actor identity.Actor, mandateID string, req mandate.DecisionRequest) (*mandate.Mandate, error) {
	if err := requireSelf(actor, req.ProducteurID, "producteurId"); err != nil {
		return nil, err
	}
	unlock := c.mandates.Lock(mandateID)
	defer unlock()

	m, err := c.registry.Decide(ctx, mandateID, req.ProducteurID, req.Decision)
	if err != nil {
		return nil, err
	}
	c.metrics.MandateDecisions.WithLabelValues(string(m.Status)).Inc()
	c.publish(ctx, events.New(events.MandateDecided, m.ID, map[string]any{
		"decision":     m.Status,
		"producteurId": m.ProducteurID,
	}))
	return m, nil
}

func (c *Coordinator) Mandate(ctx context.Context, id string) (*mandate.Mandate, error) {
	return c.registry.Get(ctx, id)
}

func (c *Coordinator) MandatesForProducer(ctx context.Context, producteurID string) ([]mandate.Mandate, error) {
	return c.registry.ListForProducer(ctx, producteurID)
}

func (c *Coordinator) MandatesForVendeur(ctx context.Context, vendeurID string, status mandate.Status) ([]mandate.Mandate, error) {
	return c.registry.ListForVendeur(ctx, vendeurID, status)
}

func (c *Coordinator) MandateAuthorization(ctx context.Context, vendeurID, productID string) (*mandate.Mandate, error) {
	return c.registry.Authorization(ctx, vendeurID, productID)
}
