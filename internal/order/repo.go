package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/storage"
)

var (
	ErrNotFound        = apperr.NotFound("ORDER_NOT_FOUND", "order not found")
	ErrVersionConflict = apperr.Conflict("ORDER_MODIFIED", "order was modified concurrently")
)

type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// GetForUpdate locks the order for the rest of the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	// Update persists mutable fields when o.Version matches, then bumps it.
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, p Page) ([]Order, error)
	ListAwaitingCourier(ctx context.Context, p Page) ([]Order, error)
	ListForProducer(ctx context.Context, producerID string, status Status, p Page) ([]Order, error)
}

type PGRepo struct{ db *storage.Postgres }

func NewPGRepo(db *storage.Postgres) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `id, owner_id, amount::text, delivery_fee::text, delivery_type, address,
    pickup_center, phone, payment_method, status, courier_id, version, created_at, updated_at`

func dbErr(err error, op string) error {
	return apperr.Wrap(err, apperr.KindInternal, "ORDER_STORE_FAILURE", "order "+op+" failed")
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.Q(ctx)
		if _, err := q.Exec(ctx, `
      INSERT INTO orders (id, owner_id, amount, delivery_fee, delivery_type, address, pickup_center,
                          phone, payment_method, status, courier_id, version, created_at, updated_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    `, o.ID, o.OwnerID, o.Amount.String(), feeParam(o.DeliveryFee), o.Delivery.Type, o.Delivery.Address,
			o.Delivery.PickupCenter, o.Delivery.Phone, o.PaymentMethod, o.Status, o.CourierID, o.Version,
			o.CreatedAt, o.UpdatedAt); err != nil {
			return dbErr(err, "insert")
		}
		for i, it := range o.Items {
			if _, err := q.Exec(ctx, `
        INSERT INTO order_items (order_id, line, product_id, product_name, producer_id, unit_price, size, quantity, subtotal)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
      `, o.ID, i, it.ProductID, it.ProductName, it.ProducerID, it.UnitPrice.String(), it.Size, it.Quantity,
				it.Subtotal.String()); err != nil {
				return dbErr(err, "insert item")
			}
		}
		return nil
	})
}

func (r *PGRepo) Get(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, id, "")
}

func (r *PGRepo) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, id, r.db.ForUpdate(ctx))
}

func (r *PGRepo) get(ctx context.Context, id, lock string) (*Order, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	q := r.db.Q(ctx)
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`+lock, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, dbErr(err, "get")
	}
	items, err := r.loadItems(ctx, q, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	tag, err := r.db.Q(ctx).Exec(ctx, `
    UPDATE orders
    SET status=$3, delivery_fee=$4, delivery_type=$5, courier_id=$6,
        version = version + 1, updated_at = NOW()
    WHERE id=$1 AND version=$2
  `, o.ID, o.Version, o.Status, feeParam(o.DeliveryFee), o.Delivery.Type, o.CourierID)
	if err != nil {
		return dbErr(err, "update")
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Q(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
			return dbErr(err, "update")
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	tag, err := r.db.Q(ctx).Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return dbErr(err, "delete")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, p Page) ([]Order, error) {
	p = p.normalize()
	return r.list(ctx, `
    SELECT `+orderColumns+` FROM orders WHERE owner_id=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, ownerID, p.Limit, p.Offset)
}

func (r *PGRepo) ListAwaitingCourier(ctx context.Context, p Page) ([]Order, error) {
	p = p.normalize()
	return r.list(ctx, `
    SELECT `+orderColumns+` FROM orders
    WHERE status=$1 AND delivery_type=$2 AND delivery_fee IS NULL
    ORDER BY created_at ASC LIMIT $3 OFFSET $4
  `, StatusPlaced, DeliveryAwaitingCourier, p.Limit, p.Offset)
}

func (r *PGRepo) ListForProducer(ctx context.Context, producerID string, status Status, p Page) ([]Order, error) {
	p = p.normalize()
	return r.list(ctx, `
    SELECT `+orderColumns+` FROM orders o
    WHERE EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.producer_id = $1)
      AND ($2 = '' OR o.status = $2)
    ORDER BY o.created_at DESC LIMIT $3 OFFSET $4
  `, producerID, string(status), p.Limit, p.Offset)
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	q := r.db.Q(ctx)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, dbErr(err, "list")
	}
	var out []Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, dbErr(err, "list")
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list")
	}
	if len(ids) == 0 {
		return []Order{}, nil
	}
	items, err := r.loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *PGRepo) loadItems(ctx context.Context, q storage.Querier, ids []string) (map[string][]Item, error) {
	rows, err := q.Query(ctx, `
    SELECT order_id, product_id, product_name, producer_id, unit_price::text, size, quantity, subtotal::text
    FROM order_items WHERE order_id = ANY($1)
    ORDER BY order_id, line
  `, ids)
	if err != nil {
		return nil, dbErr(err, "load items")
	}
	defer rows.Close()

	out := make(map[string][]Item, len(ids))
	for rows.Next() {
		var (
			orderID         string
			it              Item
			price, subtotal string
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.ProducerID, &price, &it.Size,
			&it.Quantity, &subtotal); err != nil {
			return nil, dbErr(err, "load items")
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, dbErr(err, "load items")
		}
		if it.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, dbErr(err, "load items")
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		amount string
		fee    *string
	)
	if err := row.Scan(&o.ID, &o.OwnerID, &amount, &fee, &o.Delivery.Type, &o.Delivery.Address,
		&o.Delivery.PickupCenter, &o.Delivery.Phone, &o.PaymentMethod, &o.Status, &o.CourierID,
		&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if fee != nil {
		d, err := decimal.NewFromString(*fee)
		if err != nil {
			return nil, fmt.Errorf("parse delivery fee: %w", err)
		}
		o.DeliveryFee = &d
	}
	return &o, nil
}

func feeParam(fee *decimal.Decimal) any {
	if fee == nil {
		return nil
	}
	return fee.String()
}
