package bid

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/storage"
)

var ErrNotFound = apperr.NotFound("BID_NOT_FOUND", "bid not found")

type Repository interface {
	Get(ctx context.Context, id string) (*Bid, error)
	FindByOrderAndBidder(ctx context.Context, orderID, bidderID string) (*Bid, error)
	// Save inserts or updates every bid as one unit.
	Save(ctx context.Context, bids ...*Bid) error
	ListByOrder(ctx context.Context, orderID string) ([]Bid, error)
	ListByBidder(ctx context.Context, bidderID string) ([]Bid, error)
}

type PGRepo struct{ db *storage.Postgres }

func NewPGRepo(db *storage.Postgres) *PGRepo { return &PGRepo{db: db} }

const bidColumns = `id, order_id, bidder_id, price::text, status, created_at, updated_at`

func dbErr(err error, op string) error {
	return apperr.Wrap(err, apperr.KindInternal, "BID_STORE_FAILURE", "bid "+op+" failed")
}

func (r *PGRepo) Get(ctx context.Context, id string) (*Bid, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()
	b, err := scanBid(r.db.Q(ctx).QueryRow(ctx, `SELECT `+bidColumns+` FROM delivery_bids WHERE id=$1`, id))
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, dbErr(err, "get")
	}
	return b, nil
}

func (r *PGRepo) FindByOrderAndBidder(ctx context.Context, orderID, bidderID string) (*Bid, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()
	b, err := scanBid(r.db.Q(ctx).QueryRow(ctx, `
    SELECT `+bidColumns+` FROM delivery_bids WHERE order_id=$1 AND bidder_id=$2
  `, orderID, bidderID))
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, dbErr(err, "find")
	}
	return b, nil
}

func (r *PGRepo) Save(ctx context.Context, bids ...*Bid) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.Q(ctx)
		for _, b := range bids {
			b.UpdatedAt = time.Now().UTC()
			if _, err := q.Exec(ctx, `
        INSERT INTO delivery_bids (id, order_id, bidder_id, price, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE
        SET price = EXCLUDED.price, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
      `, b.ID, b.OrderID, b.BidderID, b.Price.String(), b.Status, b.CreatedAt, b.UpdatedAt); err != nil {
				if storage.IsUniqueViolation(err, "uq_delivery_bids_one_accepted") {
					return apperr.Conflict("BID_ALREADY_ACCEPTED", "another bid was already accepted for this order")
				}
				if storage.IsUniqueViolation(err, "uq_delivery_bids_order_bidder") {
					return apperr.Conflict("DUPLICATE_BID", "bidder already holds a bid on this order")
				}
				return dbErr(err, "save")
			}
		}
		return nil
	})
}

func (r *PGRepo) ListByOrder(ctx context.Context, orderID string) ([]Bid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM delivery_bids WHERE order_id=$1 ORDER BY created_at`, orderID)
}

func (r *PGRepo) ListByBidder(ctx context.Context, bidderID string) ([]Bid, error) {
	return r.list(ctx, `SELECT `+bidColumns+` FROM delivery_bids WHERE bidder_id=$1 ORDER BY created_at DESC`, bidderID)
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Bid, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	rows, err := r.db.Q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, dbErr(err, "list")
	}
	defer rows.Close()

	out := []Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, dbErr(err, "list")
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBid(row pgx.Row) (*Bid, error) {
	var (
		b     Bid
		price string
	)
	if err := row.Scan(&b.ID, &b.OrderID, &b.BidderID, &price, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	b.Price = p
	return &b, nil
}
