package cart

import (
	"context"
	"fmt"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/storage"
)

type PGStore struct{ db *storage.Postgres }

func NewPGStore(db *storage.Postgres) *PGStore { return &PGStore{db: db} }

func pgErr(err error, op string) error {
	return apperr.Dependency(err, "CART_STORE_UNAVAILABLE", fmt.Sprintf("cart %s failed", op))
}

func (s *PGStore) AddOrUpdate(ctx context.Context, userID, productID, size string, quantity int) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID, size)
	}
	ctx, cancel := s.db.Timeout(ctx)
	defer cancel()

	if _, err := s.db.Q(ctx).Exec(ctx, `
    INSERT INTO cart_entries (user_id, product_id, size, quantity, updated_at)
    VALUES ($1,$2,$3,$4,NOW())
    ON CONFLICT (user_id, product_id, size)
    DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
  `, userID, productID, size, quantity); err != nil {
		return pgErr(err, "update")
	}
	return nil
}

func (s *PGStore) Remove(ctx context.Context, userID, productID, size string) error {
	if err := validateKey(userID, productID, size); err != nil {
		return err
	}
	ctx, cancel := s.db.Timeout(ctx)
	defer cancel()

	if _, err := s.db.Q(ctx).Exec(ctx, `
    DELETE FROM cart_entries WHERE user_id=$1 AND product_id=$2 AND size=$3
  `, userID, productID, size); err != nil {
		return pgErr(err, "remove")
	}
	return nil
}

func (s *PGStore) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	if err := validateUser(userID); err != nil {
		return Snapshot{}, err
	}
	ctx, cancel := s.db.Timeout(ctx)
	defer cancel()

	rows, err := s.db.Q(ctx).Query(ctx, `
    SELECT product_id, size, quantity FROM cart_entries WHERE user_id=$1
  `, userID)
	if err != nil {
		return Snapshot{}, pgErr(err, "snapshot")
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Size, &l.Quantity); err != nil {
			return Snapshot{}, pgErr(err, "snapshot")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, pgErr(err, "snapshot")
	}
	return NewSnapshot(userID, lines), nil
}

func (s *PGStore) Clear(ctx context.Context, userID string) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	ctx, cancel := s.db.Timeout(ctx)
	defer cancel()

	if _, err := s.db.Q(ctx).Exec(ctx, `DELETE FROM cart_entries WHERE user_id=$1`, userID); err != nil {
		return pgErr(err, "clear")
	}
	return nil
}

func (s *PGStore) ClearSnapshot(ctx context.Context, userID string, snap Snapshot) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	return s.db.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db.Q(ctx)
		for _, l := range snap.Lines() {
			if _, err := q.Exec(ctx, `
        DELETE FROM cart_entries
        WHERE user_id=$1 AND product_id=$2 AND size=$3 AND quantity <= $4
      `, userID, l.ProductID, l.Size, l.Quantity); err != nil {
				return pgErr(err, "clear")
			}
			if _, err := q.Exec(ctx, `
        UPDATE cart_entries SET quantity = quantity - $4, updated_at = NOW()
        WHERE user_id=$1 AND product_id=$2 AND size=$3
      `, userID, l.ProductID, l.Size, l.Quantity); err != nil {
				return pgErr(err, "clear")
			}
		}
		return nil
	})
}
