package mandate

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/storage"
)

var (
	ErrNotFound        = apperr.NotFound("MANDATE_NOT_FOUND", "mandate not found")
	ErrVersionConflict = apperr.Conflict("MANDATE_MODIFIED", "mandate was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, m *Mandate) error
	Get(ctx context.Context, id string) (*Mandate, error)
	GetForUpdate(ctx context.Context, id string) (*Mandate, error)
	Update(ctx context.Context, m *Mandate) error
	ListByProducteur(ctx context.Context, producteurID string) ([]Mandate, error)
	ListByVendeur(ctx context.Context, vendeurID string, status Status) ([]Mandate, error)
	FindAccepted(ctx context.Context, vendeurID, productID string) (*Mandate, error)
}

type PGRepo struct{ db *storage.Postgres }

func NewPGRepo(db *storage.Postgres) *PGRepo { return &PGRepo{db: db} }

const mandateColumns = `id, vendeur_id, producteur_id, product_id, percentage::text, description, status,
    decided_at, version, created_at, updated_at`

func dbErr(err error, op string) error {
	return apperr.Wrap(err, apperr.KindInternal, "MANDATE_STORE_FAILURE", "mandate "+op+" failed")
}

func (r *PGRepo) Create(ctx context.Context, m *Mandate) error {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	if _, err := r.db.Q(ctx).Exec(ctx, `
    INSERT INTO mandates (id, vendeur_id, producteur_id, product_id, percentage, description, status,
                          decided_at, version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, m.ID, m.VendeurID, m.ProducteurID, m.ProductID, m.Percentage.String(), m.Description, m.Status,
		m.DecidedAt, m.Version, m.CreatedAt, m.UpdatedAt); err != nil {
		return dbErr(err, "insert")
	}
	return nil
}

func (r *PGRepo) Get(ctx context.Context, id string) (*Mandate, error) {
	return r.getOne(ctx, `SELECT `+mandateColumns+` FROM mandates WHERE id=$1`, id)
}

func (r *PGRepo) GetForUpdate(ctx context.Context, id string) (*Mandate, error) {
	return r.getOne(ctx, `SELECT `+mandateColumns+` FROM mandates WHERE id=$1`+r.db.ForUpdate(ctx), id)
}

func (r *PGRepo) FindAccepted(ctx context.Context, vendeurID, productID string) (*Mandate, error) {
	return r.getOne(ctx, `
    SELECT `+mandateColumns+` FROM mandates
    WHERE vendeur_id=$1 AND product_id=$2 AND status=$3
    ORDER BY decided_at DESC LIMIT 1
  `, vendeurID, productID, StatusAccepted)
}

func (r *PGRepo) getOne(ctx context.Context, sql string, args ...any) (*Mandate, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	m, err := scanMandate(r.db.Q(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if storage.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, dbErr(err, "get")
	}
	return m, nil
}

func (r *PGRepo) Update(ctx context.Context, m *Mandate) error {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	tag, err := r.db.Q(ctx).Exec(ctx, `
    UPDATE mandates
    SET status=$3, decided_at=$4, version = version + 1, updated_at = NOW()
    WHERE id=$1 AND version=$2
  `, m.ID, m.Version, m.Status, m.DecidedAt)
	if err != nil {
		return dbErr(err, "update")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, m.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PGRepo) ListByProducteur(ctx context.Context, producteurID string) ([]Mandate, error) {
	return r.list(ctx, `
    SELECT `+mandateColumns+` FROM mandates WHERE producteur_id=$1 ORDER BY created_at DESC
  `, producteurID)
}

func (r *PGRepo) ListByVendeur(ctx context.Context, vendeurID string, status Status) ([]Mandate, error) {
	return r.list(ctx, `
    SELECT `+mandateColumns+` FROM mandates
    WHERE vendeur_id=$1 AND ($2 = '' OR status = $2)
    ORDER BY created_at DESC
  `, vendeurID, string(status))
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Mandate, error) {
	ctx, cancel := r.db.Timeout(ctx)
	defer cancel()

	rows, err := r.db.Q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, dbErr(err, "list")
	}
	defer rows.Close()

	out := []Mandate{}
	for rows.Next() {
		m, err := scanMandate(rows)
		if err != nil {
			return nil, dbErr(err, "list")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMandate(row pgx.Row) (*Mandate, error) {
	var (
		m   Mandate
		pct string
	)
	if err := row.Scan(&m.ID, &m.VendeurID, &m.ProducteurID, &m.ProductID, &pct, &m.Description, &m.Status,
		&m.DecidedAt, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(pct)
	if err != nil {
		return nil, err
	}
	m.Percentage = p
	return &m, nil
}
