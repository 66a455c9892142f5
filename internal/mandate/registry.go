package mandate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/catalog"
	"github.com/MikeMC777/agromarket/internal/identity"
	"github.com/MikeMC777/agromarket/internal/storage"
)

var hundred = decimal.NewFromInt(100)

type Registry struct {
	repo      Repository
	catalog   catalog.Lookup
	directory identity.Directory
	tx        storage.TxManager
	log       *zap.Logger
}

// NewRegistry wires the registry. directory may be nil, in which case the
// producteur's role is not verified.
func NewRegistry(repo Repository, lookup catalog.Lookup, directory identity.Directory, tx storage.TxManager, log *zap.Logger) *Registry {
	return &Registry{repo: repo, catalog: lookup, directory: directory, tx: tx, log: log.Named("mandate")}
}

func validatePercentage(p decimal.Decimal) error {
	if !p.IsPositive() || p.GreaterThan(hundred) {
		return apperr.InvalidArgument("INVALID_PERCENTAGE", "percentage must be greater than 0 and at most 100")
	}
	if !p.Equal(p.Round(2)) {
		return apperr.InvalidArgument("INVALID_PERCENTAGE", "percentage allows at most two decimals")
	}
	return nil
}

// Propose opens a waiting mandate from vendeurID to the producteur owning productID.
func (r *Registry) Propose(ctx context.Context, vendeurID, producteurID, productID string, pct decimal.Decimal, description string) (*Mandate, error) {
	switch {
	case strings.TrimSpace(vendeurID) == "", strings.TrimSpace(producteurID) == "", strings.TrimSpace(productID) == "":
		return nil, apperr.InvalidArgument("MANDATE_IDS_REQUIRED", "vendeurId, producteurId and productId are required")
	case vendeurID == producteurID:
		return nil, apperr.InvalidArgument("SELF_MANDATE", "vendeur and producteur must differ")
	case strings.TrimSpace(description) == "":
		return nil, apperr.InvalidArgument("DESCRIPTION_REQUIRED", "description is required")
	}
	if err := validatePercentage(pct); err != nil {
		return nil, err
	}

	p, err := r.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != producteurID {
		return nil, apperr.InvalidArgument("PRODUCT_NOT_OWNED", "product does not belong to this producteur")
	}
	if err := r.checkProducteur(ctx, producteurID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &Mandate{
		ID:           uuid.NewString(),
		VendeurID:    vendeurID,
		ProducteurID: producteurID,
		ProductID:    productID,
		Percentage:   pct,
		Description:  strings.TrimSpace(description),
		Status:       StatusWaiting,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	r.log.Info("mandate proposed",
		zap.String("mandate_id", m.ID),
		zap.String("vendeur_id", vendeurID),
		zap.String("producteur_id", producteurID),
		zap.String("product_id", productID),
		zap.String("percentage", pct.String()),
	)
	return m, nil
}

func (r *Registry) checkProducteur(ctx context.Context, id string) error {
	if r.directory == nil {
		return nil
	}
	a, err := r.directory.Lookup(ctx, id)
	switch {
	case errors.Is(err, identity.ErrUnknownActor):
		return apperr.NotFound("PRODUCTEUR_NOT_FOUND", "producteur not found")
	case err != nil:
		return apperr.Dependency(err, "IDENTITY_UNAVAILABLE", "identity lookup failed")
	case !a.Has(identity.RoleProducteur):
		return apperr.InvalidArgument("NOT_A_PRODUCTEUR", "target user is not a producteur")
	}
	return nil
}

// Decide records the producteur's answer. A decided mandate never changes again.
func (r *Registry) Decide(ctx context.Context, id, producteurID string, decision Status) (*Mandate, error) {
	if !decision.IsDecision() {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "INVALID_DECISION", "decision must be %s or %s", StatusAccepted, StatusRefused)
	}
	var out *Mandate
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := r.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m.ProducteurID != producteurID {
			return apperr.Forbidden("NOT_MANDATE_PRODUCTEUR", "only the addressed producteur may decide")
		}
		if m.Status != StatusWaiting {
			return apperr.Newf(apperr.KindInvalidStateTransition, "MANDATE_ALREADY_DECIDED", "mandate already %s", m.Status)
		}
		now := time.Now().UTC()
		m.Status = decision
		m.DecidedAt = &now
		if err := r.repo.Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("mandate decided", zap.String("mandate_id", id), zap.String("decision", string(decision)))
	return out, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*Mandate, error) {
	return r.repo.Get(ctx, id)
}

func (r *Registry) ListForProducer(ctx context.Context, producteurID string) ([]Mandate, error) {
	return r.repo.ListByProducteur(ctx, producteurID)
}

// ListForVendeur returns the vendeur's mandates, optionally narrowed to status.
func (r *Registry) ListForVendeur(ctx context.Context, vendeurID string, status Status) ([]Mandate, error) {
	switch status {
	case "", StatusWaiting, StatusAccepted, StatusRefused:
	default:
		return nil, apperr.Newf(apperr.KindInvalidArgument, "UNKNOWN_STATUS", "unknown mandate status %q", status)
	}
	return r.repo.ListByVendeur(ctx, vendeurID, status)
}

// Authorization returns the accepted mandate letting vendeurID resell
// productID. It is advisory; nothing else consults it.
func (r *Registry) Authorization(ctx context.Context, vendeurID, productID string) (*Mandate, error) {
	m, err := r.repo.FindAccepted(ctx, vendeurID, productID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("NO_ACCEPTED_MANDATE", "vendeur holds no accepted mandate for this product")
	}
	return m, err
}
