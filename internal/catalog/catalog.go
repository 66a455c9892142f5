package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/apperr"
)

var ErrProductNotFound = apperr.NotFound("PRODUCT_NOT_FOUND", "product not found")

// Product is the subset of the catalog entry the workflow needs.
type Product struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	OwnerID string          `json:"ownerId"`
}

// Lookup resolves products. Implementations return ErrProductNotFound for
// unknown ids and a DependencyFailure for anything else.
type Lookup interface {
	Product(ctx context.Context, id string) (Product, error)
}

// productDTO tolerates both "ownerId" and "owner_id" along with a string or
// numeric price.
type productDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	OwnerID  string          `json:"ownerId"`
	OwnerID2 string          `json:"owner_id"`
}

type HTTPLookup struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	return &HTTPLookup{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: baseURL,
	}
}

func (l *HTTPLookup) Product(ctx context.Context, id string) (Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s", l.BaseURL, url.PathEscape(id)), nil)
	if err != nil {
		return Product{}, apperr.Dependency(err, "CATALOG_UNAVAILABLE", "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := l.HTTP.Do(req)
	if err != nil {
		return Product{}, apperr.Dependency(err, "CATALOG_UNAVAILABLE", "catalog lookup failed")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Product{}, apperr.Newf(apperr.KindNotFound, ErrProductNotFound.Code, "product %s not found", id)
	default:
		return Product{}, apperr.Dependency(fmt.Errorf("status %s", res.Status), "CATALOG_UNAVAILABLE", "catalog lookup failed")
	}

	var p productDTO
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return Product{}, apperr.Dependency(err, "CATALOG_BAD_RESPONSE", "decode catalog product")
	}
	if p.OwnerID == "" {
		p.OwnerID = p.OwnerID2
	}
	if p.ID == "" {
		p.ID = id
	}
	if p.OwnerID == "" || p.Price.IsNegative() {
		return Product{}, apperr.Dependency(errors.New("incomplete product"), "CATALOG_BAD_RESPONSE", "catalog returned an incomplete product")
	}
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, OwnerID: p.OwnerID}, nil
}

// Static serves a fixed product set, for local runs and tests.
type Static map[string]Product

func (s Static) Product(_ context.Context, id string) (Product, error) {
	p, ok := s[id]
	if !ok {
		return Product{}, apperr.Newf(apperr.KindNotFound, ErrProductNotFound.Code, "product %s not found", id)
	}
	return p, nil
}
