package mandate

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

func (s Status) IsDecision() bool { return s == StatusAccepted || s == StatusRefused }

// Mandate is a vendeur's request to resell a producer's product for a
// commission.
type Mandate struct {
	ID           string          `json:"id"`
	VendeurID    string          `json:"vendeurId"`
	ProducteurID string          `json:"producteurId"`
	ProductID    string          `json:"productId"`
	Percentage   decimal.Decimal `json:"percentage"`
	Description  string          `json:"description"`
	Status       Status          `json:"status"`
	DecidedAt    *time.Time      `json:"decidedAt,omitempty"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ProposeRequest
// swagger:model ProposeMandateRequest
type ProposeRequest struct {
	VendeurID    string          `json:"vendeurId" binding:"required" example:"v1"`
	ProducteurID string          `json:"producteurId" binding:"required" example:"p1"`
	ProductID    string          `json:"productId" binding:"required" example:"tomato"`
	Percentage   decimal.Decimal `json:"percentage" swaggertype:"string" example:"20"`
	Description  string          `json:"description" example:"Vente au marché central"`
}

// DecisionRequest
// swagger:model MandateDecisionRequest
type DecisionRequest struct {
	ProducteurID string `json:"producteurId" binding:"required" example:"p1"`
	Decision     Status `json:"decision" binding:"required" example:"accepted"`
}
