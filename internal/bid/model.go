package bid

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Bid is a courier's delivery price offer on one order. A courier holds at
// most one bid per order.
type Bid struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	BidderID  string          `json:"bidderId"`
	Price     decimal.Decimal `json:"price"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Decision is the outcome of accepting one bid on an order.
type Decision struct {
	Accepted Bid   `json:"accepted"`
	Rejected []Bid `json:"rejected"`
}

// SubmitRequest
// swagger:model SubmitBidRequest
type SubmitRequest struct {
	OrderID  string          `json:"orderId" binding:"required" example:"8a0c3c55-6a4e-4d7b-9d1b-f0c1c3a8a001"`
	BidderID string          `json:"bidderId" binding:"required" example:"c1"`
	Price    decimal.Decimal `json:"price" swaggertype:"string" example:"7.50"`
}

// ActorRequest carries the acting user for accept and reject.
// swagger:model BidActorRequest
type ActorRequest struct {
	ActorID string `json:"actorId" binding:"required" example:"u1"`
}
