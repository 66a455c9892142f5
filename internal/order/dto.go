package order

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/cart"
)

// DeliveryInfo payload of a new order.
// swagger:model DeliveryInfo
type DeliveryInfo struct {
	Type         DeliveryType `json:"type" binding:"required" example:"awaiting_courier"`
	Address      string       `json:"address" example:"12 rue des Oliviers, Sfax"`
	PickupCenter string       `json:"pickupCenter" example:"Centre Nord"`
	Phone        string       `json:"numeroPhone" example:"+21620123456"`
}

func (d DeliveryInfo) ToDelivery() Delivery {
	return Delivery{Type: d.Type, Address: d.Address, PickupCenter: d.PickupCenter, Phone: d.Phone}
}

// PlaceOrderRequest payload. Cart, when sent, must match the stored cart.
// swagger:model PlaceOrderRequest
type PlaceOrderRequest struct {
	UserID        string       `json:"userId" binding:"required" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Cart          []cart.Line  `json:"cart" binding:"omitempty,dive"`
	DeliveryInfo  DeliveryInfo `json:"deliveryInfo" binding:"required"`
	PaymentMethod string       `json:"paymentMethod" binding:"required" example:"cash_on_delivery"`
}

// PlaceOrderResponse
// swagger:model PlaceOrderResponse
type PlaceOrderResponse struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount" swaggertype:"string" example:"20"`
	Status  Status          `json:"status" example:"placed"`
}

// UpdateStatusRequest
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	TargetStatus Status `json:"targetStatus" binding:"required" example:"confirmed_prepared"`
}
