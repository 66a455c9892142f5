package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimals kept for money (dinar millimes).
const MoneyScale = 3

// FitsMoneyScale reports whether d is stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool { return d.Equal(d.Round(MoneyScale)) }

type Status string

const (
	StatusPlaced              Status = "placed"
	StatusConfirmedPrepared   Status = "confirmed_prepared"
	StatusAssignedForDelivery Status = "assigned_for_delivery"
	StatusInTransit           Status = "in_transit"
	StatusDelivered           Status = "delivered"
	StatusDeliveryFailed      Status = "delivery_failed"
	StatusCancelled           Status = "cancelled"
)

type DeliveryType string

const (
	DeliverySelfPickup       DeliveryType = "self_pickup"
	DeliveryPickupCenter     DeliveryType = "pickup_center"
	DeliveryAwaitingCourier  DeliveryType = "awaiting_courier"
	DeliveryPlatformDelivery DeliveryType = "platform_delivery"
)

func (t DeliveryType) IsValid() bool {
	switch t {
	case DeliverySelfPickup, DeliveryPickupCenter, DeliveryAwaitingCourier, DeliveryPlatformDelivery:
		return true
	}
	return false
}

// NeedsCourier reports whether the order is delivered by a livreur.
func (t DeliveryType) NeedsCourier() bool {
	return t == DeliveryAwaitingCourier || t == DeliveryPlatformDelivery
}

type Delivery struct {
	Type         DeliveryType `json:"type"`
	Address      string       `json:"address,omitempty"`
	PickupCenter string       `json:"pickupCenter,omitempty"`
	Phone        string       `json:"numeroPhone,omitempty"`
}

// Item is a line captured at creation time; later catalog changes never
// touch it.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	ProducerID  string          `json:"producerId"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"ownerId"`
	Items         []Item           `json:"items"`
	Amount        decimal.Decimal  `json:"amount"`
	DeliveryFee   *decimal.Decimal `json:"amount_livraison,omitempty"`
	Delivery      Delivery         `json:"deliveryInfo"`
	PaymentMethod string           `json:"paymentMethod"`
	Status        Status           `json:"status"`
	CourierID     string           `json:"courierId,omitempty"`
	Version       int              `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// HasProducer reports whether producerID owns at least one line.
func (o *Order) HasProducer(producerID string) bool {
	return slices.ContainsFunc(o.Items, func(it Item) bool { return it.ProducerID == producerID })
}

// AwaitsCourier is true while livreurs may still bid on the order.
func (o *Order) AwaitsCourier() bool {
	return o.Status == StatusPlaced && o.Delivery.Type == DeliveryAwaitingCourier && o.DeliveryFee == nil
}

func (o *Order) clone() *Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if o.DeliveryFee != nil {
		fee := *o.DeliveryFee
		cp.DeliveryFee = &fee
	}
	return &cp
}
