package order

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/identity"
)

var transitions = map[Status][]Status{
	StatusPlaced:              {StatusConfirmedPrepared, StatusAssignedForDelivery, StatusCancelled},
	StatusConfirmedPrepared:   {StatusAssignedForDelivery, StatusDelivered, StatusCancelled},
	StatusAssignedForDelivery: {StatusInTransit, StatusDelivered, StatusDeliveryFailed},
	StatusInTransit:           {StatusDelivered, StatusDeliveryFailed},
	StatusDeliveryFailed:      {StatusAssignedForDelivery},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPlaced, StatusConfirmedPrepared, StatusAssignedForDelivery, StatusInTransit,
		StatusDelivered, StatusDeliveryFailed, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

// TransitionTo applies target if the edge exists and actor may take it.
func (o *Order) TransitionTo(target Status, actor identity.Actor) error {
	if !target.IsValid() {
		return apperr.Newf(apperr.KindInvalidArgument, "UNKNOWN_STATUS", "unknown status %q", target)
	}
	if !o.Status.CanTransitionTo(target) {
		return apperr.Newf(apperr.KindInvalidStateTransition, "ILLEGAL_TRANSITION",
			"cannot move order from %s to %s", o.Status, target)
	}
	if err := o.authorize(target, actor); err != nil {
		return err
	}
	o.Status = target
	return nil
}

func (o *Order) authorize(target Status, actor identity.Actor) error {
	from := o.Status
	switch {
	case target == StatusAssignedForDelivery && from == StatusDeliveryFailed:
		return o.requireCourier(actor)

	case target == StatusAssignedForDelivery:
		if !actor.Has(identity.RoleSystem) {
			return apperr.Forbidden("ASSIGNMENT_RESERVED", "orders are assigned for delivery by accepting a bid")
		}
		if o.CourierID == "" || o.DeliveryFee == nil {
			return apperr.InvalidTransition("COURIER_NOT_ASSIGNED", "order has no accepted courier")
		}
		return nil

	case target == StatusConfirmedPrepared:
		return o.requireProducer(actor)

	case target == StatusCancelled:
		if actor.ID != o.OwnerID {
			return apperr.Forbidden("NOT_ORDER_OWNER", "only the order owner may cancel it")
		}
		return nil

	case target == StatusDelivered && from == StatusConfirmedPrepared:
		if o.Delivery.Type.NeedsCourier() {
			return apperr.InvalidTransition("ORDER_AWAITS_COURIER", "order is delivered by a courier")
		}
		return o.requireProducer(actor)

	default:
		// in_transit, delivered, delivery_failed on the courier leg
		return o.requireCourier(actor)
	}
}

func (o *Order) requireProducer(actor identity.Actor) error {
	if !o.HasProducer(actor.ID) {
		return apperr.Forbidden("NOT_ORDER_PRODUCER", "actor owns no line of this order")
	}
	return nil
}

func (o *Order) requireCourier(actor identity.Actor) error {
	if o.CourierID == "" || actor.ID != o.CourierID {
		return apperr.Forbidden("NOT_ASSIGNED_COURIER", "only the assigned courier may update delivery")
	}
	return nil
}

// AttachDeliveryFee records the accepted courier and fee. It succeeds once.
func (o *Order) AttachDeliveryFee(fee decimal.Decimal, courierID string) error {
	if fee.IsNegative() {
		return apperr.InvalidArgument("INVALID_DELIVERY_FEE", "delivery fee must not be negative")
	}
	if !FitsMoneyScale(fee) {
		return apperr.InvalidArgument("INVALID_DELIVERY_FEE", "delivery fee allows at most three decimals")
	}
	if courierID == "" {
		return apperr.InvalidArgument("COURIER_ID_REQUIRED", "courier id is required")
	}
	if o.DeliveryFee != nil {
		return apperr.Conflict("DELIVERY_FEE_ALREADY_ATTACHED", "delivery fee already attached")
	}
	if o.Status != StatusPlaced && o.Status != StatusConfirmedPrepared {
		return apperr.Newf(apperr.KindInvalidStateTransition, "INVALID_ORDER_STATE",
			"cannot attach a delivery fee to a %s order", o.Status)
	}
	o.DeliveryFee = &fee
	o.CourierID = courierID
	o.Delivery.Type = DeliveryPlatformDelivery
	return nil
}
