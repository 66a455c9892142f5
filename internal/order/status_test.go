package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/agromarket/internal/apperr"
	"github.com/MikeMC777/agromarket/internal/identity"
)

var (
	owner    = identity.Actor{ID: "u1", Roles: []identity.Role{identity.RoleClient}}
	producer = identity.Actor{ID: "p1", Roles: []identity.Role{identity.RoleProducteur}}
	courier  = identity.Actor{ID: "c1", Roles: []identity.Role{identity.RoleLivreur}}
	stranger = identity.Actor{ID: "x9", Roles: []identity.Role{identity.RoleClient}}
)

func sampleOrder(status Status, dt DeliveryType) *Order {
	o := &Order{
		ID:       "o1",
		OwnerID:  owner.ID,
		Status:   status,
		Delivery: Delivery{Type: dt, Address: "addr", Phone: "1"},
		Items:    []Item{{ProductID: "tomato", ProducerID: producer.ID, Quantity: 2}},
	}
	return o
}

func withCourier(o *Order) *Order {
	fee := decimal.NewFromInt(7)
	o.DeliveryFee = &fee
	o.CourierID = courier.ID
	o.Delivery.Type = DeliveryPlatformDelivery
	return o
}

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		order    *Order
		target   Status
		actor    identity.Actor
		wantKind apperr.Kind
	}{
		{"producer confirms", sampleOrder(StatusPlaced, DeliverySelfPickup), StatusConfirmedPrepared, producer, ""},
		{"stranger cannot confirm", sampleOrder(StatusPlaced, DeliverySelfPickup), StatusConfirmedPrepared, stranger, apperr.KindForbidden},
		{"owner cancels placed", sampleOrder(StatusPlaced, DeliveryAwaitingCourier), StatusCancelled, owner, ""},
		{"owner cancels confirmed", sampleOrder(StatusConfirmedPrepared, DeliverySelfPickup), StatusCancelled, owner, ""},
		{"producer cannot cancel", sampleOrder(StatusPlaced, DeliverySelfPickup), StatusCancelled, producer, apperr.KindForbidden},
		{"system assigns with courier", withCourier(sampleOrder(StatusPlaced, DeliveryAwaitingCourier)), StatusAssignedForDelivery, identity.System(), ""},
		{"system needs courier", sampleOrder(StatusPlaced, DeliveryAwaitingCourier), StatusAssignedForDelivery, identity.System(), apperr.KindInvalidStateTransition},
		{"owner cannot assign", withCourier(sampleOrder(StatusPlaced, DeliveryAwaitingCourier)), StatusAssignedForDelivery, owner, apperr.KindForbidden},
		{"courier starts delivery", withCourier(sampleOrder(StatusAssignedForDelivery, "")), StatusInTransit, courier, ""},
		{"courier delivers", withCourier(sampleOrder(StatusInTransit, "")), StatusDelivered, courier, ""},
		{"courier fails", withCourier(sampleOrder(StatusAssignedForDelivery, "")), StatusDeliveryFailed, courier, ""},
		{"courier retries", withCourier(sampleOrder(StatusDeliveryFailed, "")), StatusAssignedForDelivery, courier, ""},
		{"other courier cannot deliver", withCourier(sampleOrder(StatusInTransit, "")), StatusDelivered, identity.Actor{ID: "c2"}, apperr.KindForbidden},
		{"producer hands over pickup", sampleOrder(StatusConfirmedPrepared, DeliveryPickupCenter), StatusDelivered, producer, ""},
		{"producer cannot hand over courier order", sampleOrder(StatusConfirmedPrepared, DeliveryAwaitingCourier), StatusDelivered, producer, apperr.KindInvalidStateTransition},
		{"delivered is terminal", sampleOrder(StatusDelivered, DeliverySelfPickup), StatusCancelled, owner, apperr.KindInvalidStateTransition},
		{"cancelled is terminal", sampleOrder(StatusCancelled, DeliverySelfPickup), StatusConfirmedPrepared, producer, apperr.KindInvalidStateTransition},
		{"no skipping to delivered", sampleOrder(StatusPlaced, DeliverySelfPickup), StatusDelivered, producer, apperr.KindInvalidStateTransition},
		{"cannot cancel in transit", withCourier(sampleOrder(StatusInTransit, "")), StatusCancelled, owner, apperr.KindInvalidStateTransition},
		{"unknown status", sampleOrder(StatusPlaced, DeliverySelfPickup), Status("shipped"), owner, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.order.Status
			err := tt.order.TransitionTo(tt.target, tt.actor)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.target, tt.order.Status)
				return
			}
			assert.Equal(t, tt.wantKind, apperr.KindOf(err), "err=%v", err)
			assert.Equal(t, before, tt.order.Status, "status must not change on failure")
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusDeliveryFailed.IsTerminal())
	assert.False(t, Status("x").IsValid())
	assert.True(t, StatusPlaced.CanTransitionTo(StatusConfirmedPrepared))
	assert.False(t, StatusInTransit.CanTransitionTo(StatusPlaced))
}

func TestAttachDeliveryFee(t *testing.T) {
	o := sampleOrder(StatusPlaced, DeliveryAwaitingCourier)
	require.True(t, o.AwaitsCourier())

	require.NoError(t, o.AttachDeliveryFee(decimal.RequireFromString("7.50"), "c1"))
	assert.Equal(t, "7.5", o.DeliveryFee.String())
	assert.Equal(t, DeliveryPlatformDelivery, o.Delivery.Type)
	assert.False(t, o.AwaitsCourier())

	err := o.AttachDeliveryFee(decimal.NewFromInt(3), "c2")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "c1", o.CourierID)

	o2 := sampleOrder(StatusPlaced, DeliveryAwaitingCourier)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(o2.AttachDeliveryFee(decimal.NewFromInt(-1), "c1")))
	assert.Nil(t, o2.DeliveryFee)

	o4 := sampleOrder(StatusPlaced, DeliveryAwaitingCourier)
	err = o4.AttachDeliveryFee(decimal.RequireFromString("1.2345"), "c1")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, "INVALID_DELIVERY_FEE", apperr.CodeOf(err))
	assert.Nil(t, o4.DeliveryFee)
	require.NoError(t, o4.AttachDeliveryFee(decimal.RequireFromString("1.235"), "c1"))

	o3 := sampleOrder(StatusCancelled, DeliveryAwaitingCourier)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(o3.AttachDeliveryFee(decimal.NewFromInt(1), "c1")))
}
