package order

import (
	"github.com/mfgops/backend/internal/domain/shared"
)

// Event types for the order lifecycle
const (
	EventTypeOrderSubmitted = "order.submitted"
	EventTypeOrderApproved  = "order.approved"
	EventTypeOrderRejected  = "order.rejected"
	EventTypeOrderShipped   = "order.shipped"
	EventTypeOrderCancelled = "order.cancelled"
)

const aggregateTypeOrder = "Order"

// OrderSubmittedEvent is emitted when an order enters PENDING_APPROVAL
type OrderSubmittedEvent struct {
	shared.BaseDomainEvent
	Code      string    `json:"code"`
	OrderType OrderType `json:"order_type"`
	CreatorID uint64    `json:"creator_id"`
}

// NewOrderSubmittedEvent creates a new OrderSubmittedEvent
func NewOrderSubmittedEvent(o *Order) *OrderSubmittedEvent {
	return &OrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSubmitted, aggregateTypeOrder, o.ID, o.Version),
		Code:            o.Code,
		OrderType:       o.Type,
		CreatorID:       o.CreatorID,
	}
}

// OrderApprovedEvent is emitted when an order is approved; the creator is
// the notification recipient.
type OrderApprovedEvent struct {
	shared.BaseDomainEvent
	Code       string    `json:"code"`
	OrderType  OrderType `json:"order_type"`
	CreatorID  uint64    `json:"creator_id"`
	ApproverID uint64    `json:"approver_id"`
}

// NewOrderApprovedEvent creates a new OrderApprovedEvent
func NewOrderApprovedEvent(o *Order, approverID uint64) *OrderApprovedEvent {
	return &OrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderApproved, aggregateTypeOrder, o.ID, o.Version),
		Code:            o.Code,
		OrderType:       o.Type,
		CreatorID:       o.CreatorID,
		ApproverID:      approverID,
	}
}

// OrderRejectedEvent is emitted when an order is sent back to DRAFT
type OrderRejectedEvent struct {
	shared.BaseDomainEvent
	Code       string    `json:"code"`
	OrderType  OrderType `json:"order_type"`
	CreatorID  uint64    `json:"creator_id"`
	RejecterID uint64    `json:"rejecter_id"`
	Reason     string    `json:"reason"`
}

// NewOrderRejectedEvent creates a new OrderRejectedEvent
func NewOrderRejectedEvent(o *Order, rejecterID uint64, reason string) *OrderRejectedEvent {
	return &OrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRejected, aggregateTypeOrder, o.ID, o.Version),
		Code:            o.Code,
		OrderType:       o.Type,
		CreatorID:       o.CreatorID,
		RejecterID:      rejecterID,
		Reason:          reason,
	}
}

// OrderShippedEvent is emitted after a shipment settles; Completed reports
// whether the shipment closed the order.
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	Code      string    `json:"code"`
	OrderType OrderType `json:"order_type"`
	CreatorID uint64    `json:"creator_id"`
	ShipperID uint64    `json:"shipper_id"`
	Completed bool      `json:"completed"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order, shipperID uint64, completed bool) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, aggregateTypeOrder, o.ID, o.Version),
		Code:            o.Code,
		OrderType:       o.Type,
		CreatorID:       o.CreatorID,
		ShipperID:       shipperID,
		Completed:       completed,
	}
}

// OrderCancelledEvent is emitted when an order is cancelled. WasReserved
// indicates stock reservations were released in the same transaction.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	Code        string    `json:"code"`
	OrderType   OrderType `json:"order_type"`
	CreatorID   uint64    `json:"creator_id"`
	CancellerID uint64    `json:"canceller_id"`
	Reason      string    `json:"reason"`
	WasReserved bool      `json:"was_reserved"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, cancellerID uint64, reason string, wasReserved bool) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, aggregateTypeOrder, o.ID, o.Version),
		Code:            o.Code,
		OrderType:       o.Type,
		CreatorID:       o.CreatorID,
		CancellerID:     cancellerID,
		Reason:          reason,
		WasReserved:     wasReserved,
	}
}
