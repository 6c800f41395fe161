package order

import (
	"github.com/mfgops/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "DRAFT"
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusApproved        OrderStatus = "APPROVED"
	OrderStatusInProgress      OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPendingApproval, OrderStatusApproved,
		OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses no event can leave
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Event is a lifecycle event applied to an order
type Event string

const (
	EventSubmit          Event = "submit"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventStartProcessing Event = "start processing"
	EventShip            Event = "ship"
	EventComplete        Event = "complete"
	EventCancel          Event = "cancel"
)

type transitionKey struct {
	from  OrderStatus
	event Event
}

// transitions is the closed legal-transition table. Any (status, event)
// pair absent from it is an invalid transition, never a silent no-op.
// A rejected order returns to DRAFT; rejection is not a stored status.
var transitions = map[transitionKey]OrderStatus{
	{OrderStatusDraft, EventSubmit}:             OrderStatusPendingApproval,
	{OrderStatusPendingApproval, EventApprove}:  OrderStatusApproved,
	{OrderStatusPendingApproval, EventReject}:   OrderStatusDraft,
	{OrderStatusApproved, EventStartProcessing}: OrderStatusInProgress,
	{OrderStatusApproved, EventShip}:            OrderStatusInProgress,
	{OrderStatusInProgress, EventShip}:          OrderStatusInProgress,
	{OrderStatusApproved, EventComplete}:        OrderStatusCompleted,
	{OrderStatusInProgress, EventComplete}:      OrderStatusCompleted,
	{OrderStatusPendingApproval, EventCancel}:   OrderStatusCancelled,
	{OrderStatusApproved, EventCancel}:          OrderStatusCancelled,
	{OrderStatusInProgress, EventCancel}:        OrderStatusCancelled,
}

// Transition resolves the target status for applying event in status.
// Illegal pairs fail with an INVALID_TRANSITION domain error.
func Transition(status OrderStatus, event Event) (OrderStatus, error) {
	next, ok := transitions[transitionKey{status, event}]
	if !ok {
		return "", shared.NewInvalidTransitionError(status.String(), string(event))
	}
	return next, nil
}

// CanApply reports whether event is legal in status
func CanApply(status OrderStatus, event Event) bool {
	_, ok := transitions[transitionKey{status, event}]
	return ok
}
