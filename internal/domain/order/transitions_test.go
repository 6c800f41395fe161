package order

import (
	"testing"

	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		isValid bool
	}{
		{OrderStatusDraft, true},
		{OrderStatusPendingApproval, true},
		{OrderStatusApproved, true},
		{OrderStatusInProgress, true},
		{OrderStatusCompleted, true},
		{OrderStatusCancelled, true},
		{OrderStatus("INVALID"), false},
		{OrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusDraft.IsTerminal())
	assert.False(t, OrderStatusPendingApproval.IsTerminal())
	assert.False(t, OrderStatusApproved.IsTerminal())
	assert.False(t, OrderStatusInProgress.IsTerminal())
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestTransition(t *testing.T) {
	allStatuses := []OrderStatus{
		OrderStatusDraft,
		OrderStatusPendingApproval,
		OrderStatusApproved,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
	allEvents := []Event{
		EventSubmit,
		EventApprove,
		EventReject,
		EventStartProcessing,
		EventShip,
		EventComplete,
		EventCancel,
	}

	legal := map[transitionKey]OrderStatus{
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

	// Every (status, event) pair has a deterministic outcome: the legal
	// table's target, or an INVALID_TRANSITION error.
	for _, status := range allStatuses {
		for _, event := range allEvents {
			t.Run(string(status)+"/"+string(event), func(t *testing.T) {
				next, err := Transition(status, event)
				if target, ok := legal[transitionKey{status, event}]; ok {
					require.NoError(t, err)
					assert.Equal(t, target, next)
					assert.True(t, CanApply(status, event))
				} else {
					require.Error(t, err)
					assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
					assert.False(t, CanApply(status, event))
				}
			})
		}
	}
}

func TestTransition_TerminalStatusesAcceptNothing(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		for _, event := range []Event{EventSubmit, EventApprove, EventReject, EventStartProcessing, EventShip, EventComplete, EventCancel} {
			_, err := Transition(status, event)
			assert.Error(t, err, "%s should accept no events, got legal %s", status, event)
		}
	}
}

func TestTransition_DraftOnlySubmits(t *testing.T) {
	// A draft cannot be cancelled; it is deleted instead
	_, err := Transition(OrderStatusDraft, EventCancel)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))

	next, err := Transition(OrderStatusDraft, EventSubmit)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPendingApproval, next)
}
