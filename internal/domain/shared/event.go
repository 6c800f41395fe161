package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uint64
	AggregateType() string
	DedupKey() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	AggID      uint64    `json:"aggregate_id"`
	AggType    string    `json:"aggregate_type"`
	AggVersion int       `json:"aggregate_version"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uint64 {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// DedupKey identifies one logical occurrence of the event. Two events minted
// for the same aggregate state carry the same key even though their event
// ids differ, so delivery deduplication can suppress the second one.
func (e *BaseDomainEvent) DedupKey() string {
	return fmt.Sprintf("%s:%d:%s:v%d", e.AggType, e.AggID, e.Type, e.AggVersion)
}

// NewBaseDomainEvent creates a new base domain event. aggVersion is the
// aggregate version at the time of emission.
func NewBaseDomainEvent(eventType, aggType string, aggID uint64, aggVersion int) BaseDomainEvent {
	return BaseDomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Timestamp:  time.Now(),
		AggID:      aggID,
		AggType:    aggType,
		AggVersion: aggVersion,
	}
}
