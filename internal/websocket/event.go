package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of event
type EventType string

const (
	EventTypeCreated    EventType = "created"
	EventTypeUpdated    EventType = "updated"
	EventTypeDeleted    EventType = "deleted"
	EventTypeArchived   EventType = "archived"
	EventTypeUnarchived EventType = "unarchived"
	EventTypePaid       EventType = "paid"
	EventTypeUnpaid     EventType = "unpaid"
	EventTypeCompleted  EventType = "completed"
	EventTypeQueued     EventType = "queued"
	EventTypeDrained    EventType = "drained"
	EventTypeChanged    EventType = "changed"
)

// EntityType represents the kind of entity the event is about
type EntityType string

const (
	EntityTypeBill         EntityType = "bill"
	EntityTypeCalculation  EntityType = "calculation"
	EntityTypeSync         EntityType = "sync"
	EntityTypeConnectivity EntityType = "connectivity"
)

// Event represents a message pushed to connected UI clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "bill.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "bill"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BillCreated creates a bill.created event
func BillCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeBill, payload)
}

// BillUpdated creates a bill.updated event
func BillUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBill, payload)
}

// BillDeleted creates a bill.deleted event
func BillDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeBill, payload)
}

// BillArchived creates a bill.archived event
func BillArchived(payload interface{}) Event {
	return NewEvent(EventTypeArchived, EntityTypeBill, payload)
}

// BillUnarchived creates a bill.unarchived event
func BillUnarchived(payload interface{}) Event {
	return NewEvent(EventTypeUnarchived, EntityTypeBill, payload)
}

// BillPaid creates a bill.paid event
func BillPaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeBill, payload)
}

// BillUnpaid creates a bill.unpaid event
func BillUnpaid(payload interface{}) Event {
	return NewEvent(EventTypeUnpaid, EntityTypeBill, payload)
}

// CalculationCompleted creates a calculation.completed event
func CalculationCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeCalculation, payload)
}

// SyncQueued creates a sync.queued event
func SyncQueued(payload interface{}) Event {
	return NewEvent(EventTypeQueued, EntityTypeSync, payload)
}

// SyncDrained creates a sync.drained event
func SyncDrained(payload interface{}) Event {
	return NewEvent(EventTypeDrained, EntityTypeSync, payload)
}

// ConnectivityChanged creates a connectivity.changed event
func ConnectivityChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeConnectivity, payload)
}
