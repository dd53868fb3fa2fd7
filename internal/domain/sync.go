package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncAction is the kind of mutation a queued operation carries
type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// Sync target collections
const (
	CollectionCalculations = "calculations"
	CollectionBills        = "bills"
)

// SyncOperation is a durable, not-yet-confirmed mutation awaiting delivery
// to the remote service. The ID is client-generated so that replays after a
// crash between remote success and local removal are idempotent on the
// remote side. Ordering follows insertion.
type SyncOperation struct {
	ID               string          `json:"id"`
	Action           SyncAction      `json:"action"`
	TargetCollection string          `json:"targetCollection"`
	Payload          json.RawMessage `json:"payload"`
	Timestamp        time.Time       `json:"timestamp"`
	Attempts         int             `json:"attempts"`
}

// NewSyncOperation creates an operation with a fresh client-generated id
// and the current timestamp. The payload is attached by the repository or
// service that snapshots the entity.
func NewSyncOperation(action SyncAction, targetCollection string) *SyncOperation {
	return &SyncOperation{
		ID:               uuid.New().String(),
		Action:           action,
		TargetCollection: targetCollection,
		Timestamp:        time.Now().UTC(),
	}
}

// SyncQueueRepository is the durable FIFO of pending operations
type SyncQueueRepository interface {
	Enqueue(op *SyncOperation) error
	ListPending() ([]*SyncOperation, error)
	Remove(id string) error
	IncrementAttempts(id string) error
	Count() (int, error)
}
