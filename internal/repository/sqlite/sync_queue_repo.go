package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
)

// SyncQueueRepository implements domain.SyncQueueRepository on SQLite.
// Insertion order (the autoincrement seq) is the drain order.
type SyncQueueRepository struct {
	store *Store
}

// NewSyncQueueRepository creates a new SyncQueueRepository
func NewSyncQueueRepository(store *Store) *SyncQueueRepository {
	return &SyncQueueRepository{store: store}
}

// Enqueue appends an operation to the queue
func (r *SyncQueueRepository) Enqueue(op *domain.SyncOperation) error {
	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertOperation(tx, op); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func insertOperation(tx *sql.Tx, op *domain.SyncOperation) error {
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now().UTC()
	}
	_, err := tx.Exec(`INSERT INTO sync_queue (id, action, target_collection, payload_json, timestamp, attempts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		op.ID, string(op.Action), op.TargetCollection, string(op.Payload),
		op.Timestamp.Format(time.RFC3339Nano), op.Attempts,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ListPending returns all queued operations in insertion order
func (r *SyncQueueRepository) ListPending() ([]*domain.SyncOperation, error) {
	rows, err := r.store.db.Query(`SELECT id, action, target_collection, payload_json, timestamp, attempts
		FROM sync_queue ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var ops []*domain.SyncOperation
	for rows.Next() {
		var (
			op              domain.SyncOperation
			action, payload string
			timestamp       string
		)
		if err := rows.Scan(&op.ID, &action, &op.TargetCollection, &payload, &timestamp, &op.Attempts); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		op.Action = domain.SyncAction(action)
		op.Payload = []byte(payload)
		if op.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q: %v", domain.ErrPersistence, timestamp, err)
		}
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

// Remove deletes an operation after confirmed remote application
func (r *SyncQueueRepository) Remove(id string) error {
	_, err := r.store.db.Exec("DELETE FROM sync_queue WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// IncrementAttempts bumps the attempt counter of a still-pending operation
func (r *SyncQueueRepository) IncrementAttempts(id string) error {
	_, err := r.store.db.Exec("UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Count returns the number of pending operations
func (r *SyncQueueRepository) Count() (int, error) {
	var count int
	if err := r.store.db.QueryRow("SELECT COUNT(*) FROM sync_queue").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return count, nil
}
