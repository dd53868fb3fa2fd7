package sqlite

import (
	"testing"

	"github.com/budgetly/budgetly-core/internal/domain"
)

func queuedOp(collection string) *domain.SyncOperation {
	op := domain.NewSyncOperation(domain.SyncActionCreate, collection)
	op.Payload = []byte(`{"id":1}`)
	return op
}

func TestSyncQueueRepository_FIFOOrder(t *testing.T) {
	store := newTestStore(t)
	repo := NewSyncQueueRepository(store)

	first := queuedOp(domain.CollectionCalculations)
	second := queuedOp(domain.CollectionBills)
	third := queuedOp(domain.CollectionCalculations)

	for _, op := range []*domain.SyncOperation{first, second, third} {
		if err := repo.Enqueue(op); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}

	pending, err := repo.ListPending()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("Expected 3 pending operations, got %d", len(pending))
	}
	for i, want := range []string{first.ID, second.ID, third.ID} {
		if pending[i].ID != want {
			t.Errorf("Expected position %d to be %s, got %s", i, want, pending[i].ID)
		}
	}
}

func TestSyncQueueRepository_Remove(t *testing.T) {
	store := newTestStore(t)
	repo := NewSyncQueueRepository(store)

	op := queuedOp(domain.CollectionCalculations)
	if err := repo.Enqueue(op); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if err := repo.Remove(op.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty queue, got %d", count)
	}
}

func TestSyncQueueRepository_IncrementAttempts(t *testing.T) {
	store := newTestStore(t)
	repo := NewSyncQueueRepository(store)

	op := queuedOp(domain.CollectionBills)
	if err := repo.Enqueue(op); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if err := repo.IncrementAttempts(op.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := repo.IncrementAttempts(op.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	pending, err := repo.ListPending()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pending[0].Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", pending[0].Attempts)
	}
}
