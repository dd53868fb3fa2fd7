package sqlite

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/shopspring/decimal"
)

func TestCalculationRepository_CreateAndList(t *testing.T) {
	store := newTestStore(t)
	repo := NewCalculationRepository(store)

	created, err := repo.Create(testRecord())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Expected a generated id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("Expected created_at to be set")
	}

	records, err := repo.List(0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if !got.Amount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected amount 10000, got %s", got.Amount.String())
	}
	if got.Duration != domain.DurationMonthly {
		t.Errorf("Expected monthly duration, got %s", got.Duration)
	}
	if !got.Breakdown.TotalSavings.Equal(decimal.RequireFromString("3500.00")) {
		t.Errorf("Expected total savings 3500.00, got %s", got.Breakdown.TotalSavings.String())
	}
	if !got.Forecast.EmergencyFundProgress.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("Expected progress 4.00, got %s", got.Forecast.EmergencyFundProgress.String())
	}
	if got.Insights.Status != domain.HealthNeedsImprovement {
		t.Errorf("Expected needs_improvement, got %s", got.Insights.Status)
	}
	if got.Synced {
		t.Error("Expected record to start unsynced")
	}
}

func TestCalculationRepository_ListNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	repo := NewCalculationRepository(store)

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(testRecord()); err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
	}

	records, err := repo.List(2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID <= records[1].ID {
		t.Errorf("Expected newest first, got ids %d, %d", records[0].ID, records[1].ID)
	}
}

func TestCalculationRepository_CreateWithOperation(t *testing.T) {
	store := newTestStore(t)
	repo := NewCalculationRepository(store)
	queueRepo := NewSyncQueueRepository(store)

	op := domain.NewSyncOperation(domain.SyncActionCreate, domain.CollectionCalculations)
	created, err := repo.CreateWithOperation(testRecord(), op)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	pending, err := queueRepo.ListPending()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending operation, got %d", len(pending))
	}
	if pending[0].ID != op.ID {
		t.Errorf("Expected operation id %s, got %s", op.ID, pending[0].ID)
	}
	if pending[0].TargetCollection != domain.CollectionCalculations {
		t.Errorf("Expected calculations collection, got %s", pending[0].TargetCollection)
	}

	// Payload carries the record snapshot including the generated id
	var snapshot domain.CalculationRecord
	if err := json.Unmarshal(pending[0].Payload, &snapshot); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if snapshot.ID != created.ID {
		t.Errorf("Expected payload id %d, got %d", created.ID, snapshot.ID)
	}
}

func TestCalculationRepository_MarkSynced(t *testing.T) {
	store := newTestStore(t)
	repo := NewCalculationRepository(store)

	created, err := repo.Create(testRecord())
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}

	if err := repo.MarkSynced(created.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	records, err := repo.List(1)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if !records[0].Synced {
		t.Error("Expected record to be synced")
	}

	if err := repo.MarkSynced(99999); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}
