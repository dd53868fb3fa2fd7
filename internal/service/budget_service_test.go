package service

import (
	"context"
	"errors"
	"testing"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/engine"
	"github.com/budgetly/budgetly-core/internal/testutil"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/shopspring/decimal"
)

type budgetFixture struct {
	calcRepo    *testutil.MockCalculationRepository
	settingRepo *testutil.MockSettingRepository
	remote      *testutil.FakeRemoteEngine
	resetter    *testutil.FakeResetter
	sync        *SyncService
	service     *BudgetService
}

func newBudgetFixture() *budgetFixture {
	calcRepo := testutil.NewMockCalculationRepository()
	settingRepo := testutil.NewMockSettingRepository()
	queueRepo := testutil.NewMockSyncQueueRepository()
	remote := &testutil.FakeRemoteEngine{}
	resetter := &testutil.FakeResetter{}
	publisher := &websocket.NoOpPublisher{}
	syncService := NewSyncService(queueRepo, calcRepo, &testutil.FakeRemoteApplier{}, publisher)
	return &budgetFixture{
		calcRepo:    calcRepo,
		settingRepo: settingRepo,
		remote:      remote,
		resetter:    resetter,
		sync:        syncService,
		service:     NewBudgetService(calcRepo, settingRepo, remote, syncService, resetter, publisher),
	}
}

// localEngine makes the fake remote delegate to the local replica, so the
// online path produces the same numbers as the offline one.
func (f *budgetFixture) localEngine() {
	f.remote.CalculateFn = func(_ context.Context, amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error) {
		return engine.Breakdown(amount, duration)
	}
	f.remote.ForecastFn = func(_ context.Context, monthlySavings, emergencyFund, goal decimal.Decimal) (*domain.SavingsForecast, error) {
		return engine.Forecast(&domain.BudgetBreakdown{
			Categories:   map[string]decimal.Decimal{domain.CategoryEmergencyFund: emergencyFund},
			TotalSavings: monthlySavings,
		}, goal), nil
	}
	f.remote.InsightsFn = func(_ context.Context, breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) (*domain.BudgetInsights, error) {
		return engine.Insights(breakdown, forecast), nil
	}
}

func TestCalculate_Validation(t *testing.T) {
	f := newBudgetFixture()

	tests := []struct {
		name     string
		amount   decimal.Decimal
		duration domain.Duration
		wantErr  error
	}{
		{"zero amount", decimal.Zero, domain.DurationMonthly, domain.ErrInvalidAmount},
		{"negative amount", decimal.NewFromInt(-100), domain.DurationMonthly, domain.ErrInvalidAmount},
		{"amount above ceiling", decimal.NewFromInt(2_000_000), domain.DurationMonthly, domain.ErrAmountTooLarge},
		{"unknown duration", decimal.NewFromInt(100), domain.Duration("yearly"), domain.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.Calculate(context.Background(), tt.amount, tt.duration); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCalculate_RemoteFailureFallsBackToLocalEngine(t *testing.T) {
	f := newBudgetFixture()
	f.sync.SetOnline(context.Background(), true)
	f.remote.Err = errors.New("connection refused")

	result, err := f.service.Calculate(context.Background(), decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.Offline {
		t.Error("Expected offline result")
	}
	if !result.Breakdown.TotalSavings.Equal(decimal.RequireFromString("3500.00")) {
		t.Errorf("Expected local total savings 3500.00, got %s", result.Breakdown.TotalSavings.String())
	}
	if len(result.Forecast.MonthlyProjections) != 5 {
		t.Errorf("Expected 5 projections, got %d", len(result.Forecast.MonthlyProjections))
	}
	if result.Insights.Status == "" {
		t.Error("Expected derived insights")
	}

	// The fallback flips the observed connectivity state
	if f.sync.IsOnline() {
		t.Error("Expected session to be offline after remote failure")
	}

	// Offline sessions persist the record with a queued create operation
	if result.RecordID == 0 {
		t.Fatal("Expected persisted record")
	}
	if len(f.calcRepo.Ops) != 1 {
		t.Fatalf("Expected 1 queued operation, got %d", len(f.calcRepo.Ops))
	}
	if f.calcRepo.Records[result.RecordID].Synced {
		t.Error("Expected offline record to start unsynced")
	}
}

func TestCalculate_OnlinePersistsWithoutQueueing(t *testing.T) {
	f := newBudgetFixture()
	f.sync.SetOnline(context.Background(), true)
	f.localEngine()

	result, err := f.service.Calculate(context.Background(), decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Offline {
		t.Error("Expected online result")
	}
	// Remote and local replica must agree numerically
	localBreakdown, err := engine.Breakdown(decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Breakdown.TotalSavings.Equal(localBreakdown.TotalSavings) {
		t.Errorf("Expected remote savings %s to match local %s",
			result.Breakdown.TotalSavings.String(), localBreakdown.TotalSavings.String())
	}
	if result.RecordID == 0 {
		t.Fatal("Expected persisted record")
	}
	if len(f.calcRepo.Ops) != 0 {
		t.Errorf("Expected no queued operations, got %d", len(f.calcRepo.Ops))
	}
	if !f.calcRepo.Records[result.RecordID].Synced {
		t.Error("Expected online record to be synced")
	}
}

func TestCalculate_UsesConfiguredEmergencyGoal(t *testing.T) {
	f := newBudgetFixture()
	f.remote.Err = errors.New("connection refused")

	if err := f.settingRepo.Set(SettingEmergencyGoal, "100000"); err != nil {
		t.Fatalf("Failed to set goal: %v", err)
	}

	result, err := f.service.Calculate(context.Background(), decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 2000 of a 100000 goal
	if !result.Forecast.EmergencyFundProgress.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("Expected progress 2.00, got %s", result.Forecast.EmergencyFundProgress.String())
	}
}

func TestCalculate_IgnoresMalformedGoalSetting(t *testing.T) {
	f := newBudgetFixture()
	f.remote.Err = errors.New("connection refused")

	if err := f.settingRepo.Set(SettingEmergencyGoal, "not-a-number"); err != nil {
		t.Fatalf("Failed to set goal: %v", err)
	}

	result, err := f.service.Calculate(context.Background(), decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Falls back to the 50000 default: 2000 / 50000
	if !result.Forecast.EmergencyFundProgress.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("Expected progress 4.00, got %s", result.Forecast.EmergencyFundProgress.String())
	}
}

func TestCalculate_PersistFailureStillReturnsResult(t *testing.T) {
	f := newBudgetFixture()
	f.remote.Err = errors.New("connection refused")
	f.calcRepo.CreateErr = errors.New("disk full")

	result, err := f.service.Calculate(context.Background(), decimal.NewFromInt(10000), domain.DurationMonthly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.RecordID != 0 {
		t.Errorf("Expected record id 0 after failed persist, got %d", result.RecordID)
	}
	if result.Breakdown == nil {
		t.Error("Expected calculation result despite failed persist")
	}
}

func TestHistory(t *testing.T) {
	f := newBudgetFixture()
	f.remote.Err = errors.New("connection refused")

	for i := 0; i < 3; i++ {
		if _, err := f.service.Calculate(context.Background(), decimal.NewFromInt(5000), domain.DurationMonthly); err != nil {
			t.Fatalf("Failed to calculate: %v", err)
		}
	}

	records, err := f.service.History(2)
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

func TestResetAll(t *testing.T) {
	f := newBudgetFixture()

	if err := f.service.ResetAll(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !f.resetter.Cleared {
		t.Error("Expected store to be cleared")
	}
}
