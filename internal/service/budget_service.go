package service

import (
	"context"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/engine"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettingEmergencyGoal overrides the default emergency fund goal when set
const SettingEmergencyGoal = "emergency_fund_goal"

// RemoteEngine is the remote execution strategy of the calculation engine.
// It must agree numerically with the local replica in internal/engine.
type RemoteEngine interface {
	CalculateBudget(ctx context.Context, amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error)
	ForecastSavings(ctx context.Context, monthlySavings, emergencyFund, goal decimal.Decimal) (*domain.SavingsForecast, error)
	AnalyzeInsights(ctx context.Context, breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) (*domain.BudgetInsights, error)
}

// StoreResetter wipes all locally persisted state
type StoreResetter interface {
	ClearAll() error
}

// BudgetService orchestrates a calculation session: remote-first with local
// fallback, durable persistence, and sync enqueueing for offline sessions.
type BudgetService struct {
	calcRepo    domain.CalculationRepository
	settingRepo domain.SettingRepository
	remote      RemoteEngine
	syncService *SyncService
	resetter    StoreResetter
	publisher   websocket.EventPublisher
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	calcRepo domain.CalculationRepository,
	settingRepo domain.SettingRepository,
	remote RemoteEngine,
	syncService *SyncService,
	resetter StoreResetter,
	publisher websocket.EventPublisher,
) *BudgetService {
	return &BudgetService{
		calcRepo:    calcRepo,
		settingRepo: settingRepo,
		remote:      remote,
		syncService: syncService,
		resetter:    resetter,
		publisher:   publisher,
	}
}

// CalculationResult is a full calculation session outcome. RecordID is zero
// when persistence failed (non-fatal). Offline reports whether any part of
// the session fell back to the local replica.
type CalculationResult struct {
	RecordID  int64                   `json:"record_id"`
	Breakdown *domain.BudgetBreakdown `json:"breakdown"`
	Forecast  *domain.SavingsForecast `json:"forecast"`
	Insights  *domain.BudgetInsights  `json:"insights"`
	Offline   bool                    `json:"offline"`
}

// Calculate runs a full calculation session. Remote failures are absorbed
// by the local replica and never surfaced; only validation errors reach the
// caller.
func (s *BudgetService) Calculate(ctx context.Context, amount decimal.Decimal, duration domain.Duration) (*CalculationResult, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if amount.GreaterThan(engine.MaxAmount) {
		return nil, domain.ErrAmountTooLarge
	}
	if !duration.Valid() {
		return nil, domain.ErrInvalidDuration
	}

	goal := s.emergencyGoal()
	offline := false

	breakdown, err := s.remote.CalculateBudget(ctx, amount, duration)
	if err != nil {
		log.Debug().Err(err).Msg("Remote breakdown failed, using local engine")
		offline = true
		if breakdown, err = engine.Breakdown(amount, duration); err != nil {
			return nil, err
		}
	}

	forecast, err := s.remote.ForecastSavings(ctx, breakdown.TotalSavings, breakdown.Categories[domain.CategoryEmergencyFund], goal)
	if err != nil {
		log.Debug().Err(err).Msg("Remote forecast failed, using local engine")
		offline = true
		forecast = engine.Forecast(breakdown, goal)
	}

	insights, err := s.remote.AnalyzeInsights(ctx, breakdown, forecast)
	if err != nil {
		log.Debug().Err(err).Msg("Remote insights failed, using local engine")
		offline = true
		insights = engine.Insights(breakdown, forecast)
	}

	if offline {
		s.syncService.SetOnline(ctx, false)
	}

	record := &domain.CalculationRecord{
		Amount:    amount,
		Duration:  duration,
		Breakdown: *breakdown,
		Forecast:  *forecast,
		Insights:  *insights,
		Synced:    !offline,
	}

	if err := s.persist(record, offline); err != nil {
		// Persistence is best-effort: the user still gets the result.
		log.Warn().Err(err).Msg("Failed to persist calculation record")
		record.ID = 0
	}

	result := &CalculationResult{
		RecordID:  record.ID,
		Breakdown: breakdown,
		Forecast:  forecast,
		Insights:  insights,
		Offline:   offline,
	}
	s.publisher.Publish(websocket.CalculationCompleted(record))
	return result, nil
}

// persist stores the record; an offline-originated session also enqueues
// its create operation in the same transaction.
func (s *BudgetService) persist(record *domain.CalculationRecord, offline bool) error {
	if !offline {
		_, err := s.calcRepo.Create(record)
		return err
	}

	op := domain.NewSyncOperation(domain.SyncActionCreate, domain.CollectionCalculations)
	if _, err := s.calcRepo.CreateWithOperation(record, op); err != nil {
		return err
	}
	s.publisher.Publish(websocket.SyncQueued(op))
	return nil
}

// emergencyGoal resolves the configured emergency fund goal, falling back
// to the default on absence or a malformed setting.
func (s *BudgetService) emergencyGoal() decimal.Decimal {
	value, ok, err := s.settingRepo.Get(SettingEmergencyGoal)
	if err != nil || !ok {
		return engine.DefaultEmergencyGoal
	}
	goal, err := decimal.NewFromString(value)
	if err != nil || !goal.IsPositive() {
		log.Warn().Str("value", value).Msg("Ignoring malformed emergency goal setting")
		return engine.DefaultEmergencyGoal
	}
	return goal
}

// History returns persisted calculation records, newest first
func (s *BudgetService) History(limit int) ([]*domain.CalculationRecord, error) {
	return s.calcRepo.List(limit)
}

// ResetAll wipes calculation records, settings and the sync queue
func (s *BudgetService) ResetAll() error {
	return s.resetter.ClearAll()
}
