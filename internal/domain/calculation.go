package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Duration is the period a budget amount refers to
type Duration string

const (
	DurationDaily   Duration = "daily"
	DurationWeekly  Duration = "weekly"
	DurationMonthly Duration = "monthly"
)

// Valid reports whether d is a known duration
func (d Duration) Valid() bool {
	switch d {
	case DurationDaily, DurationWeekly, DurationMonthly:
		return true
	}
	return false
}

// Budget category names. Every breakdown contains exactly these five.
const (
	CategoryFood           = "food"
	CategoryTransportation = "transportation"
	CategoryUtilities      = "utilities"
	CategoryEmergencyFund  = "emergency_fund"
	CategoryDiscretionary  = "discretionary"
)

// BudgetBreakdown is the allocation of a monthly-equivalent budget across
// the fixed categories. TotalEssential covers food, transportation and
// utilities; TotalSavings covers emergency fund and discretionary.
type BudgetBreakdown struct {
	Categories     map[string]decimal.Decimal `json:"categories"`
	TotalEssential decimal.Decimal            `json:"total_essential"`
	TotalSavings   decimal.Decimal            `json:"total_savings"`
}

// WhatIfScenarios holds the savings what-if analysis
type WhatIfScenarios struct {
	Monthly10PctMore decimal.Decimal `json:"monthly_10pct_more"`
	Yearly10PctMore  decimal.Decimal `json:"yearly_10pct_more"`
	MonthsToGoal     int64           `json:"months_to_goal"`
	MonthsSaved      int64           `json:"months_saved"`
}

// SavingsForecast projects savings over the 1, 2, 3, 6 and 12 month horizons
type SavingsForecast struct {
	MonthlyProjections    []decimal.Decimal `json:"monthly_projections"`
	EmergencyFundProgress decimal.Decimal   `json:"emergency_fund_progress"`
	WhatIfScenarios       WhatIfScenarios   `json:"what_if_scenarios"`
}

// HealthStatus categorizes the overall health score
type HealthStatus string

const (
	HealthExcellent        HealthStatus = "excellent"
	HealthOnTrack          HealthStatus = "on_track"
	HealthNeedsImprovement HealthStatus = "needs_improvement"
)

// InsightType classifies a single insight message
type InsightType string

const (
	InsightSuccess InsightType = "success"
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
)

// Insight is a single classified message about the budget
type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}

// BudgetInsights is derived from a breakdown and forecast, never persisted
// independently of them.
type BudgetInsights struct {
	HealthScore     decimal.Decimal `json:"health_score"`
	Status          HealthStatus    `json:"status"`
	Insights        []Insight       `json:"insights"`
	Recommendations []string        `json:"recommendations"`
}

// CalculationRecord is a persisted calculation session. Write-once except
// the Synced flag.
type CalculationRecord struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Duration  Duration        `json:"duration"`
	Breakdown BudgetBreakdown `json:"breakdown"`
	Forecast  SavingsForecast `json:"forecast"`
	Insights  BudgetInsights  `json:"insights"`
	CreatedAt time.Time       `json:"createdAt"`
	Synced    bool            `json:"synced"`
}

// CalculationRepository persists calculation records
type CalculationRepository interface {
	Create(record *CalculationRecord) (*CalculationRecord, error)
	// CreateWithOperation inserts the record and its sync operation as one
	// atomic unit. The operation payload is completed with the generated
	// record id before insertion.
	CreateWithOperation(record *CalculationRecord, op *SyncOperation) (*CalculationRecord, error)
	List(limit int) ([]*CalculationRecord, error)
	MarkSynced(id int64) error
}

// SettingRepository is a string key/value store with upsert semantics
type SettingRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}
