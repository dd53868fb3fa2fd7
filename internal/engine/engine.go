// Package engine is the local replica of the remote calculation service.
// Both paths must produce numerically identical results so that offline and
// online sessions are indistinguishable to the caller.
package engine

import (
	"fmt"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxAmount is the upper bound accepted for a budget amount
var MaxAmount = decimal.NewFromInt(1_000_000)

// DefaultEmergencyGoal is used when no goal override is configured
var DefaultEmergencyGoal = decimal.NewFromInt(50_000)

// Divisors normalize an amount to its monthly equivalent
var Divisors = map[domain.Duration]decimal.Decimal{
	domain.DurationDaily:   decimal.NewFromInt(30),
	domain.DurationWeekly:  decimal.RequireFromString("4.33"),
	domain.DurationMonthly: decimal.NewFromInt(1),
}

// Allocations is the fixed category allocation table. The percentages sum
// to exactly 1.0.
var Allocations = map[string]decimal.Decimal{
	domain.CategoryFood:           decimal.RequireFromString("0.30"),
	domain.CategoryTransportation: decimal.RequireFromString("0.15"),
	domain.CategoryUtilities:      decimal.RequireFromString("0.20"),
	domain.CategoryEmergencyFund:  decimal.RequireFromString("0.20"),
	domain.CategoryDiscretionary:  decimal.RequireFromString("0.15"),
}

// monthlyGrowth is the compounding factor applied per projected month
var monthlyGrowth = decimal.RequireFromString("1.005")

// forecastHorizons are the projected month marks, in order
var forecastHorizons = []int{1, 2, 3, 6, 12}

// unreachableMonths is reported for a goal that can never be reached at a
// zero savings rate
const unreachableMonths = 999

// Breakdown normalizes the amount to its monthly equivalent and allocates
// it across the fixed categories, rounding each to 2 decimal places.
func Breakdown(amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if amount.GreaterThan(MaxAmount) {
		return nil, domain.ErrAmountTooLarge
	}
	divisor, ok := Divisors[duration]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDuration, duration)
	}

	adjusted := amount.Div(divisor).Round(2)

	categories := make(map[string]decimal.Decimal, len(Allocations))
	for name, pct := range Allocations {
		categories[name] = adjusted.Mul(pct).Round(2)
	}

	essential := categories[domain.CategoryFood].
		Add(categories[domain.CategoryTransportation]).
		Add(categories[domain.CategoryUtilities])
	savings := categories[domain.CategoryEmergencyFund].
		Add(categories[domain.CategoryDiscretionary])

	return &domain.BudgetBreakdown{
		Categories:     categories,
		TotalEssential: essential,
		TotalSavings:   savings,
	}, nil
}

// Forecast projects savings growth from the breakdown's emergency fund,
// compounding monthly contributions of TotalSavings at 0.5% per month.
func Forecast(breakdown *domain.BudgetBreakdown, goal decimal.Decimal) *domain.SavingsForecast {
	monthlySavings := breakdown.TotalSavings
	principal := breakdown.Categories[domain.CategoryEmergencyFund]

	projections := make([]decimal.Decimal, 0, len(forecastHorizons))
	total := principal
	horizon := 0
	for month := 1; month <= forecastHorizons[len(forecastHorizons)-1]; month++ {
		total = total.Add(monthlySavings).Mul(monthlyGrowth)
		if month == forecastHorizons[horizon] {
			projections = append(projections, total.Round(2))
			horizon++
		}
	}

	progress := decimal.Zero
	if goal.IsPositive() {
		progress = principal.Div(goal).Mul(decimal.NewFromInt(100))
		if progress.GreaterThan(decimal.NewFromInt(100)) {
			progress = decimal.NewFromInt(100)
		}
		progress = progress.Round(2)
	}

	return &domain.SavingsForecast{
		MonthlyProjections:    projections,
		EmergencyFundProgress: progress,
		WhatIfScenarios:       whatIf(monthlySavings, goal),
	}
}

func whatIf(monthlySavings, goal decimal.Decimal) domain.WhatIfScenarios {
	increased := monthlySavings.Mul(decimal.RequireFromString("1.1"))

	scenarios := domain.WhatIfScenarios{
		Monthly10PctMore: increased.Round(2),
		Yearly10PctMore:  increased.Mul(decimal.NewFromInt(12)).Round(2),
	}

	if !monthlySavings.IsPositive() {
		scenarios.MonthsToGoal = unreachableMonths
		return scenarios
	}

	monthsToGoal := goal.Div(monthlySavings).Ceil().IntPart()
	monthsWithIncrease := goal.Div(increased).Ceil().IntPart()

	scenarios.MonthsToGoal = monthsToGoal
	if saved := monthsToGoal - monthsWithIncrease; saved > 0 {
		scenarios.MonthsSaved = saved
	}
	return scenarios
}

// Insights derives the health score, status and threshold-driven messages
// from a breakdown and its forecast.
func Insights(breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) *domain.BudgetInsights {
	hundred := decimal.NewFromInt(100)

	totalBudget := breakdown.TotalEssential.Add(breakdown.TotalSavings)
	savingsRate := decimal.Zero
	discretionaryPct := decimal.Zero
	if totalBudget.IsPositive() {
		savingsRate = breakdown.TotalSavings.Div(totalBudget).Mul(hundred)
		discretionaryPct = breakdown.Categories[domain.CategoryDiscretionary].Div(totalBudget).Mul(hundred)
	}

	// score = min(rate*2, 40) + progress*0.3 + max(30 - discretionary%, 0)
	rateComponent := decimal.Min(savingsRate.Mul(decimal.NewFromInt(2)), decimal.NewFromInt(40))
	progressComponent := forecast.EmergencyFundProgress.Mul(decimal.RequireFromString("0.3"))
	discComponent := decimal.Max(decimal.NewFromInt(30).Sub(discretionaryPct), decimal.Zero)

	score := rateComponent.Add(progressComponent).Add(discComponent)
	if score.IsNegative() {
		score = decimal.Zero
	} else if score.GreaterThan(hundred) {
		score = hundred
	}
	score = score.Round(2)

	status := domain.HealthNeedsImprovement
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(80)):
		status = domain.HealthExcellent
	case score.GreaterThanOrEqual(decimal.NewFromInt(60)):
		status = domain.HealthOnTrack
	}

	var insights []domain.Insight
	var recommendations []string

	progress := forecast.EmergencyFundProgress
	switch {
	case progress.GreaterThanOrEqual(decimal.NewFromInt(75)):
		insights = append(insights, domain.Insight{
			Type:    domain.InsightSuccess,
			Message: fmt.Sprintf("Strong emergency fund at %s%% of goal", progress.StringFixed(1)),
		})
		recommendations = append(recommendations, "Consider investing additional savings for long-term growth")
	case progress.GreaterThanOrEqual(decimal.NewFromInt(25)):
		insights = append(insights, domain.Insight{
			Type:    domain.InsightInfo,
			Message: fmt.Sprintf("Building emergency fund: %s%% of goal", progress.StringFixed(1)),
		})
		recommendations = append(recommendations, "Stay consistent with emergency fund contributions")
	default:
		insights = append(insights, domain.Insight{
			Type:    domain.InsightWarning,
			Message: fmt.Sprintf("Low emergency fund: %s%% of goal", progress.StringFixed(1)),
		})
		recommendations = append(recommendations, "Prioritize building your emergency fund")
	}

	if savingsRate.GreaterThanOrEqual(decimal.NewFromInt(20)) {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightSuccess,
			Message: fmt.Sprintf("Healthy savings rate: %s%% of income", savingsRate.StringFixed(1)),
		})
	} else {
		insights = append(insights, domain.Insight{
			Type:    domain.InsightWarning,
			Message: fmt.Sprintf("Low savings rate: %s%% of income", savingsRate.StringFixed(1)),
		})
		recommendations = append(recommendations, "Look for ways to increase your savings rate to 20% or more")
	}

	return &domain.BudgetInsights{
		HealthScore:     score,
		Status:          status,
		Insights:        insights,
		Recommendations: recommendations,
	}
}
