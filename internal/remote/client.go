// Package remote is the HTTP client for the budget calculation service.
// Failures here are never surfaced to the end caller: the orchestrator
// falls back to the local engine, and queued mutations are retried on the
// next connectivity transition.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Client talks to the remote calculation/sync service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client with an explicit request timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// calculateRequest is the POST /budget/calculate body
type calculateRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Duration domain.Duration `json:"duration"`
}

// forecastRequest is the POST /savings/forecast body
type forecastRequest struct {
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	EmergencyFund  decimal.Decimal `json:"emergency_fund"`
	CurrentGoal    decimal.Decimal `json:"current_goal"`
}

// insightsRequest is the POST /insights/analyze body
type insightsRequest struct {
	BudgetBreakdown *domain.BudgetBreakdown `json:"budget_breakdown"`
	SavingsData     *domain.SavingsForecast `json:"savings_data"`
}

// CalculateBudget requests a budget breakdown from the remote service
func (c *Client) CalculateBudget(ctx context.Context, amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error) {
	var breakdown domain.BudgetBreakdown
	if err := c.postJSON(ctx, "/budget/calculate", calculateRequest{Amount: amount, Duration: duration}, &breakdown); err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// ForecastSavings requests a savings forecast from the remote service
func (c *Client) ForecastSavings(ctx context.Context, monthlySavings, emergencyFund, goal decimal.Decimal) (*domain.SavingsForecast, error) {
	req := forecastRequest{MonthlySavings: monthlySavings, EmergencyFund: emergencyFund, CurrentGoal: goal}
	var forecast domain.SavingsForecast
	if err := c.postJSON(ctx, "/savings/forecast", req, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// AnalyzeInsights requests budget insights from the remote service
func (c *Client) AnalyzeInsights(ctx context.Context, breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) (*domain.BudgetInsights, error) {
	req := insightsRequest{BudgetBreakdown: breakdown, SavingsData: forecast}
	var insights domain.BudgetInsights
	if err := c.postJSON(ctx, "/insights/analyze", req, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

// ApplyOperation replays a queued mutation against the remote service. Any
// 2xx response counts as applied; the client-generated operation id lets
// the remote absorb duplicate deliveries.
func (c *Client) ApplyOperation(ctx context.Context, op *domain.SyncOperation) error {
	return c.postJSON(ctx, "/sync/"+op.TargetCollection, op, nil)
}

// Health probes the remote service. A nil error means connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Remote call failed")
		return fmt.Errorf("remote call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("Remote call returned non-success status")
		return fmt.Errorf("remote call %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	log.Debug().Str("path", path).Dur("latency", time.Since(start)).Msg("Remote call succeeded")
	return nil
}
