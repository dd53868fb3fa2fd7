package handler

import (
	"errors"
	"strconv"

	"net/http"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles calculation HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CalculateRequest represents the calculation request body
type CalculateRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Duration string          `json:"duration"`
}

// Calculate handles POST /api/v1/budget/calculate
func (h *BudgetHandler) Calculate(c echo.Context) error {
	var req CalculateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.budgetService.Calculate(c.Request().Context(), req.Amount, domain.Duration(req.Duration))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return NewValidationError(c, "Amount must be greater than 0", []ValidationError{{Field: "amount", Message: err.Error()}})
		case errors.Is(err, domain.ErrAmountTooLarge):
			return NewValidationError(c, "Amount cannot exceed 1,000,000", []ValidationError{{Field: "amount", Message: err.Error()}})
		case errors.Is(err, domain.ErrInvalidDuration):
			return NewValidationError(c, "Duration must be daily, weekly or monthly", []ValidationError{{Field: "duration", Message: err.Error()}})
		}
		log.Error().Err(err).Msg("Calculation failed")
		return NewInternalError(c, "Calculation failed")
	}

	return c.JSON(http.StatusOK, result)
}

// History handles GET /api/v1/budget/history
func (h *BudgetHandler) History(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError(c, "Invalid limit", nil)
		}
		limit = n
	}

	records, err := h.budgetService.History(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list calculation history")
		return NewInternalError(c, "Failed to list calculation history")
	}
	if records == nil {
		records = []*domain.CalculationRecord{}
	}

	return c.JSON(http.StatusOK, records)
}

// Reset handles POST /api/v1/reset
func (h *BudgetHandler) Reset(c echo.Context) error {
	if err := h.budgetService.ResetAll(); err != nil {
		log.Error().Err(err).Msg("Failed to reset local store")
		return NewInternalError(c, "Failed to reset local store")
	}
	return c.NoContent(http.StatusNoContent)
}
