package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BillHandler handles bill HTTP requests
type BillHandler struct {
	billService *service.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// CreateBillRequest represents the bill creation request body
type CreateBillRequest struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"dueDay"`
	Category    string          `json:"category"`
	IsRecurring *bool           `json:"isRecurring"`
}

// UpdateBillRequest represents the partial bill update request body
type UpdateBillRequest struct {
	Name        *string          `json:"name"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDay      *int             `json:"dueDay"`
	Category    *string          `json:"category"`
	IsRecurring *bool            `json:"isRecurring"`
}

// Create handles POST /api/v1/bills
func (h *BillHandler) Create(c echo.Context) error {
	var req CreateBillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	isRecurring := true
	if req.IsRecurring != nil {
		isRecurring = *req.IsRecurring
	}

	bill, err := h.billService.CreateBill(c.Request().Context(), service.CreateBillInput{
		Name:        req.Name,
		Amount:      req.Amount,
		DueDay:      req.DueDay,
		Category:    domain.BillCategory(req.Category),
		IsRecurring: isRecurring,
	})
	if err != nil {
		if validationErr := billValidationResponse(c, err); validationErr != nil {
			return validationErr
		}
		log.Error().Err(err).Msg("Failed to create bill")
		return NewInternalError(c, "Failed to create bill")
	}

	return c.JSON(http.StatusCreated, bill)
}

// List handles GET /api/v1/bills; ?archived=true lists archived bills
func (h *BillHandler) List(c echo.Context) error {
	var (
		bills []*domain.Bill
		err   error
	)
	if c.QueryParam("archived") == "true" {
		bills, err = h.billService.ArchivedBills()
	} else {
		bills, err = h.billService.ActiveBills()
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list bills")
		return NewInternalError(c, "Failed to list bills")
	}
	if bills == nil {
		bills = []*domain.Bill{}
	}

	return c.JSON(http.StatusOK, bills)
}

// Update handles PUT /api/v1/bills/:id
func (h *BillHandler) Update(c echo.Context) error {
	id, err := parseBillID(c)
	if err != nil {
		return NewValidationError(c, "Invalid bill id", nil)
	}

	var req UpdateBillRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateBillInput{
		Name:        req.Name,
		Amount:      req.Amount,
		DueDay:      req.DueDay,
		IsRecurring: req.IsRecurring,
	}
	if req.Category != nil {
		category := domain.BillCategory(*req.Category)
		input.Category = &category
	}

	bill, err := h.billService.UpdateBill(c.Request().Context(), id, input)
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		if validationErr := billValidationResponse(c, err); validationErr != nil {
			return validationErr
		}
		log.Error().Err(err).Int64("bill_id", id).Msg("Failed to update bill")
		return NewInternalError(c, "Failed to update bill")
	}

	return c.JSON(http.StatusOK, bill)
}

// Delete handles DELETE /api/v1/bills/:id
func (h *BillHandler) Delete(c echo.Context) error {
	id, err := parseBillID(c)
	if err != nil {
		return NewValidationError(c, "Invalid bill id", nil)
	}

	if err := h.billService.DeleteBill(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int64("bill_id", id).Msg("Failed to delete bill")
		return NewInternalError(c, "Failed to delete bill")
	}

	return c.NoContent(http.StatusNoContent)
}

// Archive handles POST /api/v1/bills/:id/archive
func (h *BillHandler) Archive(c echo.Context) error {
	return h.lifecycle(c, h.billService.ArchiveBill)
}

// Unarchive handles POST /api/v1/bills/:id/unarchive
func (h *BillHandler) Unarchive(c echo.Context) error {
	return h.lifecycle(c, h.billService.UnarchiveBill)
}

// Pay handles POST /api/v1/bills/:id/pay
func (h *BillHandler) Pay(c echo.Context) error {
	return h.lifecycle(c, h.billService.MarkPaid)
}

// Unpay handles POST /api/v1/bills/:id/unpay
func (h *BillHandler) Unpay(c echo.Context) error {
	return h.lifecycle(c, h.billService.MarkUnpaid)
}

// Summary handles GET /api/v1/bills/summary
func (h *BillHandler) Summary(c echo.Context) error {
	summary, err := h.billService.Summary(time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute bill summary")
		return NewInternalError(c, "Failed to compute bill summary")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *BillHandler) lifecycle(c echo.Context, apply func(ctx context.Context, id int64) (*domain.Bill, error)) error {
	id, err := parseBillID(c)
	if err != nil {
		return NewValidationError(c, "Invalid bill id", nil)
	}

	bill, err := apply(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBillNotFound) {
			return NewNotFoundError(c, "Bill not found")
		}
		log.Error().Err(err).Int64("bill_id", id).Msg("Failed to change bill state")
		return NewInternalError(c, "Failed to change bill state")
	}

	return c.JSON(http.StatusOK, bill)
}

func parseBillID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// billValidationResponse maps domain validation errors to a 400 response,
// or returns nil when err is not a validation error
func billValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired), errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Invalid name", []ValidationError{{Field: "name", Message: err.Error()}})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Amount must be greater than 0", []ValidationError{{Field: "amount", Message: err.Error()}})
	case errors.Is(err, domain.ErrInvalidDueDay):
		return NewValidationError(c, "Due day must be between 1 and 31", []ValidationError{{Field: "dueDay", Message: err.Error()}})
	case errors.Is(err, domain.ErrInvalidCategory):
		return NewValidationError(c, "Unknown category", []ValidationError{{Field: "category", Message: err.Error()}})
	}
	return nil
}
