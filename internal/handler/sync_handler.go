package handler

import (
	"net/http"

	"github.com/budgetly/budgetly-core/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SyncHandler handles sync queue HTTP requests
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(c echo.Context) error {
	status, err := h.syncService.Status()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read sync status")
		return NewInternalError(c, "Failed to read sync status")
	}
	return c.JSON(http.StatusOK, status)
}

// Drain handles POST /api/v1/sync/drain — a manual drain trigger for UIs
// that observe connectivity themselves
func (h *SyncHandler) Drain(c echo.Context) error {
	result, err := h.syncService.Drain(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Manual drain failed")
		return NewInternalError(c, "Drain failed")
	}
	return c.JSON(http.StatusOK, result)
}
