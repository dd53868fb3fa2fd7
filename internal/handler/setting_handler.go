package handler

import (
	"net/http"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SettingHandler handles settings HTTP requests
type SettingHandler struct {
	settingRepo domain.SettingRepository
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(settingRepo domain.SettingRepository) *SettingHandler {
	return &SettingHandler{settingRepo: settingRepo}
}

// SettingResponse represents a single setting
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SetSettingRequest represents the setting upsert body
type SetSettingRequest struct {
	Value string `json:"value"`
}

// Get handles GET /api/v1/settings/:key
func (h *SettingHandler) Get(c echo.Context) error {
	key := c.Param("key")
	value, ok, err := h.settingRepo.Get(key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read setting")
		return NewInternalError(c, "Failed to read setting")
	}
	if !ok {
		return NewNotFoundError(c, "Setting not found")
	}
	return c.JSON(http.StatusOK, SettingResponse{Key: key, Value: value})
}

// Set handles PUT /api/v1/settings/:key
func (h *SettingHandler) Set(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return NewValidationError(c, "Setting key is required", nil)
	}

	var req SetSettingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.settingRepo.Set(key, req.Value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to write setting")
		return NewInternalError(c, "Failed to write setting")
	}
	return c.JSON(http.StatusOK, SettingResponse{Key: key, Value: req.Value})
}
