package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, budgetHandler *BudgetHandler, billHandler *BillHandler, syncHandler *SyncHandler, settingHandler *SettingHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Budget calculation routes
	budget := api.Group("/budget")
	budget.POST("/calculate", budgetHandler.Calculate)
	budget.GET("/history", budgetHandler.History)

	// Bill routes
	bills := api.Group("/bills")
	bills.POST("", billHandler.Create)
	bills.GET("", billHandler.List)
	bills.GET("/summary", billHandler.Summary)
	bills.PUT("/:id", billHandler.Update)
	bills.DELETE("/:id", billHandler.Delete)
	bills.POST("/:id/archive", billHandler.Archive)
	bills.POST("/:id/unarchive", billHandler.Unarchive)
	bills.POST("/:id/pay", billHandler.Pay)
	bills.POST("/:id/unpay", billHandler.Unpay)

	// Sync routes
	sync := api.Group("/sync")
	sync.GET("/status", syncHandler.Status)
	sync.POST("/drain", syncHandler.Drain)

	// Settings routes
	settings := api.Group("/settings")
	settings.GET("/:key", settingHandler.Get)
	settings.PUT("/:key", settingHandler.Set)

	// Store reset
	api.POST("/reset", budgetHandler.Reset)

	// WebSocket event stream
	e.GET("/ws", wsHandler.HandleWS)
}
