package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budgetly/budgetly-core/internal/config"
	"github.com/budgetly/budgetly-core/internal/handler"
	"github.com/budgetly/budgetly-core/internal/middleware"
	"github.com/budgetly/budgetly-core/internal/remote"
	"github.com/budgetly/budgetly-core/internal/repository/sqlite"
	"github.com/budgetly/budgetly-core/internal/service"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open local store
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer store.Close()
	log.Info().Str("path", cfg.DatabasePath).Msg("Local store ready")

	// Initialize repositories
	calcRepo := sqlite.NewCalculationRepository(store)
	settingRepo := sqlite.NewSettingRepository(store)
	billRepo := sqlite.NewBillRepository(store)
	queueRepo := sqlite.NewSyncQueueRepository(store)

	// Remote collaborator client
	remoteClient := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout)

	// WebSocket hub for UI event push
	hub := websocket.NewHub()

	// Initialize services
	syncService := service.NewSyncService(queueRepo, calcRepo, remoteClient, hub)
	budgetService := service.NewBudgetService(calcRepo, settingRepo, remoteClient, syncService, store, hub)
	billService := service.NewBillService(billRepo, queueRepo, remoteClient, syncService, hub)

	// Initialize handlers
	budgetHandler := handler.NewBudgetHandler(budgetService)
	billHandler := handler.NewBillHandler(billService)
	syncHandler := handler.NewSyncHandler(syncService)
	settingHandler := handler.NewSettingHandler(settingRepo)
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Rate limiting
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMin, cfg.RateLimitBurst)
	defer rateLimiter.Stop()
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, budgetHandler, billHandler, syncHandler, settingHandler, wsHandler)

	// Connectivity probe: offline->online transitions trigger queue drains
	probeCtx, stopProbe := context.WithCancel(context.Background())
	defer stopProbe()
	go probeConnectivity(probeCtx, remoteClient, syncService, cfg.ProbeInterval)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// probeConnectivity polls the remote health endpoint and feeds observed
// state into the sync service, which drains the queue on restore
func probeConnectivity(ctx context.Context, client *remote.Client, syncService *service.SyncService, interval time.Duration) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, interval/2)
		defer cancel()
		syncService.SetOnline(ctx, client.Health(probeCtx) == nil)
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe()
		case <-ctx.Done():
			return
		}
	}
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
