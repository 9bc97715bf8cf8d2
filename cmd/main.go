package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okabe/omiai/internal/adapters/consent"
	"github.com/okabe/omiai/internal/adapters/http/api"
	"github.com/okabe/omiai/internal/adapters/http/swagger"
	app "github.com/okabe/omiai/internal/app"
	"github.com/okabe/omiai/internal/config"
	"github.com/okabe/omiai/internal/domain/match"
	"github.com/okabe/omiai/pkg/logger"
	"github.com/okabe/omiai/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the service with configuration options
	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithWeights(match.Weights{
			Proximity: cfg.Weights.Proximity,
			Interests: cfg.Weights.Interests,
			Traits:    cfg.Weights.Traits,
		}),
		app.WithNearRadius(cfg.NearRadiusKm),
		app.WithFarScore(cfg.FarScore),
		app.WithScheduleThreshold(cfg.ScheduleThreshold),
		app.WithDefaultRadius(cfg.DefaultRadiusKm),
		app.WithMaxRadius(cfg.MaxRadiusKm),
		app.WithDangerThreshold(cfg.DangerThreshold),
		app.WithBlocklist(cfg.Blocklist),
	}
	if cfg.PromptConsent {
		opts = append(opts, app.WithPrompter(consent.NewConsolePrompter()))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the API reference under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// the population gauges from service statistics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics pushes the current population counts to the gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if users, ok := stats["users"].(int); ok {
		metrics.UpdateRegisteredUsers(users)
	}

	if meetings, ok := stats["meetings"].(int); ok {
		metrics.UpdateActiveMeetings(meetings)
	}

	if blocked, ok := stats["blocked"].(int); ok {
		metrics.UpdateBlockedUsers(blocked)
	}

	if dangerous, ok := stats["dangerous"].(int); ok {
		metrics.UpdateDangerousUsers(dangerous)
	}
}
