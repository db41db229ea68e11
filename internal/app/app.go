package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FerX10/naturbot/internal/automation"
	"github.com/FerX10/naturbot/internal/config"
	"github.com/FerX10/naturbot/internal/handler"
	"github.com/FerX10/naturbot/internal/messaging"
	"github.com/FerX10/naturbot/internal/middleware"
	"github.com/FerX10/naturbot/internal/obs"
	"github.com/FerX10/naturbot/internal/offer"
	"github.com/FerX10/naturbot/internal/promo"
	"github.com/FerX10/naturbot/internal/queue"
	"github.com/FerX10/naturbot/internal/search"
	"github.com/FerX10/naturbot/internal/store"
)

// Run initializes and runs the application.
func Run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	metrics := obs.NewMetrics(logger)

	automator := automation.NewClient(cfg.AutomationURL, cfg.AutomationTimeout, cfg.AutomationRate, logger)

	correlator := offer.NewCorrelator(
		offer.Config{Threshold: cfg.CorrelationThreshold},
		metrics,
		logger,
	)
	classifier := promo.NewClassifier(promo.DefaultConfig())

	orchestrator := search.NewOrchestrator(
		automator,
		correlator,
		classifier,
		search.Config{
			MaxDateWindows:         cfg.MaxDateWindows,
			PhaseAttempts:          cfg.PhaseAttempts,
			RetryDelay:             cfg.RetryDelay,
			NonRefundableGraceDays: cfg.NonRefundableGraceDays,
			MaxPromotions:          cfg.MaxPromociones,
			MaxCheapOptions:        cfg.MaxOpcionesBaratas,
		},
		metrics,
		logger,
	)

	// A single worker keeps searches strictly single-flight against the site.
	jobQueue := queue.New(orchestrator, cfg.QueueSize, logger)
	defer jobQueue.Close()

	quotes := store.NewQuoteStore(cfg.RedisAddr, cfg.QuoteTTL)
	defer quotes.Close()

	var sender messaging.Sender
	if cfg.TelegramToken != "" {
		tg, err := messaging.NewTelegramSender(cfg.TelegramToken)
		if err != nil {
			logger.Error("telegram init failed, falling back to log delivery", "error", err)
			sender = &messaging.LogSender{Logger: logger}
		} else {
			sender = tg
		}
	} else {
		sender = &messaging.LogSender{Logger: logger}
	}

	h := handler.New(jobQueue, quotes, sender, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", h.SearchHandler)
	mux.HandleFunc("GET /quote", h.QuoteHandler)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.HandleFunc("GET /metrics", metrics.MetricsHandler())

	wrappedHandler := middleware.Logging(logger)(mux)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: wrappedHandler,
		// Searches walk several retry phases before answering, so the write
		// timeout has to outlive the whole orchestration.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
