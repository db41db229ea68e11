// Command automator is a development stand-in for the page-automation
// service. It answers the same form posts the real service accepts and
// renders results pages with the markup the client parses, so the whole
// retry pipeline can run locally without touching the booking site.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := getEnv("PORT", "9001")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Searches before this date find nothing, which exercises the
	// week-shift retry phases end to end.
	availableFrom := time.Now().AddDate(0, 0, 14)
	if v := os.Getenv("AVAILABLE_FROM"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			logger.Error("invalid AVAILABLE_FROM", "value", v, "error", err)
			os.Exit(1)
		}
		availableFrom = parsed
	}

	site := newFakeSite(availableFrom, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /buscar", site.searchHandler)
	mux.HandleFunc("POST /editar-fechas", site.editDatesHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("automator listening", "addr", addr, "available_from", availableFrom.Format("2006-01-02"))
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
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
