// snapsplitd is the snapsplit HTTP API daemon: receipt scanning, settlement,
// shares, and XLSX export.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/snapsplit/snapsplit/internal/common"
	"github.com/snapsplit/snapsplit/internal/export"
	"github.com/snapsplit/snapsplit/internal/scan"
	"github.com/snapsplit/snapsplit/internal/server"
	"github.com/snapsplit/snapsplit/internal/store"
	"github.com/snapsplit/snapsplit/internal/store/postgres"
	"github.com/snapsplit/snapsplit/internal/store/sqlite"
	"github.com/snapsplit/snapsplit/internal/vision"
	"github.com/snapsplit/snapsplit/internal/vision/openai"
	"github.com/snapsplit/snapsplit/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}
	logging.Setup()
	log := slog.Default()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shares, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open share store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer shares.Close()

	var extractor vision.Extractor
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
	}, log)
	if client.Configured() {
		extractor = client
	} else {
		log.Warn("OPENAI_API_KEY not set; scans will use the text fallback only")
	}

	scanner := scan.New(extractor, scan.Options{
		MaxAttempts: cfg.Scan.MaxAttempts,
		BaseDelay:   cfg.Scan.BaseDelay,
	}, log)

	srv := server.New(scanner, shares, export.NewService(log), log)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("stopped")
}

func openStore(ctx context.Context, cfg *common.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(ctx, cfg.Database, log)
	default:
		return sqlite.New(cfg.Database.DSN)
	}
}
