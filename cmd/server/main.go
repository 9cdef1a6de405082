// Package main runs the ROI engine as a standalone HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/services/database"
	"msme-roi-engine/internal/services/quote"
	"msme-roi-engine/internal/utils"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel, cfg.Stage); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := quote.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to start quote service", zap.Error(err))
	}

	var db handlers.Pinger
	if cfg.RateTableSource == config.RateTableSourcePostgres {
		conn, err := database.New(cfg)
		if err != nil {
			logger.Warn("Could not connect to database", zap.Error(err))
		} else {
			defer conn.Close()
			db = conn
		}
	}

	quoteHandler := handlers.NewQuoteHandler(svc)
	healthHandler := handlers.NewHealthHandler(db, svc.TableVersion(), cfg.Stage, version)

	mux := http.NewServeMux()
	mux.Handle("/api/roi", quoteHandler)
	mux.HandleFunc("/api/schemes", quoteHandler.ServeSchemes)
	mux.Handle("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("ROI engine listening",
		zap.String("addr", server.Addr),
		zap.String("stage", cfg.Stage),
		zap.String("table_version", svc.TableVersion()),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
