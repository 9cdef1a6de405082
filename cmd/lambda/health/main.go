// Health Check Lambda entry point
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/services/database"
	"msme-roi-engine/internal/services/ratesource"
	"msme-roi-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel, cfg.Stage)
	defer utils.Sync()
	logger := utils.GetLogger()

	store, err := ratesource.Load(context.Background(), cfg)
	if err != nil {
		panic("Failed to load rate table: " + err.Error())
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

	handler := handlers.NewHealthHandler(db, store.Version(), cfg.Stage, os.Getenv("SERVICE_VERSION"))
	lambda.Start(handler.Handle)
}
