// Rate table ingest Lambda entry point, triggered by uploads under the
// incoming prefix.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/services/database"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/services/ses"
	"msme-roi-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel, cfg.Stage)
	defer utils.Sync()

	ctx := context.Background()

	objects, err := s3service.NewService(ctx, cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	db, err := database.New(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	repo := database.NewRateTableRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		panic("Failed to prepare rate table schema: " + err.Error())
	}

	var reporter handlers.IngestReporter
	if cfg.AlertsEnabled() {
		sesSvc, err := ses.NewService(ctx, cfg)
		if err != nil {
			panic("Failed to create SES service: " + err.Error())
		}
		reporter = sesSvc
	}

	lambda.Start(handlers.NewRateTableIngestHandler(objects, repo, reporter).Handle)
}
