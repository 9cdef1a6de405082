// Quote Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/services/quote"
	"msme-roi-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel, cfg.Stage)
	defer utils.Sync()

	// The rate table is loaded once per container and shared by every invocation.
	svc, err := quote.NewFromConfig(context.Background(), cfg)
	if err != nil {
		panic("Failed to create quote service: " + err.Error())
	}

	lambda.Start(handlers.NewQuoteHandler(svc).Handle)
}
