// Rate table upload URL Lambda entry point
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/handlers"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_ = utils.InitLogger(cfg.LogLevel, cfg.Stage)
	defer utils.Sync()

	presigner, err := s3service.NewService(context.Background(), cfg)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	lambda.Start(handlers.NewUploadURLHandler(presigner).Handle)
}
