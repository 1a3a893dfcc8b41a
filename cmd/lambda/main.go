package main

import (
	"github.com/apex/log"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/d1mk9/aiproxy/configs"
	"github.com/d1mk9/aiproxy/internal/api"
	"github.com/d1mk9/aiproxy/internal/endpoints"
	"github.com/d1mk9/aiproxy/internal/transport"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configs.SetupLogging(cfg); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	q, err := api.NewQuerier(cfg)
	if err != nil {
		log.Fatalf("Failed to build querier: %v", err)
	}
	// A frozen Lambda sandbox cannot drain an async queue.
	if cfg.NotifierEnabled() {
		log.Warn("telegram notifier is ignored on lambda")
	}

	router := endpoints.NewRouter(q, nil, endpoints.Options{QueryTimeout: cfg.QueryTimeout})
	lambda.Start(transport.LambdaHandler(router))
}
