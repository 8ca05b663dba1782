package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	fiberadapter "github.com/awslabs/aws-lambda-go-api-proxy/fiber"

	httptransport "github.com/peterbiondo/solar-calculator-proxy/internal/api/http"
	"github.com/peterbiondo/solar-calculator-proxy/internal/config"
	"github.com/peterbiondo/solar-calculator-proxy/internal/observability"
)

// Serverless entrypoint: the same fiber app served through API Gateway.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	app, cleanup := httptransport.BuildApp(cfg, logger)
	defer cleanup()

	adapter := fiberadapter.New(app)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
