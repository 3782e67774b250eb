// Package main is the entry point for the catalog translator Lambda function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/pricofy/catalog-translator/internal/app"
	"github.com/pricofy/catalog-translator/internal/backend"
	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/handler"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

func main() {
	cfg := config.MustLoad("")

	logger := log.Setup(cfg.Env)
	slog.SetDefault(logger)

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("aws_config_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	client := lambdasdk.NewFromConfig(awsCfg)

	a, err := app.New(ctx, cfg, backend.WithInvoker(client))
	if err != nil {
		logger.Error("app_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	fn := &function{
		handler: handler.New(a.Pipeline),
		warmer:  &warmer{client: client, functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME")},
		logger:  logger,
	}
	logger.Info("lambda_started", slog.String("env", cfg.Env))
	lambda.Start(fn.handleRequest)
}

type function struct {
	handler *handler.Handler
	warmer  *warmer
	logger  *slog.Logger
}

func (f *function) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	ctx = log.Into(ctx, f.logger)

	if warmup, ok := IsWarmupEvent(event); ok {
		return f.warmer.Handle(ctx, warmup)
	}

	var req handler.Request
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("lambda/handleRequest: decode request: %w", err)
	}

	return f.handler.Handle(ctx, req)
}
