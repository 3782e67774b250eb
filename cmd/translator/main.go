// Package main is the command-line entry point of the catalog translator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pricofy/catalog-translator/internal/app"
	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/handler"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(buildService)
	root.SetOut(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}

// buildService loads the configuration and wires the pipeline.
func buildService(ctx context.Context, configPath string) (context.Context, handler.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ctx, nil, err
	}

	logger := log.Setup(cfg.Env)
	slog.SetDefault(logger)
	ctx = log.Into(ctx, logger)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, a.Pipeline, nil
}
