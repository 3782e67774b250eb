// Package app wires the translator components from configuration. Both
// entry points build their pipeline here.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pricofy/catalog-translator/internal/backend"
	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/pipeline"
	"github.com/pricofy/catalog-translator/internal/product"
	"github.com/pricofy/catalog-translator/internal/scheduler"
	"github.com/pricofy/catalog-translator/internal/source"
	"github.com/pricofy/catalog-translator/internal/store"
)

// App holds the wired pipeline.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
}

// New builds an App. opts are passed to every backend strategy.
func New(ctx context.Context, cfg *config.Config, opts ...backend.Option) (*App, error) {
	content, err := backend.New(ctx, cfg.Backend, cfg.Backend.Strategy, opts...)
	if err != nil {
		return nil, fmt.Errorf("content backend: %w", err)
	}

	titles := content
	if cfg.Backend.TitleStrategy != cfg.Backend.Strategy {
		titles, err = backend.New(ctx, cfg.Backend, cfg.Backend.TitleStrategy, opts...)
		if err != nil {
			return nil, fmt.Errorf("title backend: %w", err)
		}
	}

	contentSched := scheduler.New(content, cfg.Batch)
	titleSched := scheduler.New(titles, titleBatch(cfg))

	src := source.New(&http.Client{Timeout: cfg.Source.Timeout}, cfg.Product.LookupURL)
	adapter := product.NewAdapter(contentSched, contentSched, cfg.Product.Channel, cfg.Product.Locale)

	pipeOpts := []pipeline.Option{pipeline.WithUppercaseTags(cfg.Output.UppercaseTags)}
	if cfg.Output.Enabled {
		pipeOpts = append(pipeOpts, pipeline.WithSaver(store.NewWriter(cfg.Output.Dir)))
	}

	return &App{
		Config:   cfg,
		Pipeline: pipeline.New(src, titleSched, contentSched, adapter, pipeOpts...),
	}, nil
}

// titleBatch returns the batch bounds for titles. Generative titles run one
// call at a time.
func titleBatch(cfg *config.Config) config.Batch {
	b := cfg.Batch
	if cfg.Backend.TitleStrategy == config.StrategyGenerative {
		b.Concurrency = 1
	}
	return b
}
