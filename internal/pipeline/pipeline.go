// Package pipeline composes fetching, extraction, batched translation,
// reinsertion and persistence into the two translation flows exposed by the
// entry points. Both flows return structured results; no error or panic
// escapes them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/htmltext"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
	"github.com/pricofy/catalog-translator/internal/store"
)

// Source fetches the inputs of both flows.
type Source interface {
	FetchDataset(ctx context.Context, url string) ([]domain.DatasetItem, error)
	LookupProducts(ctx context.Context, skus []string) ([]domain.ProductRecord, error)
}

// Runner translates a flat list of texts in batches.
type Runner interface {
	Translate(ctx context.Context, texts []string) (domain.TranslationRun, error)
}

// Localizer translates product records.
type Localizer interface {
	Translate(ctx context.Context, records []domain.ProductRecord) []domain.ProductOutcome
}

// Saver persists a translated dataset.
type Saver interface {
	Save(ctx context.Context, items []domain.DatasetItem) (store.Paths, error)
}

// Pipeline runs the dataset and product flows.
type Pipeline struct {
	source    Source
	titles    Runner
	content   Runner
	products  Localizer
	saver     Saver
	uppercase bool
}

// Option customizes New.
type Option func(*Pipeline)

// WithSaver enables persistence of translated datasets.
func WithSaver(s Saver) Option {
	return func(p *Pipeline) { p.saver = s }
}

// WithUppercaseTags upper-cases the common tags of translated content.
func WithUppercaseTags(on bool) Option {
	return func(p *Pipeline) { p.uppercase = on }
}

// New creates a Pipeline. titles and content may be the same Runner.
func New(src Source, titles, content Runner, products Localizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   src,
		titles:   titles,
		content:  content,
		products: products,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DatasetOptions controls a dataset run.
type DatasetOptions struct {
	// Translate false returns the raw dataset reduced to its fixed fields.
	Translate bool
	// Persist writes the translated dataset when a Saver is configured.
	Persist bool
}

// Stats summarizes a dataset run.
type Stats struct {
	Items          int   `json:"items"`
	TextNodes      int   `json:"text_nodes"`
	DroppedBatches int   `json:"dropped_batches"`
	Untranslated   int   `json:"untranslated"`
	TookMS         int64 `json:"took_ms"`
}

// DatasetResult is the outcome of TranslateDataset.
type DatasetResult struct {
	Success      bool                 `json:"success"`
	RunID        string               `json:"run_id"`
	Data         []domain.DatasetItem `json:"data,omitempty"`
	SavedPaths   *store.Paths         `json:"saved_paths,omitempty"`
	Stats        *Stats               `json:"stats,omitempty"`
	Error        string               `json:"error,omitempty"`
	PersistError string               `json:"persist_error,omitempty"`
}

// TranslateDataset fetches the dataset at url and translates titles and
// content. Batches that exhaust their retries leave the affected text
// untranslated and are counted in Stats; they do not fail the run.
func (p *Pipeline) TranslateDataset(ctx context.Context, url string, opts DatasetOptions) (res DatasetResult) {
	const op = "pipeline/TranslateDataset"

	runID := uuid.NewString()
	lg := log.From(ctx).With(slog.String("run_id", runID))
	ctx = log.Into(ctx, lg)
	started := time.Now()

	res.RunID = runID
	defer func() {
		if r := recover(); r != nil {
			lg.Error("pipeline_panic", slog.String("op", op), slog.Any("panic", r))
			res = DatasetResult{RunID: runID, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	items, err := p.source.FetchDataset(ctx, url)
	if err != nil {
		return p.failDataset(ctx, op, runID, err)
	}

	if !opts.Translate {
		raw := make([]domain.DatasetItem, len(items))
		for i, it := range items {
			raw[i] = it.Subset()
		}
		lg.Info("dataset_passthrough", slog.String("op", op), slog.Int("items", len(items)))
		return DatasetResult{Success: true, RunID: runID, Data: raw}
	}

	stats := &Stats{Items: len(items)}

	if err := p.translateTitles(ctx, items, stats); err != nil {
		return p.failDataset(ctx, op, runID, err)
	}
	if err := p.translateContent(ctx, items, stats); err != nil {
		return p.failDataset(ctx, op, runID, err)
	}

	res = DatasetResult{Success: true, RunID: runID, Data: items, Stats: stats}

	if opts.Persist && p.saver != nil {
		paths, err := p.saver.Save(ctx, items)
		if err != nil {
			// The translated data is still returned.
			lg.Error("persist_failed", slog.String("op", op), slog.String("err", err.Error()))
			res.PersistError = err.Error()
		} else {
			res.SavedPaths = &paths
		}
	}

	stats.TookMS = time.Since(started).Milliseconds()
	lg.Info("dataset_translated",
		slog.String("op", op),
		slog.Int("items", stats.Items),
		slog.Int("text_nodes", stats.TextNodes),
		slog.Int("dropped_batches", stats.DroppedBatches),
		slog.Int("untranslated", stats.Untranslated),
	)
	return res
}

// translateTitles rewrites item titles in place. A title whose batch was
// dropped keeps its original text.
func (p *Pipeline) translateTitles(ctx context.Context, items []domain.DatasetItem, stats *Stats) error {
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}

	run, err := p.titles.Translate(ctx, titles)
	if err != nil {
		return fmt.Errorf("titles: %w", err)
	}
	record(stats, run)

	for i := range items {
		if t, ok := run.Text(i); ok {
			items[i].Title = t
		}
	}
	return nil
}

// translateContent rewrites the HTML content of items in place.
func (p *Pipeline) translateContent(ctx context.Context, items []domain.DatasetItem, stats *Stats) error {
	contents := make([]string, len(items))
	for i, it := range items {
		if it.HasContent() {
			contents[i] = *it.Content
		}
	}

	ex, err := htmltext.Extract(contents)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	stats.TextNodes = len(ex.Texts)

	run, err := p.content.Translate(ctx, ex.Texts)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	record(stats, run)

	out, err := htmltext.Reinsert(ex, run.Text)
	if err != nil {
		return fmt.Errorf("reinsert: %w", err)
	}

	for i := range items {
		if !items[i].HasContent() {
			continue
		}
		c := out[i]
		if p.uppercase {
			c = htmltext.UppercaseTags(c)
		}
		items[i].Content = &c
	}
	return nil
}

func record(stats *Stats, run domain.TranslationRun) {
	stats.DroppedBatches += len(run.Dropped)
	for _, d := range run.Dropped {
		stats.Untranslated += d.Size
	}
}

func (p *Pipeline) failDataset(ctx context.Context, op, runID string, err error) DatasetResult {
	log.From(ctx).Error("dataset_failed", slog.String("op", op), slog.String("err", err.Error()))
	return DatasetResult{RunID: runID, Error: describe(err)}
}

// ProductsResult is the outcome of TranslateProducts.
type ProductsResult struct {
	Success bool                    `json:"success"`
	Data    []domain.ProductOutcome `json:"data,omitempty"`
	Missing []string                `json:"missing,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// TranslateProducts looks up skus and translates the records found. Success
// means every found record was translated; SKUs without a record are listed
// in Missing.
func (p *Pipeline) TranslateProducts(ctx context.Context, skus []string) (res ProductsResult) {
	const op = "pipeline/TranslateProducts"

	lg := log.From(ctx)
	defer func() {
		if r := recover(); r != nil {
			lg.Error("pipeline_panic", slog.String("op", op), slog.Any("panic", r))
			res = ProductsResult{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	records, err := p.source.LookupProducts(ctx, skus)
	if err != nil {
		lg.Error("products_failed", slog.String("op", op), slog.String("err", err.Error()))
		return ProductsResult{Error: describe(err)}
	}

	outcomes := p.products.Translate(ctx, records)
	res = ProductsResult{Success: true, Data: outcomes, Missing: missing(skus, records)}
	for _, o := range outcomes {
		if !o.Success {
			res.Success = false
			res.Error = o.Error
			break
		}
	}

	if len(res.Missing) > 0 {
		lg.Warn("products_missing", slog.String("op", op), slog.Any("skus", res.Missing))
	}
	return res
}

func missing(requested []string, found []domain.ProductRecord) []string {
	seen := make(map[string]struct{}, len(found))
	for _, r := range found {
		seen[r.SKU] = struct{}{}
	}
	var out []string
	for _, sku := range requested {
		if _, ok := seen[sku]; !ok {
			out = append(out, sku)
		}
	}
	return out
}

// describe renders err for a result.
func describe(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled: " + err.Error()
	}
	return err.Error()
}
