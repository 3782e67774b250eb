// Package product translates the localized name and description of product
// records fetched from the product lookup service.
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

// Runner translates a flat list of texts. *scheduler.Scheduler satisfies it.
type Runner interface {
	Translate(ctx context.Context, texts []string) (domain.TranslationRun, error)
}

// Adapter reads the localized fields of product records and translates
// them.
type Adapter struct {
	names        Runner
	descriptions Runner
	channel      string
	locale       string
}

// NewAdapter creates an Adapter. names and descriptions may be the same
// Runner; each stream is a separate run either way.
func NewAdapter(names, descriptions Runner, channel, locale string) *Adapter {
	return &Adapter{
		names:        names,
		descriptions: descriptions,
		channel:      channel,
		locale:       locale,
	}
}

// Translate returns one outcome per record, in record order. If either
// stream fails, every record gets a failure outcome.
func (a *Adapter) Translate(ctx context.Context, records []domain.ProductRecord) []domain.ProductOutcome {
	const op = "product/Translate"

	if len(records) == 0 {
		return []domain.ProductOutcome{}
	}

	lg := log.From(ctx)

	names := make([]string, len(records))
	descriptions := make([]string, len(records))
	for i, r := range records {
		names[i], descriptions[i] = a.localized(r.Values)
	}

	var nameRun, descRun domain.TranslationRun
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		run, err := runStream(gctx, a.names, names)
		if err != nil {
			return fmt.Errorf("names: %w", err)
		}
		nameRun = run
		return nil
	})
	g.Go(func() error {
		run, err := runStream(gctx, a.descriptions, descriptions)
		if err != nil {
			return fmt.Errorf("descriptions: %w", err)
		}
		descRun = run
		return nil
	})

	if err := g.Wait(); err != nil {
		lg.Error("product_translation_failed",
			slog.String("op", op),
			slog.Int("records", len(records)),
			slog.String("err", err.Error()),
		)
		return failAll(records, err)
	}

	out := make([]domain.ProductOutcome, len(records))
	for i, r := range records {
		out[i] = domain.ProductOutcome{
			ID:          string(r.ID),
			SKU:         r.SKU,
			Name:        nameRun.Texts[i],
			Description: descRun.Texts[i],
			Success:     true,
		}
	}

	lg.Info("products_translated", slog.String("op", op), slog.Int("records", len(records)))
	return out
}

// runStream runs texts through r and treats any dropped batch as failure.
func runStream(ctx context.Context, r Runner, texts []string) (domain.TranslationRun, error) {
	run, err := r.Translate(ctx, texts)
	if err != nil {
		return run, err
	}
	if err := run.Err(); err != nil {
		return run, err
	}
	return run, nil
}

func failAll(records []domain.ProductRecord, err error) []domain.ProductOutcome {
	out := make([]domain.ProductOutcome, len(records))
	for i, r := range records {
		out[i] = domain.ProductOutcome{
			ID:      r.Identifier(),
			Success: false,
			Error:   err.Error(),
		}
	}
	return out
}

type localizedFields struct {
	Name        any `json:"name"`
	Description any `json:"description"`
}

type productValues struct {
	ChannelLocaleSpecific map[string]map[string]localizedFields `json:"channel_locale_specific"`
}

// localized extracts name and description from values. Missing or
// non-string fields read as "".
func (a *Adapter) localized(raw json.RawMessage) (name, description string) {
	values, ok := decodeValues(raw)
	if !ok {
		return "", ""
	}
	fields := values.ChannelLocaleSpecific[a.channel][a.locale]
	name, _ = fields.Name.(string)
	description, _ = fields.Description.(string)
	return name, description
}

// decodeValues accepts values as an object or as a JSON string holding one.
func decodeValues(raw json.RawMessage) (productValues, bool) {
	var v productValues
	if len(raw) == 0 {
		return v, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = json.RawMessage(text)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return productValues{}, false
	}
	return v, true
}
