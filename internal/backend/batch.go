package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 2048

// BatchEndpoint translates a whole batch with one POST.
type BatchEndpoint struct {
	url        string
	targetLang string
	sourceLang string
	client     *http.Client
}

// NewBatchEndpoint creates a BatchEndpoint. A nil client uses a default one.
func NewBatchEndpoint(url, targetLang, sourceLang string, client *http.Client) *BatchEndpoint {
	if client == nil {
		client = &http.Client{}
	}
	return &BatchEndpoint{url: url, targetLang: targetLang, sourceLang: sourceLang, client: client}
}

// Translate implements Translator.
func (b *BatchEndpoint) Translate(ctx context.Context, texts []string) ([]string, error) {
	const op = "backend/batch/Translate"

	if len(texts) == 0 {
		return []string{}, nil
	}

	body, err := json.Marshal(BatchRequest{Texts: texts, TargetLang: b.targetLang, SourceLang: b.sourceLang})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: new_request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("%s: do: %w", op, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.BackendError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("%s: decode: %w", op, err)}
	}
	if out.TranslatedTexts == nil {
		return nil, &domain.BackendError{Err: fmt.Errorf("%s: response has no translated_texts", op)}
	}
	if err := checkLength(len(out.TranslatedTexts), len(texts)); err != nil {
		return nil, err
	}

	log.From(ctx).Debug("batch_translated",
		slog.String("op", op),
		slog.Int("texts", len(texts)),
		slog.Int("request_bytes", len(body)),
		slog.Duration("took", time.Since(started)),
	)

	return out.TranslatedTexts, nil
}
