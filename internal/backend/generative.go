package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// titlePrompt instructs the model to return only the translated name.
const titlePrompt = "Translate only the following product name into Vietnamese. " +
	"Do not translate instructions or option lists and do not add anything else. " +
	"If there are several lines, translate only the first one:\n"

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// GenerativeEndpoint translates one text per request by prompting a
// generative model. Requests are paced by a token bucket.
type GenerativeEndpoint struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGenerativeEndpoint creates a GenerativeEndpoint allowing perSecond
// requests per second. A non-positive rate disables pacing.
func NewGenerativeEndpoint(url string, perSecond float64, client *http.Client) *GenerativeEndpoint {
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &GenerativeEndpoint{
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Translate implements Translator. Texts are sent one at a time; a model
// answer without text keeps the original.
func (g *GenerativeEndpoint) Translate(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		translated, err := g.translateOne(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

func (g *GenerativeEndpoint) translateOne(ctx context.Context, text string) (string, error) {
	const op = "backend/generative/translateOne"

	if err := g.limiter.Wait(ctx); err != nil {
		return "", &domain.BackendError{Err: fmt.Errorf("%s: wait: %w", op, err)}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: titlePrompt + text}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: new_request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &domain.BackendError{Err: fmt.Errorf("%s: do: %w", op, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.BackendError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.BackendError{Err: fmt.Errorf("%s: decode: %w", op, err)}
	}

	if len(out.Candidates) > 0 && len(out.Candidates[0].Content.Parts) > 0 {
		if translated := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text); translated != "" {
			return translated, nil
		}
	}
	return text, nil
}
