// Package source fetches datasets and product records from the external
// services the translator reads from.
package source

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

// Client reads from the dataset source and the product lookup service.
// Every failure is returned as *domain.FetchError.
type Client struct {
	client    *http.Client
	lookupURL string
}

// New creates a Client. A nil client uses one with a 30s timeout.
func New(client *http.Client, lookupURL string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{client: client, lookupURL: lookupURL}
}

// FetchDataset downloads the JSON array of dataset items at url.
func (c *Client) FetchDataset(ctx context.Context, url string) ([]domain.DatasetItem, error) {
	const op = "source/FetchDataset"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("%s: new_request: %w", op, err)}
	}
	req.Header.Set("Accept", "application/json")

	var items []domain.DatasetItem
	if err := c.do(ctx, op, req, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.DatasetItem{}
	}

	log.From(ctx).Info("dataset_fetched",
		slog.String("op", op),
		slog.String("url", url),
		slog.Int("items", len(items)),
	)
	return items, nil
}

type lookupRequest struct {
	SKUs []string `json:"skus"`
}

type lookupResponse struct {
	Data []domain.ProductRecord `json:"data"`
}

// LookupProducts fetches the records for skus. Unknown SKUs are simply
// absent from the result.
func (c *Client) LookupProducts(ctx context.Context, skus []string) ([]domain.ProductRecord, error) {
	const op = "source/LookupProducts"

	body, err := json.Marshal(lookupRequest{SKUs: skus})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.lookupURL, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FetchError{URL: c.lookupURL, Err: fmt.Errorf("%s: new_request: %w", op, err)}
	}
	req.Header.Set("Content-Type", "application/json")

	var out lookupResponse
	if err := c.do(ctx, op, req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []domain.ProductRecord{}
	}

	log.From(ctx).Info("products_fetched",
		slog.String("op", op),
		slog.Int("requested", len(skus)),
		slog.Int("found", len(out.Data)),
	)
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, dst any) error {
	src := req.URL.String()

	resp, err := c.client.Do(req)
	if err != nil {
		log.From(ctx).Warn("http_error",
			slog.String("op", op),
			slog.String("url", src),
			slog.String("err", err.Error()),
		)
		return &domain.FetchError{URL: src, Err: fmt.Errorf("%s: do: %w", op, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &domain.FetchError{URL: src, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &domain.FetchError{URL: src, Err: fmt.Errorf("%s: decode: %w", op, err)}
	}
	return nil
}
