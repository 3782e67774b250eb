// Package handler provides the Lambda handler for the catalog translator.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/pricofy/catalog-translator/internal/pipeline"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
	"github.com/pricofy/catalog-translator/internal/store"
)

// Actions.
const (
	ActionTranslate = "translate"
	ActionProducts  = "products"
	ActionStatus    = "status"
)

// Request is the input to the catalog translator.
type Request struct {
	Action string   `json:"action"`
	URL    string   `json:"url,omitempty"`
	SKUs   []string `json:"skus,omitempty"`
	// Translate and Persist default to true.
	Translate *bool `json:"translate,omitempty"`
	Persist   *bool `json:"persist,omitempty"`
}

// Response is the output of the catalog translator.
type Response struct {
	Success      bool            `json:"success"`
	RunID        string          `json:"run_id,omitempty"`
	Data         any             `json:"data,omitempty"`
	Missing      []string        `json:"missing,omitempty"`
	SavedPaths   *store.Paths    `json:"saved_paths,omitempty"`
	Stats        *pipeline.Stats `json:"stats,omitempty"`
	Message      string          `json:"message,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Error        string          `json:"error,omitempty"`
	PersistError string          `json:"persist_error,omitempty"`
}

// Service runs the translation flows.
type Service interface {
	TranslateDataset(ctx context.Context, url string, opts pipeline.DatasetOptions) pipeline.DatasetResult
	TranslateProducts(ctx context.Context, skus []string) pipeline.ProductsResult
}

// Handler dispatches requests to a Service.
type Handler struct {
	svc Service
	now func() time.Time
}

// New creates a Handler.
func New(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Handle processes a request. Failures are reported in Response.Error; the
// error return is reserved for the Lambda runtime and is always nil.
func (h *Handler) Handle(ctx context.Context, req Request) (*Response, error) {
	const op = "handler/Handle"

	if err := validateRequest(req); err != nil {
		log.From(ctx).Warn("invalid_request", slog.String("op", op), slog.String("err", err.Error()))
		return &Response{Error: err.Error()}, nil
	}

	switch req.Action {
	case ActionStatus:
		return &Response{
			Success:   true,
			Message:   "translation service is running",
			Timestamp: h.now().UTC().Format(time.RFC3339),
		}, nil

	case ActionProducts:
		res := h.svc.TranslateProducts(ctx, req.SKUs)
		resp := &Response{
			Success: res.Success,
			Missing: res.Missing,
			Error:   res.Error,
		}
		if res.Data != nil {
			resp.Data = res.Data
		}
		return resp, nil

	default:
		res := h.svc.TranslateDataset(ctx, req.URL, pipeline.DatasetOptions{
			Translate: boolOr(req.Translate, true),
			Persist:   boolOr(req.Persist, true),
		})
		resp := &Response{
			Success:      res.Success,
			RunID:        res.RunID,
			SavedPaths:   res.SavedPaths,
			Stats:        res.Stats,
			Error:        res.Error,
			PersistError: res.PersistError,
		}
		if res.Data != nil {
			resp.Data = res.Data
		}
		return resp, nil
	}
}

// validateRequest checks the request is valid.
func validateRequest(req Request) error {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Action, validation.Required, validation.In(ActionTranslate, ActionProducts, ActionStatus)),
		validation.Field(&req.URL, validation.When(req.Action == ActionTranslate, validation.Required, is.URL)),
		validation.Field(&req.SKUs, validation.When(req.Action == ActionProducts, validation.Required, validation.Each(validation.Required))),
	)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
