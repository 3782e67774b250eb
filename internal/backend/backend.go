// Package backend implements the translation backend client: the remote
// strategies (batch endpoint, generative endpoint, translator Lambda) and
// the retry policy wrapped around them.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/domain"
)

// Translator translates a batch of texts. The result has the same length
// and order as texts.
type Translator interface {
	Translate(ctx context.Context, texts []string) ([]string, error)
}

// BatchRequest is the body of a batch translation call.
type BatchRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang"`
}

// BatchResponse is the body returned by a batch translation call.
type BatchResponse struct {
	TranslatedTexts []string `json:"translated_texts"`
	Error           string   `json:"error,omitempty"`
}

// RequestSize returns the serialized size of a batch request carrying texts.
// The language fields are a fixed overhead and are measured with the
// default codes.
func RequestSize(texts []string) int {
	b, err := json.Marshal(BatchRequest{Texts: texts, TargetLang: "vi", SourceLang: "auto"})
	if err != nil {
		return 0
	}
	return len(b)
}

// Option customizes New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	invoker    Invoker
}

// WithHTTPClient sets the HTTP client used by HTTP strategies.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithInvoker sets the Lambda client used by the lambda strategy.
func WithInvoker(inv Invoker) Option {
	return func(o *options) { o.invoker = inv }
}

// New builds the strategy named by strategy and wraps it in the retry
// policy from cfg.
func New(ctx context.Context, cfg config.Backend, strategy string, opts ...Option) (Translator, error) {
	o := options{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}

	var inner Translator
	switch strategy {
	case config.StrategyBatch:
		inner = NewBatchEndpoint(cfg.URL, cfg.TargetLang, cfg.SourceLang, o.httpClient)
	case config.StrategyGenerative:
		inner = NewGenerativeEndpoint(cfg.GenerativeURL, cfg.GenerativeRate, o.httpClient)
	case config.StrategyLambda:
		inv := o.invoker
		if inv == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load AWS config: %w", err)
			}
			inv = lambda.NewFromConfig(awsCfg)
		}
		inner = NewLambdaEndpoint(inv, cfg.LambdaFunction, cfg.TargetLang, cfg.SourceLang)
	default:
		return nil, fmt.Errorf("unknown backend strategy %q", strategy)
	}

	return NewRetrying(inner, RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Delay:      cfg.RetryDelay,
		Timeout:    cfg.Timeout,
	}), nil
}

// checkLength rejects a result that does not line up with its input.
func checkLength(got, want int) error {
	if got != want {
		return &domain.BackendError{
			Err: fmt.Errorf("translated %d texts, sent %d", got, want),
		}
	}
	return nil
}
