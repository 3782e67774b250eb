package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

// Retry defaults.
const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 60 * time.Second
)

// RetryPolicy bounds the attempts made for one batch.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Delay is multiplied by the attempt number to get the wait before the
	// next attempt.
	Delay time.Duration
	// Timeout bounds each attempt. Zero disables it.
	Timeout time.Duration
}

// Retrying retries a Translator on any failure.
type Retrying struct {
	next   Translator
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next with policy.
func NewRetrying(next Translator, policy RetryPolicy) *Retrying {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Retrying{next: next, policy: policy, sleep: sleepCtx}
}

// Translate implements Translator. It returns the first successful result
// or, after MaxRetries+1 failed attempts, the last error.
func (r *Retrying) Translate(ctx context.Context, texts []string) ([]string, error) {
	const op = "backend/retry/Translate"

	lg := log.From(ctx)
	attempts := r.policy.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := r.attempt(ctx, texts)
		if err == nil {
			return out, nil
		}
		lastErr = err

		lg.Warn("backend_attempt_failed",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Int("texts", len(texts)),
			slog.String("err", err.Error()),
		)

		if ctx.Err() != nil || attempt == attempts {
			break
		}
		if err := r.sleep(ctx, r.policy.Delay*time.Duration(attempt)); err != nil {
			break
		}
	}

	return nil, fmt.Errorf("%s: %d attempts failed: %w", op, attempts, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, texts []string) ([]string, error) {
	attemptCtx := ctx
	if r.policy.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.policy.Timeout)
		defer cancel()
	}

	out, err := r.next.Translate(attemptCtx, texts)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &domain.BackendError{Timeout: true, Err: err}
		}
		return nil, err
	}
	if err := checkLength(len(out), len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
