package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"golang.org/x/sync/errgroup"

	"github.com/pricofy/catalog-translator/internal/backend"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

const (
	// WarmupSource is the "source" of scheduled keep-warm events.
	WarmupSource = "warmup"

	// WarmupDelay keeps a warmed instance busy long enough for its
	// siblings to land on other instances.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is a scheduled keep-warm event. Concurrency asks the receiving
// instance to fan out to that many more.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent reports whether event is a keep-warm event rather than a
// translation request.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var ev WarmupEvent
	if err := json.Unmarshal(event, &ev); err != nil || ev.Source != WarmupSource {
		return nil, false
	}
	ev.Concurrency = max(ev.Concurrency, 0)
	return &ev, true
}

type warmer struct {
	client       backend.Invoker
	functionName string
	delay        time.Duration
}

func (w *warmer) Handle(ctx context.Context, ev *WarmupEvent) (any, error) {
	const op = "lambda/warmup"

	warmed := 1
	if ev.Concurrency > 0 {
		if err := w.fanOut(ctx, ev.Concurrency); err != nil {
			log.From(ctx).Warn("warmup_invoke_failed",
				slog.String("op", op),
				slog.Int("concurrency", ev.Concurrency),
				slog.String("err", err.Error()),
			)
		} else {
			warmed += ev.Concurrency
		}
	}

	delay := w.delay
	if delay == 0 {
		delay = WarmupDelay
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}

	return map[string]any{
		"statusCode": 200,
		"body":       WarmupResponse{Status: "warm", InstancesWarmed: warmed},
	}, nil
}

// fanOut sends count asynchronous warmup events with zero concurrency to
// this function.
func (w *warmer) fanOut(ctx context.Context, count int) error {
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return fmt.Errorf("marshal warmup payload: %w", err)
	}

	var g errgroup.Group
	for range count {
		g.Go(func() error {
			_, err := w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				return fmt.Errorf("invoke %s: %w", w.functionName, err)
			}
			return nil
		})
	}
	return g.Wait()
}
