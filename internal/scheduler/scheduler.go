// Package scheduler runs a flat list of texts through a backend in bounded
// batches with a ceiling on concurrent calls.
package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pricofy/catalog-translator/internal/backend"
	"github.com/pricofy/catalog-translator/internal/chunker"
	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/pkg/log"
)

// Scheduler partitions texts into batches and translates them concurrently.
// It holds no state between runs and is safe for concurrent use; every
// Translate call gets its own concurrency ceiling.
type Scheduler struct {
	backend backend.Translator
	limits  chunker.Limits
	measure func([]string) int
	workers int64
}

// New creates a Scheduler from the batch configuration.
func New(tr backend.Translator, cfg config.Batch) *Scheduler {
	workers := int64(cfg.Concurrency)
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		backend: tr,
		limits:  chunker.Limits{MaxItems: cfg.Size, MaxBytes: cfg.MaxRequestBytes},
		measure: backend.RequestSize,
		workers: workers,
	}
}

// Translate translates texts and returns the results at their original
// positions. A batch that fails is recorded in the run's Dropped list and
// its positions stay unfilled; the other batches are unaffected. The error
// is non-nil only when ctx ends before every batch was dispatched and
// finished.
func (s *Scheduler) Translate(ctx context.Context, texts []string) (domain.TranslationRun, error) {
	const op = "scheduler/Translate"

	run := domain.NewTranslationRun(len(texts))
	if len(texts) == 0 {
		return run, nil
	}

	lg := log.From(ctx)
	batches := chunker.Split(texts, s.limits, s.measure)
	started := time.Now()

	lg.Info("translation_run_start",
		slog.String("op", op),
		slog.Int("texts", len(texts)),
		slog.Int("batches", len(batches)),
		slog.Int64("concurrency", s.workers),
	)

	// Acquire is FIFO: batches are admitted in submission order.
	sem := semaphore.NewWeighted(s.workers)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	drop := func(b chunker.Batch, err error) {
		mu.Lock()
		run.Dropped = append(run.Dropped, &domain.BatchDroppedError{Offset: b.Offset, Size: b.Len(), Err: err})
		mu.Unlock()
	}

	var dispatchErr error
	for i, b := range batches {
		if err := sem.Acquire(ctx, 1); err != nil {
			dispatchErr = err
			for _, rest := range batches[i:] {
				drop(rest, err)
			}
			break
		}

		wg.Add(1)
		go func(b chunker.Batch) {
			defer func() {
				sem.Release(1)
				wg.Done()
			}()

			out, err := s.backend.Translate(ctx, b.Texts)
			if err == nil && len(out) != b.Len() {
				err = &domain.BackendError{Err: fmt.Errorf("translated %d texts, sent %d", len(out), b.Len())}
			}
			if err != nil {
				lg.Warn("batch_dropped",
					slog.String("op", op),
					slog.Int("offset", b.Offset),
					slog.Int("size", b.Len()),
					slog.String("err", err.Error()),
				)
				drop(b, err)
				return
			}

			// Batches never overlap, so the writes need no lock.
			copy(run.Texts[b.Offset:], out)
			for i := b.Offset; i < b.Offset+b.Len(); i++ {
				run.Filled[i] = true
			}
		}(b)
	}
	wg.Wait()

	slices.SortFunc(run.Dropped, func(a, b *domain.BatchDroppedError) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	lg.Info("translation_run_done",
		slog.String("op", op),
		slog.Int("batches", len(batches)),
		slog.Int("dropped", len(run.Dropped)),
		slog.Duration("took", time.Since(started)),
	)

	if dispatchErr != nil {
		return run, fmt.Errorf("%s: %w", op, dispatchErr)
	}
	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}
	return run, nil
}
