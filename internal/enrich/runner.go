package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultCheckpointInterval is the number of newly completed lookups
// between durable cache flushes.
const DefaultCheckpointInterval = 50

// Checkpointer is the slice of a cache the runner needs to persist
// progress.
type Checkpointer interface {
	Save() error
	Len() int
}

// StepFunc performs the enrichment work for one key and reports how
// many new cache entries it wrote (0 when the key was already
// resolved). It returns an error only for conditions that must stop
// the run, such as context cancellation; per-key lookup failures are
// encoded into the cache instead.
type StepFunc func(ctx context.Context, key string) (added int, err error)

// Runner drives a step function over an ordered work list with
// periodic checkpoints. Processing is single-threaded and strictly in
// input order; resumability comes entirely from the persisted cache.
type Runner struct {
	cache    Checkpointer
	interval int
	logger   *slog.Logger
}

// NewRunner creates a runner flushing cache every interval newly
// completed lookups. A non-positive interval falls back to the
// default.
func NewRunner(cache Checkpointer, interval int, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &Runner{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Run processes keys in order. The cache is flushed every checkpoint
// interval and once unconditionally at the end, even when no new keys
// were processed. On context cancellation a final flush is attempted
// before returning, so a graceful stop loses nothing.
func (r *Runner) Run(ctx context.Context, keys []string, step StepFunc) error {
	logger := r.logger.With(slog.String("run_id", uuid.NewString()))
	logger.Info("enrichment run starting",
		slog.Int("work_items", len(keys)),
		slog.Int("cached", r.cache.Len()),
	)

	pending := 0
	completed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			if saveErr := r.cache.Save(); saveErr != nil {
				logger.Error("saving cache on cancellation", slog.Any("error", saveErr))
			}
			return err
		}

		added, err := step(ctx, key)
		if err != nil {
			if saveErr := r.cache.Save(); saveErr != nil {
				logger.Error("saving cache on failure", slog.Any("error", saveErr))
			}
			return fmt.Errorf("processing %q: %w", key, err)
		}
		if added == 0 {
			continue
		}
		pending += added
		completed += added

		if pending >= r.interval {
			if err := r.cache.Save(); err != nil {
				return fmt.Errorf("checkpoint: %w", err)
			}
			pending = 0
			logger.Info("checkpoint saved", slog.Int("entries", r.cache.Len()))
		}
	}

	if err := r.cache.Save(); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	logger.Info("enrichment run complete",
		slog.Int("new_lookups", completed),
		slog.Int("entries", r.cache.Len()),
	)
	return nil
}

// FetchStep adapts a single-record fetch function into a StepFunc that
// skips keys already present in the cache, successful or explicitly
// failed.
func FetchStep[T any](cache *Cache[T], fetch func(ctx context.Context, key string) (*T, error)) StepFunc {
	return func(ctx context.Context, key string) (int, error) {
		if cache.Has(key) {
			return 0, nil
		}
		rec, err := fetch(ctx, key)
		if err != nil {
			return 0, err
		}
		cache.Put(key, rec)
		return 1, nil
	}
}
