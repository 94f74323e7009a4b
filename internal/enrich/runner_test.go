package enrich

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// countingCache wraps a Cache to count checkpoint flushes.
type countingCache struct {
	*Cache[record]
	saves int
}

func (c *countingCache) Save() error {
	c.saves++
	return c.Cache.Save()
}

func newCountingCache(t *testing.T) *countingCache {
	t.Helper()
	inner, err := LoadCache[record](filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	return &countingCache{Cache: inner}
}

func TestRunnerCheckpoints(t *testing.T) {
	cache := newCountingCache(t)
	r := NewRunner(cache, 2, testLogger())

	keys := []string{"a", "b", "c", "d", "e"}
	step := FetchStep(cache.Cache, func(_ context.Context, key string) (*record, error) {
		return &record{Listeners: len(key)}, nil
	})
	if err := r.Run(context.Background(), keys, step); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two checkpoints after a/b and c/d, plus the unconditional final save.
	if cache.saves != 3 {
		t.Errorf("saves = %d, want 3", cache.saves)
	}
	if cache.Len() != 5 {
		t.Errorf("entries = %d, want 5", cache.Len())
	}
}

func TestRunnerFinalSaveWithNoNewWork(t *testing.T) {
	cache := newCountingCache(t)
	cache.Put("a", &record{})
	r := NewRunner(cache, 10, testLogger())

	step := FetchStep(cache.Cache, func(_ context.Context, _ string) (*record, error) {
		t.Fatal("fetch called for cached key")
		return nil, nil
	})
	if err := r.Run(context.Background(), []string{"a"}, step); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cache.saves != 1 {
		t.Errorf("saves = %d, want only the final save", cache.saves)
	}
}

func TestRunnerIdempotent(t *testing.T) {
	cache := newCountingCache(t)
	r := NewRunner(cache, 10, testLogger())

	fetches := 0
	step := FetchStep(cache.Cache, func(_ context.Context, _ string) (*record, error) {
		fetches++
		return &record{}, nil
	})

	keys := []string{"a", "b", "c"}
	for i := 0; i < 2; i++ {
		if err := r.Run(context.Background(), keys, step); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if fetches != 3 {
		t.Errorf("fetches = %d, want 3 (second run must be free)", fetches)
	}
}

func TestRunnerSavesOnCancellation(t *testing.T) {
	cache := newCountingCache(t)
	r := NewRunner(cache, 100, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	processed := 0
	step := FetchStep(cache.Cache, func(_ context.Context, _ string) (*record, error) {
		processed++
		if processed == 2 {
			cancel()
		}
		return &record{}, nil
	})

	err := r.Run(ctx, []string{"a", "b", "c", "d"}, step)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	// Progress made before the stop must be flushed.
	if cache.saves != 1 {
		t.Errorf("saves = %d, want 1", cache.saves)
	}
	if !cache.Has("a") || !cache.Has("b") {
		t.Error("completed keys missing from cache")
	}
}

func TestRunnerResumesAfterCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache, err := LoadCache[record](path)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(cache, 100, testLogger())
	keys := []string{"a", "b", "c", "d"}

	ctx, cancel := context.WithCancel(context.Background())
	processed := 0
	step := FetchStep(cache, func(_ context.Context, _ string) (*record, error) {
		processed++
		if processed == 2 {
			cancel()
		}
		return &record{}, nil
	})
	if err := r.Run(ctx, keys, step); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	// Fresh process: reload the snapshot and rerun the same work list.
	resumed, err := LoadCache[record](path)
	if err != nil {
		t.Fatal(err)
	}
	fetches := 0
	step = FetchStep(resumed, func(_ context.Context, _ string) (*record, error) {
		fetches++
		return &record{}, nil
	})
	if err := NewRunner(resumed, 100, testLogger()).Run(context.Background(), keys, step); err != nil {
		t.Fatalf("resume run: %v", err)
	}
	if fetches != 2 {
		t.Errorf("resume fetched %d keys, want the 2 remaining", fetches)
	}
	if resumed.Len() != 4 {
		t.Errorf("entries = %d, want 4", resumed.Len())
	}
}

func TestRunnerStepFailureSavesAndStops(t *testing.T) {
	cache := newCountingCache(t)
	r := NewRunner(cache, 100, testLogger())

	boom := errors.New("boom")
	step := func(_ context.Context, key string) (int, error) {
		if key == "b" {
			return 0, boom
		}
		cache.Put(key, &record{})
		return 1, nil
	}

	err := r.Run(context.Background(), []string{"a", "b", "c"}, step)
	if !errors.Is(err, boom) {
		t.Fatalf("expected step error, got %v", err)
	}
	if cache.saves != 1 {
		t.Errorf("saves = %d, want 1", cache.saves)
	}
	if cache.Has("c") {
		t.Error("runner continued past a failing step")
	}
}

func TestRunnerDefaultInterval(t *testing.T) {
	cache := newCountingCache(t)
	r := NewRunner(cache, 0, testLogger())
	if r.interval != DefaultCheckpointInterval {
		t.Errorf("interval = %d, want %d", r.interval, DefaultCheckpointInterval)
	}
}
