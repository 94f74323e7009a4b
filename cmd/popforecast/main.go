// Command popforecast drives the external-catalog enrichment layer of
// the song-popularity forecasting pipeline: checkpointed crawls of
// MusicBrainz, Last.fm and Wikidata, plus the merge step that joins
// the resulting caches back onto the base dataset.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/popforecast/popforecast/internal/config"
	"github.com/popforecast/popforecast/internal/dataset"
	"github.com/popforecast/popforecast/internal/enrich"
	"github.com/popforecast/popforecast/internal/logging"
	"github.com/popforecast/popforecast/internal/provider"
	"github.com/popforecast/popforecast/internal/provider/lastfm"
	"github.com/popforecast/popforecast/internal/provider/musicbrainz"
	"github.com/popforecast/popforecast/internal/provider/wikidata"
	"github.com/popforecast/popforecast/internal/resolve"
	"github.com/popforecast/popforecast/internal/version"
)

// Durable cache file names under the interim directory.
const (
	artistCacheFile  = "lastfm_enrichment.json"
	trackMetaFile    = "lastfm_track_albums.json"
	trackCacheFile   = "musicbrainz_enrichment.json"
	catalogCacheFile = "artists_catalog.json"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println(version.Version)
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `popforecast %s - external-catalog enrichment for song popularity forecasting

Usage: popforecast <command>

Commands:
  enrich-artists    crawl Last.fm artist context (tags, listeners) and
                    album references for tracks with suspect years
  enrich-tracks     crawl MusicBrainz track prominence for mainstream
                    tracks
  enrich-catalog    resolve raw artist credits to catalog entities with
                    nationality (MusicBrainz + Wikidata)
  merge             join all enrichment caches onto the base dataset
  fix-schema        repair _x/_y column collisions in the base dataset
  test-connection   verify connectivity and credentials per provider
  version           print the version

Configuration is read from PF_CONFIG_PATH (default config.yaml),
.env, and PF_* / LASTFM_API_KEY environment variables.
`, version.Version)
}

// app bundles everything a subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	limiter *provider.RateLimiterMap
}

func run(cmd string) error {
	configPath := os.Getenv("PF_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLogs := logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	defer closeLogs() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:     cfg,
		logger:  logger,
		limiter: provider.NewRateLimiterMap(),
	}

	switch cmd {
	case "enrich-artists":
		return a.enrichArtists(ctx)
	case "enrich-tracks":
		return a.enrichTracks(ctx)
	case "enrich-catalog":
		return a.enrichCatalog(ctx)
	case "merge":
		return a.merge()
	case "fix-schema":
		return a.fixSchema()
	case "test-connection":
		return a.testConnections(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cachePath(name string) string {
	return filepath.Join(a.cfg.Data.InterimDir, name)
}

func (a *app) loadDataset() (*dataset.Table, error) {
	t, err := dataset.LoadCSV(a.cfg.Data.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("loading base dataset: %w", err)
	}
	a.logger.Info("base dataset loaded",
		slog.String("path", a.cfg.Data.DatasetPath),
		slog.Int("rows", len(t.Rows)),
		slog.Int("columns", len(t.Header)),
	)
	return t, nil
}

// enrichArtists runs the Last.fm crawl: artist context for every
// unique artist, then album references for tracks flagged with a
// missing or suspect release year.
func (a *app) enrichArtists(ctx context.Context) error {
	if err := a.cfg.RequireLastFMKey(); err != nil {
		return err
	}

	t, err := a.loadDataset()
	if err != nil {
		return err
	}

	artists, err := dataset.UniqueArtists(t)
	if err != nil {
		return err
	}

	client := lastfm.New(a.cfg.LastFM.APIKey, a.limiter, a.logger)

	cache, err := enrich.LoadCache[lastfm.ArtistContext](a.cachePath(artistCacheFile))
	if err != nil {
		return err
	}
	runner := enrich.NewRunner(cache, a.cfg.Enrich.CheckpointInterval, a.logger)
	step := enrich.FetchStep(cache, func(ctx context.Context, artist string) (*lastfm.ArtistContext, error) {
		return client.ArtistInfo(ctx, artist)
	})
	if err := runner.Run(ctx, artists, step); err != nil {
		return fmt.Errorf("artist context crawl: %w", err)
	}

	// Phase 2: album references for suspect-year tracks. The flag
	// column only exists once the modeling pipeline has run, so its
	// absence just skips the phase.
	if t.ColumnIndex(dataset.ColSuspectYear) < 0 {
		a.logger.Info("no suspect-year column, skipping track album lookup")
		return nil
	}
	suspects, err := dataset.SuspectTrackKeys(t)
	if err != nil {
		return err
	}

	trackCache, err := enrich.LoadCache[lastfm.TrackInfo](a.cachePath(trackMetaFile))
	if err != nil {
		return err
	}
	trackRunner := enrich.NewRunner(trackCache, a.cfg.Enrich.CheckpointInterval, a.logger)
	trackStep := enrich.FetchStep(trackCache, func(ctx context.Context, key string) (*lastfm.TrackInfo, error) {
		artist, track, ok := dataset.SplitKey(key)
		if !ok {
			a.logger.Warn("malformed work key", slog.String("key", key))
			return &lastfm.TrackInfo{}, nil
		}
		return client.TrackAlbum(ctx, artist, track)
	})
	if err := trackRunner.Run(ctx, suspects, trackStep); err != nil {
		return fmt.Errorf("track album crawl: %w", err)
	}
	return nil
}

// enrichTracks runs the MusicBrainz prominence crawl over the unique
// mainstream-plateau tracks.
func (a *app) enrichTracks(ctx context.Context) error {
	t, err := a.loadDataset()
	if err != nil {
		return err
	}

	keys, err := dataset.UniqueTrackKeys(t, a.cfg.Enrich.MainstreamThreshold)
	if err != nil {
		return err
	}
	a.logger.Info("mainstream tracks selected",
		slog.Int("count", len(keys)),
		slog.Float64("threshold", a.cfg.Enrich.MainstreamThreshold),
	)

	client := musicbrainz.New(a.limiter, a.logger)

	cache, err := enrich.LoadCache[musicbrainz.Prominence](a.cachePath(trackCacheFile))
	if err != nil {
		return err
	}
	runner := enrich.NewRunner(cache, a.cfg.Enrich.CheckpointInterval, a.logger)
	step := enrich.FetchStep(cache, func(ctx context.Context, key string) (*musicbrainz.Prominence, error) {
		artist, track, ok := dataset.SplitKey(key)
		if !ok {
			a.logger.Warn("malformed work key", slog.String("key", key))
			return musicbrainz.NotFoundProminence(), nil
		}
		return client.TrackProminence(ctx, artist, track)
	})
	if err := runner.Run(ctx, keys, step); err != nil {
		return fmt.Errorf("prominence crawl: %w", err)
	}
	return nil
}

// enrichCatalog resolves every unique raw artist credit with the
// two-pass strategy and records nationality signals.
func (a *app) enrichCatalog(ctx context.Context) error {
	t, err := a.loadDataset()
	if err != nil {
		return err
	}

	artists, err := dataset.UniqueArtists(t)
	if err != nil {
		return err
	}

	mb := musicbrainz.New(a.limiter, a.logger)
	wd := wikidata.New(a.limiter, a.logger)
	resolver := resolve.New(mb, wd, a.logger)

	cache, err := enrich.LoadCache[resolve.Entity](a.cachePath(catalogCacheFile))
	if err != nil {
		return err
	}
	runner := enrich.NewRunner(cache, a.cfg.Enrich.CheckpointInterval, a.logger)
	if err := runner.Run(ctx, artists, resolver.Step(cache)); err != nil {
		return fmt.Errorf("catalog resolution: %w", err)
	}
	return nil
}

// merge joins all enrichment caches onto the base dataset and writes
// the enriched copy. Column collisions from prior merges are repaired
// first so they cannot multiply.
func (a *app) merge() error {
	t, err := a.loadDataset()
	if err != nil {
		return err
	}
	dataset.RepairCollisions(t)

	artistCache, err := enrich.LoadCache[lastfm.ArtistContext](a.cachePath(artistCacheFile))
	if err != nil {
		return err
	}
	if err := dataset.MergeArtistContext(t, artistCache); err != nil {
		return err
	}

	catalogCache, err := enrich.LoadCache[resolve.Entity](a.cachePath(catalogCacheFile))
	if err != nil {
		return err
	}
	if err := dataset.MergeNationality(t, catalogCache); err != nil {
		return err
	}

	trackCache, err := enrich.LoadCache[musicbrainz.Prominence](a.cachePath(trackCacheFile))
	if err != nil {
		return err
	}
	if err := dataset.MergeProminence(t, trackCache); err != nil {
		return err
	}

	if err := t.SaveCSV(a.cfg.Data.OutputPath); err != nil {
		return fmt.Errorf("saving enriched dataset: %w", err)
	}
	a.logger.Info("enriched dataset written",
		slog.String("path", a.cfg.Data.OutputPath),
		slog.Int("rows", len(t.Rows)),
		slog.Int("columns", len(t.Header)),
	)
	return nil
}

// fixSchema repairs merge-collision column names in the base dataset,
// in place.
func (a *app) fixSchema() error {
	t, err := a.loadDataset()
	if err != nil {
		return err
	}
	before := len(t.Header)
	dataset.RepairCollisions(t)
	if err := t.SaveCSV(a.cfg.Data.DatasetPath); err != nil {
		return fmt.Errorf("saving repaired dataset: %w", err)
	}
	a.logger.Info("schema repaired",
		slog.Int("columns_before", before),
		slog.Int("columns_after", len(t.Header)),
	)
	return nil
}

// testConnections verifies connectivity (and the Last.fm key) against
// each provider.
func (a *app) testConnections(ctx context.Context) error {
	mb := musicbrainz.New(a.limiter, a.logger)
	if err := mb.TestConnection(ctx); err != nil {
		return fmt.Errorf("musicbrainz: %w", err)
	}
	a.logger.Info("musicbrainz connection ok")

	wd := wikidata.New(a.limiter, a.logger)
	if err := wd.TestConnection(ctx); err != nil {
		return fmt.Errorf("wikidata: %w", err)
	}
	a.logger.Info("wikidata connection ok")

	if err := a.cfg.RequireLastFMKey(); err != nil {
		return err
	}
	lf := lastfm.New(a.cfg.LastFM.APIKey, a.limiter, a.logger)
	if err := lf.TestConnection(ctx); err != nil {
		return fmt.Errorf("lastfm: %w", err)
	}
	a.logger.Info("lastfm connection ok")
	return nil
}
