package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/popforecast/popforecast/internal/enrich"
	"github.com/popforecast/popforecast/internal/provider/musicbrainz"
)

// DefaultMinScore is the search-confidence threshold above which a
// full raw string is accepted as one cohesive entity.
const DefaultMinScore = 85

// Entity is the resolved catalog record for one artist name. A cache
// value of null marks a name the catalogs definitively rejected.
type Entity struct {
	MBID        string  `json:"mbid"`
	QID         string  `json:"qid"`
	Name        string  `json:"name"`
	Nationality *string `json:"nationality"`
}

// ArtistCatalog is the primary-catalog surface the resolver needs.
type ArtistCatalog interface {
	SearchArtist(ctx context.Context, name string) (*musicbrainz.MBArtistResult, error)
	WikidataQID(ctx context.Context, mbid string) (string, error)
}

// CountrySource is the linked-data surface the resolver needs.
type CountrySource interface {
	Countries(ctx context.Context, qid string) ([]string, error)
}

// Resolver runs the two-pass entity resolution strategy over raw
// artist-credit strings.
type Resolver struct {
	catalog   ArtistCatalog
	countries CountrySource
	logger    *slog.Logger
	minScore  int
}

// New creates a resolver with the default acceptance threshold.
func New(catalog ArtistCatalog, countries CountrySource, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:   catalog,
		countries: countries,
		logger:    logger.With(slog.String("component", "resolver")),
		minScore:  DefaultMinScore,
	}
}

// Step returns a runner step that applies ProcessRaw to each work key.
func (r *Resolver) Step(cache *enrich.Cache[Entity]) enrich.StepFunc {
	return func(ctx context.Context, raw string) (int, error) {
		return r.ProcessRaw(ctx, raw, cache)
	}
}

// ProcessRaw resolves one raw artist-credit string using the two-pass
// strategy. Pass 1 queries the full string; a real duo or group name
// comes back above the acceptance threshold and is cached as a single
// entity. Otherwise the full string is marked definitively failed and
// pass 2 splits it into candidate names, resolving each one that the
// cache has not seen. Cached keys, successful or failed, are never
// re-queried. The return value is the number of new cache entries.
func (r *Resolver) ProcessRaw(ctx context.Context, raw string, cache *enrich.Cache[Entity]) (int, error) {
	clean := CollapseWhitespace(raw)
	if clean == "" {
		return 0, nil
	}

	added := 0
	if !cache.Has(clean) {
		entity, err := r.fetchEntity(ctx, clean)
		if err != nil {
			return added, err
		}
		cache.Put(clean, entity)
		added++
	}

	// Pass 2 runs whenever the full string is marked failed, including
	// on resume, so tokens interrupted mid-split still get resolved.
	if rec, ok := cache.Get(clean); ok && rec == nil {
		for _, token := range SplitCollaborations(clean) {
			if cache.Has(token) {
				continue
			}
			entity, err := r.fetchEntity(ctx, token)
			if err != nil {
				return added, err
			}
			cache.Put(token, entity)
			added++
		}
	}
	return added, nil
}

// fetchEntity resolves a single validated name through the catalog
// chain: primary search, Wikidata identifier, then nationality merge.
// All lookup failures collapse to a nil entity; the only error
// returned is context cancellation.
func (r *Resolver) fetchEntity(ctx context.Context, name string) (*Entity, error) {
	match, err := r.catalog.SearchArtist(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("artist search failed", slog.String("name", name), slog.Any("error", err))
		return nil, nil
	}
	if match == nil || match.Score <= r.minScore {
		return nil, nil
	}

	entity := &Entity{MBID: match.ID, Name: match.Name}

	qid, err := r.catalog.WikidataQID(ctx, match.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("wikidata relation lookup failed", slog.String("name", name), slog.Any("error", err))
	}
	entity.QID = qid

	var countries []string
	if match.Area.Name != "" {
		countries = append(countries, match.Area.Name)
	}
	if qid != "" {
		wd, err := r.countries.Countries(ctx, qid)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("country query failed", slog.String("qid", qid), slog.Any("error", err))
		}
		countries = append(countries, wd...)
	}
	entity.Nationality = joinCountries(countries)

	return entity, nil
}

// joinCountries deduplicates country names preserving first-seen order
// and joins them with the fixed separator. Nil when nothing is known.
func joinCountries(countries []string) *string {
	seen := make(map[string]bool, len(countries))
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	joined := strings.Join(out, " / ")
	return &joined
}
