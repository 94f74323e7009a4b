// Package musicbrainz implements the rate-limited MusicBrainz catalog
// client and the release-prominence selection policy.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/popforecast/popforecast/internal/provider"
	"github.com/popforecast/popforecast/internal/version"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"
	searchLimit    = 100
)

var qidPattern = regexp.MustCompile(`Q\d+`)

// Adapter is the MusicBrainz catalog client.
type Adapter struct {
	client    *http.Client
	limiter   *provider.RateLimiterMap
	logger    *slog.Logger
	baseURL   string
	retryBase time.Duration
}

// New creates a MusicBrainz adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   limiter,
		logger:    logger.With(slog.String("provider", "musicbrainz")),
		baseURL:   strings.TrimRight(baseURL, "/"),
		retryBase: provider.RetryBase,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameMusicBrainz }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return false }

// SearchRecordings searches for recordings matching an artist/track
// pair. It issues a fielded query first and falls back to a loose
// free-text query when the fielded one matches nothing. Transient
// failures are retried; the error returned after exhaustion is the
// last transient failure.
func (a *Adapter) SearchRecordings(ctx context.Context, artist, track string) ([]MBRecording, error) {
	query := fmt.Sprintf(`artist:"%s" AND recording:"%s"`, artist, track)
	recordings, err := a.searchRecordings(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		recordings, err = a.searchRecordings(ctx, artist+" "+track)
		if err != nil {
			return nil, err
		}
	}
	return recordings, nil
}

func (a *Adapter) searchRecordings(ctx context.Context, query string) ([]MBRecording, error) {
	params := url.Values{
		"query": {query},
		"fmt":   {"json"},
		"limit": {fmt.Sprint(searchLimit)},
	}
	reqURL := a.baseURL + "/recording?" + params.Encode()

	var recordings []MBRecording
	err := provider.RetryTransient(ctx, a.retryBase, func(ctx context.Context) error {
		body, err := a.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		var resp RecordingSearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("parsing recording search: %w", err),
			}
		}
		recordings = resp.Recordings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

// SearchArtist returns the single best artist match for a name, or
// nil when the catalog reports no match at all. The caller decides
// whether the match score is good enough to accept.
func (a *Adapter) SearchArtist(ctx context.Context, name string) (*MBArtistResult, error) {
	params := url.Values{
		"query": {fmt.Sprintf(`artist:"%s"`, name)},
		"fmt":   {"json"},
		"limit": {"1"},
	}
	reqURL := a.baseURL + "/artist?" + params.Encode()

	var match *MBArtistResult
	err := provider.RetryTransient(ctx, a.retryBase, func(ctx context.Context) error {
		body, err := a.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		var resp ArtistSearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("parsing artist search: %w", err),
			}
		}
		if len(resp.Artists) > 0 {
			match = &resp.Artists[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// WikidataQID resolves an artist MBID to its Wikidata Q-identifier via
// the artist's URL relations. Returns "" when the artist carries no
// wikidata relation.
func (a *Adapter) WikidataQID(ctx context.Context, mbid string) (string, error) {
	params := url.Values{
		"inc": {"url-rels"},
		"fmt": {"json"},
	}
	reqURL := a.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()

	var qid string
	err := provider.RetryTransient(ctx, a.retryBase, func(ctx context.Context) error {
		body, err := a.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		var resp ArtistRelationsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("parsing artist relations: %w", err),
			}
		}
		for _, rel := range resp.Relations {
			if rel.Type == "wikidata" && rel.URL != nil {
				qid = qidPattern.FindString(rel.URL.Resource)
				break
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return qid, nil
}

// TrackProminence looks up the authoritative release for a track and
// derives its prominence record. Lookup failures of any kind are
// absorbed into a not-found record; the only error returned is context
// cancellation.
func (a *Adapter) TrackProminence(ctx context.Context, artist, track string) (*Prominence, error) {
	recordings, err := a.SearchRecordings(ctx, artist, track)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("recording search failed",
			slog.String("artist", artist),
			slog.String("track", track),
			slog.Any("error", err),
		)
		return NotFoundProminence(), nil
	}
	return ExtractProminence(recordings), nil
}

// TestConnection verifies connectivity to the MusicBrainz API.
func (a *Adapter) TestConnection(ctx context.Context) error {
	params := url.Values{
		"query": {"test"},
		"fmt":   {"json"},
		"limit": {"1"},
	}
	_, err := a.doRequest(ctx, a.baseURL+"/artist?"+params.Encode())
	return err
}

// doRequest executes an HTTP GET with rate limiting and standard headers.
func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, provider.NameMusicBrainz); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{
			Provider: provider.NameMusicBrainz,
			ID:       reqURL,
		}
	}

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider:   provider.NameMusicBrainz,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: 2 * time.Second,
		}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}

func userAgent() string {
	return fmt.Sprintf("PopForecast/%s (https://github.com/popforecast/popforecast)", version.Version)
}
