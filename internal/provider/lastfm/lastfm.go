// Package lastfm implements the rate-limited Last.fm catalog client
// used for artist-context enrichment.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/popforecast/popforecast/internal/provider"
	"github.com/popforecast/popforecast/internal/version"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0"

// ArtistContext is the artist-authority record derived from Last.fm:
// genre tags in catalog order (lowercased) and the listener count.
// Empty tags marshal as [] so the cache file never holds null for a
// successfully fetched artist.
type ArtistContext struct {
	Tags      []string `json:"tags"`
	Listeners int      `json:"listeners"`
}

// TrackInfo is the album reference looked up for a track whose release
// year is missing or suspect in the base dataset.
type TrackInfo struct {
	Album string `json:"album"`
}

// Adapter is the Last.fm catalog client.
type Adapter struct {
	client    *http.Client
	limiter   *provider.RateLimiterMap
	logger    *slog.Logger
	baseURL   string
	apiKey    string
	retryBase time.Duration
}

// New creates a Last.fm adapter with the default base URL.
func New(apiKey string, limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(apiKey, limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Last.fm adapter with a custom base URL (for testing).
func NewWithBaseURL(apiKey string, limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   limiter,
		logger:    logger.With(slog.String("provider", "lastfm")),
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		retryBase: provider.RetryBase,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameLastFM }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// ArtistInfo fetches tags and listener count for an artist. All lookup
// failures are absorbed into the zero-value record so a bad response
// never halts a batch; the only error returned is context
// cancellation.
func (a *Adapter) ArtistInfo(ctx context.Context, name string) (*ArtistContext, error) {
	params := url.Values{
		"method":      {"artist.getinfo"},
		"artist":      {name},
		"api_key":     {a.apiKey},
		"format":      {"json"},
		"autocorrect": {"1"},
	}

	var resp InfoResponse
	err := a.fetch(ctx, params, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("artist info lookup failed",
			slog.String("artist", name),
			slog.Any("error", err),
		)
		return &ArtistContext{Tags: []string{}}, nil
	}

	info := &ArtistContext{Tags: make([]string, 0, len(resp.Artist.Tags.Tag))}
	for _, tag := range resp.Artist.Tags.Tag {
		if tag.Name != "" {
			info.Tags = append(info.Tags, strings.ToLower(tag.Name))
		}
	}
	if n, err := strconv.Atoi(resp.Artist.Stats.Listeners); err == nil && n > 0 {
		info.Listeners = n
	}
	return info, nil
}

// TrackAlbum fetches the album title a track belongs to, used to
// repair suspect release years. Failures are absorbed into an empty
// record.
func (a *Adapter) TrackAlbum(ctx context.Context, artist, track string) (*TrackInfo, error) {
	params := url.Values{
		"method":      {"track.getInfo"},
		"artist":      {artist},
		"track":       {track},
		"api_key":     {a.apiKey},
		"format":      {"json"},
		"autocorrect": {"1"},
	}

	var resp TrackResponse
	err := a.fetch(ctx, params, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("track info lookup failed",
			slog.String("artist", artist),
			slog.String("track", track),
			slog.Any("error", err),
		)
		return &TrackInfo{}, nil
	}
	return &TrackInfo{Album: resp.Track.Album.Title}, nil
}

// TestConnection verifies the API key against a known artist.
func (a *Adapter) TestConnection(ctx context.Context) error {
	params := url.Values{
		"method":      {"artist.getinfo"},
		"artist":      {"Queen"},
		"api_key":     {a.apiKey},
		"format":      {"json"},
		"autocorrect": {"1"},
	}
	var resp InfoResponse
	if err := a.fetch(ctx, params, &resp); err != nil {
		return err
	}
	if resp.Artist.Name == "" {
		return &provider.ErrNotFound{Provider: provider.NameLastFM, ID: "Queen"}
	}
	return nil
}

// fetch issues a GET with retry and decodes the JSON body into out.
func (a *Adapter) fetch(ctx context.Context, params url.Values, out any) error {
	reqURL := a.baseURL + "/?" + params.Encode()
	return provider.RetryTransient(ctx, a.retryBase, func(ctx context.Context) error {
		body, err := a.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameLastFM,
				Cause:    fmt.Errorf("parsing response: %w", err),
			}
		}
		return nil
	})
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, provider.NameLastFM); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("PopForecast/%s (https://github.com/popforecast/popforecast)", version.Version))
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrAuthRequired{Provider: provider.NameLastFM}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}
