// Package wikidata implements the rate-limited Wikidata SPARQL client
// used to look up an artist's countries of citizenship or origin.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/popforecast/popforecast/internal/provider"
	"github.com/popforecast/popforecast/internal/version"
)

const defaultEndpoint = "https://query.wikidata.org/sparql"

// Adapter is the Wikidata SPARQL client.
type Adapter struct {
	client    *http.Client
	limiter   *provider.RateLimiterMap
	logger    *slog.Logger
	endpoint  string
	retryBase time.Duration
}

// New creates a Wikidata adapter with the default endpoint.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithEndpoint(limiter, logger, defaultEndpoint)
}

// NewWithEndpoint creates a Wikidata adapter with a custom endpoint (for testing).
func NewWithEndpoint(limiter *provider.RateLimiterMap, logger *slog.Logger, endpoint string) *Adapter {
	return &Adapter{
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   limiter,
		logger:    logger.With(slog.String("provider", "wikidata")),
		endpoint:  endpoint,
		retryBase: provider.RetryBase,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameWikidata }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return false }

// Countries returns the English labels of an entity's country of
// citizenship (P27) and country of origin (P495), in result order.
// Transient failures are retried; the error returned after exhaustion
// is the last transient failure.
func (a *Adapter) Countries(ctx context.Context, qid string) ([]string, error) {
	bindings, err := a.executeSPARQL(ctx, buildCountryQuery(qid))
	if err != nil {
		return nil, err
	}

	countries := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.CountryName.Value != "" {
			countries = append(countries, b.CountryName.Value)
		}
	}
	return countries, nil
}

// TestConnection verifies connectivity to the SPARQL endpoint.
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.executeSPARQL(ctx, `SELECT ?item WHERE { ?item wdt:P31 wd:Q5 } LIMIT 1`)
	return err
}

func (a *Adapter) executeSPARQL(ctx context.Context, query string) ([]SPARQLBinding, error) {
	params := url.Values{
		"query":  {query},
		"format": {"json"},
	}
	reqURL := a.endpoint + "?" + params.Encode()

	var bindings []SPARQLBinding
	err := provider.RetryTransient(ctx, a.retryBase, func(ctx context.Context) error {
		body, err := a.doRequest(ctx, reqURL)
		if err != nil {
			return err
		}
		var resp SPARQLResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameWikidata,
				Cause:    fmt.Errorf("parsing SPARQL response: %w", err),
			}
		}
		bindings = resp.Results.Bindings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bindings, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, provider.NameWikidata); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("PopForecast/%s (https://github.com/popforecast/popforecast)", version.Version))
	req.Header.Set("Accept", "application/sparql-results+json")

	a.logger.Debug("executing SPARQL query")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// buildCountryQuery selects the distinct English country labels linked
// from the entity by citizenship or origin.
func buildCountryQuery(qid string) string {
	return fmt.Sprintf(`
SELECT DISTINCT ?countryName WHERE {
  { wd:%s wdt:P27 ?country. } UNION { wd:%s wdt:P495 ?country. }
  ?country rdfs:label ?countryName .
  FILTER(LANG(?countryName) = "en")
}`, qid, qid)
}
