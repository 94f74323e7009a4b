// Package provider holds the shared plumbing for the external catalog
// clients: provider identity, typed failure sentinels, rate limiting,
// and the transient-retry policy.
package provider

import (
	"fmt"
	"time"
)

// ProviderName uniquely identifies an external catalog.
type ProviderName string

// Known provider names.
const (
	NameMusicBrainz ProviderName = "musicbrainz"
	NameLastFM      ProviderName = "lastfm"
	NameWikidata    ProviderName = "wikidata"
)

// AllProviderNames returns all known provider names in display order.
func AllProviderNames() []ProviderName {
	return []ProviderName{NameMusicBrainz, NameLastFM, NameWikidata}
}

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameMusicBrainz:
		return "MusicBrainz"
	case NameLastFM:
		return "Last.fm"
	case NameWikidata:
		return "Wikidata"
	default:
		return string(n)
	}
}

// ErrProviderUnavailable indicates a transient failure (rate-limited,
// timeout, server error, malformed body). Callers retry it and, once
// the retry budget is exhausted, downgrade it to a not-found result.
type ErrProviderUnavailable struct {
	Provider   ProviderName
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the provider has no data for the requested query.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}

// ErrAuthRequired indicates the provider needs an API key but none is
// configured, or the configured key was rejected.
type ErrAuthRequired struct {
	Provider ProviderName
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: API key not configured or rejected", e.Provider)
}
