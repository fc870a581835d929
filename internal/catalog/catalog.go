// Package catalog resolves media queries against the external metadata
// catalog (TMDB) and its secondary source (OMDb).
package catalog

import (
	"context"

	"reviewero/internal/media"
)

// Resolver is the interface the orchestrator resolves media through.
// Every error it returns is an *apperr.Error.
type Resolver interface {
	// FindByExternalID looks up an IMDb id. For series with season and
	// episode set, the record is narrowed to that episode.
	FindByExternalID(ctx context.Context, kind media.Kind, externalID string, season, episode int) (media.Canonical, error)

	// SearchByTitle returns candidates in catalog order. Movie candidates are
	// enriched best-effort with cast and origin country.
	SearchByTitle(ctx context.Context, kind media.Kind, text string) ([]media.Canonical, error)

	// ExpandSeries returns the regular seasons of a series and its IMDb id when known.
	ExpandSeries(ctx context.Context, id int) (Expansion, error)

	// ResolveEpisode narrows a series record to one episode.
	ResolveEpisode(ctx context.Context, series media.Canonical, season, episode int) (media.Canonical, error)
}

// Expansion is the season structure of a series.
type Expansion struct {
	Seasons    []media.SeasonSummary
	ExternalID string
}

// KeySource supplies API keys by service name.
type KeySource interface {
	Key(service string) string
}

// maxCast is how many cast names a movie candidate carries.
const maxCast = 3
