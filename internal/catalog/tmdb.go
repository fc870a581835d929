package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"

	"reviewero/internal/apperr"
	"reviewero/internal/httputil"
	"reviewero/internal/media"
	"reviewero/internal/metrics"
	"reviewero/internal/observe"
)

// DefaultTMDBBase is the TMDB v3 API root.
const DefaultTMDBBase = "https://api.themoviedb.org/3"

// TMDB implements Resolver against The Movie Database.
type TMDB struct {
	base   string
	keys   KeySource
	client *http.Client
	omdb   *OMDb // optional plot fallback
	obs    observe.Observer
	report apperr.Reporter
}

// NewTMDB creates a TMDB resolver. omdb may be nil.
func NewTMDB(base string, keys KeySource, client *http.Client, omdb *OMDb, obs observe.Observer) *TMDB {
	if base == "" {
		base = DefaultTMDBBase
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &TMDB{
		base:   base,
		keys:   keys,
		client: client,
		omdb:   omdb,
		obs:    obs,
		report: apperr.Reporter{Observer: obs},
	}
}

// FindByExternalID looks up an IMDb id via /find.
func (t *TMDB) FindByExternalID(ctx context.Context, kind media.Kind, externalID string, season, episode int) (media.Canonical, error) {
	if err := httputil.ValidateExternalID(externalID); err != nil {
		return media.Canonical{}, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Invalid external id %q.", externalID), err.Error())
	}

	var found tmdbFindResponse
	q := url.Values{"external_source": {"imdb_id"}}
	if err := t.get(ctx, q, &found, "find", externalID); err != nil {
		return media.Canonical{}, t.fail(err, externalID)
	}

	var rec media.Canonical
	switch kind {
	case media.Movie:
		if len(found.MovieResults) == 0 {
			return media.Canonical{}, t.report.Report(apperr.NotFound(apperr.ServiceTMDB, "Movie "+externalID), "find")
		}
		rec = movieToCanonical(found.MovieResults[0], externalID)
	case media.Series:
		if len(found.TVResults) == 0 {
			return media.Canonical{}, t.report.Report(apperr.NotFound(apperr.ServiceTMDB, "Series "+externalID), "find")
		}
		rec = tvToCanonical(found.TVResults[0], externalID)
	default:
		return media.Canonical{}, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Unsupported media kind %q.", kind), "find")
	}
	t.obs.Debugf(apperr.ServiceTMDB, "found %s %q (id %d) for %s", kind, rec.Title, rec.ID, externalID)

	rec = t.withFallbackPlot(ctx, rec)

	if kind == media.Series && season > 0 && episode > 0 {
		return t.ResolveEpisode(ctx, rec, season, episode)
	}
	return rec, nil
}

// SearchByTitle runs /search/movie or /search/tv.
func (t *TMDB) SearchByTitle(ctx context.Context, kind media.Kind, text string) ([]media.Canonical, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Search text cannot be empty."), "search")
	}
	q := url.Values{"query": {text}, "include_adult": {"false"}}

	switch kind {
	case media.Movie:
		var res tmdbMovieSearch
		if err := t.get(ctx, q, &res, "search", "movie"); err != nil {
			return nil, t.fail(err, fmt.Sprintf("%q", text))
		}
		candidates := make([]media.Canonical, len(res.Results))
		for i, m := range res.Results {
			candidates[i] = movieToCanonical(m, "")
		}
		t.obs.Debugf(apperr.ServiceTMDB, "movie search %q: %d candidates", text, len(candidates))
		return iter.Map(candidates, func(c *media.Canonical) media.Canonical {
			return t.enrich(ctx, *c)
		}), nil

	case media.Series:
		var res tmdbTVSearch
		if err := t.get(ctx, q, &res, "search", "tv"); err != nil {
			return nil, t.fail(err, fmt.Sprintf("%q", text))
		}
		candidates := make([]media.Canonical, len(res.Results))
		for i, s := range res.Results {
			candidates[i] = tvToCanonical(s, "")
		}
		t.obs.Debugf(apperr.ServiceTMDB, "series search %q: %d candidates", text, len(candidates))
		return candidates, nil

	default:
		return nil, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Unsupported media kind %q.", kind), "search")
	}
}

// Trending returns this week's trending titles of kind, in catalog order.
// Results are not enriched.
func (t *TMDB) Trending(ctx context.Context, kind media.Kind) ([]media.Canonical, error) {
	switch kind {
	case media.Movie:
		var res tmdbMovieSearch
		if err := t.get(ctx, nil, &res, "trending", "movie", "week"); err != nil {
			return nil, t.fail(err, "Trending movies")
		}
		out := make([]media.Canonical, len(res.Results))
		for i, m := range res.Results {
			out[i] = movieToCanonical(m, "")
		}
		return out, nil
	case media.Series:
		var res tmdbTVSearch
		if err := t.get(ctx, nil, &res, "trending", "tv", "week"); err != nil {
			return nil, t.fail(err, "Trending series")
		}
		out := make([]media.Canonical, len(res.Results))
		for i, s := range res.Results {
			out[i] = tvToCanonical(s, "")
		}
		return out, nil
	default:
		return nil, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Unsupported media kind %q.", kind), "trending")
	}
}

// enrich adds cast and origin country to a movie candidate. The credits and
// details lookups run concurrently; any failure returns the candidate unchanged.
func (t *TMDB) enrich(ctx context.Context, c media.Canonical) media.Canonical {
	id := strconv.Itoa(c.ID)

	var (
		credits            tmdbCredits
		details            tmdbMovieDetails
		creditsErr, detErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		creditsErr = t.get(ctx, nil, &credits, "movie", id, "credits")
	})
	wg.Go(func() {
		detErr = t.get(ctx, nil, &details, "movie", id)
	})
	wg.Wait()

	if err := errors.Join(creditsErr, detErr); err != nil {
		t.obs.Warnf(apperr.ServiceTMDB, "enrichment for movie %d skipped: %v", c.ID, err)
		metrics.EnrichmentFailures.Inc()
		return c
	}

	out := c
	out.Cast = topCast(credits)
	out.OriginCountry = originCountry(details)
	if out.ExternalID == "" {
		out.ExternalID = details.IMDbID
	}
	return out
}

// ExpandSeries fetches /tv/{id} with external ids appended.
func (t *TMDB) ExpandSeries(ctx context.Context, id int) (Expansion, error) {
	var details tmdbTVDetails
	q := url.Values{"append_to_response": {"external_ids"}}
	if err := t.get(ctx, q, &details, "tv", strconv.Itoa(id)); err != nil {
		return Expansion{}, t.fail(err, fmt.Sprintf("Series %d", id))
	}
	exp := Expansion{
		Seasons:    regularSeasons(details.Seasons),
		ExternalID: details.ExternalIDs.IMDbID,
	}
	t.obs.Debugf(apperr.ServiceTMDB, "series %d: %d regular seasons", id, len(exp.Seasons))
	return exp, nil
}

// ResolveEpisode fetches /tv/{id}/season/{s}/episode/{e} and merges it into a copy of series.
func (t *TMDB) ResolveEpisode(ctx context.Context, series media.Canonical, season, episode int) (media.Canonical, error) {
	if series.Kind != media.Series {
		return media.Canonical{}, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "%q is not a series.", series.Title), "episode")
	}
	if season <= 0 || episode <= 0 {
		return media.Canonical{}, t.report.Report(apperr.Generic(apperr.ServiceTMDB, "Season and episode must be positive."), "episode")
	}

	var ep tmdbEpisode
	label := fmt.Sprintf("%s S%02dE%02d", series.Title, season, episode)
	err := t.get(ctx, nil, &ep, "tv", strconv.Itoa(series.ID), "season", strconv.Itoa(season), "episode", strconv.Itoa(episode))
	if err != nil {
		return media.Canonical{}, t.fail(err, label)
	}
	return series.WithEpisode(season, episode, ep.Name, httputil.PlainText(ep.Overview)), nil
}

// Validate checks the TMDB key against /configuration.
func (t *TMDB) Validate(ctx context.Context) error {
	if err := t.get(ctx, nil, nil, "configuration"); err != nil {
		return t.fail(err, "configuration")
	}
	return nil
}

// withFallbackPlot fills an empty overview from OMDb, best-effort.
func (t *TMDB) withFallbackPlot(ctx context.Context, rec media.Canonical) media.Canonical {
	if rec.Overview != "" || rec.ExternalID == "" || t.omdb == nil || !t.omdb.Configured() {
		return rec
	}
	plot, err := t.omdb.Plot(ctx, rec.ExternalID)
	if err != nil {
		t.obs.Warnf(apperr.ServiceOMDb, "plot fallback for %s skipped: %v", rec.ExternalID, err)
		return rec
	}
	return rec.WithOverview(plot)
}

// get performs an authenticated GET below the API root.
func (t *TMDB) get(ctx context.Context, q url.Values, out any, segments ...string) error {
	key := t.keys.Key(apperr.ServiceTMDB)
	if key == "" {
		return apperr.InvalidCredential(apperr.ServiceTMDB)
	}
	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("api_key", key)
	return httputil.GetJSON(ctx, t.client, httputil.BuildURL(t.base, params, segments...), nil, out)
}

// fail classifies a transport or status error and records it.
func (t *TMDB) fail(err error, subject string) error {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		return t.report.Report(apperr.FromStatus(apperr.ServiceTMDB, se.StatusCode, subject), subject)
	}
	return t.report.Report(apperr.Classify(apperr.ServiceTMDB, err), subject)
}
