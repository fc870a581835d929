// Package media defines shared types for the reviewero application.
package media

import (
	"fmt"
	"strings"
)

// Kind represents whether content is a movie or a series.
type Kind int

const (
	Movie Kind = iota
	Series
)

func (k Kind) String() string {
	switch k {
	case Movie:
		return "movie"
	case Series:
		return "series"
	default:
		return "unknown"
	}
}

// ParseKind maps a user or protocol supplied kind onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return Movie, nil
	case "series", "tv", "show", "shows":
		return Series, nil
	default:
		return Movie, fmt.Errorf("unsupported media kind %q (valid: movie, series)", s)
	}
}

// Query is a single resolution request. Title and ExternalID are mutually
// exclusive entry points.
type Query struct {
	Kind       Kind
	Title      string // Free-text search
	ExternalID string // IMDb id, e.g. "tt0133093"
	Season     int    // Series only, 0 when unset
	Episode    int    // Series only, 0 when unset
}

// Validate checks the entry-point and season/episode invariants.
func (q Query) Validate() error {
	hasTitle := strings.TrimSpace(q.Title) != ""
	hasID := strings.TrimSpace(q.ExternalID) != ""
	if hasTitle == hasID {
		return fmt.Errorf("exactly one of title or external id must be supplied")
	}
	if q.Season < 0 || q.Episode < 0 {
		return fmt.Errorf("season and episode must be positive")
	}
	if q.Kind == Movie && (q.Season != 0 || q.Episode != 0) {
		return fmt.Errorf("season and episode only apply to series")
	}
	if (q.Season == 0) != (q.Episode == 0) {
		return fmt.Errorf("season and episode must be supplied together")
	}
	return nil
}

// HasEpisode reports whether the query targets a single episode.
func (q Query) HasEpisode() bool {
	return q.Kind == Series && q.Season > 0 && q.Episode > 0
}

// SeasonSummary describes one season of a series.
type SeasonSummary struct {
	Number       int
	EpisodeCount int
	Name         string
}

// Canonical is the catalog's authoritative record for a movie, series or episode.
// Records are values: the With* helpers return merged copies.
type Canonical struct {
	ID            int    // Internal catalog id (TMDB)
	ExternalID    string // IMDb id, may be empty for series
	Kind          Kind
	Title         string
	Year          int // 0 when unknown
	Overview      string
	Cast          []string // Up to 3 names, movie search only
	OriginCountry string   // ISO 3166-1 code, movie search only

	Seasons []SeasonSummary // Series only, specials excluded

	Season       int // Resolved episode only
	Episode      int
	EpisodeTitle string
}

// IsEpisode reports whether the record describes a single episode.
func (c Canonical) IsEpisode() bool {
	return c.Kind == Series && c.Season > 0 && c.Episode > 0
}

// WithEpisode returns a copy of c narrowed to one episode.
func (c Canonical) WithEpisode(season, episode int, title, overview string) Canonical {
	out := c.clone()
	out.Season = season
	out.Episode = episode
	out.EpisodeTitle = title
	if overview != "" {
		out.Overview = overview
	}
	return out
}

// WithSeasons returns a copy of c carrying the given seasons. A non-empty
// externalID fills a missing external identifier.
func (c Canonical) WithSeasons(seasons []SeasonSummary, externalID string) Canonical {
	out := c.clone()
	out.Seasons = append([]SeasonSummary(nil), seasons...)
	if out.ExternalID == "" {
		out.ExternalID = externalID
	}
	return out
}

// WithOverview returns a copy of c with the overview replaced.
func (c Canonical) WithOverview(overview string) Canonical {
	out := c.clone()
	out.Overview = overview
	return out
}

func (c Canonical) clone() Canonical {
	out := c
	out.Cast = append([]string(nil), c.Cast...)
	out.Seasons = append([]SeasonSummary(nil), c.Seasons...)
	return out
}

// DisplayTitle formats a record for pickers and stream names.
func (c Canonical) DisplayTitle() string {
	title := c.Title
	if c.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, c.Year)
	}
	if c.IsEpisode() {
		title = fmt.Sprintf("%s S%02dE%02d", title, c.Season, c.Episode)
		if c.EpisodeTitle != "" {
			title += " " + c.EpisodeTitle
		}
	}
	return title
}

// Details formats the enrichment fields of a movie candidate, e.g. "US · Keanu Reeves, Carrie-Anne Moss".
func (c Canonical) Details() string {
	var parts []string
	if c.OriginCountry != "" {
		parts = append(parts, c.OriginCountry)
	}
	if len(c.Cast) > 0 {
		parts = append(parts, strings.Join(c.Cast, ", "))
	}
	return strings.Join(parts, " · ")
}

// Review holds the ordered review lines produced by the model.
type Review []string

// Lines is the number of lines a review is asked to contain.
const Lines = 8

// Text joins the review lines with newlines.
func (r Review) Text() string {
	return strings.Join(r, "\n")
}
