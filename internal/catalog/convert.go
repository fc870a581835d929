package catalog

import (
	"strconv"

	"reviewero/internal/httputil"
	"reviewero/internal/media"
)

// TMDB response models. Only the fields the resolver consumes are decoded.

type tmdbMovie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
}

type tmdbTV struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	FirstAirDate string `json:"first_air_date"`
}

type tmdbFindResponse struct {
	MovieResults []tmdbMovie `json:"movie_results"`
	TVResults    []tmdbTV    `json:"tv_results"`
}

type tmdbMovieSearch struct {
	Results []tmdbMovie `json:"results"`
}

type tmdbTVSearch struct {
	Results []tmdbTV `json:"results"`
}

type tmdbMovieDetails struct {
	ID                  int    `json:"id"`
	IMDbID              string `json:"imdb_id"`
	ProductionCountries []struct {
		ISO  string `json:"iso_3166_1"`
		Name string `json:"name"`
	} `json:"production_countries"`
}

type tmdbCredits struct {
	Cast []struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	} `json:"cast"`
}

type tmdbSeason struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
}

type tmdbTVDetails struct {
	ID          int          `json:"id"`
	Seasons     []tmdbSeason `json:"seasons"`
	ExternalIDs struct {
		IMDbID string `json:"imdb_id"`
	} `json:"external_ids"`
}

type tmdbEpisode struct {
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
}

// parseYear extracts the year from a TMDB date ("1999-03-30"). Absent or
// malformed dates yield 0, the unknown-year sentinel.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 0 {
		return 0
	}
	return year
}

func movieToCanonical(m tmdbMovie, externalID string) media.Canonical {
	return media.Canonical{
		ID:         m.ID,
		ExternalID: externalID,
		Kind:       media.Movie,
		Title:      m.Title,
		Year:       parseYear(m.ReleaseDate),
		Overview:   httputil.PlainText(m.Overview),
	}
}

func tvToCanonical(s tmdbTV, externalID string) media.Canonical {
	return media.Canonical{
		ID:         s.ID,
		ExternalID: externalID,
		Kind:       media.Series,
		Title:      s.Name,
		Year:       parseYear(s.FirstAirDate),
		Overview:   httputil.PlainText(s.Overview),
	}
}

// regularSeasons drops specials (season number <= 0) and keeps catalog order.
func regularSeasons(seasons []tmdbSeason) []media.SeasonSummary {
	out := make([]media.SeasonSummary, 0, len(seasons))
	for _, s := range seasons {
		if s.SeasonNumber <= 0 {
			continue
		}
		out = append(out, media.SeasonSummary{
			Number:       s.SeasonNumber,
			EpisodeCount: s.EpisodeCount,
			Name:         s.Name,
		})
	}
	return out
}

// topCast returns up to maxCast names in billing order.
func topCast(c tmdbCredits) []string {
	var names []string
	for _, member := range c.Cast {
		if member.Name == "" {
			continue
		}
		names = append(names, member.Name)
		if len(names) == maxCast {
			break
		}
	}
	return names
}

func originCountry(d tmdbMovieDetails) string {
	for _, c := range d.ProductionCountries {
		if c.ISO != "" {
			return c.ISO
		}
	}
	return ""
}
