package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"reviewero/internal/apperr"
	"reviewero/internal/media"
	"reviewero/internal/observe"
)

type staticKeys map[string]string

func (k staticKeys) Key(service string) string { return k[service] }

var allKeys = staticKeys{
	apperr.ServiceTMDB: "tmdb-key",
	apperr.ServiceOMDb: "omdb-key",
}

// newTMDBServer serves canned TMDB responses keyed by path. Paths missing
// from routes answer 404.
func newTMDBServer(t *testing.T, routes map[string]string, status map[string]int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.URL.Query().Get("api_key"); got != "tmdb-key" {
			t.Errorf("api_key = %q on %s", got, r.URL.Path)
		}
		path := strings.TrimPrefix(r.URL.Path, "/3")
		if code, ok := status[path]; ok {
			w.WriteHeader(code)
			fmt.Fprint(w, `{"status_message":"failure"}`)
			return
		}
		body, ok := routes[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status_code":34,"status_message":"The resource you requested could not be found."}`)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func newTestTMDB(ts *httptest.Server, keys KeySource, omdb *OMDb) *TMDB {
	return NewTMDB(ts.URL+"/3", keys, ts.Client(), omdb, observe.Nop())
}

func TestFindByExternalIDMovie(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/find/tt0133093": `{"movie_results":[{"id":603,"title":"The Matrix","overview":"A hacker <i>wakes up</i>.","release_date":"1999-03-30"}],"tv_results":[]}`,
	}, nil)

	got, err := newTestTMDB(ts, allKeys, nil).FindByExternalID(context.Background(), media.Movie, "tt0133093", 0, 0)
	if err != nil {
		t.Fatalf("FindByExternalID() error: %v", err)
	}
	if got.ID != 603 || got.Title != "The Matrix" || got.Year != 1999 {
		t.Errorf("got %+v", got)
	}
	if got.ExternalID != "tt0133093" || got.Kind != media.Movie {
		t.Errorf("identity fields wrong: %+v", got)
	}
	if got.Overview != "A hacker wakes up." {
		t.Errorf("Overview = %q, want markup stripped", got.Overview)
	}
}

func TestFindByExternalIDNotFound(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/find/tt9999999": `{"movie_results":[],"tv_results":[]}`,
	}, nil)
	r := newTestTMDB(ts, allKeys, nil)

	for _, kind := range []media.Kind{media.Movie, media.Series} {
		_, err := r.FindByExternalID(context.Background(), kind, "tt9999999", 0, 0)
		if apperr.KindOf(err) != apperr.KindNotFound {
			t.Errorf("%s: expected NotFound, got %v", kind, err)
		}
	}
}

func TestFindByExternalIDWrongKind(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/find/tt0903747": `{"movie_results":[],"tv_results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`,
	}, nil)

	_, err := newTestTMDB(ts, allKeys, nil).FindByExternalID(context.Background(), media.Movie, "tt0903747", 0, 0)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("a series id looked up as a movie should be NotFound, got %v", err)
	}
}

func TestFindByExternalIDStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusUnauthorized, apperr.KindInvalidCredential},
		{http.StatusNotFound, apperr.KindNotFound},
		{http.StatusTooManyRequests, apperr.KindRateLimited},
		{http.StatusBadGateway, apperr.KindGeneric},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			ts, _ := newTMDBServer(t, nil, map[string]int{"/find/tt0133093": tt.status})
			obs := observe.Nop()
			r := NewTMDB(ts.URL+"/3", allKeys, ts.Client(), nil, obs)

			_, err := r.FindByExternalID(context.Background(), media.Movie, "tt0133093", 0, 0)
			if apperr.KindOf(err) != tt.want {
				t.Errorf("kind = %v, want %v (err %v)", apperr.KindOf(err), tt.want, err)
			}
			if len(obs.Entries()) == 0 {
				t.Error("classified errors must be recorded to the observer")
			}
		})
	}
}

func TestFindByExternalIDSeriesEpisode(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/find/tt0903747":             `{"movie_results":[],"tv_results":[{"id":1396,"name":"Breaking Bad","overview":"A chemist turns.","first_air_date":"2008-01-20"}]}`,
		"/tv/1396/season/1/episode/1": `{"name":"Pilot","overview":"Walter gets a diagnosis.","season_number":1,"episode_number":1}`,
	}, nil)
	r := newTestTMDB(ts, allKeys, nil)

	ep, err := r.FindByExternalID(context.Background(), media.Series, "tt0903747", 1, 1)
	if err != nil {
		t.Fatalf("FindByExternalID() error: %v", err)
	}
	if !ep.IsEpisode() || ep.Season != 1 || ep.Episode != 1 || ep.EpisodeTitle != "Pilot" {
		t.Errorf("episode fields wrong: %+v", ep)
	}
	if ep.Overview != "Walter gets a diagnosis." {
		t.Errorf("episode overview should replace series overview, got %q", ep.Overview)
	}

	series, err := r.FindByExternalID(context.Background(), media.Series, "tt0903747", 0, 0)
	if err != nil {
		t.Fatalf("FindByExternalID() without episode error: %v", err)
	}
	if series.IsEpisode() || series.EpisodeTitle != "" {
		t.Errorf("series-level record expected, got %+v", series)
	}
	if series.Overview != "A chemist turns." || series.Year != 2008 {
		t.Errorf("series record wrong: %+v", series)
	}
}

func TestFindByExternalIDMissingEpisode(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/find/tt0903747": `{"tv_results":[{"id":1396,"name":"Breaking Bad"}]}`,
	}, nil)

	_, err := newTestTMDB(ts, allKeys, nil).FindByExternalID(context.Background(), media.Series, "tt0903747", 9, 99)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected NotFound for a missing episode, got %v", err)
	}
}

func TestFindByExternalIDMissingKey(t *testing.T) {
	ts, hits := newTMDBServer(t, nil, nil)

	_, err := newTestTMDB(ts, staticKeys{}, nil).FindByExternalID(context.Background(), media.Movie, "tt0133093", 0, 0)
	if apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Errorf("expected InvalidCredential, got %v", err)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("no request should be made without a key")
	}
}

func TestSearchByTitleMovieEnrichment(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/search/movie": `{"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-30"},
			{"id":604,"title":"The Matrix Reloaded","release_date":"2003-05-15"}]}`,
		"/movie/603/credits": `{"cast":[{"name":"Keanu Reeves","order":0},{"name":"Laurence Fishburne","order":1},{"name":"Carrie-Anne Moss","order":2},{"name":"Hugo Weaving","order":3}]}`,
		"/movie/603":         `{"id":603,"imdb_id":"tt0133093","production_countries":[{"iso_3166_1":"US","name":"United States of America"},{"iso_3166_1":"AU","name":"Australia"}]}`,
		"/movie/604/credits": `{"cast":[{"name":"Keanu Reeves","order":0}]}`,
		"/movie/604":         `{"id":604,"imdb_id":"tt0234215","production_countries":[]}`,
	}, nil)

	got, err := newTestTMDB(ts, allKeys, nil).SearchByTitle(context.Background(), media.Movie, "matrix")
	if err != nil {
		t.Fatalf("SearchByTitle() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != 603 || got[1].ID != 604 {
		t.Errorf("catalog order not preserved: %d, %d", got[0].ID, got[1].ID)
	}
	if want := []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"}; strings.Join(got[0].Cast, "|") != strings.Join(want, "|") {
		t.Errorf("Cast = %v, want %v", got[0].Cast, want)
	}
	if got[0].OriginCountry != "US" || got[0].ExternalID != "tt0133093" {
		t.Errorf("enrichment wrong: %+v", got[0])
	}
	if got[1].OriginCountry != "" || len(got[1].Cast) != 1 {
		t.Errorf("second candidate enrichment wrong: %+v", got[1])
	}
}

func TestSearchByTitleEnrichmentFailureKeepsCandidate(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/search/movie": `{"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30"}]}`,
	}, map[string]int{
		"/movie/603":         http.StatusInternalServerError,
		"/movie/603/credits": http.StatusInternalServerError,
	})

	got, err := newTestTMDB(ts, allKeys, nil).SearchByTitle(context.Background(), media.Movie, "matrix")
	if err != nil {
		t.Fatalf("enrichment failure must not fail the search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidate must not be dropped, got %d", len(got))
	}
	if len(got[0].Cast) != 0 || got[0].OriginCountry != "" {
		t.Errorf("expected empty enrichment, got cast %v country %q", got[0].Cast, got[0].OriginCountry)
	}
	if got[0].Title != "The Matrix" || got[0].Year != 1999 {
		t.Errorf("base fields should survive: %+v", got[0])
	}
}

func TestSearchByTitlePartialEnrichmentFailure(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/search/movie":      `{"results":[{"id":603,"title":"The Matrix"}]}`,
		"/movie/603/credits": `{"cast":[{"name":"Keanu Reeves","order":0}]}`,
	}, map[string]int{"/movie/603": http.StatusTooManyRequests})

	got, err := newTestTMDB(ts, allKeys, nil).SearchByTitle(context.Background(), media.Movie, "matrix")
	if err != nil {
		t.Fatalf("SearchByTitle() error: %v", err)
	}
	if len(got[0].Cast) != 0 || got[0].OriginCountry != "" {
		t.Errorf("a failed secondary lookup should leave enrichment empty, got %+v", got[0])
	}
}

func TestSearchByTitleSeriesNotEnriched(t *testing.T) {
	ts, hits := newTMDBServer(t, map[string]string{
		"/search/tv": `{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"},{"id":2000,"name":"Breaking Point","first_air_date":""}]}`,
	}, nil)

	got, err := newTestTMDB(ts, allKeys, nil).SearchByTitle(context.Background(), media.Series, "breaking")
	if err != nil {
		t.Fatalf("SearchByTitle() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[1].Year != 0 {
		t.Errorf("missing first_air_date should give year 0, got %d", got[1].Year)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("series search should make exactly 1 request, made %d", n)
	}
}

func TestSearchByTitleEmptyResults(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{"/search/movie": `{"results":[]}`}, nil)

	got, err := newTestTMDB(ts, allKeys, nil).SearchByTitle(context.Background(), media.Movie, "zzzz")
	if err != nil {
		t.Fatalf("an empty search is not an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}

func TestExpandSeries(t *testing.T) {
	ts, _ := newTMDBServer(t, map[string]string{
		"/tv/1396": `{"id":1396,"seasons":[
			{"season_number":0,"episode_count":9,"name":"Specials"},
			{"season_number":1,"episode_count":7,"name":"Season 1"},
			{"season_number":2,"episode_count":13,"name":"Season 2"}],
			"external_ids":{"imdb_id":"tt0903747"}}`,
	}, nil)

	exp, err := newTestTMDB(ts, allKeys, nil).ExpandSeries(context.Background(), 1396)
	if err != nil {
		t.Fatalf("ExpandSeries() error: %v", err)
	}
	if len(exp.Seasons) != 2 {
		t.Fatalf("specials should be filtered, got %d seasons", len(exp.Seasons))
	}
	if exp.Seasons[0].Number != 1 || exp.Seasons[1].Number != 2 || exp.Seasons[1].EpisodeCount != 13 {
		t.Errorf("unexpected seasons %+v", exp.Seasons)
	}
	if exp.ExternalID != "tt0903747" {
		t.Errorf("ExternalID = %q", exp.ExternalID)
	}
}

func TestTrending(t *testing.T) {
	ts, hits := newTMDBServer(t, map[string]string{
		"/trending/movie/week": `{"results":[{"id":1,"title":"A","release_date":"2024-01-01"},{"id":2,"title":"B"}]}`,
		"/trending/tv/week":    `{"results":[{"id":3,"name":"C","first_air_date":"2023-05-05"}]}`,
	}, nil)
	r := newTestTMDB(ts, allKeys, nil)

	movies, err := r.Trending(context.Background(), media.Movie)
	if err != nil {
		t.Fatalf("Trending(movie) error: %v", err)
	}
	if len(movies) != 2 || movies[0].Title != "A" || movies[0].Year != 2024 || movies[1].Kind != media.Movie {
		t.Errorf("movies = %+v", movies)
	}

	series, err := r.Trending(context.Background(), media.Series)
	if err != nil {
		t.Fatalf("Trending(series) error: %v", err)
	}
	if len(series) != 1 || series[0].Kind != media.Series || series[0].Year != 2023 {
		t.Errorf("series = %+v", series)
	}
	if n := atomic.LoadInt32(hits); n != 2 {
		t.Errorf("trending should not enrich, made %d requests", n)
	}
}

func TestParseYear(t *testing.T) {
	tests := map[string]int{
		"1999-03-30": 1999,
		"2008":       2008,
		"":           0,
		"199":        0,
		"abcd-01-01": 0,
	}
	for input, want := range tests {
		if got := parseYear(input); got != want {
			t.Errorf("parseYear(%q) = %d, want %d", input, got, want)
		}
	}
}
