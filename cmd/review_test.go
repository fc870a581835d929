package cmd

import (
	"errors"
	"strings"
	"testing"

	"reviewero/internal/apperr"
	"reviewero/internal/media"
	"reviewero/internal/pipeline"
)

func offTerminal(t *testing.T) {
	t.Helper()
	old := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = old })
}

func setEpisodeFlags(t *testing.T, season, episode int) {
	t.Helper()
	oldSeason, oldEpisode := flagSeason, flagEpisode
	flagSeason, flagEpisode = season, episode
	t.Cleanup(func() { flagSeason, flagEpisode = oldSeason, oldEpisode })
}

func TestPickEpisodeFromFlags(t *testing.T) {
	setEpisodeFlags(t, 2, 5)
	series := media.Canonical{Kind: media.Series, Title: "Breaking Bad"}

	season, episode, err := pickEpisode(series, []media.SeasonSummary{{Number: 1}, {Number: 2}})
	if err != nil {
		t.Fatalf("pickEpisode() error = %v", err)
	}
	if season != 2 || episode != 5 {
		t.Errorf("pickEpisode() = S%dE%d, want S2E5", season, episode)
	}
}

func TestPickEpisodeNeedsFlagsOffTerminal(t *testing.T) {
	tests := []struct {
		name            string
		season, episode int
	}{
		{"none", 0, 0},
		{"season only", 3, 0},
		{"episode only", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offTerminal(t)
			setEpisodeFlags(t, tt.season, tt.episode)
			_, _, err := pickEpisode(media.Canonical{Title: "Dark"}, []media.SeasonSummary{{Number: 1}})
			if err == nil || !strings.Contains(err.Error(), "--season and --episode") {
				t.Errorf("pickEpisode() error = %v, want a flag hint", err)
			}
		})
	}
}

func TestPickTitleOffTerminal(t *testing.T) {
	offTerminal(t)
	_, err := pickTitle(make([]media.Canonical, 3))
	if err == nil || !strings.Contains(err.Error(), "3 titles match") {
		t.Errorf("pickTitle() error = %v", err)
	}
}

func TestReportFailure(t *testing.T) {
	out := pipeline.Outcome{State: pipeline.Failed, Err: apperr.NotFound(apperr.ServiceTMDB, `Movie "zzz"`)}
	err := report(out)
	if err == nil {
		t.Fatal("report() returned nil for a failed outcome")
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("KindOf(report()) = %v, want NotFound", apperr.KindOf(err))
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Errorf("report() error is %T, want *apperr.Error", err)
	}
}
