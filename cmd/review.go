package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reviewero/internal/media"
	"reviewero/internal/pipeline"
	"reviewero/internal/ui"
)

// interactive reports whether prompts can be shown.
var interactive = ui.Interactive

// reviewRun is the default command: reviewero <title or IMDb id>
func reviewRun(cmd *cobra.Command, args []string) error {
	kind, err := media.ParseKind(flagKind)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		if !interactive() {
			return errors.New("no title given")
		}
		query, err = ui.Input("Title", "e.g. The Matrix or tt0133093")
		if err != nil {
			return err
		}
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx := cmd.Context()
	debugf("reviewing %s %q", kind, query)
	out := ui.Wait("Searching TMDB", func() pipeline.Outcome {
		return svc.orch.Lookup(ctx, kind, query)
	})
	return finish(ctx, svc.orch, out)
}

// finish drives an outcome through any remaining choices and prints the result.
func finish(ctx context.Context, orch *pipeline.Orchestrator, out pipeline.Outcome) error {
	for {
		switch {
		case out.NeedsTitle():
			idx, err := pickTitle(out.Candidates)
			if err != nil {
				return err
			}
			chosen := out.Candidates[idx]
			debugf("selected: %s (id %d)", chosen.DisplayTitle(), chosen.ID)
			out = ui.Wait("Writing review", func() pipeline.Outcome {
				return orch.Choose(ctx, chosen)
			})
		case out.NeedsEpisode():
			series := out.Pending
			season, episode, err := pickEpisode(series, out.Seasons)
			if err != nil {
				return err
			}
			debugf("episode: S%02dE%02d", season, episode)
			out = ui.Wait("Writing review", func() pipeline.Outcome {
				return orch.ChooseEpisode(ctx, series, season, episode)
			})
		default:
			return report(out)
		}
	}
}

func pickTitle(candidates []media.Canonical) (int, error) {
	if !interactive() {
		return 0, fmt.Errorf("%d titles match; pass an IMDb id instead", len(candidates))
	}
	items := make([]string, len(candidates))
	for i, c := range candidates {
		items[i] = ui.CandidateLabel(c)
	}
	return ui.Select("Select", items)
}

// pickEpisode uses --season and --episode when given and prompts for the rest.
func pickEpisode(series media.Canonical, seasons []media.SeasonSummary) (int, int, error) {
	if flagSeason > 0 && flagEpisode > 0 {
		return flagSeason, flagEpisode, nil
	}
	if !interactive() {
		return 0, 0, fmt.Errorf("%s is a series; pass --season and --episode", series.Title)
	}
	if len(seasons) == 0 {
		return 0, 0, fmt.Errorf("no seasons found for %s", series.Title)
	}

	var chosen media.SeasonSummary
	if flagSeason > 0 {
		chosen = media.SeasonSummary{Number: flagSeason}
		for _, s := range seasons {
			if s.Number == flagSeason {
				chosen = s
				break
			}
		}
	} else {
		items := make([]string, len(seasons))
		for i, s := range seasons {
			items[i] = ui.SeasonLabel(s)
		}
		idx, err := ui.Select("Season", items)
		if err != nil {
			return 0, 0, err
		}
		chosen = seasons[idx]
	}

	if flagEpisode > 0 {
		return chosen.Number, flagEpisode, nil
	}
	if chosen.EpisodeCount > 0 {
		items := make([]string, chosen.EpisodeCount)
		for i := range items {
			items[i] = fmt.Sprintf("Episode %d", i+1)
		}
		idx, err := ui.Select("Episode", items)
		if err != nil {
			return 0, 0, err
		}
		return chosen.Number, idx + 1, nil
	}

	raw, err := ui.Input("Episode", "number")
	if err != nil {
		return 0, 0, err
	}
	episode, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || episode < 1 {
		return 0, 0, fmt.Errorf("invalid episode number %q", raw)
	}
	return chosen.Number, episode, nil
}

type reviewJSON struct {
	RequestID  string   `json:"request_id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	ExternalID string   `json:"imdb_id,omitempty"`
	Season     int      `json:"season,omitempty"`
	Episode    int      `json:"episode,omitempty"`
	Review     []string `json:"review"`
}

func report(out pipeline.Outcome) error {
	if out.State != pipeline.Succeeded {
		dumpDiagnostics()
		if out.Err != nil {
			return out.Err
		}
		return fmt.Errorf("request ended in state %s", out.State)
	}

	m := out.Media
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reviewJSON{
			RequestID:  out.RequestID,
			Kind:       m.Kind.String(),
			Title:      m.Title,
			Year:       m.Year,
			ExternalID: m.ExternalID,
			Season:     m.Season,
			Episode:    m.Episode,
			Review:     out.Review,
		})
	}

	fmt.Println(ui.RenderReview(m, out.Review))
	return nil
}
