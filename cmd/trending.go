package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewero/internal/media"
	"reviewero/internal/pipeline"
	"reviewero/internal/ui"
)

var trendingCmd = &cobra.Command{
	Use:   "trending [movies|tv]",
	Short: "Pick a title trending on TMDB this week and review it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  trendingRun,
}

func trendingRun(cmd *cobra.Command, args []string) error {
	kind := media.Movie
	if len(args) == 1 {
		var err error
		if kind, err = media.ParseKind(args[0]); err != nil {
			return err
		}
	}

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx := cmd.Context()
	results, err := ui.Wait("Loading trending titles", func() trendingResult {
		titles, err := svc.tmdb.Trending(ctx, kind)
		return trendingResult{titles, err}
	}).unpack()
	if err != nil {
		return fmt.Errorf("getting trending: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No trending content found.")
		return nil
	}
	if !interactive() {
		for _, r := range results {
			fmt.Println(r.DisplayTitle())
		}
		return nil
	}

	items := make([]string, len(results))
	for i, r := range results {
		items[i] = ui.CandidateLabel(r)
	}
	idx, err := ui.Select("Trending", items)
	if err != nil {
		return err
	}

	chosen := results[idx]
	debugf("selected: %s (id %d)", chosen.DisplayTitle(), chosen.ID)
	out := ui.Wait("Writing review", func() pipeline.Outcome {
		return svc.orch.Choose(ctx, chosen)
	})
	return finish(ctx, svc.orch, out)
}

type trendingResult struct {
	titles []media.Canonical
	err    error
}

func (r trendingResult) unpack() ([]media.Canonical, error) { return r.titles, r.err }
