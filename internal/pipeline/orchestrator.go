package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reviewero/internal/apperr"
	"reviewero/internal/catalog"
	"reviewero/internal/httputil"
	"reviewero/internal/media"
	"reviewero/internal/metrics"
	"reviewero/internal/observe"
)

// Synthesizer produces the review lines for a resolved record.
type Synthesizer interface {
	Generate(ctx context.Context, m media.Canonical) (media.Review, error)
}

// Orchestrator runs requests against a catalog and a synthesizer. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	resolver catalog.Resolver
	synth    Synthesizer
	obs      observe.Observer
	report   apperr.Reporter
	newID    func() string
}

// New creates an Orchestrator.
func New(resolver catalog.Resolver, synth Synthesizer, obs observe.Observer) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		synth:    synth,
		obs:      obs,
		report:   apperr.Reporter{Observer: obs},
		newID:    uuid.NewString,
	}
}

// Lookup starts an interactive request. An IMDb id resolves directly; anything
// else is a title search where one match auto-advances and several are returned
// for disambiguation. Series always stop at episode selection.
func (o *Orchestrator) Lookup(ctx context.Context, kind media.Kind, raw string) (out Outcome) {
	r := o.begin(Interactive, Idle)
	defer r.end(&out)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return r.fail(o.report.Report(apperr.Generic(apperr.ServicePipeline, "Enter a title or an IMDb id."), "lookup"))
	}
	r.to(Resolving)

	if httputil.IsExternalID(raw) {
		r.debugf("identifier lookup %s %s", kind, raw)
		rec, err := o.resolver.FindByExternalID(ctx, kind, raw, 0, 0)
		if err != nil {
			return r.fail(err)
		}
		return r.advance(ctx, rec)
	}

	r.debugf("title search %s %q", kind, raw)
	candidates, err := o.resolver.SearchByTitle(ctx, kind, raw)
	if err != nil {
		return r.fail(err)
	}
	switch len(candidates) {
	case 0:
		return r.fail(o.report.Report(apperr.NotFound(apperr.ServiceTMDB, fmt.Sprintf("%s %q", label(kind), raw)), "search"))
	case 1:
		r.debugf("single match %s, auto-selecting", candidates[0].DisplayTitle())
		return r.advance(ctx, candidates[0])
	default:
		r.to(Disambiguating)
		r.debugf("%d candidates for %q", len(candidates), raw)
		return Outcome{State: Disambiguating, Candidates: candidates}
	}
}

// Choose resumes a request after title disambiguation.
func (o *Orchestrator) Choose(ctx context.Context, candidate media.Canonical) (out Outcome) {
	r := o.begin(Interactive, Disambiguating)
	defer r.end(&out)

	r.to(Resolving)
	r.debugf("chose %s", candidate.DisplayTitle())
	return r.advance(ctx, candidate)
}

// ChooseEpisode resumes a request after episode selection.
func (o *Orchestrator) ChooseEpisode(ctx context.Context, series media.Canonical, season, episode int) (out Outcome) {
	r := o.begin(Interactive, Disambiguating)
	defer r.end(&out)

	r.to(Resolving)
	if err := checkEpisode(series, season, episode); err != nil {
		return r.fail(o.report.Report(err, series.DisplayTitle()))
	}
	rec, err := o.resolver.ResolveEpisode(ctx, series, season, episode)
	if err != nil {
		return r.fail(err)
	}
	return r.synthesize(ctx, rec)
}

// Stream serves a protocol request. It never disambiguates: a series id
// without season and episode is reviewed at series level.
func (o *Orchestrator) Stream(ctx context.Context, path string) (out Outcome) {
	r := o.begin(Protocol, Idle)
	defer r.end(&out)

	q, err := ParseStreamPath(path)
	if err != nil {
		r.debugf("rejected path %q", path)
		return r.fail(err)
	}
	r.to(Resolving)

	rec, err := o.resolver.FindByExternalID(ctx, q.Kind, q.ExternalID, q.Season, q.Episode)
	if err != nil {
		return r.fail(err)
	}
	return r.synthesize(ctx, rec)
}

// run tracks one request through the state machine.
type run struct {
	o       *Orchestrator
	id      string
	surface Surface
	state   State
}

func (o *Orchestrator) begin(surface Surface, from State) *run {
	return &run{o: o, id: o.newID(), surface: surface, state: from}
}

// to moves the request to next. An illegal step is a programming error and
// panics; end turns it into a Generic failure.
func (r *run) to(next State) {
	if !CanTransition(r.state, next) {
		panic(fmt.Sprintf("illegal transition %s -> %s", r.state, next))
	}
	r.state = next
}

// advance continues with a resolved record: movies synthesize, series expand.
func (r *run) advance(ctx context.Context, rec media.Canonical) Outcome {
	if rec.Kind != media.Series || rec.IsEpisode() {
		return r.synthesize(ctx, rec)
	}

	exp, err := r.o.resolver.ExpandSeries(ctx, rec.ID)
	if err != nil {
		return r.fail(err)
	}
	if len(exp.Seasons) == 0 {
		return r.fail(r.o.report.Report(apperr.NotFound(apperr.ServiceTMDB, "Seasons for "+rec.Title), "expand"))
	}
	pending := rec.WithSeasons(exp.Seasons, exp.ExternalID)

	r.to(Disambiguating)
	r.debugf("%s has %d seasons, awaiting episode", pending.DisplayTitle(), len(pending.Seasons))
	return Outcome{State: Disambiguating, Pending: pending, Seasons: pending.Seasons}
}

func (r *run) synthesize(ctx context.Context, rec media.Canonical) Outcome {
	r.to(Synthesizing)
	lines, err := r.o.synth.Generate(ctx, rec)
	if err != nil {
		out := r.fail(err)
		out.Media = rec
		return out
	}
	r.to(Succeeded)
	return Outcome{State: Succeeded, Media: rec, Review: lines}
}

// fail ends the request with err. Errors from components arrive classified
// and already recorded; anything else is classified and recorded here.
func (r *run) fail(err error) Outcome {
	e, ok := apperr.As(err)
	if !ok {
		e = r.o.report.Report(apperr.Classify(apperr.ServicePipeline, err), r.id)
	}
	r.to(Failed)
	return Outcome{State: Failed, Err: e}
}

// end recovers a panic as a Generic failure and records the outcome.
func (r *run) end(out *Outcome) {
	if p := recover(); p != nil {
		e := r.o.report.Report(apperr.Generic(apperr.ServicePipeline, "Unexpected error: %v", p), r.id)
		r.state = Failed
		*out = Outcome{State: Failed, Err: e}
	}
	out.RequestID = r.id

	metrics.Resolutions.WithLabelValues(string(r.surface), out.State.String()).Inc()
	switch out.State {
	case Failed:
		r.o.obs.Warnf(apperr.ServicePipeline, "[%s] %s request failed: %s: %s", r.id, r.surface, out.Err.Kind, out.Err.Message)
	case Succeeded:
		r.o.obs.Infof(apperr.ServicePipeline, "[%s] %s review for %s", r.id, r.surface, out.Media.DisplayTitle())
	}
}

func (r *run) debugf(format string, args ...any) {
	r.o.obs.Debugf(apperr.ServicePipeline, "[%s] "+format, append([]any{r.id}, args...)...)
}

// checkEpisode rejects selections outside the known seasons.
func checkEpisode(series media.Canonical, season, episode int) *apperr.Error {
	if series.Kind != media.Series {
		return apperr.Generic(apperr.ServicePipeline, "%q is not a series.", series.Title)
	}
	if season <= 0 || episode <= 0 {
		return apperr.Generic(apperr.ServicePipeline, "Season and episode must be positive.")
	}
	if len(series.Seasons) == 0 {
		return nil
	}
	for _, s := range series.Seasons {
		if s.Number != season {
			continue
		}
		if s.EpisodeCount > 0 && episode > s.EpisodeCount {
			return apperr.NotFound(apperr.ServiceTMDB, fmt.Sprintf("Episode %d of season %d", episode, season))
		}
		return nil
	}
	return apperr.NotFound(apperr.ServiceTMDB, fmt.Sprintf("Season %d of %s", season, series.Title))
}

func label(k media.Kind) string {
	if k == media.Series {
		return "Series"
	}
	return "Movie"
}
