package review

import (
	"context"
	"net/http"
	"strings"
	"time"

	"reviewero/internal/apperr"
	"reviewero/internal/httputil"
	"reviewero/internal/media"
	"reviewero/internal/metrics"
	"reviewero/internal/observe"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// KeySource supplies API keys by service name.
type KeySource interface {
	Key(service string) string
}

// Options configures a Synthesizer. Zero values select the defaults.
type Options struct {
	Base        string
	Model       string
	Temperature float64
}

// Synthesizer generates reviews with Gemini. One attempt per call, no retry.
type Synthesizer struct {
	base        string
	model       string
	temperature float64
	keys        KeySource
	client      *http.Client
	obs         observe.Observer
	report      apperr.Reporter
}

// New creates a Synthesizer. client may be nil.
func New(opts Options, keys KeySource, client *http.Client, obs observe.Observer) *Synthesizer {
	if opts.Base == "" {
		opts.Base = DefaultGeminiBase
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &Synthesizer{
		base:        opts.Base,
		model:       opts.Model,
		temperature: opts.Temperature,
		keys:        keys,
		client:      client,
		obs:         obs,
		report:      apperr.Reporter{Observer: obs},
	}
}

// Model returns the configured model name.
func (s *Synthesizer) Model() string { return s.model }

// Generate produces the review lines for m. The lines are returned verbatim;
// fewer than media.Lines non-empty lines is a Generic error.
func (s *Synthesizer) Generate(ctx context.Context, m media.Canonical) (media.Review, error) {
	key := s.keys.Key(apperr.ServiceGemini)
	if key == "" {
		return nil, s.report.Report(apperr.InvalidCredential(apperr.ServiceGemini), m.DisplayTitle())
	}

	prompt := BuildPrompt(m)
	s.obs.Debugf(apperr.ServiceGemini, "generating review for %s with %s", m.DisplayTitle(), s.model)

	start := time.Now()
	text, err := s.complete(ctx, key, prompt)
	metrics.RecordSynthesis(start)
	if err != nil {
		return nil, err
	}

	lines, err := ExtractArray(text)
	if err != nil {
		s.obs.Debugf(apperr.ServiceGemini, "unparseable output: %.200q", text)
		return nil, s.report.Report(apperr.Classify(apperr.ServiceGemini, err), m.DisplayTitle())
	}
	if n := nonEmpty(lines); n < media.Lines {
		return nil, s.report.Report(
			apperr.Generic(apperr.ServiceGemini, "Gemini returned %d review lines instead of %d.", n, media.Lines),
			m.DisplayTitle())
	}

	s.obs.Infof(apperr.ServiceGemini, "review ready for %s (%s)", m.DisplayTitle(), time.Since(start).Round(time.Millisecond))
	return media.Review(lines), nil
}

func nonEmpty(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
