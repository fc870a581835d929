// Package review turns a canonical media record into a short spoiler-free review.
package review

import (
	"fmt"
	"strings"

	"reviewero/internal/media"
)

// Rubric is the order in which review lines cover the title.
var Rubric = []string{
	"plot",
	"cinematography",
	"acting",
	"score",
	"pacing",
	"world-building",
	"themes",
	"verdict",
}

// MaxLineLength is the per-line character budget requested from the model.
const MaxLineLength = 30

// BuildPrompt renders the model prompt for m. The output depends only on m.
func BuildPrompt(m media.Canonical) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a short, spoiler-free review of %s.\n", subject(m))
	overview := strings.TrimSpace(m.Overview)
	if overview == "" {
		overview = "Not available. Rely on what is publicly known about the title."
	}
	fmt.Fprintf(&b, "Overview: %s\n\n", overview)

	b.WriteString("Rules:\n")
	rules := []string{
		fmt.Sprintf("Write exactly %d lines.", media.Lines),
		fmt.Sprintf("Keep every line at most %d characters.", MaxLineLength),
		"Begin every line with a single emoji.",
		fmt.Sprintf("Cover one topic per line, in this order: %s.", strings.Join(Rubric, ", ")),
		"Do not reveal spoilers of any kind.",
		"Base your opinion on how the title was actually received.",
		fmt.Sprintf("Return only a raw JSON array of %d strings.", media.Lines),
		"Do not add prose, markdown or code fences around the array.",
	}
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}

// subject names the title, e.g. `the movie "The Matrix" (1999)` or
// `episode S01E01 "Pilot" of the series "Breaking Bad" (2008)`.
func subject(m media.Canonical) string {
	title := fmt.Sprintf("%q", m.Title)
	if m.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, m.Year)
	}
	if m.IsEpisode() {
		ep := fmt.Sprintf("episode S%02dE%02d", m.Season, m.Episode)
		if m.EpisodeTitle != "" {
			ep += fmt.Sprintf(" %q", m.EpisodeTitle)
		}
		return fmt.Sprintf("%s of the series %s", ep, title)
	}
	return fmt.Sprintf("the %s %s", m.Kind, title)
}
