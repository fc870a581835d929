package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reviewero/internal/media"
)

var (
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("255"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	reviewStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

// CandidateLabel formats a search result for a picker, e.g.
// "The Matrix (1999)  US · Keanu Reeves, Laurence Fishburne".
func CandidateLabel(c media.Canonical) string {
	label := c.DisplayTitle()
	if details := c.Details(); details != "" {
		label += "  " + helpStyle.Render(details)
	}
	return label
}

// SeasonLabel formats a season for a picker.
func SeasonLabel(s media.SeasonSummary) string {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("Season %d", s.Number)
	}
	if s.EpisodeCount > 0 {
		return fmt.Sprintf("%s (%d episodes)", name, s.EpisodeCount)
	}
	return name
}

// RenderReview draws a review in a bordered box under its title.
func RenderReview(m media.Canonical, r media.Review) string {
	body := strings.Join(r, "\n")
	return titleStyle.Render(m.DisplayTitle()) + "\n" + reviewStyle.Render(body)
}

// RenderError formats a user-facing error line.
func RenderError(msg string) string {
	return errorStyle.Render("error: ") + msg
}
