// Package ui provides the terminal prompts used by the interactive review flow.
// All prompts draw on stderr so stdout stays clean for --json output.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user leaves a prompt without answering.
var ErrCancelled = errors.New("selection cancelled")

// maxVisible caps how many items a picker shows at once.
const maxVisible = 12

type selectModel struct {
	prompt    string
	items     []string
	cursor    int
	offset    int
	chosen    int
	cancelled bool
}

func newSelectModel(prompt string, items []string) selectModel {
	return selectModel{prompt: prompt, items: items, chosen: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.items) - 1
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+maxVisible {
		m.offset = m.cursor - maxVisible + 1
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.chosen >= 0 || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.prompt) + "\n")

	end := min(m.offset+maxVisible, len(m.items))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+m.items[i]) + "\n")
		} else {
			b.WriteString("  " + m.items[i] + "\n")
		}
	}
	if len(m.items) > maxVisible {
		b.WriteString(helpStyle.Render(fmt.Sprintf("%d/%d", m.cursor+1, len(m.items))) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move · enter select · esc cancel"))
	return b.String()
}

// Select presents items and returns the chosen index.
func Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	final, err := tea.NewProgram(newSelectModel(prompt, items), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return -1, fmt.Errorf("running picker: %w", err)
	}
	m := final.(selectModel)
	if m.cancelled || m.chosen < 0 {
		return -1, ErrCancelled
	}
	return m.chosen, nil
}
