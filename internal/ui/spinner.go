package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{}

type spinnerModel struct {
	label   string
	spinner spinner.Model
	work    func()
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		work()
		return doneMsg{}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + helpStyle.Render(m.label)
}

// Wait runs work while a spinner is shown on a terminal. Keys are ignored, so
// work always completes. Off a terminal, work simply runs.
func Wait[T any](label string, work func() T) T {
	var (
		result T
		once   sync.Once
	)
	run := func() { once.Do(func() { result = work() }) }
	if !Interactive() {
		run()
		return result
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = promptStyle
	m := spinnerModel{label: label, spinner: s, work: run}
	if _, err := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil)).Run(); err != nil {
		// The program may have stopped before work finished; wait for it.
		run()
	}
	return result
}
