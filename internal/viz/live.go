package viz

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg reports finished tracking attempts.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg ends the live view when the run completes.
type DoneMsg struct {
	Err error
}

// LiveModel is the bubbletea model for a running tracking job: a
// progress bar over attempts plus elapsed time. Quitting cancels the
// run through the supplied cancel function.
type LiveModel struct {
	total  int
	done   int
	start  time.Time
	err    error
	cancel context.CancelFunc
}

func NewLiveModel(total int, cancel context.CancelFunc) LiveModel {
	return LiveModel{total: total, start: time.Now(), cancel: cancel}
}

func (m LiveModel) Init() tea.Cmd { return nil }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case DoneMsg:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m LiveModel) View() string {
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	s := headerStyle.Render("tracking") + "\n"
	s += fmt.Sprintf("%s %d/%d seeds\n", ProgressBar(pct, 40), m.done, m.total)
	s += helpStyle.Render(fmt.Sprintf("elapsed %s · q to cancel", time.Since(m.start).Round(time.Second)))
	return panelStyle.Render(s)
}
