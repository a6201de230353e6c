package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
	"golang.org/x/term"
)

var extractInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

// extractState holds extraction state
type extractState struct {
	mu     sync.RWMutex
	done   bool
	err    error
	result *extractor.Result
}

func (s *extractState) finish(result *extractor.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.result = result
	s.err = err
}

func (s *extractState) get() (bool, *extractor.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.result, s.err
}

type extractTickMsg time.Time

type extractModel struct {
	spinner spinner.Model
	t       *i18n.Translations
	url     string
	state   *extractState
	cancel  context.CancelFunc
}

func newExtractModel(url, lang string, state *extractState, cancel context.CancelFunc) extractModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return extractModel{
		spinner: s,
		t:       i18n.T(lang),
		url:     url,
		state:   state,
		cancel:  cancel,
	}
}

func extractTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return extractTickMsg(t)
	})
}

func (m extractModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, extractTickCmd())
}

func (m extractModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case extractTickMsg:
		if done, _, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, extractTickCmd()
	}

	return m, nil
}

// View shows only the spinner; the result is printed after the program exits
func (m extractModel) View() string {
	if done, _, _ := m.state.get(); done {
		return ""
	}
	return fmt.Sprintf("\n  %s %s: %s\n\n",
		m.spinner.View(),
		m.t.Extract.Extracting,
		extractInfoStyle.Render(m.url),
	)
}

// runExtractWithSpinner runs extraction with a spinner TUI
func runExtractWithSpinner(ctx context.Context, svc *extractor.Service, url, lang string) (*extractor.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &extractState{}
	finished := make(chan struct{})

	// Start extraction in background
	go func() {
		defer close(finished)
		state.finish(svc.Extract(ctx, url))
	}()

	p := tea.NewProgram(newExtractModel(url, lang, state, cancel), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		cancel()
	}

	// Wait so a cancelled browser session is released before we return
	<-finished

	_, result, err := state.get()
	return result, err
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
