package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/teradl/internal/core/i18n"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// downloadState holds the shared download state
type downloadState struct {
	mu         sync.RWMutex
	current    int64
	total      int64
	speed      float64
	done       bool
	err        error
	startTime  time.Time
	endTime    time.Time
	finalSpeed float64
	finalPath  string
}

func (s *downloadState) update(current, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.total = total
	elapsed := time.Since(s.startTime).Seconds()
	if elapsed > 0 {
		s.speed = float64(current) / elapsed
	}
}

func (s *downloadState) finish(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if err != nil {
		s.err = err
		return
	}
	s.finalPath = path
	s.endTime = time.Now()
	elapsed := s.endTime.Sub(s.startTime).Seconds()
	if elapsed > 0 {
		s.finalSpeed = float64(s.current) / elapsed
	}
}

func (s *downloadState) get() (int64, int64, float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.total, s.speed, s.done, s.err
}

func (s *downloadState) getFinal() (path string, elapsed time.Duration, avgSpeed float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endTime.IsZero() {
		return s.finalPath, time.Since(s.startTime), s.speed
	}
	return s.finalPath, s.endTime.Sub(s.startTime), s.finalSpeed
}

// tickMsg triggers UI updates
type tickMsg time.Time

// downloadModel is the Bubble Tea model for download progress
type downloadModel struct {
	progress progress.Model
	spinner  spinner.Model
	t        *i18n.Translations

	title  string
	state  *downloadState
	cancel context.CancelFunc
}

func newDownloadModel(title, lang string, state *downloadState, cancel context.CancelFunc) downloadModel {
	// Progress bar with gradient
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return downloadModel{
		progress: p,
		spinner:  s,
		t:        i18n.T(lang),
		title:    title,
		state:    state,
		cancel:   cancel,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m downloadModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
	)
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		current, total, _, done, _ := m.state.get()
		if done {
			return m, tea.Quit
		}

		cmds := []tea.Cmd{tickCmd()}
		if total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(current)/float64(total)))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m downloadModel) View() string {
	current, total, speed, done, err := m.state.get()

	if err != nil {
		return fmt.Sprintf("\n  %s %s: %v\n\n",
			errStyle.Render("✗"),
			m.t.Download.Failed,
			err,
		)
	}

	if done {
		path, elapsed, avgSpeed := m.state.getFinal()
		if absPath, err := filepath.Abs(path); err == nil {
			path = absPath
		}
		return fmt.Sprintf("\n  %s %s\n  %s: %s (%s)\n  %s: %s  |  %s: %s/s\n\n",
			doneStyle.Render("✓"),
			m.t.Download.Completed,
			m.t.Download.FileSaved,
			path,
			formatBytes(current),
			m.t.Download.Elapsed,
			formatDuration(elapsed),
			m.t.Download.AvgSpeed,
			formatBytes(int64(avgSpeed)),
		)
	}

	s := fmt.Sprintf("\n  %s %s: %s\n\n",
		m.spinner.View(),
		m.t.Download.Downloading,
		infoStyle.Render(m.title),
	)
	s += fmt.Sprintf("  %s\n\n", m.progress.View())

	if total > 0 {
		percent := float64(current) / float64(total) * 100
		s += fmt.Sprintf("  %s: %.1f%%  |  %s/%s  |  %s: %s/s  |  %s: %s\n",
			m.t.Download.Progress,
			percent,
			formatBytes(current),
			formatBytes(total),
			m.t.Download.Speed,
			formatBytes(int64(speed)),
			m.t.Download.ETA,
			calculateETA(total-current, speed),
		)
	} else {
		s += fmt.Sprintf("  %s  |  %s: %s/s\n",
			formatBytes(current),
			m.t.Download.Speed,
			formatBytes(int64(speed)),
		)
	}

	s += "\n" + helpStyle.Render("  "+m.t.Download.CancelHint) + "\n"
	return s
}

func calculateETA(remaining int64, speed float64) string {
	if speed <= 0 {
		return "??:??"
	}
	eta := time.Duration(float64(remaining)/speed) * time.Second
	return formatDuration(eta)
}

// RunDownloadTUI downloads link to output with a TUI progress display and
// returns the final path
func (d *Downloader) RunDownloadTUI(ctx context.Context, link, output, title, lang string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &downloadState{startTime: time.Now()}
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		state.finish(d.Download(ctx, link, output, state.update))
	}()

	p := tea.NewProgram(newDownloadModel(title, lang, state, cancel), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		cancel()
	}
	<-finished

	path, _, _ := state.getFinal()
	_, _, _, _, err := state.get()
	return path, err
}
