package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/drawloop/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressSource is polled on every frame while work runs.
type progressSource interface {
	Progress() application.Progress
}

type workDoneMsg struct {
	err error
}

type progressSpinnerModel struct {
	spinner  spinner.Model
	elapsed  lipgloss.Style
	idle     string
	source   progressSource
	started  time.Time
	now      func() time.Time
	progress application.Progress
	work     tea.Cmd
	err      error
	done     bool
}

func newProgressSpinnerModel(idle string, source progressSource, now func() time.Time, work tea.Cmd) progressSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressSpinnerModel{
		spinner:  s,
		elapsed:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		idle:     idle,
		source:   source,
		started:  now(),
		now:      now,
		progress: source.Progress(),
		work:     work,
	}
}

func (m progressSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m progressSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.progress = m.source.Progress()
		return m, cmd
	case workDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressSpinnerModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s", m.spinner.View(), describeProgress(m.progress, m.idle), m.elapsed.Render(elapsed.String()))
}

// describeProgress names the item in flight, or idle before the first one.
func describeProgress(p application.Progress, idle string) string {
	switch p.State {
	case application.StateExploring:
		return fmt.Sprintf("Exploring %d/%d", p.Index+1, p.Batch)
	case application.StateProcessingInput:
		return fmt.Sprintf("Drawing input %d/%d", p.Index+1, p.Inputs)
	case application.StateAccepted, application.StateRejected, application.StateSkipped:
		return fmt.Sprintf("Input %d/%d %s", p.Index+1, p.Inputs, p.State)
	default:
		return idle
	}
}

// runWithSpinner shows the live progress of source on output until work returns.
func runWithSpinner(ctx context.Context, output io.Writer, idle string, source progressSource, work func(context.Context) error) error {
	workCmd := func() tea.Msg {
		return workDoneMsg{err: work(ctx)}
	}

	p := tea.NewProgram(
		newProgressSpinnerModel(idle, source, time.Now, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
