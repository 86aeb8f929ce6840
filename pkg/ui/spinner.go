// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Work-Fort/Strongbox/pkg/config"
)

// ErrInterrupted is returned by RunWithSpinner when the user cancelled
var ErrInterrupted = errors.New("interrupted")

type taskDoneMsg struct{ err error }

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
	err     error
}

func newSpinnerModel(title string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(config.CurrentTheme.GetPrimaryColor())
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if CancelKeyBindings().Contains(msg.String()) != nil {
			m.err = ErrInterrupted
			return m, tea.Quit
		}
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
	theme := config.CurrentTheme
	hint := CancelKeyBindings().Render(theme.SubtleStyle())
	return m.spinner.View() + " " + theme.SubtleStyle().Render(m.title) + "  " + hint + "\n"
}

// RunWithSpinner runs task while a spinner titled title renders on out.
// When the user interrupts, the task's context is cancelled, the task is
// awaited and ErrInterrupted is returned.
func RunWithSpinner(ctx context.Context, out io.Writer, title string, task func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(title), tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		err := task(ctx)
		result <- err
		p.Send(taskDoneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		taskErr := <-result
		if errors.Is(err, tea.ErrInterrupted) {
			return ErrInterrupted
		}
		if taskErr != nil {
			return taskErr
		}
		return err
	}

	if m, ok := final.(spinnerModel); ok && errors.Is(m.err, ErrInterrupted) {
		cancel()
		<-result
		return ErrInterrupted
	}
	return <-result
}
