package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork starts a bubbletea program for model, runs workFn in a
// goroutine and blocks until both have finished. The context handed to
// workFn is cancelled when the user presses ctrl+c. workFn's error is
// returned once the program exits.
func RunWithWork(ctx context.Context, out io.Writer, model InstallTable, workFn func(ctx context.Context, send func(tea.Msg)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	workErr := make(chan error, 1)

	go func() {
		// Let the event loop render the initial frame.
		time.Sleep(50 * time.Millisecond)
		err := workFn(ctx, func(msg tea.Msg) {
			p.Send(msg)
		})
		workErr <- err
		p.Send(WorkDoneMsg{})
	}()

	finalModel, runErr := p.Run()
	if m, ok := finalModel.(InstallTable); ok && m.Aborted() {
		cancel()
	}
	err := <-workErr
	if err != nil {
		return err
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	if m, ok := finalModel.(InstallTable); ok && m.Err() != nil {
		return m.Err()
	}
	return ctx.Err()
}
