package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// Program runs the full-screen renderer for a session.
type Program struct {
	session ports.Session
	opts    Options
}

// NewProgram creates a terminal renderer for session.
func NewProgram(session ports.Session, opts Options) *Program {
	return &Program{session: session, opts: opts}
}

// Run starts the interface and blocks until the user quits or ctx is done.
func (p *Program) Run(ctx context.Context) error {
	program := tea.NewProgram(NewModel(p.session, p.opts), tea.WithAltScreen())

	// Session observers run inside transitions, and Update itself
	// dispatches, so snapshots are handed over on their own goroutine.
	release := p.session.Observe(ports.RendererFunc(func(s domain.Snapshot) {
		go program.Send(snapshotMsg{snapshot: s})
	}))
	defer release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		program.Quit()
	}()

	_, err := program.Run()
	cancel()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
