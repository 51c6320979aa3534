package tuihost

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/toast"
)

// RunOptions configures the demo.
type RunOptions struct {
	// Logger must not write to the terminal the demo draws on.
	Logger        *slog.Logger
	Appearance    model.Appearance
	Accessibility bool
}

// Run starts the demo and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tracker := obstruction.NewTracker(logger)
	host := NewHost(logger)
	center := toast.NewCenter(host, tracker,
		toast.WithLogger(logger),
		toast.WithDefaultAppearance(opts.Appearance),
		toast.WithAccessibility(opts.Accessibility),
	)
	defer center.Close()

	p := tea.NewProgram(NewModel(host, center, tracker),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	done := make(chan struct{})
	defer close(done)
	host.Attach(p, done)

	_, err := p.Run()
	return err
}
