package cli

import (
	"context"
	"errors"

	coreapp "radar/internal/core/app"
	"radar/internal/engine/analysis"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App, an *coreapp.Analysis, filter analysis.ChunkFilter, watchPaths []string) error {
	m := initialModel(an, filter)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(analysisMsg{an: update.Analysis, err: update.Err})
	})

	if len(watchPaths) > 0 {
		if err := app.StartWatcher(watchPaths); err != nil {
			return err
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
