package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/reclaim/internal/ui/models"
)

// RunInteractive starts the interactive TUI. It scans root through coord,
// which must already be running, and returns when the user quits or ctx ends.
func RunInteractive(ctx context.Context, coord models.Coordinator, root string, dryRun bool) error {
	m := models.NewAppModel(ctx, coord, root, dryRun)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	return nil
}
