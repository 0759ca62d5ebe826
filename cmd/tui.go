package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tidalx/internal/shared"
	"github.com/desertthunder/tidalx/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogFile = "./tmp/tidalx-tui.log"

// Browse launches the interactive terminal browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	path := r.config.Logging.File
	if path == "" {
		path = tuiLogFile
	}
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
	r.SetLogger(fileLogger)

	p, err := r.Plugin()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, p, fileLogger)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
