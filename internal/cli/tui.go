package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/services"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/tabs/data"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/tabs/history"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/tabs/settings"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The screen belongs to Bubble Tea, so logs go to a file.
	logFile, err := logger.SetupFile(cfg.LogPath, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, svcManager),
		data.New(state),
		settings.New(state, svcManager, model.GetCommands()),
		history.New(state, svcManager),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
