package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/labtask/internal/ui"
)

// runUI opens the terminal UI on the configured workspace
func runUI(cmd *cobra.Command, args []string) error {
	executor := ui.NewExecutor()
	prompts := ui.NewPrompts()

	e, err := openEnv(executor, prompts)
	if err != nil {
		return err
	}
	defer e.Close()

	app := ui.NewApp(e.session, e.host, executor, prompts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	e.logger.Debug("terminal UI closed", "errors", len(e.errs))
	return nil
}
