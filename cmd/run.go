package cmd

import (
	"fmt"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	e.log.Info("starting tui", "api", e.cfg.API.BaseURL, "signed_in", e.signedIn())
	m := app.New(e.deps(), e.email, e.signedIn())
	if err := app.Run(cmd.Context(), m); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
