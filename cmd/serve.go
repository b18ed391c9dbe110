package cmd

import (
	"fmt"

	"github.com/abhisek/learnpath/internal/devserver"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local course service backed by a fixture file",
	Long: "Run a local course service for development and demos. Courses and accounts come from a YAML " +
		"fixture (the built-in sample by default); progress lives in memory until the server stops.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		lc := cfg.Log
		if verbose {
			lc.Level = "debug"
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		log, err := logger.New(logger.Config{Mode: lc.Mode, Level: lc.Level})
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync()

		addr := cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		fixtures := cfg.Server.Fixtures
		if f, _ := cmd.Flags().GetString("fixtures"); f != "" {
			fixtures = f
		}
		secret := cfg.Server.Secret
		if s, _ := cmd.Flags().GetString("secret"); s != "" {
			secret = s
		}

		fx, err := devserver.LoadFixture(fixtures)
		if err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
		srv, err := devserver.New(fx, devserver.Config{Secret: secret}, log)
		if err != nil {
			return err
		}

		source := fixtures
		if source == "" {
			source = "built-in sample"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %d courses from %s on %s\n", len(fx.Courses), source, addr)
		return srv.Run(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().String("fixtures", "", "YAML fixture file (default: built-in sample)")
	serveCmd.Flags().String("secret", "", "Token signing secret (default: random per run)")
}
