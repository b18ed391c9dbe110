package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhisek/learnpath/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "learnpath",
	Short: "Terminal client for a learning path course service",
	Long:  "learnpath signs you in to a course service, walks you through courses lesson by lesson and remembers what you completed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides LEARNPATH_DB env var)")
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/learnpath/config.yaml)")
	pf.String("api", "", "Course service base URL (overrides LEARNPATH_API_BASE_URL)")
	pf.BoolP("verbose", "v", false, "Log to stderr at debug level")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured db key, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
