package cmd

import (
	"fmt"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <courseID>",
	Short: "Pull completed lessons from your account into the local cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireSession(); err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := e.client.GetCourse(ctx, course.ID(args[0]))
		if err != nil {
			return describe(err)
		}
		e.progress.Load(ctx, c.ID)
		flat := course.Flatten(c)

		added, err := e.progress.Sync(ctx, flat)
		if err != nil {
			return describe(fmt.Errorf("sync: %w", err))
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Synced. %d lessons updated, %d/%d complete.\n",
			added, e.progress.CompletedCount(flat), len(flat))

		// Scores only come from the service; the local cache keeps flags.
		for _, l := range flat {
			rec, ok := e.progress.Record(l.ID)
			if !ok || rec.Score == nil {
				continue
			}
			fmt.Fprintf(out, "  %-6s  %-36s  %.0f%%\n", l.ID, truncate(l.Title, 36), *rec.Score*100)
		}
		return nil
	},
}
