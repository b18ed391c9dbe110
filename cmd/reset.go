package cmd

import (
	"fmt"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear locally cached progress",
	Long: "Clear locally cached progress for the signed-in account. The course service keeps its records; " +
		"'learnpath sync' restores them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		if id, _ := cmd.Flags().GetString("course"); id != "" {
			if err := e.progress.Clear(cmd.Context(), course.ID(id)); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared cached progress for course %s.\n", id)
			fmt.Fprintf(out, "Run 'learnpath sync %s' to restore it from your account.\n", id)
			return nil
		}

		n, err := e.progress.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleared cached progress for %d courses.\n", n)
		if n > 0 {
			fmt.Fprintln(out, "Run 'learnpath sync <course>' to restore it from your account.")
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().String("course", "", "Only clear this course")
}
