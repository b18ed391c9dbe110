package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the course catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.client.ListCourses(cmd.Context())
		if err != nil {
			return describe(err)
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No courses available.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-32s  %s\n", "ID", "Title", "Description")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, c := range list {
			fmt.Fprintf(out, "%-8s  %-32s  %s\n",
				truncate(c.ID.String(), 8), truncate(c.Title, 32), truncate(c.Description, 36))
		}
		return nil
	},
}

var courseCmd = &cobra.Command{
	Use:   "course <id>",
	Short: "Show a course outline with your progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		c, err := e.client.GetCourse(ctx, course.ID(args[0]))
		if err != nil {
			return describe(err)
		}
		e.progress.Load(ctx, c.ID)
		flat := course.Flatten(c)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  (course %s)\n", c.Title, c.ID)
		if c.Description != "" {
			fmt.Fprintln(out, c.Description)
		}
		fmt.Fprintf(out, "%d/%d lessons complete\n", e.progress.CompletedCount(flat), len(flat))

		var module course.ID
		for i, l := range flat {
			if i == 0 || l.ModuleID != module {
				module = l.ModuleID
				fmt.Fprintln(out)
				fmt.Fprintln(out, l.ModuleTitle)
				fmt.Fprintln(out, strings.Repeat("─", 60))
			}
			mark := " "
			if e.progress.IsCompleted(l.ID) {
				mark = "✓"
			}
			fmt.Fprintf(out, "  %s %-6s  %-36s  %-12s  d%d\n",
				mark, l.ID, truncate(l.Title, 36), l.Type.Label(), l.Difficulty)
		}
		return nil
	},
}

var lessonCmd = &cobra.Command{
	Use:   "lesson <id>",
	Short: "Print a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		l, err := e.client.GetLesson(cmd.Context(), course.ID(args[0]))
		if err != nil {
			return describe(err)
		}
		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)
		fmt.Fprintf(out, "ID:          %s\n", l.ID)
		fmt.Fprintf(out, "Title:       %s\n", l.Title)
		fmt.Fprintf(out, "Type:        %s\n", l.Type.Label())
		fmt.Fprintf(out, "Difficulty:  %d\n", l.Difficulty)
		fmt.Fprintln(out, sep)
		if l.Content != "" {
			fmt.Fprintln(out, l.Content)
		} else {
			fmt.Fprintln(out, "(no content)")
		}
		return nil
	},
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
