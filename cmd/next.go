package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next <courseID>",
	Short: "Recommend the next lesson of a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		mode, _ := cmd.Flags().GetString("mode")
		if mode == "" {
			mode = e.cfg.Recommend.Mode
		}
		from, _ := cmd.Flags().GetString("from")
		fallback, _ := cmd.Flags().GetBool("fallback")

		ctx := cmd.Context()
		c, err := e.client.GetCourse(ctx, course.ID(args[0]))
		if err != nil {
			return describe(err)
		}
		e.progress.Load(ctx, c.ID)
		flat := course.Flatten(c)

		req := recommend.Request{
			Mode:         mode,
			CourseID:     c.ID,
			Flat:         flat,
			Progress:     e.progress,
			OpenLessonID: course.ID(from),
		}
		if from != "" {
			if _, ok := course.PositionOf(flat, req.OpenLessonID); !ok {
				return fmt.Errorf("lesson %s is not part of course %s", from, c.ID)
			}
		}

		res, err := e.resolver.Resolve(ctx, req)
		out := cmd.OutOrStdout()
		if err != nil {
			var validation *recommend.ErrValidation
			if !fallback || !errors.As(err, &validation) {
				return describe(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Falling back to baseline.\n", describe(err))
			req.Mode = recommend.ModeBaseline
			if res, err = e.resolver.Resolve(ctx, req); err != nil {
				return describe(err)
			}
		}
		printRecommendation(out, req.Mode, res)
		return nil
	},
}

func printRecommendation(w io.Writer, mode string, res recommend.Result) {
	if res.NoneAvailable {
		fmt.Fprintln(w, "Every lesson in this course is complete.")
		return
	}
	rec := res.Recommendation
	fmt.Fprintf(w, "Lesson:      %s\n", rec.LessonID)
	fmt.Fprintf(w, "Title:       %s\n", rec.Title)
	fmt.Fprintf(w, "Type:        %s\n", rec.LessonType.Label())
	fmt.Fprintf(w, "Difficulty:  %d\n", rec.Difficulty)
	fmt.Fprintf(w, "Mode:        %s\n", mode)
	if rec.Score != nil {
		fmt.Fprintf(w, "Score:       %.3f\n", *rec.Score)
	}
	if rec.Reason != "" {
		fmt.Fprintf(w, "Reason:      %s\n", rec.Reason)
	}
}

func init() {
	nextCmd.Flags().String("mode", "", "baseline or adaptive (default from config)")
	nextCmd.Flags().String("from", "", "Lesson currently open; baseline continues after it")
	nextCmd.Flags().Bool("fallback", false, "Use baseline when the adaptive lesson is not in the course")
}
