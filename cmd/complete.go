package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <lessonID>",
	Short: "Mark a lesson complete",
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

		courseID, _ := cmd.Flags().GetString("course")
		l, err := openCourseLesson(cmd.Context(), e, course.ID(courseID), course.ID(args[0]))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if l.Type == course.TypeQuiz {
			return fmt.Errorf("lesson %s is a quiz; pass it with 'learnpath quiz %s --course %s'", l.ID, l.ID, courseID)
		}
		if e.progress.IsCompleted(l.ID) {
			fmt.Fprintln(out, "Already completed.")
			return nil
		}

		if _, err := e.progress.MarkCompleted(cmd.Context(), l.ID, nil); err != nil {
			return describe(fmt.Errorf("mark completed: %w", err))
		}
		fmt.Fprintf(out, "Completed %q.\n", l.Title)
		return nil
	},
}

// openCourseLesson loads the course and its cached progress, and finds
// lessonID in it.
func openCourseLesson(ctx context.Context, e *env, courseID, lessonID course.ID) (course.FlatLesson, error) {
	c, err := e.client.GetCourse(ctx, courseID)
	if err != nil {
		return course.FlatLesson{}, describe(err)
	}
	e.progress.Load(ctx, c.ID)
	flat := course.Flatten(c)
	pos, ok := course.PositionOf(flat, lessonID)
	if !ok {
		return course.FlatLesson{}, fmt.Errorf("lesson %s is not part of course %s", lessonID, courseID)
	}
	return flat[pos], nil
}

func init() {
	completeCmd.Flags().String("course", "", "Course the lesson belongs to")
	_ = completeCmd.MarkFlagRequired("course")
}
