package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/quiz"
	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz <lessonID>",
	Short: "Show a quiz, or submit answers with --answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		courseID, _ := cmd.Flags().GetString("course")
		fl, err := openCourseLesson(ctx, e, course.ID(courseID), course.ID(args[0]))
		if err != nil {
			return err
		}
		if fl.Type != course.TypeQuiz {
			return fmt.Errorf("lesson %s is a %s lesson, not a quiz", fl.ID, fl.Type.Label())
		}
		l, err := e.client.GetLesson(ctx, fl.ID)
		if err != nil {
			return describe(err)
		}
		q := quiz.FromLesson(l)
		if len(q.Questions) == 0 {
			return fmt.Errorf("quiz %s has no questions", l.ID)
		}

		out := cmd.OutOrStdout()
		raw, _ := cmd.Flags().GetString("answers")
		if raw == "" {
			printQuiz(cmd, l.Title, q)
			return nil
		}

		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}
		if len(answers) != len(q.Questions) {
			return fmt.Errorf("quiz has %d questions, got %d answers", len(q.Questions), len(answers))
		}
		st := quiz.NewState(q)
		for i, a := range answers {
			if a < 0 || a >= len(q.Questions[i].Options) {
				return fmt.Errorf("answer %d: option %d is out of range (0-%d)", i+1, a, len(q.Questions[i].Options)-1)
			}
			st = st.Select(i, a)
		}
		st, res, ok := st.Submit()
		if !ok {
			return fmt.Errorf("answer all %d questions before submitting", len(q.Questions))
		}

		for i, qu := range q.Questions {
			mark := "✓"
			if st.Selection(i) != qu.AnswerIndex {
				mark = "✗"
			}
			fmt.Fprintf(out, "%s %d. %s\n", mark, i+1, qu.Prompt)
			if qu.Explain != "" && mark == "✗" {
				fmt.Fprintf(out, "    %s\n", qu.Explain)
			}
		}
		fmt.Fprintf(out, "\nScore: %d/%d (%.0f%%), pass mark %.0f%%\n",
			res.Correct, res.Total, res.Score*100, q.PassMark*100)

		if !res.Passed {
			fmt.Fprintln(out, "Not passed. Review the lesson and try again.")
			return nil
		}
		if err := e.requireSession(); err != nil {
			return fmt.Errorf("passed, but the result was not saved: %w", err)
		}
		score := res.Score
		if _, err := e.progress.MarkCompleted(ctx, l.ID, &score); err != nil {
			return describe(fmt.Errorf("passed, but the result was not saved: %w", err))
		}
		fmt.Fprintf(out, "Passed. Completed %q.\n", l.Title)
		return nil
	},
}

func printQuiz(cmd *cobra.Command, title string, q quiz.Quiz) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for i, qu := range q.Questions {
		fmt.Fprintf(out, "%d. %s\n", i+1, qu.Prompt)
		for j, opt := range qu.Options {
			fmt.Fprintf(out, "    [%d] %s\n", j, opt)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Submit with --answers, one option index per question (e.g. %s).\n", exampleAnswers(len(q.Questions)))
}

func exampleAnswers(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "0"
	}
	return strings.Join(parts, ",")
}

// parseAnswers reads a comma-separated list of option indexes.
func parseAnswers(raw string) ([]int, error) {
	fields := strings.Split(raw, ",")
	answers := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid answer %q: %w", f, err)
		}
		answers = append(answers, n)
	}
	return answers, nil
}

func init() {
	quizCmd.Flags().String("course", "", "Course the quiz belongs to")
	quizCmd.Flags().String("answers", "", "Comma-separated option indexes, e.g. 0,2,1")
	_ = quizCmd.MarkFlagRequired("course")
}
