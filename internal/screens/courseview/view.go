package courseview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/quiz"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/ui/components"
	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

func (s *CourseScreen) View(width, height int) string {
	if s.loading {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  " + s.spinner.View() + " Loading course...")
	}
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\n  %s\n\n  Press r to retry or Esc to go back.", s.errMsg))
	}
	if s.graph.Len() == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  This course has no lessons yet.")
	}

	top := s.renderTop(width)
	bodyHeight := height - lipgloss.Height(top)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	outlineWidth := width * 2 / 5
	paneWidth := width - outlineWidth - 2

	outline := theme.Pane.Width(outlineWidth).Height(bodyHeight - 2).
		Render(s.renderOutline(outlineWidth-4, bodyHeight-2))
	lesson := theme.Pane.Width(paneWidth).Height(bodyHeight - 2).
		Render(s.renderLesson(paneWidth-4, bodyHeight-2))

	return top + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, outline, lesson)
}

func (s *CourseScreen) renderTop(width int) string {
	flat := s.graph.Lessons()
	done := make([]bool, len(flat))
	if s.deps.Progress != nil {
		for i, l := range flat {
			done[i] = s.deps.Progress.IsCompleted(l.ID)
		}
	}
	var sizes []int
	for _, m := range s.graph.Modules() {
		sizes = append(sizes, m.Count)
	}

	bar := components.NewCompletionBar(done, sizes, width-4).View()

	lines := []string{"  " + bar, "  " + s.renderRecommendation(width-4)}
	if s.notice != "" {
		lines = append(lines, "  "+theme.Notice.Render(layout.Truncate(s.notice, width-4)))
	}
	return strings.Join(lines, "\n")
}

func (s *CourseScreen) renderRecommendation(width int) string {
	label := "Next"
	if s.mode == recommend.ModeAdaptive {
		label = "Next (adaptive)"
	}
	prefix := theme.Subtitle.Render(label + ": ")

	switch {
	case s.mode == recommend.ModeAdaptive && s.recLoading:
		return prefix + theme.Subtitle.Render(s.spinner.View()+" asking the recommender...")
	case s.mode == recommend.ModeAdaptive && s.recErr != nil:
		msg := screens.Describe(s.recErr) + "  b: baseline  r: reload course"
		return prefix + theme.ErrorText.Render(layout.Truncate(msg, width-lipgloss.Width(prefix)))
	}

	res, ok := s.Recommendation()
	if !ok {
		return prefix + theme.Subtitle.Render("press a to ask again")
	}
	if res.NoneAvailable {
		return prefix + theme.Completed.Render("all lessons complete")
	}

	rec := res.Recommendation
	text := fmt.Sprintf("%s (%s)", rec.Title, rec.LessonType.Label())
	if rec.Score != nil {
		text += fmt.Sprintf("  score %.2f", *rec.Score)
	}
	text += "  n: open"
	return prefix + theme.Body.Render(layout.Truncate(text, width-lipgloss.Width(prefix)))
}

func (s *CourseScreen) renderOutline(width, height int) string {
	flat := s.graph.Lessons()

	var lines []string
	cursorLine := 0
	for _, m := range s.graph.Modules() {
		title := m.Title
		if title == "" {
			title = "Lessons"
		}
		lines = append(lines, theme.Subtitle.Render(layout.Truncate(title, width)))

		for i := m.Start; i < m.Start+m.Count; i++ {
			l := flat[i]
			mark := "  "
			if s.deps.Progress != nil && s.deps.Progress.IsCompleted(l.ID) {
				mark = theme.Completed.Render("✓ ")
			}
			pointer := "  "
			if i == s.cursor {
				pointer = "▸ "
				cursorLine = len(lines)
			}
			text := layout.Truncate(l.Title, width-6)

			style := theme.Unselected
			switch {
			case i == s.cursor:
				style = theme.Selected
			case l.ID == s.openID:
				style = theme.Body.Underline(true)
			}
			lines = append(lines, pointer+mark+style.Render(text))
		}
	}

	// Keep the cursor in view.
	start := 0
	if height > 0 && cursorLine >= height {
		start = cursorLine - height + 1
	}
	end := len(lines)
	if height > 0 && end-start > height {
		end = start + height
	}
	return strings.Join(lines[start:end], "\n")
}

func (s *CourseScreen) renderLesson(width, height int) string {
	if s.openID == "" {
		return theme.Hint.Render("Pick a lesson and press Enter to open it.")
	}

	fl, _ := s.graph.Lesson(s.openID)
	header := theme.Title.Render(layout.Truncate(fl.Title, width)) + "\n" +
		theme.Subtitle.Render(fmt.Sprintf("%s · difficulty %d", fl.Type.Label(), fl.Difficulty)) + "\n\n"

	if msg, ok := s.lessonErr[s.openID]; ok {
		return header + theme.ErrorText.Render(msg)
	}
	l, ok := s.lessons[s.openID]
	if !ok {
		return header + theme.Subtitle.Render("Loading lesson...")
	}

	var body string
	if l.Type == course.TypeQuiz {
		body = quizSummary(quiz.FromLesson(l))
	} else {
		body = strings.TrimSpace(l.Content)
		if body == "" {
			body = theme.Hint.Render("This lesson has no text content.")
		}
	}

	paneHeight := height - lipgloss.Height(header)
	if paneHeight < 1 {
		paneHeight = 1
	}
	s.pane.SetWidth(width)
	s.pane.SetHeight(paneHeight)
	s.pane.SetContent(theme.Body.Width(width).Render(body))

	return header + s.pane.View()
}

func quizSummary(q quiz.Quiz) string {
	if q.Empty() {
		return theme.Hint.Render("This quiz has no questions yet.")
	}
	n := len(q.Questions)
	noun := "questions"
	if n == 1 {
		noun = "question"
	}
	return fmt.Sprintf("%d %s. You need %.0f%% to pass.\n\nPress Enter again to start.", n, noun, q.PassMark*100)
}
