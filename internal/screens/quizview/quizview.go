package quizview

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/quiz"
	"github.com/abhisek/learnpath/internal/router"
	"github.com/abhisek/learnpath/internal/screen"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/ui/components"
	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

// savedMsg reports the completion write after a passed quiz.
type savedMsg struct {
	LessonID course.ID
	Err      error
}

// reloadedMsg carries a fresh copy of the quiz lesson for another attempt.
type reloadedMsg struct {
	LessonID course.ID
	Lesson   course.Lesson
	Err      error
}

// QuizScreen runs one attempt at a quiz lesson, one question at a time.
type QuizScreen struct {
	deps     screens.Deps
	courseID course.ID
	lesson   course.Lesson
	state    quiz.State
	index    int
	choice   components.MultiChoice

	saving    bool
	saved     bool
	saveErr   string
	reloading bool
	errMsg    string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a quiz screen for lesson, which must carry its content.
func New(deps screens.Deps, courseID course.ID, lesson course.Lesson) *QuizScreen {
	s := &QuizScreen{
		deps:     deps,
		courseID: courseID,
		lesson:   lesson,
		state:    quiz.NewState(quiz.FromLesson(lesson)),
	}
	s.syncChoice()
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	return nil
}

func (s *QuizScreen) Title() string {
	return s.lesson.Title
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.state.Quiz().Empty():
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	case s.state.Phase() == quiz.PhaseSubmitted:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Done"}}
		if s.saveErr != "" {
			hints = append(hints, layout.KeyHint{Key: "s", Description: "Retry save"})
		}
		if !s.state.Result().Passed {
			hints = append(hints, layout.KeyHint{Key: "t", Description: "Try again"})
		}
		return hints
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Confirm"},
		{Key: "←→", Description: "Question"},
		{Key: "Esc", Description: "Leave"},
	}
}

// State returns the current attempt.
func (s *QuizScreen) State() quiz.State {
	return s.state
}

// Saved reports whether a passed attempt has been recorded.
func (s *QuizScreen) Saved() bool {
	return s.saved
}

func (s *QuizScreen) syncChoice() {
	questions := s.state.Quiz().Questions
	if s.index >= len(questions) {
		return
	}
	q := questions[s.index]
	s.choice = components.NewMultiChoice(q.Prompt, q.Options, q.AnswerIndex, s.state.Selection(s.index))
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		return s.handleSaved(msg)
	case reloadedMsg:
		return s.handleReloaded(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.state.Quiz().Empty() || s.reloading {
		return s, nil
	}
	if s.state.Phase() == quiz.PhaseSubmitted {
		return s.handleResultKey(msg)
	}

	n := len(s.state.Quiz().Questions)
	switch msg.String() {
	case "left", "h":
		if s.index > 0 {
			s.index--
			s.syncChoice()
		}
		return s, nil
	case "right", "l":
		if s.index < n-1 {
			s.index++
			s.syncChoice()
		}
		return s, nil
	}

	s.choice, _ = s.choice.Update(msg)
	if s.choice.Answered() {
		s.state = s.state.Select(s.index, s.choice.Chosen)
	}

	if msg.String() == "enter" && s.choice.Answered() {
		return s, s.advance()
	}
	return s, nil
}

// advance moves to the next unanswered question, or submits once every
// question has an answer.
func (s *QuizScreen) advance() tea.Cmd {
	n := len(s.state.Quiz().Questions)
	for step := 1; step <= n; step++ {
		i := (s.index + step) % n
		if s.state.Selection(i) == quiz.Unanswered {
			s.index = i
			s.syncChoice()
			return nil
		}
	}

	state, result, ok := s.state.Submit()
	if !ok {
		return nil
	}
	s.state = state
	if result.Passed {
		return s.save()
	}
	return nil
}

func (s *QuizScreen) save() tea.Cmd {
	if s.deps.Progress == nil {
		return nil
	}
	s.saving = true
	s.saveErr = ""
	if s.deps.Progress.CourseID() != s.courseID {
		s.deps.Progress.Load(context.Background(), s.courseID)
	}

	id := s.lesson.ID
	score := s.state.Result().Score
	progress := s.deps.Progress
	return func() tea.Msg {
		_, err := progress.MarkCompleted(context.Background(), id, &score)
		return savedMsg{LessonID: id, Err: err}
	}
}

func (s *QuizScreen) handleResultKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if s.saving {
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "s":
		if s.saveErr != "" && !s.saving {
			return s, s.save()
		}
	case "t":
		if !s.state.Result().Passed {
			return s, s.reload()
		}
	}
	return s, nil
}

func (s *QuizScreen) reload() tea.Cmd {
	s.reloading = true
	s.errMsg = ""

	id := s.lesson.ID
	client := s.deps.Client
	return func() tea.Msg {
		l, err := client.GetLesson(context.Background(), id)
		return reloadedMsg{LessonID: id, Lesson: l, Err: err}
	}
}

func (s *QuizScreen) handleReloaded(msg reloadedMsg) (screen.Screen, tea.Cmd) {
	if msg.LessonID != s.lesson.ID {
		return s, nil
	}
	s.reloading = false
	if msg.Err != nil {
		s.errMsg = screens.Describe(msg.Err)
		return s, nil
	}
	s.lesson = msg.Lesson
	s.state = quiz.NewState(quiz.FromLesson(msg.Lesson))
	s.index = 0
	s.saved = false
	s.saveErr = ""
	s.syncChoice()
	return s, nil
}

func (s *QuizScreen) handleSaved(msg savedMsg) (screen.Screen, tea.Cmd) {
	if msg.LessonID != s.lesson.ID {
		return s, nil
	}
	s.saving = false
	if msg.Err != nil {
		s.saveErr = screens.Describe(msg.Err)
		return s, nil
	}
	s.saved = true
	return s, nil
}

func (s *QuizScreen) View(width, height int) string {
	q := s.state.Quiz()
	if q.Empty() {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  This quiz has no questions yet.\n\n  Press Esc to go back.")
	}

	var body string
	if s.state.Phase() == quiz.PhaseSubmitted {
		body = s.renderResult(width - 8)
	} else {
		body = s.renderQuestion(width - 8)
	}
	if s.errMsg != "" {
		body += "\n\n" + theme.ErrorText.Render(s.errMsg)
	}

	card := theme.Card.Width(min(width-4, 80)).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (s *QuizScreen) renderQuestion(width int) string {
	n := len(s.state.Quiz().Questions)
	header := theme.Subtitle.Render(fmt.Sprintf("Question %d of %d · %d answered", s.index+1, n, s.state.Answered()))

	dots := make([]string, n)
	for i := range dots {
		switch {
		case i == s.index:
			dots[i] = theme.Selected.Render("●")
		case s.state.Selection(i) != quiz.Unanswered:
			dots[i] = theme.Completed.Render("●")
		default:
			dots[i] = theme.Subtitle.Render("○")
		}
	}

	return header + "\n" + strings.Join(dots, " ") + "\n\n" +
		lipgloss.NewStyle().Width(width).Render(s.choice.View())
}

func (s *QuizScreen) renderResult(width int) string {
	res := s.state.Result()
	q := s.state.Quiz()

	var b strings.Builder
	headline := fmt.Sprintf("You scored %d/%d (%.0f%%)", res.Correct, res.Total, res.Score*100)
	if res.Passed {
		b.WriteString(theme.Correct.Render(headline+" · Passed") + "\n")
	} else {
		b.WriteString(theme.Incorrect.Render(headline+" · Not yet") + "\n")
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("You need %.0f%% to pass.", q.PassMark*100)) + "\n")
	}
	b.WriteString("\n")

	for i, question := range q.Questions {
		sel := s.state.Selection(i)
		mark := theme.Correct.Render("✓")
		if sel != question.AnswerIndex {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(mark + " " + layout.Truncate(question.Prompt, width-2) + "\n")
		if sel != question.AnswerIndex && question.AnswerIndex < len(question.Options) {
			b.WriteString(theme.Subtitle.Render("   answer: "+question.Options[question.AnswerIndex]) + "\n")
		}
		if question.Explain != "" {
			b.WriteString(theme.Hint.Width(width).Render("   "+question.Explain) + "\n")
		}
	}

	if res.Passed {
		b.WriteString("\n")
		switch {
		case s.saving:
			b.WriteString(theme.Subtitle.Render("Saving your progress..."))
		case s.saveErr != "":
			b.WriteString(theme.ErrorText.Render("Not saved: "+s.saveErr) + "\n" + theme.Hint.Render("Press s to try again."))
		case s.saved:
			b.WriteString(theme.Completed.Render("Lesson marked complete."))
		}
	}
	return b.String()
}
