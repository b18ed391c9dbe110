package quizview

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/quiz"
	"github.com/abhisek/learnpath/internal/router"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/screens/screenstest"
)

func quizLesson() course.Lesson {
	return course.Lesson{ID: "l2", Title: "Check-in", Type: course.TypeQuiz, Content: screenstest.QuizContent}
}

func newQuiz(t *testing.T) (*QuizScreen, screens.Deps, *contentapi.MockClient) {
	t.Helper()
	deps, client, _ := screenstest.NewDeps()
	deps.Progress.Load(context.Background(), "c1")
	s := New(deps, "c1", quizLesson())
	require.False(t, s.State().Quiz().Empty())
	return s, deps, client
}

func press(s *QuizScreen, key tea.KeyPressMsg) tea.Cmd {
	_, cmd := s.Update(key)
	return cmd
}

func TestQuizPassSavesScore(t *testing.T) {
	s, deps, client := newQuiz(t)

	// Question 1: option 1 via cursor; question 2: option 0 via number key.
	press(s, screenstest.SpecialKey(tea.KeyDown))
	assert.Nil(t, press(s, screenstest.SpecialKey(tea.KeyEnter)))
	assert.Equal(t, 1, s.index)

	press(s, screenstest.KeyPress('1'))
	cmd := press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.NotNil(t, cmd, "passing submits and saves")

	require.Equal(t, quiz.PhaseSubmitted, s.State().Phase())
	res := s.State().Result()
	assert.Equal(t, 2, res.Correct)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.True(t, res.Passed)

	s.Update(screenstest.Exec(cmd))
	assert.True(t, s.Saved())

	rec, ok := deps.Progress.Record("l2")
	require.True(t, ok)
	require.NotNil(t, rec.Score)
	assert.InDelta(t, 1.0, *rec.Score, 1e-9)
	assert.Equal(t, 1, client.CallCount(contentapi.OpMarkCompleted))
	assert.Contains(t, s.View(100, 30), "Lesson marked complete.")
}

func TestQuizSavesUnderItsOwnCourse(t *testing.T) {
	deps, _, cache := screenstest.NewDeps()
	ctx := context.Background()
	deps.Progress.Load(ctx, "c2")
	s := New(deps, "c1", quizLesson())

	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	press(s, screenstest.KeyPress('1'))
	cmd := press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.NotNil(t, cmd)
	s.Update(screenstest.Exec(cmd))
	require.True(t, s.Saved())

	assert.Equal(t, course.ID("c1"), deps.Progress.CourseID())
	c1, ok, err := cache.Get(ctx, deps.Progress.Namespace("c1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"l2":true}`, string(c1))
	_, ok, _ = cache.Get(ctx, deps.Progress.Namespace("c2"))
	assert.False(t, ok)
}

func TestQuizFailDoesNotSave(t *testing.T) {
	s, deps, client := newQuiz(t)

	press(s, screenstest.SpecialKey(tea.KeyEnter)) // option 0, wrong
	press(s, screenstest.KeyPress('2'))            // Rome, wrong
	cmd := press(s, screenstest.SpecialKey(tea.KeyEnter))

	assert.Nil(t, cmd)
	res := s.State().Result()
	assert.Equal(t, 0, res.Correct)
	assert.False(t, res.Passed)
	assert.False(t, deps.Progress.IsCompleted("l2"))
	assert.Equal(t, 0, client.CallCount(contentapi.OpMarkCompleted))
	assert.Contains(t, s.View(100, 30), "You need 50% to pass.")
}

func TestQuizHalfScorePassesAtMark(t *testing.T) {
	s, _, _ := newQuiz(t)

	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	press(s, screenstest.KeyPress('2'))
	cmd := press(s, screenstest.SpecialKey(tea.KeyEnter))

	res := s.State().Result()
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.True(t, res.Passed)
	assert.NotNil(t, cmd)
}

func TestQuizSubmittedIgnoresAnswerKeys(t *testing.T) {
	s, _, _ := newQuiz(t)
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.Equal(t, quiz.PhaseSubmitted, s.State().Phase())
	before := s.State().Selections()

	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyDown))
	assert.Equal(t, before, s.State().Selections())
}

func TestQuizSkipAheadReturnsToUnanswered(t *testing.T) {
	s, _, _ := newQuiz(t)

	press(s, screenstest.SpecialKey(tea.KeyRight))
	require.Equal(t, 1, s.index)
	press(s, screenstest.SpecialKey(tea.KeyEnter))

	assert.Equal(t, 0, s.index, "enter moves to the first unanswered question")
	assert.Equal(t, quiz.PhaseAnswering, s.State().Phase())

	press(s, screenstest.SpecialKey(tea.KeyLeft))
	assert.Equal(t, 0, s.index)
}

func TestQuizSaveFailureCanRetry(t *testing.T) {
	s, deps, client := newQuiz(t)
	client.FailNext(contentapi.OpMarkCompleted, &contentapi.ErrTransport{Err: errors.New("offline")})

	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	s.Update(screenstest.Exec(press(s, screenstest.SpecialKey(tea.KeyEnter))))

	assert.False(t, s.Saved())
	assert.NotEmpty(t, s.saveErr)
	assert.False(t, deps.Progress.IsCompleted("l2"))

	cmd := press(s, screenstest.KeyPress('s'))
	require.NotNil(t, cmd)
	s.Update(screenstest.Exec(cmd))
	assert.True(t, s.Saved())
	assert.True(t, deps.Progress.IsCompleted("l2"))
}

func TestQuizTryAgainReloadsLesson(t *testing.T) {
	s, _, client := newQuiz(t)
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.False(t, s.State().Result().Passed)

	cmd := press(s, screenstest.KeyPress('t'))
	require.NotNil(t, cmd)
	s.Update(screenstest.Exec(cmd))

	assert.Equal(t, 1, client.CallCount(contentapi.OpGetLesson))
	assert.Equal(t, quiz.PhaseNotStarted, s.State().Phase())
	assert.Equal(t, 0, s.State().Answered())
	assert.Equal(t, 0, s.index)
}

func TestQuizDoneReturnsToCourse(t *testing.T) {
	s, _, _ := newQuiz(t)
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	press(s, screenstest.KeyPress('2'))
	press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.Equal(t, quiz.PhaseSubmitted, s.State().Phase())

	cmd := press(s, screenstest.SpecialKey(tea.KeyEnter))
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestQuizEmptyPayload(t *testing.T) {
	deps, _, _ := screenstest.NewDeps()
	s := New(deps, "c1", course.Lesson{ID: "bad", Type: course.TypeQuiz, Content: "{not json"})

	assert.True(t, s.State().Quiz().Empty())
	assert.Nil(t, press(s, screenstest.SpecialKey(tea.KeyEnter)))
	assert.Contains(t, s.View(100, 30), "This quiz has no questions yet.")
}
