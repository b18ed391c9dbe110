// Package screenstest provides fixtures for driving TUI screens in tests.
package screenstest

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/progress"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/abhisek/learnpath/internal/screens"
)

// QuizContent is a two-question quiz with a 0.5 pass mark. The answers
// are option 1 then option 0.
const QuizContent = `{"questions":[` +
	`{"prompt":"2 + 2?","options":["3","4"],"answerIndex":1,"explain":"Basic sums."},` +
	`{"prompt":"Capital of France?","options":["Paris","Rome","Lyon"],"answerIndex":0}` +
	`],"passMark":0.5}`

// Course returns a course "c1" with two modules: l1 (reading), l2 (quiz)
// and l3 (reading).
func Course() course.Course {
	return course.Course{
		ID:          "c1",
		Title:       "Go Basics",
		Description: "Types, functions and tests.",
		Modules: []course.Module{
			{ID: "m1", Title: "Start", Order: 1, Lessons: []course.Lesson{
				{ID: "l1", Title: "Hello", Type: course.TypeReading, Difficulty: 1, Order: 1, Content: "Welcome to Go."},
				{ID: "l2", Title: "Check-in", Type: course.TypeQuiz, Difficulty: 2, Order: 2, Content: QuizContent},
			}},
			{ID: "m2", Title: "More", Order: 2, Lessons: []course.Lesson{
				{ID: "l3", Title: "Functions", Type: course.TypeReading, Difficulty: 3, Order: 1, Content: "func main() {}"},
			}},
		},
	}
}

// SecondCourse returns a one-lesson course "c2".
func SecondCourse() course.Course {
	return course.Course{
		ID:    "c2",
		Title: "SQL",
		Modules: []course.Module{
			{ID: "m9", Title: "Queries", Order: 1, Lessons: []course.Lesson{
				{ID: "q1", Title: "SELECT", Type: course.TypeReading, Order: 1, Content: "SELECT 1;"},
			}},
		},
	}
}

// NewDeps returns screen dependencies backed by a signed-in MockClient
// holding Course and SecondCourse, and an in-memory progress cache.
func NewDeps() (screens.Deps, *contentapi.MockClient, *progress.MemoryCache) {
	client := contentapi.NewMockClient()
	client.AddCourse(Course())
	client.AddCourse(SecondCourse())
	client.SetToken("mock-token")

	cache := progress.NewMemoryCache()
	log := logger.Nop()
	deps := screens.Deps{
		Client:   client,
		Progress: progress.NewStore(client, cache, contentapi.IdentityPrefix("mock-token"), log),
		Resolver: recommend.NewResolver(client),
		Mode:     recommend.ModeBaseline,
		Log:      log,
	}
	return deps, client, cache
}

// KeyPress builds a printable key press.
func KeyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// SpecialKey builds a non-printable key press such as tea.KeyEnter.
func SpecialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Type returns one key press per rune of s.
func Type(s string) []tea.KeyPressMsg {
	keys := make([]tea.KeyPressMsg, 0, len(s))
	for _, r := range s {
		keys = append(keys, KeyPress(r))
	}
	return keys
}

// Exec runs cmd and returns its message, or nil for a nil command.
func Exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
