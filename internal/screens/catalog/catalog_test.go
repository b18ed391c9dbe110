package catalog

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/screens/screenstest"
)

// loaded returns a catalog with the listing applied and the command for
// the first preview fetch.
func loaded(t *testing.T) (*CatalogScreen, *contentapi.MockClient, tea.Cmd) {
	t.Helper()
	deps, client, _ := screenstest.NewDeps()
	s := New(deps)
	_, cmd := s.Update(screenstest.Exec(s.loadCourses()))
	require.False(t, s.loading)
	return s, client, cmd
}

func TestCatalogLoadsAndPreviewsFirstCourse(t *testing.T) {
	s, _, cmd := loaded(t)

	require.Len(t, s.courses, 2)
	assert.Equal(t, course.ID("c1"), s.Selected())
	require.NotNil(t, cmd)

	s.Update(screenstest.Exec(cmd))
	c, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, "Go Basics", c.Title)
	assert.Contains(t, s.View(100, 30), "3 lessons in total")
}

func TestCatalogDiscardsStalePreview(t *testing.T) {
	s, _, first := loaded(t)

	// Move to course 2 before course 1's fetch resolves.
	_, second := s.Update(screenstest.SpecialKey(tea.KeyDown))
	require.Equal(t, course.ID("c2"), s.Selected())
	require.NotNil(t, second)

	s.Update(screenstest.Exec(first))
	_, ok := s.Preview()
	assert.False(t, ok, "course 1's response must not fill course 2's pane")
	_, cached := s.previews["c1"]
	assert.False(t, cached)

	s.Update(screenstest.Exec(second))
	c, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, course.ID("c2"), c.ID)
}

func TestCatalogStalePreviewErrorIgnored(t *testing.T) {
	s, _, _ := loaded(t)
	s.Update(screenstest.SpecialKey(tea.KeyDown))

	s.Update(previewLoadedMsg{CourseID: "c1", Err: errors.New("boom")})
	assert.Empty(t, s.failed)
}

func TestCatalogPreviewCached(t *testing.T) {
	s, client, cmd := loaded(t)
	s.Update(screenstest.Exec(cmd))

	_, cmd = s.Update(screenstest.SpecialKey(tea.KeyDown))
	s.Update(screenstest.Exec(cmd))
	_, cmd = s.Update(screenstest.SpecialKey(tea.KeyUp))

	assert.Nil(t, cmd, "going back to a previewed course does not refetch")
	assert.Equal(t, 2, client.CallCount(contentapi.OpGetCourse))
}

func TestCatalogOpenCourse(t *testing.T) {
	s, _, _ := loaded(t)
	s.Update(screenstest.SpecialKey(tea.KeyDown))

	_, cmd := s.Update(screenstest.SpecialKey(tea.KeyEnter))
	require.NotNil(t, cmd)
	msg, ok := cmd().(screens.OpenCourseMsg)
	require.True(t, ok)
	assert.Equal(t, course.ID("c2"), msg.CourseID)
}

func TestCatalogListErrorAndRetry(t *testing.T) {
	deps, client, _ := screenstest.NewDeps()
	client.FailNext(contentapi.OpListCourses, &contentapi.ErrTransport{Err: errors.New("connection refused")})

	s := New(deps)
	s.Update(screenstest.Exec(s.loadCourses()))
	assert.Contains(t, s.View(100, 30), "Could not reach the course service")

	_, cmd := s.Update(screenstest.KeyPress('r'))
	require.NotNil(t, cmd)
	assert.True(t, s.loading)

	s.Update(screenstest.Exec(s.loadCourses()))
	assert.Empty(t, s.errMsg)
	assert.Len(t, s.courses, 2)
}

func TestCatalogSignOut(t *testing.T) {
	s, _, _ := loaded(t)
	_, cmd := s.Update(screenstest.KeyPress('o'))
	require.NotNil(t, cmd)
	_, ok := cmd().(screens.SignedOutMsg)
	assert.True(t, ok)
}

func TestCatalogEmpty(t *testing.T) {
	deps, client, _ := screenstest.NewDeps()
	client.Courses = nil

	s := New(deps)
	_, cmd := s.Update(screenstest.Exec(s.loadCourses()))
	assert.Nil(t, cmd)
	assert.Contains(t, s.View(100, 30), "No courses are available yet.")

	_, cmd = s.Update(screenstest.SpecialKey(tea.KeyEnter))
	assert.Nil(t, cmd)
}
