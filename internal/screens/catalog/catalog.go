package catalog

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/screen"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/ui/components"
	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

// coursesLoadedMsg carries the catalog listing.
type coursesLoadedMsg struct {
	Courses []course.Summary
	Err     error
}

// previewLoadedMsg carries the full course for the preview pane. It is
// tagged with the course it was requested for.
type previewLoadedMsg struct {
	CourseID course.ID
	Course   course.Course
	Err      error
}

// CatalogScreen lists the courses and previews the selected one.
type CatalogScreen struct {
	deps     screens.Deps
	courses  []course.Summary
	menu     components.Menu
	loading  bool
	errMsg   string
	spinner  spinner.Model
	previews map[course.ID]course.Course
	failed   map[course.ID]string
	inflight map[course.ID]bool
}

var _ screen.Screen = (*CatalogScreen)(nil)
var _ screen.KeyHintProvider = (*CatalogScreen)(nil)

// New creates the catalog screen.
func New(deps screens.Deps) *CatalogScreen {
	return &CatalogScreen{
		deps:     deps,
		loading:  true,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		previews: make(map[course.ID]course.Course),
		failed:   make(map[course.ID]string),
		inflight: make(map[course.ID]bool),
	}
}

func (s *CatalogScreen) Init() tea.Cmd {
	return tea.Batch(s.loadCourses(), s.spinner.Tick)
}

func (s *CatalogScreen) Title() string {
	return "Courses"
}

func (s *CatalogScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Browse"},
		{Key: "Enter", Description: "Open"},
		{Key: "r", Description: "Reload"},
		{Key: "o", Description: "Sign out"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Selected returns the id of the highlighted course, or "" when the
// catalog is empty.
func (s *CatalogScreen) Selected() course.ID {
	if s.menu.Selected < 0 || s.menu.Selected >= len(s.courses) {
		return ""
	}
	return s.courses[s.menu.Selected].ID
}

// Preview returns the course shown in the preview pane, if loaded.
func (s *CatalogScreen) Preview() (course.Course, bool) {
	c, ok := s.previews[s.Selected()]
	return c, ok
}

func (s *CatalogScreen) loadCourses() tea.Cmd {
	client := s.deps.Client
	return func() tea.Msg {
		courses, err := client.ListCourses(context.Background())
		return coursesLoadedMsg{Courses: courses, Err: err}
	}
}

// loadPreview fetches the selected course unless it is cached or already
// being fetched.
func (s *CatalogScreen) loadPreview() tea.Cmd {
	id := s.Selected()
	if id == "" || s.inflight[id] {
		return nil
	}
	if _, ok := s.previews[id]; ok {
		return nil
	}
	s.inflight[id] = true
	delete(s.failed, id)

	client := s.deps.Client
	return func() tea.Msg {
		c, err := client.GetCourse(context.Background(), id)
		return previewLoadedMsg{CourseID: id, Course: c, Err: err}
	}
}

func (s *CatalogScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case coursesLoadedMsg:
		return s.handleCourses(msg)
	case previewLoadedMsg:
		return s.handlePreview(msg)
	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *CatalogScreen) handleCourses(msg coursesLoadedMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	if msg.Err != nil {
		s.errMsg = screens.Describe(msg.Err)
		return s, nil
	}
	s.errMsg = ""
	s.courses = msg.Courses

	items := make([]components.MenuItem, len(msg.Courses))
	for i, c := range msg.Courses {
		items[i] = components.MenuItem{Label: c.Title}
	}
	s.menu = components.NewMenu(items)
	return s, s.loadPreview()
}

func (s *CatalogScreen) handlePreview(msg previewLoadedMsg) (screen.Screen, tea.Cmd) {
	delete(s.inflight, msg.CourseID)

	// The selection moved on while this was in flight.
	if msg.CourseID != s.Selected() {
		return s, nil
	}
	if msg.Err != nil {
		s.failed[msg.CourseID] = screens.Describe(msg.Err)
		return s, nil
	}
	s.previews[msg.CourseID] = msg.Course
	return s, nil
}

func (s *CatalogScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "r":
		s.loading = true
		s.errMsg = ""
		s.previews = make(map[course.ID]course.Course)
		s.failed = make(map[course.ID]string)
		return s, tea.Batch(s.loadCourses(), s.spinner.Tick)
	case "o":
		return s, func() tea.Msg { return screens.SignedOutMsg{} }
	case "enter":
		id := s.Selected()
		if id == "" {
			return s, nil
		}
		return s, func() tea.Msg { return screens.OpenCourseMsg{CourseID: id} }
	}

	if s.loading || len(s.courses) == 0 {
		return s, nil
	}

	before := s.Selected()
	s.menu, _ = s.menu.Update(msg)
	if s.Selected() != before {
		return s, s.loadPreview()
	}
	return s, nil
}

func (s *CatalogScreen) View(width, height int) string {
	if s.loading {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  " + s.spinner.View() + " Loading courses...")
	}
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\n  %s\n\n  Press r to retry.", s.errMsg))
	}
	if len(s.courses) == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  No courses are available yet.")
	}

	listWidth := width * 2 / 5
	previewWidth := width - listWidth - 2

	s.menu.Width = listWidth - 4
	list := theme.Pane.Width(listWidth).Height(height - 2).Render(s.menu.View())
	preview := theme.Pane.Width(previewWidth).Height(height - 2).Render(s.renderPreview(previewWidth - 4))

	return lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
}

func (s *CatalogScreen) renderPreview(width int) string {
	id := s.Selected()
	if msg, ok := s.failed[id]; ok {
		return theme.ErrorText.Render(msg)
	}

	c, ok := s.previews[id]
	if !ok {
		summary := s.courses[s.menu.Selected]
		return theme.Title.Render(summary.Title) + "\n\n" +
			theme.Subtitle.Render(s.spinner.View()+" Loading outline...")
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(c.Title) + "\n\n")
	if c.Description != "" {
		b.WriteString(theme.Body.Width(width).Render(c.Description) + "\n\n")
	}

	g := course.NewGraph(c)
	for _, m := range g.Modules() {
		title := m.Title
		if title == "" {
			title = "Lessons"
		}
		line := fmt.Sprintf("%s  %s", layout.Truncate(title, width-14), theme.Subtitle.Render(lessonCount(m.Count)))
		b.WriteString(theme.Body.Render(line) + "\n")
	}
	b.WriteString("\n" + theme.Subtitle.Render(fmt.Sprintf("%s in total", lessonCount(g.Len()))))
	return b.String()
}

func lessonCount(n int) string {
	if n == 1 {
		return "1 lesson"
	}
	return fmt.Sprintf("%d lessons", n)
}
