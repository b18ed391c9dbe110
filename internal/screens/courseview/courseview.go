package courseview

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/abhisek/learnpath/internal/screen"
	"github.com/abhisek/learnpath/internal/screens"
	"github.com/abhisek/learnpath/internal/ui/layout"
)

// CourseScreen shows one course: the outline with completion marks, the
// progress bar, the next-lesson recommendation and the open lesson.
type CourseScreen struct {
	deps     screens.Deps
	courseID course.ID
	graph    *course.Graph
	loading  bool
	errMsg   string
	spinner  spinner.Model

	cursor    int
	openID    course.ID
	lessons   map[course.ID]course.Lesson
	lessonErr map[course.ID]string
	inflight  map[course.ID]bool
	pane      viewport.Model

	mode       string
	adaptive   *recommend.Result
	recErr     error
	recLoading bool

	saving bool
	notice string
}

var _ screen.Screen = (*CourseScreen)(nil)
var _ screen.KeyHintProvider = (*CourseScreen)(nil)
var _ screen.StatusProvider = (*CourseScreen)(nil)

// New creates the course screen for courseID.
func New(deps screens.Deps, courseID course.ID) *CourseScreen {
	mode := deps.Mode
	if mode == "" {
		mode = recommend.ModeBaseline
	}
	return &CourseScreen{
		deps:      deps,
		courseID:  courseID,
		loading:   true,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		lessons:   make(map[course.ID]course.Lesson),
		lessonErr: make(map[course.ID]string),
		inflight:  make(map[course.ID]bool),
		pane:      viewport.New(),
		mode:      mode,
	}
}

func (s *CourseScreen) Init() tea.Cmd {
	return tea.Batch(s.loadCourse(), s.spinner.Tick)
}

func (s *CourseScreen) Title() string {
	if s.graph == nil {
		return "Course"
	}
	return s.graph.Course().Title
}

func (s *CourseScreen) Status() string {
	if s.graph == nil || s.deps.Progress == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d complete", s.deps.Progress.CompletedCount(s.graph.Lessons()), s.graph.Len())
}

func (s *CourseScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Browse"},
		{Key: "Enter", Description: "Open"},
		{Key: "n", Description: "Next"},
		{Key: "c", Description: "Complete"},
	}
	if s.mode == recommend.ModeAdaptive {
		hints = append(hints, layout.KeyHint{Key: "b", Description: "Baseline"})
	} else {
		hints = append(hints, layout.KeyHint{Key: "a", Description: "Adaptive"})
	}
	return append(hints,
		layout.KeyHint{Key: "s", Description: "Sync"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

// CourseID returns the course this screen shows.
func (s *CourseScreen) CourseID() course.ID {
	return s.courseID
}

// OpenLessonID returns the lesson shown in the lesson pane.
func (s *CourseScreen) OpenLessonID() course.ID {
	return s.openID
}

// Mode returns the active recommendation mode.
func (s *CourseScreen) Mode() string {
	return s.mode
}

func (s *CourseScreen) flat() []course.FlatLesson {
	if s.graph == nil {
		return nil
	}
	return s.graph.Lessons()
}

func (s *CourseScreen) cursorLesson() (course.FlatLesson, bool) {
	flat := s.flat()
	if s.cursor < 0 || s.cursor >= len(flat) {
		return course.FlatLesson{}, false
	}
	return flat[s.cursor], true
}

func (s *CourseScreen) loadCourse() tea.Cmd {
	id := s.courseID
	deps := s.deps
	return func() tea.Msg {
		ctx := context.Background()
		c, err := deps.Client.GetCourse(ctx, id)
		if err != nil {
			return courseLoadedMsg{CourseID: id, Err: err}
		}

		return courseLoadedMsg{CourseID: id, Course: c}
	}
}

func (s *CourseScreen) loadLesson(id course.ID) tea.Cmd {
	if s.inflight[id] {
		return nil
	}
	if _, ok := s.lessons[id]; ok {
		return nil
	}
	s.inflight[id] = true
	delete(s.lessonErr, id)

	client := s.deps.Client
	return func() tea.Msg {
		l, err := client.GetLesson(context.Background(), id)
		return lessonLoadedMsg{LessonID: id, Lesson: l, Err: err}
	}
}

func (s *CourseScreen) fetchAdaptive() tea.Cmd {
	if s.graph == nil || s.deps.Resolver == nil {
		return nil
	}
	s.recLoading = true
	s.recErr = nil

	id := s.courseID
	flat := s.graph.Lessons()
	resolver := s.deps.Resolver
	return func() tea.Msg {
		res, err := resolver.Adaptive(context.Background(), id, flat)
		return recommendationMsg{CourseID: id, Result: res, Err: err}
	}
}

func (s *CourseScreen) markCompleted(id course.ID) tea.Cmd {
	s.saving = true
	s.notice = ""

	courseID := s.courseID
	progress := s.deps.Progress
	return func() tea.Msg {
		_, err := progress.MarkCompleted(context.Background(), id, nil)
		return completedMsg{CourseID: courseID, LessonID: id, Err: err}
	}
}

func (s *CourseScreen) sync(onOpen bool) tea.Cmd {
	if s.graph == nil || s.deps.Progress == nil {
		return nil
	}
	if !onOpen {
		s.notice = "Syncing progress..."
	}

	courseID := s.courseID
	flat := s.graph.Lessons()
	progress := s.deps.Progress
	return func() tea.Msg {
		n, err := progress.Sync(context.Background(), flat)
		return syncedMsg{CourseID: courseID, Added: n, Err: err, OnOpen: onOpen}
	}
}

// Recommendation returns what the recommendation line shows: the adaptive
// result when in adaptive mode, otherwise the baseline computed from the
// current progress and open lesson.
func (s *CourseScreen) Recommendation() (recommend.Result, bool) {
	if s.graph == nil {
		return recommend.Result{}, false
	}
	if s.mode == recommend.ModeAdaptive {
		if s.adaptive == nil {
			return recommend.Result{}, false
		}
		return *s.adaptive, true
	}

	var done recommend.Completion = recommend.Set{}
	if s.deps.Progress != nil {
		done = s.deps.Progress
	}
	rec, ok := recommend.NextAfterCurrent(s.graph.Lessons(), done, s.openID)
	return recommend.Result{Recommendation: rec, NoneAvailable: !ok}, true
}

func (s *CourseScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case courseLoadedMsg:
		return s.handleCourseLoaded(msg)
	case lessonLoadedMsg:
		return s.handleLessonLoaded(msg)
	case recommendationMsg:
		return s.handleRecommendation(msg)
	case completedMsg:
		return s.handleCompleted(msg)
	case syncedMsg:
		return s.handleSynced(msg)
	case spinner.TickMsg:
		if !s.loading && !s.recLoading {
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

func (s *CourseScreen) handleCourseLoaded(msg courseLoadedMsg) (screen.Screen, tea.Cmd) {
	if msg.CourseID != s.courseID {
		return s, nil
	}
	s.loading = false
	if msg.Err != nil {
		s.errMsg = screens.Describe(msg.Err)
		return s, nil
	}

	s.errMsg = ""
	// The shared progress store follows the course on screen, so it only
	// switches once the response is known to be current.
	if s.deps.Progress != nil {
		s.deps.Progress.Load(context.Background(), msg.CourseID)
	}
	s.graph = course.NewGraph(msg.Course)
	if s.cursor >= s.graph.Len() {
		s.cursor = 0
	}
	if _, ok := s.graph.Position(s.openID); !ok {
		s.openID = ""
	}

	s.moveToFirstIncomplete()

	var cmds []tea.Cmd
	if s.deps.SyncOnOpen {
		cmds = append(cmds, s.sync(true))
	}
	if s.mode == recommend.ModeAdaptive {
		cmds = append(cmds, s.fetchAdaptive(), s.spinner.Tick)
	}
	switch len(cmds) {
	case 0:
		return s, nil
	case 1:
		return s, cmds[0]
	}
	return s, tea.Batch(cmds...)
}

// moveToFirstIncomplete puts the cursor on the first lesson still to do
// unless a lesson is open.
func (s *CourseScreen) moveToFirstIncomplete() {
	if s.openID != "" || s.mode != recommend.ModeBaseline {
		return
	}
	if rec, ok := s.Recommendation(); ok && !rec.NoneAvailable {
		if i, ok := s.graph.Position(rec.Recommendation.LessonID); ok {
			s.cursor = i
		}
	}
}

func (s *CourseScreen) handleLessonLoaded(msg lessonLoadedMsg) (screen.Screen, tea.Cmd) {
	delete(s.inflight, msg.LessonID)
	if msg.LessonID != s.openID {
		return s, nil
	}
	if msg.Err != nil {
		s.lessonErr[msg.LessonID] = screens.Describe(msg.Err)
		return s, nil
	}
	s.lessons[msg.LessonID] = msg.Lesson
	s.pane.GotoTop()
	return s, nil
}

func (s *CourseScreen) handleRecommendation(msg recommendationMsg) (screen.Screen, tea.Cmd) {
	if msg.CourseID != s.courseID || s.mode != recommend.ModeAdaptive {
		return s, nil
	}
	s.recLoading = false
	if msg.Err != nil {
		s.recErr = msg.Err
		s.adaptive = nil
		if s.deps.Log != nil {
			s.deps.Log.Warn("adaptive recommendation failed", "course_id", msg.CourseID, "error", msg.Err)
		}
		return s, nil
	}
	s.recErr = nil
	res := msg.Result
	s.adaptive = &res
	return s, nil
}

func (s *CourseScreen) handleCompleted(msg completedMsg) (screen.Screen, tea.Cmd) {
	if msg.CourseID != s.courseID {
		return s, nil
	}
	s.saving = false
	if msg.Err != nil {
		s.notice = "Could not save: " + screens.Describe(msg.Err)
		return s, nil
	}
	title := string(msg.LessonID)
	if l, ok := s.graph.Lesson(msg.LessonID); ok {
		title = l.Title
	}
	s.notice = fmt.Sprintf("Completed %q.", title)
	if s.mode == recommend.ModeAdaptive {
		return s, s.fetchAdaptive()
	}
	return s, nil
}

func (s *CourseScreen) handleSynced(msg syncedMsg) (screen.Screen, tea.Cmd) {
	if msg.CourseID != s.courseID {
		return s, nil
	}
	if msg.Err != nil {
		s.notice = "Sync failed: " + screens.Describe(msg.Err)
		return s, nil
	}
	if msg.OnOpen {
		if msg.Added > 0 {
			s.notice = fmt.Sprintf("Synced %d lessons from your account.", msg.Added)
			s.moveToFirstIncomplete()
		}
	} else {
		s.notice = fmt.Sprintf("Synced. %d lessons updated.", msg.Added)
	}
	if s.mode == recommend.ModeAdaptive && msg.Added > 0 {
		return s, s.fetchAdaptive()
	}
	return s, nil
}

func (s *CourseScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if key == "r" {
		s.loading = true
		s.errMsg = ""
		s.lessons = make(map[course.ID]course.Lesson)
		s.lessonErr = make(map[course.ID]string)
		s.adaptive = nil
		s.recErr = nil
		return s, tea.Batch(s.loadCourse(), s.spinner.Tick)
	}
	if s.loading || s.graph == nil {
		return s, nil
	}

	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < s.graph.Len()-1 {
			s.cursor++
		}
	case "enter":
		return s, s.openCursor()
	case "n":
		return s, s.openNext()
	case "c":
		return s, s.completeOpen()
	case "a":
		s.mode = recommend.ModeAdaptive
		return s, tea.Batch(s.fetchAdaptive(), s.spinner.Tick)
	case "b":
		s.mode = recommend.ModeBaseline
		s.recLoading = false
		s.recErr = nil
		s.adaptive = nil
	case "s":
		return s, s.sync(false)
	case "pgdown", "space":
		s.pane.PageDown()
	case "pgup":
		s.pane.PageUp()
	}
	return s, nil
}

// openCursor shows the lesson under the cursor, or starts its quiz when it
// is already open.
func (s *CourseScreen) openCursor() tea.Cmd {
	l, ok := s.cursorLesson()
	if !ok {
		return nil
	}
	if l.ID == s.openID {
		loaded, ok := s.lessons[l.ID]
		if ok && loaded.Type == course.TypeQuiz {
			courseID := s.courseID
			return func() tea.Msg { return screens.OpenQuizMsg{CourseID: courseID, Lesson: loaded} }
		}
	}
	return s.open(l.ID)
}

func (s *CourseScreen) open(id course.ID) tea.Cmd {
	s.openID = id
	if i, ok := s.graph.Position(id); ok {
		s.cursor = i
	}
	s.notice = ""
	s.pane.GotoTop()
	return s.loadLesson(id)
}

// openNext follows the recommendation line.
func (s *CourseScreen) openNext() tea.Cmd {
	res, ok := s.Recommendation()
	if !ok {
		return nil
	}
	if res.NoneAvailable {
		s.notice = "Every lesson in this course is complete."
		return nil
	}
	return s.open(res.Recommendation.LessonID)
}

func (s *CourseScreen) completeOpen() tea.Cmd {
	if s.deps.Progress == nil || s.saving {
		return nil
	}
	id := s.openID
	if id == "" {
		l, ok := s.cursorLesson()
		if !ok {
			return nil
		}
		id = l.ID
	}
	l, _ := s.graph.Lesson(id)
	if l.Type == course.TypeQuiz {
		s.notice = "Pass the quiz to complete this lesson."
		return nil
	}
	if s.deps.Progress.IsCompleted(id) {
		s.notice = "Already completed."
		return nil
	}
	return s.markCompleted(id)
}
