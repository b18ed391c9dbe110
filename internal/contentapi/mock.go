package contentapi

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/learnpath/internal/course"
)

// MockCall records one call made to a MockClient.
type MockCall struct {
	Op     string
	Target string
}

// MockClient is an in-memory Client for tests. Queued failures are
// returned in FIFO order per operation before the canned data is used.
type MockClient struct {
	mu sync.Mutex

	Courses         []course.Summary
	CourseByID      map[course.ID]course.Course
	LessonByID      map[course.ID]course.Lesson
	Recommendations map[string]course.Recommendation // keyed by mode
	Progress        []course.ProgressRecord
	Identity        course.Identity
	Users           map[string]string // email -> password

	// IssuedToken is returned by Login.
	IssuedToken string

	Calls []MockCall

	failures map[string][]error
	token    string
	now      func() time.Time
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		CourseByID:      make(map[course.ID]course.Course),
		LessonByID:      make(map[course.ID]course.Lesson),
		Recommendations: make(map[string]course.Recommendation),
		Users:           make(map[string]string),
		IssuedToken:     "mock-token",
		failures:        make(map[string][]error),
		now:             time.Now,
	}
}

// AddCourse registers c for GetCourse and its lessons for GetLesson.
func (m *MockClient) AddCourse(c course.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CourseByID[c.ID] = c
	m.Courses = append(m.Courses, course.Summary{ID: c.ID, Title: c.Title, Description: c.Description})
	for _, mod := range c.Modules {
		for _, l := range mod.Lessons {
			m.LessonByID[l.ID] = l
		}
	}
	for _, l := range c.Lessons {
		m.LessonByID[l.ID] = l
	}
}

// FailNext queues err as the result of the next call to op.
func (m *MockClient) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// CallCount returns how many calls were made to op.
func (m *MockClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// record logs the call and pops a queued failure. Callers hold mu.
func (m *MockClient) record(op, target string) error {
	m.Calls = append(m.Calls, MockCall{Op: op, Target: target})
	if q := m.failures[op]; len(q) > 0 {
		m.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *MockClient) requireAuth() error {
	if m.token == "" {
		return &ErrAuth{StatusCode: 401, Message: "Not authenticated"}
	}
	return nil
}

func (m *MockClient) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MockClient) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MockClient) Register(_ context.Context, email, password, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpRegister, email); err != nil {
		return err
	}
	if _, ok := m.Users[email]; ok {
		return &ErrRequest{StatusCode: 400, Message: "Email already registered"}
	}
	m.Users[email] = password
	return nil
}

func (m *MockClient) Login(_ context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpLogin, email); err != nil {
		return "", err
	}
	if want, ok := m.Users[email]; ok && want != password {
		return "", &ErrAuth{StatusCode: 401, Message: "Invalid credentials"}
	}
	m.token = m.IssuedToken
	return m.token, nil
}

func (m *MockClient) Me(_ context.Context) (course.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpMe, ""); err != nil {
		return course.Identity{}, err
	}
	if err := m.requireAuth(); err != nil {
		return course.Identity{}, err
	}
	return m.Identity, nil
}

func (m *MockClient) ListCourses(_ context.Context) ([]course.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpListCourses, ""); err != nil {
		return nil, err
	}
	out := make([]course.Summary, len(m.Courses))
	copy(out, m.Courses)
	return out, nil
}

func (m *MockClient) GetCourse(_ context.Context, courseID course.ID) (course.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetCourse, courseID.String()); err != nil {
		return course.Course{}, err
	}
	c, ok := m.CourseByID[courseID]
	if !ok {
		return course.Course{}, &ErrNotFound{Path: "/courses/" + courseID.String(), Message: "Course not found"}
	}
	return c, nil
}

func (m *MockClient) GetLesson(_ context.Context, lessonID course.ID) (course.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetLesson, lessonID.String()); err != nil {
		return course.Lesson{}, err
	}
	l, ok := m.LessonByID[lessonID]
	if !ok {
		return course.Lesson{}, &ErrNotFound{Path: "/lessons/" + lessonID.String(), Message: "Lesson not found"}
	}
	return l, nil
}

func (m *MockClient) NextRecommendation(_ context.Context, courseID course.ID, mode string) (course.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpNextRecommendation, courseID.String()); err != nil {
		return course.Recommendation{}, err
	}
	if err := m.requireAuth(); err != nil {
		return course.Recommendation{}, err
	}
	return m.Recommendations[mode], nil
}

func (m *MockClient) MarkCompleted(_ context.Context, lessonID course.ID, score *float64) (course.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpMarkCompleted, lessonID.String()); err != nil {
		return course.ProgressRecord{}, err
	}
	if err := m.requireAuth(); err != nil {
		return course.ProgressRecord{}, err
	}

	rec := course.ProgressRecord{
		LessonID:  lessonID,
		Completed: true,
		Score:     score,
		UpdatedAt: course.Timestamp{Time: m.now().UTC()},
	}
	for i, p := range m.Progress {
		if p.LessonID == lessonID {
			m.Progress[i] = rec
			return rec, nil
		}
	}
	m.Progress = append(m.Progress, rec)
	return rec, nil
}

func (m *MockClient) MyProgress(_ context.Context) ([]course.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpMyProgress, ""); err != nil {
		return nil, err
	}
	if err := m.requireAuth(); err != nil {
		return nil, err
	}
	out := make([]course.ProgressRecord, len(m.Progress))
	copy(out, m.Progress)
	return out, nil
}
