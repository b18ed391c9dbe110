package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/recommend"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *contentapi.HTTPClient) {
	t.Helper()
	fx, err := LoadFixture("")
	require.NoError(t, err)

	s, err := New(fx, Config{Secret: "test-secret"}, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, contentapi.NewHTTPClient(ts.URL, ts.Client())
}

func signIn(t *testing.T, client *contentapi.HTTPClient) {
	t.Helper()
	_, err := client.Login(context.Background(), "demo@learnpath.dev", "demo-password")
	require.NoError(t, err)
}

func TestLoadFixture(t *testing.T) {
	fx, err := LoadFixture("")
	require.NoError(t, err)
	require.Len(t, fx.Courses, 2)

	catalog := fx.Catalog()
	assert.Equal(t, course.ID("1"), catalog[0].ID)
	assert.Equal(t, course.TypeQuiz, catalog[0].Modules[0].Lessons[2].Type)
	assert.Equal(t, course.ID("10"), catalog[0].Modules[0].Lessons[0].ModuleID)
}

func TestParseFixtureRejectsDuplicates(t *testing.T) {
	_, err := ParseFixture([]byte(`
courses:
  - id: "1"
    modules:
      - id: "a"
        lessons:
          - {id: "x", title: one}
          - {id: "x", title: two}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate lesson id "x"`)

	_, err = ParseFixture([]byte("users:\n  - email: a@b.c\n"))
	require.Error(t, err)
}

func TestAuthFlow(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.Register(ctx, "new@example.com", "pw123456", "New Learner"))

	err := client.Register(ctx, "new@example.com", "other", "")
	var reqErr *contentapi.ErrRequest
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "Email already registered", reqErr.Message)

	_, err = client.Login(ctx, "new@example.com", "wrong")
	var authErr *contentapi.ErrAuth
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)

	token, err := client.Login(ctx, "new@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "3", contentapi.TokenSubject(token))
	assert.False(t, contentapi.TokenExpired(token, time.Now()))

	id, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", id.Email)
	assert.Equal(t, "New Learner", id.FullName)
	assert.Equal(t, "student", id.Role)
}

func TestCatalog(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	courses, err := client.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Go Fundamentals", courses[0].Title)

	c, err := client.GetCourse(ctx, "1")
	require.NoError(t, err)
	require.Len(t, c.Modules, 2)
	for _, l := range course.Flatten(c) {
		assert.Empty(t, l.Content, "course outline carries no lesson bodies")
	}

	l, err := client.GetLesson(ctx, "103")
	require.NoError(t, err)
	assert.Equal(t, course.TypeQuiz, l.Type)
	assert.Equal(t, course.ID("10"), l.ModuleID)
	assert.Contains(t, l.Content, "questions")

	_, err = client.GetCourse(ctx, "99")
	var nf *contentapi.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Course not found", nf.Message)

	_, err = client.GetLesson(ctx, "999")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Lesson not found", nf.Message)
}

func TestProgressRequiresAuth(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.MyProgress(context.Background())
	var authErr *contentapi.ErrAuth
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, "Not authenticated", authErr.Message)
}

func TestProgressAndRecommendations(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()
	signIn(t, client)

	rec, err := client.NextRecommendation(ctx, "1", recommend.ModeBaseline)
	require.NoError(t, err)
	assert.Equal(t, course.ID("101"), rec.LessonID)

	score := 0.75
	got, err := client.MarkCompleted(ctx, "101", nil)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, course.ID("1"), got.CourseID)

	got, err = client.MarkCompleted(ctx, "103", &score)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 0.75, *got.Score, 1e-9)

	rec, err = client.NextRecommendation(ctx, "1", recommend.ModeBaseline)
	require.NoError(t, err)
	assert.Equal(t, course.ID("102"), rec.LessonID)

	rec, err = client.NextRecommendation(ctx, "1", recommend.ModeAdaptive)
	require.NoError(t, err)
	assert.Equal(t, course.ID("102"), rec.LessonID, "lowest difficulty left")
	require.NotNil(t, rec.Score)

	records, err := client.MyProgress(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, id := range []course.ID{"201", "202"} {
		_, err := client.MarkCompleted(ctx, id, nil)
		require.NoError(t, err)
	}
	rec, err = client.NextRecommendation(ctx, "2", recommend.ModeBaseline)
	require.NoError(t, err)
	assert.Empty(t, rec.LessonID, "nothing left to recommend")
}

func TestProgressIsPerAccount(t *testing.T) {
	_, first := newTestServer(t)
	ctx := context.Background()
	signIn(t, first)
	_, err := first.MarkCompleted(ctx, "101", nil)
	require.NoError(t, err)

	second := contentapi.NewHTTPClient(first.BaseURL(), nil)
	_, err = second.Login(ctx, "admin@learnpath.dev", "admin-password")
	require.NoError(t, err)

	records, err := second.MyProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUnknownModeRejected(t *testing.T) {
	_, client := newTestServer(t)
	signIn(t, client)

	_, err := client.NextRecommendation(context.Background(), "1", "random")
	var reqErr *contentapi.ErrRequest
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
}

func TestMissingParamDetail(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login?email=demo@learnpath.dev", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Detail []struct {
			Loc []string `json:"loc"`
			Msg string   `json:"msg"`
		} `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Detail, 1)
	assert.Equal(t, []string{"query", "password"}, body.Detail[0].Loc)
}

func TestExpiredTokenRejected(t *testing.T) {
	s, _ := newTestServer(t)

	s.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := s.issueToken(s.byEmail["demo@learnpath.dev"])
	require.NoError(t, err)
	s.now = time.Now

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Token expired"}`, w.Body.String())
}

func TestForeignTokenRejected(t *testing.T) {
	s, _ := newTestServer(t)

	other, err := New(&Fixture{Users: []FixtureUser{{Email: "demo@learnpath.dev", Password: "x"}}}, Config{Secret: "other"}, nil)
	require.NoError(t, err)
	token, err := other.issueToken(other.byEmail["demo@learnpath.dev"])
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/progress/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, w.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestEasiestIncomplete(t *testing.T) {
	flat := []course.FlatLesson{
		{Lesson: course.Lesson{ID: "a", Difficulty: 3}},
		{Lesson: course.Lesson{ID: "b", Difficulty: 1}},
		{Lesson: course.Lesson{ID: "c", Difficulty: 1}},
	}

	rec, ok := easiestIncomplete(flat, recommend.Set{})
	require.True(t, ok)
	assert.Equal(t, course.ID("b"), rec.LessonID, "ties go to course order")

	rec, ok = easiestIncomplete(flat, recommend.Set{"b": true})
	require.True(t, ok)
	assert.Equal(t, course.ID("c"), rec.LessonID)

	_, ok = easiestIncomplete(flat, recommend.Set{"a": true, "b": true, "c": true})
	assert.False(t, ok)
}
