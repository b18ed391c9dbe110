package contentapi

import (
	"context"

	"github.com/abhisek/learnpath/internal/course"
)

// Recommendation modes understood by the service.
const (
	ModeBaseline = "baseline"
	ModeAdaptive = "adaptive"
)

// Client is the course service contract.
type Client interface {
	Register(ctx context.Context, email, password, fullName string) error

	// Login exchanges credentials for an access token and keeps it for
	// subsequent authenticated calls.
	Login(ctx context.Context, email, password string) (string, error)

	Me(ctx context.Context) (course.Identity, error)
	ListCourses(ctx context.Context) ([]course.Summary, error)
	GetCourse(ctx context.Context, courseID course.ID) (course.Course, error)
	GetLesson(ctx context.Context, lessonID course.ID) (course.Lesson, error)
	NextRecommendation(ctx context.Context, courseID course.ID, mode string) (course.Recommendation, error)

	// MarkCompleted records completion. score is non-nil only when the
	// completion comes from a passed quiz.
	MarkCompleted(ctx context.Context, lessonID course.ID, score *float64) (course.ProgressRecord, error)

	MyProgress(ctx context.Context) ([]course.ProgressRecord, error)

	// SetToken replaces the bearer token; an empty token signs out.
	SetToken(token string)
	Token() string
}

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID attaches the id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id attached to ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
