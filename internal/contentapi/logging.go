package contentapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/store"
)

// Operation names recorded in the request log.
const (
	OpRegister           = "register"
	OpLogin              = "login"
	OpMe                 = "me"
	OpListCourses        = "list_courses"
	OpGetCourse          = "get_course"
	OpGetLesson          = "get_lesson"
	OpNextRecommendation = "next_recommendation"
	OpMarkCompleted      = "mark_completed"
	OpMyProgress         = "my_progress"
)

// LoggingClient is a decorator that records every service call in the
// request log.
type LoggingClient struct {
	inner Client
	repo  store.RequestLogRepo
	log   *logger.Logger
}

// WithLogging wraps a Client with request logging. A nil repo disables
// persistence; a nil log disables structured logging.
func WithLogging(c Client, repo store.RequestLogRepo, log *logger.Logger) Client {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingClient{inner: c, repo: repo, log: log}
}

// call tags ctx with a request id, runs fn and records the outcome.
func (l *LoggingClient) call(ctx context.Context, op, target string, fn func(context.Context) error) error {
	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
		ctx = WithRequestID(ctx, reqID)
	}

	start := time.Now()
	err := fn(ctx)
	latency := time.Since(start)

	ev := store.RequestEvent{
		Op:         op,
		Target:     target,
		StatusCode: StatusCode(err),
		LatencyMs:  latency.Milliseconds(),
		Success:    err == nil,
		RequestID:  reqID,
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		l.log.Warn("course service call failed", "op", op, "target", target,
			"status", ev.StatusCode, "request_id", reqID, "latency_ms", ev.LatencyMs, "error", err)
	} else {
		l.log.Debug("course service call", "op", op, "target", target,
			"request_id", reqID, "latency_ms", ev.LatencyMs)
	}

	// Log the event but don't fail the request if logging fails.
	if l.repo != nil {
		if logErr := l.repo.Append(context.WithoutCancel(ctx), ev); logErr != nil {
			l.log.Warn("failed to record request event", "op", op, "error", logErr)
		}
	}
	return err
}

func (l *LoggingClient) Register(ctx context.Context, email, password, fullName string) error {
	return l.call(ctx, OpRegister, "", func(ctx context.Context) error {
		return l.inner.Register(ctx, email, password, fullName)
	})
}

func (l *LoggingClient) Login(ctx context.Context, email, password string) (token string, err error) {
	err = l.call(ctx, OpLogin, "", func(ctx context.Context) error {
		token, err = l.inner.Login(ctx, email, password)
		return err
	})
	return token, err
}

func (l *LoggingClient) Me(ctx context.Context) (id course.Identity, err error) {
	err = l.call(ctx, OpMe, "", func(ctx context.Context) error {
		id, err = l.inner.Me(ctx)
		return err
	})
	return id, err
}

func (l *LoggingClient) ListCourses(ctx context.Context) (out []course.Summary, err error) {
	err = l.call(ctx, OpListCourses, "", func(ctx context.Context) error {
		out, err = l.inner.ListCourses(ctx)
		return err
	})
	return out, err
}

func (l *LoggingClient) GetCourse(ctx context.Context, courseID course.ID) (out course.Course, err error) {
	err = l.call(ctx, OpGetCourse, courseID.String(), func(ctx context.Context) error {
		out, err = l.inner.GetCourse(ctx, courseID)
		return err
	})
	return out, err
}

func (l *LoggingClient) GetLesson(ctx context.Context, lessonID course.ID) (out course.Lesson, err error) {
	err = l.call(ctx, OpGetLesson, lessonID.String(), func(ctx context.Context) error {
		out, err = l.inner.GetLesson(ctx, lessonID)
		return err
	})
	return out, err
}

func (l *LoggingClient) NextRecommendation(ctx context.Context, courseID course.ID, mode string) (out course.Recommendation, err error) {
	err = l.call(ctx, OpNextRecommendation, courseID.String()+"/"+mode, func(ctx context.Context) error {
		out, err = l.inner.NextRecommendation(ctx, courseID, mode)
		return err
	})
	return out, err
}

func (l *LoggingClient) MarkCompleted(ctx context.Context, lessonID course.ID, score *float64) (out course.ProgressRecord, err error) {
	err = l.call(ctx, OpMarkCompleted, lessonID.String(), func(ctx context.Context) error {
		out, err = l.inner.MarkCompleted(ctx, lessonID, score)
		return err
	})
	return out, err
}

func (l *LoggingClient) MyProgress(ctx context.Context) (out []course.ProgressRecord, err error) {
	err = l.call(ctx, OpMyProgress, "", func(ctx context.Context) error {
		out, err = l.inner.MyProgress(ctx)
		return err
	})
	return out, err
}

func (l *LoggingClient) SetToken(token string) { l.inner.SetToken(token) }
func (l *LoggingClient) Token() string         { return l.inner.Token() }
