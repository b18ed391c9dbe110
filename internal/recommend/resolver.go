package recommend

import (
	"context"
	"fmt"

	"github.com/abhisek/learnpath/internal/course"
)

// Request describes one resolution.
type Request struct {
	Mode     string
	CourseID course.ID
	Flat     []course.FlatLesson
	Progress Completion
	// OpenLessonID is the lesson being viewed; empty when none is open.
	OpenLessonID course.ID
}

// Result is a recommendation or the NoneAvailable signal.
type Result struct {
	Recommendation course.Recommendation
	NoneAvailable  bool
}

// Resolver dispatches between the baseline and adaptive policies.
type Resolver struct {
	scorer Scorer
}

// NewResolver creates a Resolver. scorer may be nil when only the
// baseline policy is used.
func NewResolver(scorer Scorer) *Resolver {
	return &Resolver{scorer: scorer}
}

// Resolve runs the policy selected by req.Mode. Empty cases report
// NoneAvailable; transport and validation failures of the adaptive policy
// are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	switch req.Mode {
	case ModeBaseline, "":
		done := req.Progress
		if done == nil {
			done = Set{}
		}
		rec, ok := NextAfterCurrent(req.Flat, done, req.OpenLessonID)
		return Result{Recommendation: rec, NoneAvailable: !ok}, nil
	case ModeAdaptive:
		return r.Adaptive(ctx, req.CourseID, req.Flat)
	default:
		return Result{}, fmt.Errorf("unknown recommendation mode %q", req.Mode)
	}
}

// Adaptive asks the scoring service for the next lesson and accepts it only
// if it belongs to flat. An empty lesson id from the service means there
// is nothing left to recommend.
func (r *Resolver) Adaptive(ctx context.Context, courseID course.ID, flat []course.FlatLesson) (Result, error) {
	if r.scorer == nil {
		return Result{}, fmt.Errorf("adaptive recommendations are not available")
	}
	rec, err := r.scorer.NextRecommendation(ctx, courseID, ModeAdaptive)
	if err != nil {
		return Result{}, err
	}
	if rec.LessonID == "" {
		return Result{NoneAvailable: true}, nil
	}
	pos, ok := course.PositionOf(flat, rec.LessonID)
	if !ok {
		return Result{}, &ErrValidation{CourseID: courseID, LessonID: rec.LessonID}
	}

	// The service may omit display fields; the graph has them.
	l := flat[pos]
	if rec.Title == "" {
		rec.Title = l.Title
	}
	if rec.LessonType == "" {
		rec.LessonType = l.Type
	}
	if rec.Difficulty == 0 {
		rec.Difficulty = l.Difficulty
	}
	return Result{Recommendation: rec}, nil
}
