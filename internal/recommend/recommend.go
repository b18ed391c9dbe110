// Package recommend picks the next lesson to study.
package recommend

import (
	"context"
	"fmt"

	"github.com/abhisek/learnpath/internal/course"
)

// Modes accepted by Resolve.
const (
	ModeBaseline = "baseline"
	ModeAdaptive = "adaptive"
)

// Reasons attached to baseline recommendations.
const (
	ReasonNextInOrder  = "next incomplete lesson in course order"
	ReasonAfterCurrent = "next incomplete lesson after the current one"
	ReasonWrapAround   = "earlier lesson still incomplete"
)

// Completion answers whether a lesson is completed.
type Completion interface {
	IsCompleted(lessonID course.ID) bool
}

// Set is a Completion backed by a map.
type Set map[course.ID]bool

func (s Set) IsCompleted(lessonID course.ID) bool { return s[lessonID] }

// Scorer is the external adaptive recommendation service.
type Scorer interface {
	NextRecommendation(ctx context.Context, courseID course.ID, mode string) (course.Recommendation, error)
}

// ErrValidation means the adaptive service recommended a lesson that is
// not part of the current course. The caller decides whether to reload
// the course or fall back to the baseline.
type ErrValidation struct {
	CourseID course.ID
	LessonID course.ID
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("adaptive recommendation %q is not a lesson of course %q", e.LessonID, e.CourseID)
}

// NextUncompleted returns the first lesson of flat that is not completed.
// It reports false when every lesson is completed.
func NextUncompleted(flat []course.FlatLesson, done Completion) (course.Recommendation, bool) {
	i := firstIncomplete(flat, done, 0)
	if i < 0 {
		return course.Recommendation{}, false
	}
	return fromFlat(flat[i], ReasonNextInOrder), true
}

// NextAfterCurrent returns the first incomplete lesson after openID. With
// no open lesson, or one that is not in flat, it behaves like
// NextUncompleted. When every lesson after openID is complete it wraps
// around to the first incomplete lesson overall, which may come before
// openID.
func NextAfterCurrent(flat []course.FlatLesson, done Completion, openID course.ID) (course.Recommendation, bool) {
	if openID == "" {
		return NextUncompleted(flat, done)
	}
	pos, ok := course.PositionOf(flat, openID)
	if !ok {
		return NextUncompleted(flat, done)
	}
	if i := firstIncomplete(flat, done, pos+1); i >= 0 {
		return fromFlat(flat[i], ReasonAfterCurrent), true
	}
	i := firstIncomplete(flat, done, 0)
	if i < 0 {
		return course.Recommendation{}, false
	}
	return fromFlat(flat[i], ReasonWrapAround), true
}

func firstIncomplete(flat []course.FlatLesson, done Completion, from int) int {
	for i := from; i < len(flat); i++ {
		if !done.IsCompleted(flat[i].ID) {
			return i
		}
	}
	return -1
}

func fromFlat(l course.FlatLesson, reason string) course.Recommendation {
	return course.Recommendation{
		LessonID:   l.ID,
		Title:      l.Title,
		LessonType: l.Type,
		Difficulty: l.Difficulty,
		Reason:     reason,
	}
}
