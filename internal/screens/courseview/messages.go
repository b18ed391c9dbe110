package courseview

import (
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/recommend"
)

// Every async result is tagged with the key it was requested for so that
// late responses for a course or lesson no longer on screen are dropped.

// courseLoadedMsg carries the course outline.
type courseLoadedMsg struct {
	CourseID course.ID
	Course   course.Course
	Err      error
}

// lessonLoadedMsg carries a lesson's content.
type lessonLoadedMsg struct {
	LessonID course.ID
	Lesson   course.Lesson
	Err      error
}

// recommendationMsg carries an adaptive recommendation.
type recommendationMsg struct {
	CourseID course.ID
	Result   recommend.Result
	Err      error
}

// completedMsg reports a completion write.
type completedMsg struct {
	CourseID course.ID
	LessonID course.ID
	Err      error
}

// syncedMsg reports a reconciliation with the remote progress.
type syncedMsg struct {
	CourseID course.ID
	Added    int
	Err      error
	// OnOpen marks the reconciliation that runs when the course opens.
	OnOpen bool
}
