// Package screens holds what the TUI screens share: their dependencies,
// the navigation messages the app turns into router changes, and error
// rendering.
package screens

import (
	"errors"
	"fmt"

	"github.com/abhisek/learnpath/internal/contentapi"
	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/progress"
	"github.com/abhisek/learnpath/internal/recommend"
	"github.com/abhisek/learnpath/internal/store"
)

// Deps are the services a screen may call. Sessions may be nil, in which
// case sign-in is not persisted.
type Deps struct {
	Client     contentapi.Client
	Progress   *progress.Store
	Resolver   *recommend.Resolver
	Sessions   store.SessionRepo
	Mode       string
	SyncOnOpen bool
	Log        *logger.Logger
}

// SignedInMsg is emitted once a login (or register + login) succeeded.
type SignedInMsg struct {
	Email string
}

// SignedOutMsg asks the app to drop the session and show the login screen.
type SignedOutMsg struct{}

// OpenCourseMsg asks the app to push the course screen.
type OpenCourseMsg struct {
	CourseID course.ID
}

// OpenQuizMsg asks the app to push the quiz screen for a quiz lesson.
type OpenQuizMsg struct {
	CourseID course.ID
	Lesson   course.Lesson
}

// Describe renders err for display in a screen.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var authErr *contentapi.ErrAuth
	var notFound *contentapi.ErrNotFound
	var transport *contentapi.ErrTransport
	var reqErr *contentapi.ErrRequest
	var invalid *contentapi.ErrInvalidResponse
	var validation *recommend.ErrValidation

	switch {
	case errors.As(err, &authErr):
		return fmt.Sprintf("Not signed in: %s", authErr.Message)
	case errors.As(err, &notFound):
		return notFound.Message
	case errors.As(err, &transport):
		if transport.StatusCode > 0 {
			return fmt.Sprintf("The course service failed (%d). Try again.", transport.StatusCode)
		}
		return "Could not reach the course service. Check your connection and try again."
	case errors.As(err, &reqErr):
		return reqErr.Message
	case errors.As(err, &invalid):
		return "The course service sent a response this client cannot read."
	case errors.As(err, &validation):
		return fmt.Sprintf("The adaptive recommendation (lesson %s) is not part of this course.", validation.LessonID)
	}
	return err.Error()
}

// IsAuth reports whether err means the learner has to sign in again.
func IsAuth(err error) bool {
	var authErr *contentapi.ErrAuth
	return errors.As(err, &authErr)
}
