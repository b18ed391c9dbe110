package cmd

import (
	"github.com/abhisek/learnpath/internal/screens"
)

// userError carries the message shown to the learner and keeps the
// underlying error for errors.As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// describe turns service and validation failures into the same messages
// the TUI shows. An auth failure also points at the login command.
func describe(err error) error {
	if err == nil {
		return nil
	}
	msg := screens.Describe(err)
	if screens.IsAuth(err) {
		msg += " (run 'learnpath login')"
	}
	return &userError{msg: msg, err: err}
}
