package contentapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuth indicates missing, rejected or expired credentials (401/403).
type ErrAuth struct {
	StatusCode int
	Message    string
}

func (e *ErrAuth) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// ErrNotFound indicates the requested course or lesson has no backing record.
type ErrNotFound struct {
	Path    string
	Message string
}

func (e *ErrNotFound) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("not found: %s", e.Path)
	}
	return fmt.Sprintf("not found: %s", e.Message)
}

// ErrTransport indicates the service could not be reached or failed
// server-side. It is recoverable; callers decide whether to try again.
type ErrTransport struct {
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *ErrTransport) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("course service error (%d): %v", e.StatusCode, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("course service unavailable: %v", e.Err)
	}
	return "course service unavailable"
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrRequest is any other rejected request, such as a duplicate
// registration. Message carries the service's detail text.
type ErrRequest struct {
	StatusCode int
	Message    string
}

func (e *ErrRequest) Error() string {
	return e.Message
}

// ErrInvalidResponse indicates a successful status with a body that could
// not be decoded.
type ErrInvalidResponse struct {
	Body []byte
	Err  error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid response from course service: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(status int, path, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrAuth{StatusCode: status, Message: message}
	case status == http.StatusNotFound:
		return &ErrNotFound{Path: path, Message: message}
	case status >= http.StatusInternalServerError:
		return &ErrTransport{StatusCode: status, Err: errors.New(message)}
	default:
		return &ErrRequest{StatusCode: status, Message: message}
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var (
		authErr *ErrAuth
		nfErr   *ErrNotFound
		trErr   *ErrTransport
		reqErr  *ErrRequest
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &authErr):
		return authErr.StatusCode
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &trErr):
		return trErr.StatusCode
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	}
	return 0
}
