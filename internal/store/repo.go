package store

import (
	"context"
	"time"
)

// QueryOpts configures request log queries with filtering and pagination.
type QueryOpts struct {
	Limit      int       // max results (0 = unlimited)
	Op         string    // exact operation name; empty matches all
	From       time.Time // created_at >= From
	FailedOnly bool
}

// Session is a saved login.
type Session struct {
	Token   string
	Email   string
	SavedAt time.Time
}

// SessionRepo persists the single active login between runs.
type SessionRepo interface {
	Save(ctx context.Context, s Session) error

	// Load returns the saved session, or nil if none exists.
	Load(ctx context.Context) (*Session, error)

	Clear(ctx context.Context) error
}

// RequestEvent is one call made to the course service.
type RequestEvent struct {
	ID           int
	Op           string
	Target       string
	StatusCode   int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestID    string
	CreatedAt    time.Time
}

// RequestStat aggregates request events per operation.
type RequestStat struct {
	Op           string
	Count        int
	Failures     int
	AvgLatencyMs float64
}

// RequestLogRepo records and reports course service calls.
type RequestLogRepo interface {
	Append(ctx context.Context, ev RequestEvent) error

	// Query returns events newest first.
	Query(ctx context.Context, opts QueryOpts) ([]RequestEvent, error)

	// Stats returns per-operation aggregates ordered by operation name.
	Stats(ctx context.Context, opts QueryOpts) ([]RequestStat, error)
}
