package contentapi

import (
	"net/http"
	"time"

	"github.com/abhisek/learnpath/internal/logger"
	"github.com/abhisek/learnpath/internal/store"
)

// Config holds course service connection settings.
type Config struct {
	BaseURL string
	// Timeout bounds a single request. Default: 15s.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local service.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 15 * time.Second,
	}
}

// New creates an HTTP client wrapped with request logging. Failed calls
// are never retried automatically.
func New(cfg Config, repo store.RequestLogRepo, log *logger.Logger) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	base := NewHTTPClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	return WithLogging(base, repo, log)
}
