package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/learnpath/internal/course"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// HTTPClient talks to the course service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL. A nil httpClient uses
// http.DefaultClient.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// BaseURL returns the service root.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Register(ctx context.Context, email, password, fullName string) error {
	q := url.Values{}
	q.Set("email", email)
	q.Set("password", password)
	q.Set("full_name", fullName)
	return c.do(ctx, http.MethodPost, "/auth/register", q, false, nil)
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("password", password)

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", q, false, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &ErrInvalidResponse{Err: fmt.Errorf("login response has no access_token")}
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (c *HTTPClient) Me(ctx context.Context) (course.Identity, error) {
	var id course.Identity
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, true, &id)
	return id, err
}

func (c *HTTPClient) ListCourses(ctx context.Context) ([]course.Summary, error) {
	var out []course.Summary
	if err := c.do(ctx, http.MethodGet, "/courses", nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCourse(ctx context.Context, courseID course.ID) (course.Course, error) {
	var out course.Course
	err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(courseID.String()), nil, false, &out)
	return out, err
}

func (c *HTTPClient) GetLesson(ctx context.Context, lessonID course.ID) (course.Lesson, error) {
	var out course.Lesson
	err := c.do(ctx, http.MethodGet, "/lessons/"+url.PathEscape(lessonID.String()), nil, false, &out)
	return out, err
}

func (c *HTTPClient) NextRecommendation(ctx context.Context, courseID course.ID, mode string) (course.Recommendation, error) {
	q := url.Values{}
	q.Set("course_id", courseID.String())
	q.Set("mode", mode)

	var out course.Recommendation
	err := c.do(ctx, http.MethodGet, "/recommendation/next", q, true, &out)
	return out, err
}

func (c *HTTPClient) MarkCompleted(ctx context.Context, lessonID course.ID, score *float64) (course.ProgressRecord, error) {
	q := url.Values{}
	q.Set("lesson_id", lessonID.String())
	if score != nil {
		q.Set("score", strconv.FormatFloat(*score, 'f', -1, 64))
	}

	var out course.ProgressRecord
	if err := c.do(ctx, http.MethodPost, "/progress/complete", q, true, &out); err != nil {
		return course.ProgressRecord{}, err
	}
	if out.LessonID == "" {
		out.LessonID = lessonID
	}
	out.Completed = true
	if out.Score == nil {
		out.Score = score
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = course.Timestamp{Time: c.now().UTC()}
	}
	return out, nil
}

func (c *HTTPClient) MyProgress(ctx context.Context) ([]course.ProgressRecord, error) {
	var out []course.ProgressRecord
	if err := c.do(ctx, http.MethodGet, "/progress/me", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends a request and decodes a JSON response into respBody when it is
// non-nil. Authenticated requests carry the bearer token when one is set.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, auth bool, respBody any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	if auth {
		if token := c.Token(); token != "" {
			if TokenExpired(token, c.now()) {
				return &ErrAuth{Message: "session expired, sign in again"}
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ErrTransport{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &ErrTransport{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp.StatusCode, path, errorMessage(resp.StatusCode, body))
	}

	if respBody == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return &ErrInvalidResponse{Body: body, Err: err}
	}
	return nil
}

// errorMessage extracts the human-readable failure from an error body:
// the "detail" field (re-encoded when it is not a string), else the body
// itself, else a generic status line.
func errorMessage(status int, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 0 {
		var env struct {
			Detail json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 && string(env.Detail) != "null" {
			var s string
			if err := json.Unmarshal(env.Detail, &s); err == nil {
				if s != "" {
					return s
				}
			} else {
				return compactJSON(env.Detail)
			}
		}

		var s string
		if err := json.Unmarshal(body, &s); err == nil && s != "" {
			return s
		}
		if json.Valid(body) {
			return compactJSON(body)
		}
		return string(body)
	}
	return fmt.Sprintf("request failed: %d", status)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
