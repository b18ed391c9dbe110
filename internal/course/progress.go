package course

import (
	"encoding/json"
	"strings"
	"time"
)

// ProgressRecord is the completion state of one lesson for the signed-in
// user. Completed only ever moves from false to true.
type ProgressRecord struct {
	LessonID  ID        `json:"lesson_id"`
	CourseID  ID        `json:"course_id,omitempty"`
	Completed bool      `json:"completed"`
	Score     *float64  `json:"score,omitempty"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Timestamp decodes the service's timestamps, which may omit the zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
