package quiz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/learnpath/internal/course"
)

// DefaultPassMark applies when the payload omits passMark.
const DefaultPassMark = 0.6

// Question is a single multiple-choice question.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explain     string   `json:"explain,omitempty"`
}

// Quiz is a parsed quiz payload. The zero value is the empty quiz.
type Quiz struct {
	Questions []Question
	PassMark  float64
}

// Empty reports whether the quiz has nothing to render. Empty is a normal
// state: callers show a placeholder instead of an error.
func (q Quiz) Empty() bool {
	return len(q.Questions) == 0
}

type payload struct {
	Questions []Question `json:"questions"`
	PassMark  *float64   `json:"passMark"`
}

// Parse decodes a quiz payload. Malformed JSON, a payload that fails
// validation, or zero questions all yield the empty quiz.
func Parse(raw string) Quiz {
	q, err := parse(raw)
	if err != nil {
		return Quiz{}
	}
	return q
}

// ParseStrict is Parse with the reason an input was rejected.
func ParseStrict(raw string) (Quiz, error) {
	return parse(raw)
}

func parse(raw string) (Quiz, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Quiz{}, fmt.Errorf("empty content")
	}
	if err := validatePayload([]byte(raw)); err != nil {
		return Quiz{}, err
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Quiz{}, fmt.Errorf("decode payload: %w", err)
	}
	if len(p.Questions) == 0 {
		return Quiz{}, fmt.Errorf("no questions")
	}
	for i, qu := range p.Questions {
		if qu.AnswerIndex >= len(qu.Options) {
			return Quiz{}, fmt.Errorf("question %d: answerIndex %d out of range", i, qu.AnswerIndex)
		}
	}

	passMark := DefaultPassMark
	if p.PassMark != nil {
		passMark = *p.PassMark
	}
	return Quiz{Questions: p.Questions, PassMark: passMark}, nil
}

// FromLesson parses a quiz lesson's content. Non-quiz lessons yield the
// empty quiz.
func FromLesson(l course.Lesson) Quiz {
	if l.Type != course.TypeQuiz {
		return Quiz{}
	}
	return Parse(l.Content)
}
